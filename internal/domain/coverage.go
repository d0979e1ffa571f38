package domain

// FileCoverage is the per-file statement tally from a parsed cover profile.
type FileCoverage struct {
	Name    string  `json:"name"`
	Covered int64   `json:"covered"`
	Total   int64   `json:"total"`
	Percent float64 `json:"percent"`
}

// CoverageSummary aggregates a cover profile into the document gates and
// extracts operate on. JSON tags define that document's shape.
type CoverageSummary struct {
	Mode    string         `json:"mode"`
	Files   []FileCoverage `json:"files"`
	Covered int64          `json:"covered"`
	Total   int64          `json:"total"`
	Percent float64        `json:"percent"`
}

// Ratio computes a percentage, returning 0 for an empty denominator.
func Ratio(covered, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(covered) / float64(total) * 100
}
