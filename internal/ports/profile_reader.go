package ports

import "github.com/covrig/covrig/internal/domain"

// ProfileReader parses a coverage profile into a per-file summary.
type ProfileReader interface {
	ReadProfile(path string) (domain.CoverageSummary, error)
}
