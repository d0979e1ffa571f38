package ports

import "github.com/covrig/covrig/internal/domain"

// ReportReader loads persisted run reports back from the artifact store.
type ReportReader interface {
	// LoadReport accepts a run id or a file path.
	LoadReport(idOrPath string) (domain.RunReport, string, error)

	// LatestReport returns the most recently saved report.
	LatestReport() (domain.RunReport, string, error)
}
