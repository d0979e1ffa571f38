package ports

import "github.com/covrig/covrig/internal/domain"

// ReportWriter persists finished run reports.
type ReportWriter interface {
	SaveReport(report domain.RunReport) (id string, err error)
}
