package usecase

import (
	"context"

	"github.com/covrig/covrig/internal/domain"
	"github.com/covrig/covrig/internal/ports"
)

// UploadReport submits a saved run report to the coverage-report service.
type UploadReport struct {
	reports  ports.ReportReader
	uploader ports.ReportUploader
}

func NewUploadReport(rr ports.ReportReader, up ports.ReportUploader) *UploadReport {
	return &UploadReport{reports: rr, uploader: up}
}

// Execute uploads the report identified by idOrPath, or the most recent one
// when idOrPath is empty. The token travels only in the submission payload.
func (uc *UploadReport) Execute(ctx context.Context, idOrPath string, meta domain.UploadMeta, token string) (domain.UploadResult, error) {
	var (
		report domain.RunReport
		err    error
	)
	if idOrPath == "" {
		report, _, err = uc.reports.LatestReport()
	} else {
		report, _, err = uc.reports.LoadReport(idOrPath)
	}
	if err != nil {
		return domain.UploadResult{}, err
	}

	return uc.uploader.Upload(ctx, domain.UploadSubmission{
		Token:  token,
		Meta:   meta,
		Report: report,
	})
}
