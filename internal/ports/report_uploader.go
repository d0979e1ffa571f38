package ports

import (
	"context"

	"github.com/covrig/covrig/internal/domain"
)

// ReportUploader submits a finished run report to an external coverage service.
type ReportUploader interface {
	Upload(ctx context.Context, sub domain.UploadSubmission) (domain.UploadResult, error)
}
