package cienv

import (
	"github.com/kelseyhightower/envconfig"

	"github.com/covrig/covrig/internal/domain"
)

// Meta is the CI context covrig picks up from the process environment when a
// pipeline runs on a build machine.
type Meta struct {
	CI             bool   `envconfig:"CI"`
	Service        string `envconfig:"COVRIG_SERVICE_NAME" default:"covrig"`
	Branch         string `envconfig:"COVRIG_BRANCH"`
	JobID          string `envconfig:"COVRIG_JOB_ID"`
	Commit         string `envconfig:"COVRIG_COMMIT"`
	RepoToken      string `envconfig:"COVRIG_REPO_TOKEN"`
	RuntimeVersion string `envconfig:"COVRIG_RUNTIME_VERSION"`
}

func Load() (Meta, error) {
	var m Meta
	if err := envconfig.Process("", &m); err != nil {
		return Meta{}, err
	}
	return m, nil
}

// UploadMeta converts the CI context into the submission metadata shape. The
// repo token travels separately so it stays out of persisted reports.
func (m Meta) UploadMeta() domain.UploadMeta {
	return domain.UploadMeta{
		ServiceName: m.Service,
		Branch:      m.Branch,
		JobID:       m.JobID,
		Commit:      m.Commit,
	}
}
