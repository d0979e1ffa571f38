package tui

import "github.com/covrig/covrig/internal/domain"

// Done is the terminal event of an asynchronous suite or pipeline run. It is
// delivered over the channel returned by StartSuiteRun / StartPipelineRun and
// doubles as the bubbletea message the UI consumes.
type Done struct {
	Report domain.RunReport
	ID     string
	Err    error
}
