package domain

import (
	"context"
	"errors"
	"time"
)

// RunKind tells suite reports apart from pipeline reports.
type RunKind string

const (
	RunKindSuite    RunKind = "suite"
	RunKindPipeline RunKind = "pipeline"
)

// RunStatus is the overall outcome of a run.
type RunStatus string

const (
	RunPassed RunStatus = "passed"
	RunFailed RunStatus = "failed"
)

// StepStatus is the outcome of a single step or target.
type StepStatus string

const (
	StepPassed  StepStatus = "passed"
	StepFailed  StepStatus = "failed"
	StepSkipped StepStatus = "skipped"
)

// RunFaultKind is a high-level classification of runtime errors.
type RunFaultKind string

const (
	RunFaultUnknown   RunFaultKind = "unknown"
	RunFaultTimeout   RunFaultKind = "timeout"
	RunFaultCancelled RunFaultKind = "cancelled"
	RunFaultStart     RunFaultKind = "start"
	RunFaultExit      RunFaultKind = "exit"
)

// RunFault represents a structured error produced by a runner.
type RunFault struct {
	Kind    RunFaultKind `json:"kind"`
	Message string       `json:"message"`
}

// NewRunFault classifies an execution error for reports.
func NewRunFault(err error) *RunFault {
	if err == nil {
		return nil
	}
	kind := RunFaultUnknown
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		kind = RunFaultTimeout
	case errors.Is(err, context.Canceled):
		kind = RunFaultCancelled
	case HasKind(err, FaultExec):
		kind = RunFaultStart
	}
	return &RunFault{Kind: kind, Message: err.Error()}
}

// TargetResult is the outcome of one coverage-tool invocation against one
// script file.
type TargetResult struct {
	Target     string    `json:"target"`
	ExitCode   int       `json:"exit_code"`
	DurationMS int64     `json:"duration_ms"`
	Output     string    `json:"output,omitempty"`
	Truncated  bool      `json:"truncated,omitempty"`
	Error      *RunFault `json:"error,omitempty"`
}

// Failed reports whether this target counts against the run.
func (t TargetResult) Failed() bool {
	return t.Error != nil || t.ExitCode != 0
}

// StepResult is the outcome of one pipeline step.
type StepResult struct {
	Name       string     `json:"name"`
	Phase      Phase      `json:"phase"`
	Command    string     `json:"command"`
	Status     StepStatus `json:"status"`
	SkipReason string     `json:"skip_reason,omitempty"`
	ExitCode   int        `json:"exit_code"`
	DurationMS int64      `json:"duration_ms"`
	Output     string     `json:"output,omitempty"`
	Truncated  bool       `json:"truncated,omitempty"`
	Error      *RunFault  `json:"error,omitempty"`
}

// GateResult is the output of a single gate check.
type GateResult struct {
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// ExtractRecord reports one extraction rule's outcome.
type ExtractRecord struct {
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// RunReport is the persisted artifact of one suite or pipeline run. It is
// also the document uploaded to the coverage-report service.
type RunReport struct {
	Kind RunKind `json:"kind"`
	Name string  `json:"name"`
	Path string  `json:"path,omitempty"`

	EnvName        string `json:"environment,omitempty"`
	RuntimeVersion string `json:"runtime_version,omitempty"`

	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`

	Status RunStatus `json:"status"`

	Targets []TargetResult `json:"targets,omitempty"`
	Steps   []StepResult   `json:"steps,omitempty"`

	Summary   *CoverageSummary `json:"summary,omitempty"`
	Gates     []GateResult     `json:"gates,omitempty"`
	Extracts  []ExtractRecord  `json:"extracts,omitempty"`
	Extracted Vars             `json:"extracted,omitempty"`

	// EnvVars snapshots the resolved variable set for reproducibility.
	// Sensitive values are masked by the artifact store.
	EnvVars Vars `json:"env_vars,omitempty"`
}

// Finalize stamps the end time and folds the overall status from the
// recorded results.
func (r *RunReport) Finalize(now time.Time) {
	r.EndedAt = now
	r.Status = RunPassed

	for _, t := range r.Targets {
		if t.Failed() {
			r.Status = RunFailed
			return
		}
	}
	for _, s := range r.Steps {
		// after_success outcomes never change the build result.
		if s.Phase == PhaseAfterSuccess {
			continue
		}
		if s.Status == StepFailed {
			r.Status = RunFailed
			return
		}
	}
	for _, g := range r.Gates {
		if !g.Passed {
			r.Status = RunFailed
			return
		}
	}
}

// FailedTargets counts targets that failed.
func (r RunReport) FailedTargets() int {
	n := 0
	for _, t := range r.Targets {
		if t.Failed() {
			n++
		}
	}
	return n
}

// DurationMS is the wall-clock length of the run.
func (r RunReport) DurationMS() int64 {
	if r.StartedAt.IsZero() || r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt).Milliseconds()
}
