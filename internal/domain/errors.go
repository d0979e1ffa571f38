package domain

import "errors"

// Sentinels usable with errors.Is across package boundaries.
var (
	ErrNotFound      = errors.New("does not exist")
	ErrInvalidConfig = errors.New("config is invalid")
	ErrMissingVar    = errors.New("variable is not defined")
	ErrExecution     = errors.New("execution failed")
	ErrGateFailed    = errors.New("gate failed")
	ErrUploadFailed  = errors.New("upload failed")
)

// FaultKind is a coarse-grained categorization for errors. The CLI and TUI
// map kinds to user-facing messages without inspecting infra internals.
type FaultKind string

const (
	// Definition problems: the workspace, file, or variable is wrong.
	FaultNotFound   FaultKind = "not_found"
	FaultBadConfig  FaultKind = "invalid_config"
	FaultMissingVar FaultKind = "missing_variable"

	// Run outcomes.
	FaultExec   FaultKind = "execution"
	FaultGate   FaultKind = "gate_failed"
	FaultUpload FaultKind = "upload"
)

// Fault is the error type infra adapters return: the failing operation, a
// kind, and the wrapped cause. Op follows the package.verb convention
// (e.g. "suiteyaml.load").
type Fault struct {
	Op   string
	Kind FaultKind
	Path string // Optional: relevant file path or target
	Err  error
}

func (f *Fault) Error() string {
	if f == nil {
		return "<nil>"
	}

	msg := f.Op + ": " + string(f.Kind)
	if f.Path != "" {
		msg += " (path=" + f.Path + ")"
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Fault) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Err
}

// HasKind reports whether err carries the given kind anywhere in its chain.
func HasKind(err error, kind FaultKind) bool {
	var fe *Fault
	return errors.As(err, &fe) && fe.Kind == kind
}
