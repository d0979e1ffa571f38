package domain

// Suite describes one coverage driver run: which scripts to discover and how to
// invoke the external coverage tool against each of them.
type Suite struct {
	Name string

	// Dir is the directory scanned for targets, relative to the workspace root.
	Dir string

	// Pattern is the filename glob matched inside Dir (e.g. "*.py").
	Pattern string

	// Exclude lists base names that are skipped even when they match Pattern.
	Exclude []string

	Tool ToolSpec

	// Gates are JSONPath checks evaluated against the coverage summary document.
	Gates map[string]GateCheck

	// Extract pulls values out of the summary document into report vars.
	// Map: variableName -> jsonpathExpression
	Extract ExtractSpec

	// Vars are default variables available to placeholder resolution.
	// These can be overridden by environment vars and secrets.
	Vars Vars
}

// ToolSpec describes the external coverage tool invocation shape.
// The zero value is completed by loaders with the conventional
// `coverage run -a --source=<pkg> <target>` layout.
type ToolSpec struct {
	// Command is the tool executable (argv[0]).
	Command string

	// RunArgs is the subcommand and fixed flags for per-target runs.
	RunArgs []string

	// Accumulate is the flag that makes successive runs additive. It is
	// passed on every per-target invocation.
	Accumulate string

	// SourceFlag + Source form the fixed source-package argument
	// (rendered as SourceFlag=Source).
	SourceFlag string
	Source     string

	// ExtraArgs are appended before the target path.
	ExtraArgs []string

	// EraseArgs, when set, is invoked once before the loop to reset
	// previously accumulated data.
	EraseArgs []string

	// HTMLArgs, when set, is invoked once after the loop so the tool renders
	// its HTML report directory.
	HTMLArgs []string

	// Profile is an optional Go-format cover profile produced by the run;
	// when set it is parsed into a CoverageSummary.
	Profile string

	// TimeoutSec bounds each invocation. Zero means the workspace default.
	TimeoutSec int
}

// GateCheck defines a JSONPath-based check against the summary document.
type GateCheck struct {
	Exists bool
	Min    *float64
	Max    *float64
	Eq     *string
}

// ExtractSpec defines variable extraction from the summary document.
// Map: variableName -> jsonpathExpression
type ExtractSpec map[string]string

// SuiteRef is a lightweight reference to a suite file on disk.
type SuiteRef struct {
	Name string
	Path string
}

// RunArgv builds the argv for one target invocation. The accumulate flag and
// the source argument are always present.
func (t ToolSpec) RunArgv(target string) []string {
	argv := make([]string, 0, len(t.RunArgs)+len(t.ExtraArgs)+4)
	argv = append(argv, t.Command)
	argv = append(argv, t.RunArgs...)
	if t.Accumulate != "" {
		argv = append(argv, t.Accumulate)
	}
	if t.SourceFlag != "" && t.Source != "" {
		argv = append(argv, t.SourceFlag+"="+t.Source)
	}
	argv = append(argv, t.ExtraArgs...)
	argv = append(argv, target)
	return argv
}

// EraseArgv builds the optional pre-loop reset invocation. Nil when disabled.
func (t ToolSpec) EraseArgv() []string {
	if len(t.EraseArgs) == 0 {
		return nil
	}
	argv := make([]string, 0, len(t.EraseArgs)+1)
	argv = append(argv, t.Command)
	argv = append(argv, t.EraseArgs...)
	return argv
}

// HTMLArgv builds the optional post-loop report invocation. Nil when disabled.
func (t ToolSpec) HTMLArgv() []string {
	if len(t.HTMLArgs) == 0 {
		return nil
	}
	argv := make([]string, 0, len(t.HTMLArgs)+1)
	argv = append(argv, t.Command)
	argv = append(argv, t.HTMLArgs...)
	return argv
}

// Excluded reports whether the given base name is on the skip list.
func (s Suite) Excluded(base string) bool {
	for _, e := range s.Exclude {
		if e == base {
			return true
		}
	}
	return false
}
