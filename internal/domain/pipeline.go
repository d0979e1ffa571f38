package domain

import (
	"errors"
	"fmt"
	"strings"

	gvers "github.com/hashicorp/go-version"
)

// Phase identifies a pipeline stage.
type Phase string

const (
	PhaseSetup        Phase = "setup"
	PhaseInstall      Phase = "install"
	PhaseScript       Phase = "script"
	PhaseAfterSuccess Phase = "after_success"
)

// Pipeline describes a linear CI job: environment bootstrap, dependency
// installation, a single test command, and post-success steps. Setup and
// install halt on the first failing step; after_success runs only when all
// earlier phases passed.
type Pipeline struct {
	Name string

	Runtime RuntimeSpec

	// Env is exported into every step. Because steps run as separate
	// processes, this is the pipeline equivalent of activating an
	// environment once in a shared shell.
	Env Vars

	Setup   []Step
	Install []Step

	// Script is the single test-invocation command.
	Script Step

	AfterSuccess []Step
}

// RuntimeSpec selects the runtime version steering `when:` constraints.
// When Version is empty, the variable named by FromEnv is consulted.
type RuntimeSpec struct {
	Version string
	FromEnv string
}

// Step is one shell command in a pipeline phase.
type Step struct {
	Name string
	Run  string

	// When is an optional version constraint (e.g. ">= 3"). A step whose
	// constraint does not match the runtime version is skipped, not failed.
	When string

	Env        Vars
	TimeoutSec int
}

// PipelineRef is a lightweight reference to a pipeline file on disk.
type PipelineRef struct {
	Name string
	Path string
}

// Applies reports whether the step should run under the given runtime version.
func (s Step) Applies(runtimeVersion string) (bool, error) {
	w := strings.TrimSpace(s.When)
	if w == "" {
		return true, nil
	}

	rv := strings.TrimSpace(runtimeVersion)
	if rv == "" {
		return false, &Fault{
			Op:   "pipeline.when",
			Kind: FaultBadConfig,
			Err:  fmt.Errorf("step %q has constraint %q but no runtime version is set", s.Name, w),
		}
	}

	v, err := gvers.NewVersion(rv)
	if err != nil {
		return false, &Fault{
			Op:   "pipeline.when",
			Kind: FaultBadConfig,
			Err:  fmt.Errorf("runtime version %q: %w", rv, err),
		}
	}

	constraint, err := gvers.NewConstraint(w)
	if err != nil {
		return false, &Fault{
			Op:   "pipeline.when",
			Kind: FaultBadConfig,
			Err:  fmt.Errorf("step %q: constraint %q: %w", s.Name, w, err),
		}
	}

	return constraint.Check(v), nil
}

// ResolveRuntimeVersion returns the effective runtime version, consulting the
// selector variable via lookup when the descriptor leaves Version empty.
func (r RuntimeSpec) ResolveRuntimeVersion(lookup func(string) (string, bool)) string {
	if v := strings.TrimSpace(r.Version); v != "" {
		return v
	}
	if r.FromEnv == "" || lookup == nil {
		return ""
	}
	v, ok := lookup(r.FromEnv)
	if !ok {
		return ""
	}
	return strings.TrimSpace(v)
}

// Steps returns the halt-on-failure phases in execution order.
func (p Pipeline) Steps() []PhaseSteps {
	return []PhaseSteps{
		{Phase: PhaseSetup, Steps: p.Setup},
		{Phase: PhaseInstall, Steps: p.Install},
		{Phase: PhaseScript, Steps: []Step{p.Script}},
	}
}

// PhaseSteps pairs a phase with its ordered steps.
type PhaseSteps struct {
	Phase Phase
	Steps []Step
}

// Validate checks the structural invariants a loader cannot express in YAML
// tags alone.
func (p Pipeline) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return &Fault{
			Op:   "pipeline.validate",
			Kind: FaultBadConfig,
			Err:  errors.New("pipeline name is required"),
		}
	}
	if strings.TrimSpace(p.Script.Run) == "" {
		return &Fault{
			Op:   "pipeline.validate",
			Kind: FaultBadConfig,
			Err:  errors.New("script command is required"),
		}
	}
	return nil
}
