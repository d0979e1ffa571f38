package usecase

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/covrig/covrig/internal/domain"
	"github.com/covrig/covrig/internal/ports"
)

// RunPipeline drives one CI pipeline: setup, install and script phases halt on
// the first failing step; after_success runs only when everything before it
// passed and its own failures never change the build result.
type RunPipeline struct {
	root      string
	pipelines ports.PipelineLoader
	envSrc    ports.EnvironmentSource
	runner    ports.CommandRunner
	store     ports.ReportWriter
	interp    *domain.Interpolator
	lookupEnv func(string) (string, bool)
}

type RunPipelineOption func(*RunPipeline)

func WithPipelineInterp(ip *domain.Interpolator) RunPipelineOption {
	return func(uc *RunPipeline) {
		if ip != nil {
			uc.interp = ip
		}
	}
}

// WithEnvLookup overrides how the runtime-version selector variable is read
// (useful for tests).
func WithEnvLookup(lookup func(string) (string, bool)) RunPipelineOption {
	return func(uc *RunPipeline) {
		if lookup != nil {
			uc.lookupEnv = lookup
		}
	}
}

func NewRunPipeline(
	root string,
	pl ports.PipelineLoader,
	el ports.EnvironmentSource,
	cr ports.CommandRunner,
	st ports.ReportWriter,
	opts ...RunPipelineOption,
) *RunPipeline {
	uc := &RunPipeline{
		root:      root,
		pipelines: pl,
		envSrc:    el,
		runner:    cr,
		store:     st,
		interp:    domain.NewInterpolator(),
		lookupEnv: os.LookupEnv,
	}
	for _, o := range opts {
		o(uc)
	}
	return uc
}

// Execute runs a pipeline against an environment. The returned id is empty
// when no store is configured or saving failed.
func (uc *RunPipeline) Execute(ctx context.Context, pipelinePath string, envSel string) (domain.RunReport, string, error) {
	p, err := uc.pipelines.LoadPipeline(pipelinePath)
	if err != nil {
		return domain.RunReport{}, "", err
	}

	env, err := uc.envSrc.LoadEnvironment(envSel)
	if err != nil {
		return domain.RunReport{}, "", err
	}

	sc, err := uc.interp.NewScope(env.Vars)
	if err != nil {
		return domain.RunReport{}, "", err
	}

	// The pipeline env block is the process environment shared by every step,
	// resolved once so {{var}} values from the environment file apply.
	pipelineEnv, err := sc.ResolveVars(p.Env)
	if err != nil {
		return domain.RunReport{}, "", err
	}

	version := p.Runtime.ResolveRuntimeVersion(uc.lookupEnv)

	began := time.Now()
	report := domain.RunReport{
		Kind:           domain.RunKindPipeline,
		Name:           p.Name,
		Path:           pipelinePath,
		EnvName:        env.Name,
		RuntimeVersion: version,
		StartedAt:      began,
		EnvVars:        env.Vars,
	}

	halted := false
	for _, phase := range p.Steps() {
		if halted {
			break
		}
		for _, step := range phase.Steps {
			if err := ctx.Err(); err != nil {
				report.Finalize(time.Now())
				return report, "", err
			}

			sr := uc.runStep(ctx, sc, phase.Phase, step, version, pipelineEnv)
			report.Steps = append(report.Steps, sr)
			if sr.Status == domain.StepFailed {
				halted = true
				break
			}
		}
	}

	if !halted {
		for _, step := range p.AfterSuccess {
			if err := ctx.Err(); err != nil {
				report.Finalize(time.Now())
				return report, "", err
			}
			// after_success failures are recorded but never halt.
			report.Steps = append(report.Steps, uc.runStep(ctx, sc, domain.PhaseAfterSuccess, step, version, pipelineEnv))
		}
	}

	report.Finalize(time.Now())

	id := ""
	if uc.store != nil {
		id, err = uc.store.SaveReport(report)
		if err != nil {
			return report, "", err
		}
	}

	return report, id, nil
}

func (uc *RunPipeline) runStep(ctx context.Context, sc *domain.RunScope, phase domain.Phase, step domain.Step, version string, pipelineEnv domain.Vars) domain.StepResult {
	sr := domain.StepResult{
		Name:    step.Name,
		Phase:   phase,
		Command: step.Run,
	}

	applies, err := step.Applies(version)
	if err != nil {
		sr.Status = domain.StepFailed
		sr.Error = domain.NewRunFault(err)
		return sr
	}
	if !applies {
		sr.Status = domain.StepSkipped
		sr.SkipReason = fmt.Sprintf("when %q does not match runtime %q", step.When, version)
		return sr
	}

	resolved, err := sc.ResolveStep(step)
	if err != nil {
		sr.Status = domain.StepFailed
		sr.Error = domain.NewRunFault(err)
		return sr
	}
	sr.Command = resolved.Run

	res, err := uc.runner.Run(ctx, domain.Command{
		Shell:   resolved.Run,
		Dir:     uc.root,
		Env:     domain.Environ(domain.Merge(pipelineEnv, resolved.Env)),
		Timeout: time.Duration(step.TimeoutSec) * time.Second,
	})

	sr.ExitCode = res.ExitCode
	sr.DurationMS = res.Duration.Milliseconds()
	sr.Output = string(res.Output)
	sr.Truncated = res.Truncated

	switch {
	case err != nil:
		sr.Status = domain.StepFailed
		sr.Error = domain.NewRunFault(err)
	case res.ExitCode != 0:
		sr.Status = domain.StepFailed
	default:
		sr.Status = domain.StepPassed
	}
	return sr
}
