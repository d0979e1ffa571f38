package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"

	"github.com/covrig/covrig/internal/domain"
	"github.com/covrig/covrig/internal/ports"
)

// ValidateFile statically checks a suite or pipeline file against an
// environment without invoking any external tool. All detected problems are
// reported at once, not just the first.
type ValidateFile struct {
	suites    ports.SuiteLoader
	pipelines ports.PipelineLoader
	envSrc    ports.EnvironmentSource
	interp    *domain.Interpolator
	lookupEnv func(string) (string, bool)
}

type ValidateOption func(*ValidateFile)

func WithInterp(ip *domain.Interpolator) ValidateOption {
	return func(uc *ValidateFile) {
		if ip != nil {
			uc.interp = ip
		}
	}
}

// WithValidateEnvLookup overrides how the runtime-version selector variable is
// read (useful for tests).
func WithValidateEnvLookup(lookup func(string) (string, bool)) ValidateOption {
	return func(uc *ValidateFile) {
		if lookup != nil {
			uc.lookupEnv = lookup
		}
	}
}

func NewValidateFile(sl ports.SuiteLoader, pl ports.PipelineLoader, el ports.EnvironmentSource, opts ...ValidateOption) *ValidateFile {
	uc := &ValidateFile{
		suites:    sl,
		pipelines: pl,
		envSrc:    el,
		interp:    domain.NewInterpolator(),
		lookupEnv: os.LookupEnv,
	}
	for _, o := range opts {
		o(uc)
	}
	return uc
}

// Execute sniffs the file kind by attempting the suite loader first and the
// pipeline loader second. A file that loads as neither reports both failures.
func (uc *ValidateFile) Execute(ctx context.Context, path string, envSel string) error {
	env, err := uc.envSrc.LoadEnvironment(envSel)
	if err != nil {
		return err
	}

	suite, suiteErr := uc.suites.LoadSuite(path)
	if suiteErr == nil {
		return uc.validateSuite(ctx, suite, env)
	}
	if domain.HasKind(suiteErr, domain.FaultNotFound) {
		return suiteErr
	}

	p, pipeErr := uc.pipelines.LoadPipeline(path)
	if pipeErr == nil {
		return uc.validatePipeline(ctx, p, env)
	}

	var errs *multierror.Error
	errs = multierror.Append(errs, fmt.Errorf("not a valid suite: %w", suiteErr))
	errs = multierror.Append(errs, fmt.Errorf("not a valid pipeline: %w", pipeErr))
	return errs.ErrorOrNil()
}

func (uc *ValidateFile) validateSuite(ctx context.Context, suite domain.Suite, env domain.Environment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var errs *multierror.Error

	vars := domain.Merge(suite.Vars, env.Vars)
	sc, err := uc.interp.NewScope(vars)
	if err != nil {
		return err
	}

	resolved, err := sc.ResolveSuite(suite)
	if err != nil {
		errs = multierror.Append(errs, err)
		resolved = suite
	}

	if resolved.Pattern != "" {
		if _, err := filepath.Match(resolved.Pattern, "probe"); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("pattern %q: %w", resolved.Pattern, err))
		}
	}

	if len(resolved.Gates) > 0 && resolved.Tool.Profile == "" {
		errs = multierror.Append(errs, fmt.Errorf("gates are configured but tool.profile is not set; gates need a parsed summary"))
	}
	if len(resolved.Extract) > 0 && resolved.Tool.Profile == "" {
		errs = multierror.Append(errs, fmt.Errorf("extract rules are configured but tool.profile is not set"))
	}

	return errs.ErrorOrNil()
}

func (uc *ValidateFile) validatePipeline(ctx context.Context, p domain.Pipeline, env domain.Environment) error {
	var errs *multierror.Error

	sc, err := uc.interp.NewScope(env.Vars)
	if err != nil {
		return err
	}

	if _, err := sc.ResolveVars(p.Env); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("pipeline env: %w", err))
	}

	version := p.Runtime.ResolveRuntimeVersion(uc.lookupEnv)

	phases := p.Steps()
	phases = append(phases, domain.PhaseSteps{Phase: domain.PhaseAfterSuccess, Steps: p.AfterSuccess})

	for _, phase := range phases {
		for _, step := range phase.Steps {
			if err := ctx.Err(); err != nil {
				return err
			}

			if _, err := step.Applies(version); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s step %q: %w", phase.Phase, step.Name, err))
			}
			if _, err := sc.ResolveStep(step); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s step %q: %w", phase.Phase, step.Name, err))
			}
		}
	}

	return errs.ErrorOrNil()
}
