package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/covrig/covrig/internal/domain"
	"github.com/covrig/covrig/internal/ports"
	ucextract "github.com/covrig/covrig/internal/usecase/extract"
	ucgates "github.com/covrig/covrig/internal/usecase/gates"
)

// RunSuite drives one coverage suite: scan targets, optionally erase
// accumulated data, invoke the tool once per target, render the HTML report
// and evaluate gates over the parsed profile.
type RunSuite struct {
	root     string
	suites   ports.SuiteLoader
	envSrc   ports.EnvironmentSource
	scanner  ports.TargetScanner
	runner   ports.CommandRunner
	profiles ports.ProfileReader
	store    ports.ReportWriter
	interp   *domain.Interpolator
	parallel int
}

type RunSuiteOption func(*RunSuite)

func WithSuiteInterp(ip *domain.Interpolator) RunSuiteOption {
	return func(uc *RunSuite) {
		if ip != nil {
			uc.interp = ip
		}
	}
}

// WithParallel bounds concurrent target invocations. Values below 2 keep the
// loop sequential. Accumulating tools usually require sequential runs.
func WithParallel(n int) RunSuiteOption {
	return func(uc *RunSuite) {
		if n > 1 {
			uc.parallel = n
		}
	}
}

func NewRunSuite(
	root string,
	sl ports.SuiteLoader,
	el ports.EnvironmentSource,
	sc ports.TargetScanner,
	cr ports.CommandRunner,
	pr ports.ProfileReader,
	st ports.ReportWriter,
	opts ...RunSuiteOption,
) *RunSuite {
	uc := &RunSuite{
		root:     root,
		suites:   sl,
		envSrc:   el,
		scanner:  sc,
		runner:   cr,
		profiles: pr,
		store:    st,
		interp:   domain.NewInterpolator(),
		parallel: 1,
	}
	for _, o := range opts {
		o(uc)
	}
	return uc
}

// Execute runs a suite against an environment. Per-target failures are
// recorded and the loop continues; erase or HTML render failures abort.
// The returned id is empty when no store is configured or saving failed.
func (uc *RunSuite) Execute(ctx context.Context, suitePath string, envSel string) (domain.RunReport, string, error) {
	suite, err := uc.suites.LoadSuite(suitePath)
	if err != nil {
		return domain.RunReport{}, "", err
	}

	env, err := uc.envSrc.LoadEnvironment(envSel)
	if err != nil {
		return domain.RunReport{}, "", err
	}

	// suite vars < env vars (secrets already merged by the loader)
	vars := domain.Merge(suite.Vars, env.Vars)

	sc, err := uc.interp.NewScope(vars)
	if err != nil {
		return domain.RunReport{}, "", err
	}

	resolved, err := sc.ResolveSuite(suite)
	if err != nil {
		return domain.RunReport{}, "", err
	}

	began := time.Now()
	report := domain.RunReport{
		Kind:      domain.RunKindSuite,
		Name:      suite.Name,
		Path:      suitePath,
		EnvName:   env.Name,
		StartedAt: began,
		EnvVars:   vars,
	}

	targets, err := uc.scanTargets(resolved)
	if err != nil {
		return report, "", err
	}

	if argv := resolved.Tool.EraseArgv(); argv != nil {
		if err := uc.runToolStep(ctx, "suite.erase", resolved, argv); err != nil {
			return report, "", err
		}
	}

	if err := uc.runTargets(ctx, resolved, targets, &report); err != nil {
		report.Finalize(time.Now())
		return report, "", err
	}

	if argv := resolved.Tool.HTMLArgv(); argv != nil {
		if err := uc.runToolStep(ctx, "suite.html", resolved, argv); err != nil {
			report.Finalize(time.Now())
			return report, "", err
		}
	}

	if resolved.Tool.Profile != "" {
		summary, err := uc.readSummary(resolved.Tool.Profile)
		if err != nil {
			report.Finalize(time.Now())
			return report, "", err
		}
		report.Summary = &summary

		if len(resolved.Gates) > 0 {
			report.Gates = ucgates.Evaluate(summary, resolved.Gates)
		}
		if len(resolved.Extract) > 0 {
			extracted, results := ucextract.Apply(summary, resolved.Extract)
			report.Extracts = results
			report.Extracted = extracted
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

// scanTargets resolves the suite directory against the workspace root and
// returns root-relative target paths in deterministic order.
func (uc *RunSuite) scanTargets(s domain.Suite) ([]string, error) {
	dir := s.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(uc.root, dir)
	}

	found, err := uc.scanner.Scan(dir, s.Pattern, s.Exclude)
	if err != nil {
		return nil, err
	}

	rels := make([]string, 0, len(found))
	for _, t := range found {
		if rel, relErr := filepath.Rel(uc.root, t); relErr == nil && !strings.HasPrefix(rel, "..") {
			rels = append(rels, rel)
			continue
		}
		rels = append(rels, t)
	}
	return rels, nil
}

func (uc *RunSuite) runTargets(ctx context.Context, s domain.Suite, targets []string, report *domain.RunReport) error {
	if uc.parallel > 1 {
		return uc.runTargetsParallel(ctx, s, targets, report)
	}

	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		report.Targets = append(report.Targets, uc.runTarget(ctx, s, target))
	}
	return nil
}

func (uc *RunSuite) runTargetsParallel(ctx context.Context, s domain.Suite, targets []string, report *domain.RunReport) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.parallel)

	results := make([]domain.TargetResult, len(targets))
	for i, target := range targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = uc.runTarget(gctx, s, target)
			return nil
		})
	}

	err := g.Wait()
	for _, r := range results {
		if r.Target != "" {
			report.Targets = append(report.Targets, r)
		}
	}
	return err
}

// runTarget never returns an error: failures become part of the result so the
// loop can continue over the remaining scripts.
func (uc *RunSuite) runTarget(ctx context.Context, s domain.Suite, target string) domain.TargetResult {
	res, err := uc.runner.Run(ctx, domain.Command{
		Argv:    s.Tool.RunArgv(target),
		Dir:     uc.root,
		Timeout: time.Duration(s.Tool.TimeoutSec) * time.Second,
	})

	tr := domain.TargetResult{
		Target:     target,
		ExitCode:   res.ExitCode,
		DurationMS: res.Duration.Milliseconds(),
		Output:     string(res.Output),
		Truncated:  res.Truncated,
	}
	if err != nil {
		tr.Error = domain.NewRunFault(err)
	}
	return tr
}

// runToolStep runs a single whole-suite tool invocation (erase, html render).
// Any failure, including a non-zero exit, is an error.
func (uc *RunSuite) runToolStep(ctx context.Context, op string, s domain.Suite, argv []string) error {
	res, err := uc.runner.Run(ctx, domain.Command{
		Argv:    argv,
		Dir:     uc.root,
		Timeout: time.Duration(s.Tool.TimeoutSec) * time.Second,
	})
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		return &domain.Fault{
			Op:   op,
			Kind: domain.FaultExec,
			Err:  fmt.Errorf("%q exited with code %d", strings.Join(argv, " "), res.ExitCode),
		}
	}
	return nil
}

func (uc *RunSuite) readSummary(profile string) (domain.CoverageSummary, error) {
	path := profile
	if !filepath.IsAbs(path) {
		path = filepath.Join(uc.root, path)
	}
	return uc.profiles.ReadProfile(path)
}
