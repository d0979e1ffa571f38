package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/covrig/covrig/internal/domain"
	"github.com/covrig/covrig/internal/ports"
)

// --- fakes shared across the usecase tests ---

type fakeSuiteLoader struct {
	suite domain.Suite
	err   error
}

func (f fakeSuiteLoader) LoadSuite(_ string) (domain.Suite, error) {
	return f.suite, f.err
}
func (f fakeSuiteLoader) ListSuites(_ string) ([]domain.SuiteRef, error) {
	return nil, nil
}

type fakePipelineLoader struct {
	pipeline domain.Pipeline
	err      error
}

func (f fakePipelineLoader) LoadPipeline(_ string) (domain.Pipeline, error) {
	return f.pipeline, f.err
}
func (f fakePipelineLoader) ListPipelines(_ string) ([]domain.PipelineRef, error) {
	return nil, nil
}

type stubEnvs struct {
	out domain.Environment
	err error
}

func (s stubEnvs) LoadEnvironment(_ string) (domain.Environment, error) {
	return s.out, s.err
}

type fakeScanner struct {
	targets []string
	err     error

	dirSeen     string
	patternSeen string
	excludeSeen []string
}

func (s *fakeScanner) Scan(dir, pattern string, exclude []string) ([]string, error) {
	s.dirSeen = dir
	s.patternSeen = pattern
	s.excludeSeen = exclude
	return s.targets, s.err
}

// scriptedRunner records every command and replays per-call results/errors.
// Calls past the scripted lists return a zero result (exit 0).
type scriptedRunner struct {
	mu       sync.Mutex
	commands []domain.Command
	results  []domain.CommandResult
	errs     []error
	idx      int
}

func (r *scriptedRunner) Run(_ context.Context, cmd domain.Command) (domain.CommandResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.commands = append(r.commands, cmd)
	i := r.idx
	r.idx++

	var res domain.CommandResult
	var err error
	if i < len(r.results) {
		res = r.results[i]
	}
	if i < len(r.errs) {
		err = r.errs[i]
	}
	return res, err
}

func (r *scriptedRunner) calls() []domain.Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// cancelAfterRunner cancels the given context after N calls.
type cancelAfterRunner struct {
	cancel context.CancelFunc
	after  int
	called int
}

func (r *cancelAfterRunner) Run(_ context.Context, _ domain.Command) (domain.CommandResult, error) {
	r.called++
	if r.called == r.after {
		r.cancel()
	}
	return domain.CommandResult{}, nil
}

type fakeProfiles struct {
	summary  domain.CoverageSummary
	err      error
	pathSeen string
}

func (f *fakeProfiles) ReadProfile(path string) (domain.CoverageSummary, error) {
	f.pathSeen = path
	return f.summary, f.err
}

type memStore struct {
	saved bool
	last  domain.RunReport
}

func (s *memStore) SaveReport(report domain.RunReport) (string, error) {
	s.saved = true
	s.last = report
	return "run-9", nil
}

type failStore struct{ err error }

func (s *failStore) SaveReport(_ domain.RunReport) (string, error) { return "", s.err }

// --- fixtures ---

func coverageSuite() domain.Suite {
	return domain.Suite{
		Name:    "coverage",
		Dir:     "tests",
		Pattern: "*.py",
		Exclude: []string{"conftest.py"},
		Tool: domain.ToolSpec{
			Command:    "coverage",
			RunArgs:    []string{"run"},
			Accumulate: "-a",
			SourceFlag: "--source",
			Source:     "photolab",
		},
	}
}

func newSuiteUC(suite domain.Suite, env domain.Environment, sc *fakeScanner, cr ports.CommandRunner, pr ports.ProfileReader, st ports.ReportWriter, opts ...RunSuiteOption) *RunSuite {
	return NewRunSuite("/ws",
		fakeSuiteLoader{suite: suite},
		stubEnvs{out: env},
		sc, cr, pr, st,
		opts...,
	)
}

// --- RunSuite.Execute ---

func TestRunSuite_Execute_InvokesToolPerTarget(t *testing.T) {
	sc := &fakeScanner{targets: []string{"/ws/tests/test_a.py", "/ws/tests/test_b.py"}}
	runner := &scriptedRunner{}
	store := &memStore{}

	uc := newSuiteUC(coverageSuite(), domain.Environment{Name: "local"}, sc, runner, &fakeProfiles{}, store)

	report, id, err := uc.Execute(context.Background(), "suites/coverage.yaml", "local")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if id != "run-9" || !store.saved {
		t.Fatalf("expected stored run, got id=%q saved=%v", id, store.saved)
	}

	calls := runner.calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 tool invocations, got %d", len(calls))
	}
	want := []string{"coverage", "run", "-a", "--source=photolab", "tests/test_a.py"}
	if strings.Join(calls[0].Argv, " ") != strings.Join(want, " ") {
		t.Fatalf("unexpected argv: %v", calls[0].Argv)
	}
	if calls[0].Dir != "/ws" {
		t.Fatalf("expected invocation from workspace root, got %q", calls[0].Dir)
	}

	if sc.dirSeen != "/ws/tests" || sc.patternSeen != "*.py" {
		t.Fatalf("unexpected scan: dir=%q pattern=%q", sc.dirSeen, sc.patternSeen)
	}
	if len(sc.excludeSeen) != 1 || sc.excludeSeen[0] != "conftest.py" {
		t.Fatalf("expected exclude handed to scanner, got %v", sc.excludeSeen)
	}

	if report.Status != domain.RunPassed {
		t.Fatalf("expected passed, got %s", report.Status)
	}
	if len(report.Targets) != 2 {
		t.Fatalf("expected 2 target results, got %d", len(report.Targets))
	}
	if report.Targets[1].Target != "tests/test_b.py" {
		t.Fatalf("expected root-relative target, got %q", report.Targets[1].Target)
	}
}

func TestRunSuite_Execute_EraseFirstHTMLLast(t *testing.T) {
	suite := coverageSuite()
	suite.Tool.EraseArgs = []string{"erase"}
	suite.Tool.HTMLArgs = []string{"html", "-d", "cover_html"}

	sc := &fakeScanner{targets: []string{"/ws/tests/test_a.py"}}
	runner := &scriptedRunner{}

	uc := newSuiteUC(suite, domain.Environment{}, sc, runner, &fakeProfiles{}, nil)
	if _, _, err := uc.Execute(context.Background(), "s.yaml", "local"); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	calls := runner.calls()
	if len(calls) != 3 {
		t.Fatalf("expected erase + target + html, got %d calls", len(calls))
	}
	if strings.Join(calls[0].Argv, " ") != "coverage erase" {
		t.Fatalf("expected erase first, got %v", calls[0].Argv)
	}
	if strings.Join(calls[2].Argv, " ") != "coverage html -d cover_html" {
		t.Fatalf("expected html last, got %v", calls[2].Argv)
	}
}

func TestRunSuite_Execute_EraseFailureAborts(t *testing.T) {
	suite := coverageSuite()
	suite.Tool.EraseArgs = []string{"erase"}

	sc := &fakeScanner{targets: []string{"/ws/tests/test_a.py"}}
	runner := &scriptedRunner{results: []domain.CommandResult{{ExitCode: 1}}}

	uc := newSuiteUC(suite, domain.Environment{}, sc, runner, &fakeProfiles{}, &memStore{})
	_, id, err := uc.Execute(context.Background(), "s.yaml", "local")
	if err == nil {
		t.Fatal("expected erase failure to abort the run")
	}
	if !domain.HasKind(err, domain.FaultExec) {
		t.Fatalf("expected execution kind, got %v", err)
	}
	if id != "" {
		t.Fatalf("expected no artifact, got id %q", id)
	}
	if len(runner.calls()) != 1 {
		t.Fatalf("expected no target invocations after failed erase, got %d calls", len(runner.calls()))
	}
}

func TestRunSuite_Execute_FailingTargetContinues(t *testing.T) {
	sc := &fakeScanner{targets: []string{"/ws/tests/test_a.py", "/ws/tests/test_b.py"}}
	runner := &scriptedRunner{results: []domain.CommandResult{{ExitCode: 1}, {ExitCode: 0}}}

	uc := newSuiteUC(coverageSuite(), domain.Environment{}, sc, runner, &fakeProfiles{}, nil)
	report, _, err := uc.Execute(context.Background(), "s.yaml", "local")
	if err != nil {
		t.Fatalf("target failure must not surface as an error, got %v", err)
	}
	if len(report.Targets) != 2 {
		t.Fatalf("expected both targets attempted, got %d", len(report.Targets))
	}
	if report.Status != domain.RunFailed {
		t.Fatalf("expected failed run, got %s", report.Status)
	}
	if report.FailedTargets() != 1 {
		t.Fatalf("expected 1 failed target, got %d", report.FailedTargets())
	}
}

func TestRunSuite_Execute_RunnerErrorRecordedAndContinues(t *testing.T) {
	sc := &fakeScanner{targets: []string{"/ws/tests/test_a.py", "/ws/tests/test_b.py"}}
	startErr := &domain.Fault{Op: "shellrunner.run", Kind: domain.FaultExec, Err: errors.New(`exec: "coverage": executable file not found`)}
	runner := &scriptedRunner{errs: []error{startErr, nil}}

	uc := newSuiteUC(coverageSuite(), domain.Environment{}, sc, runner, &fakeProfiles{}, nil)
	report, _, err := uc.Execute(context.Background(), "s.yaml", "local")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if report.Targets[0].Error == nil || report.Targets[0].Error.Kind != domain.RunFaultStart {
		t.Fatalf("expected start error recorded, got %+v", report.Targets[0].Error)
	}
	if report.Targets[1].Error != nil {
		t.Fatalf("expected second target to run cleanly, got %+v", report.Targets[1].Error)
	}
}

func TestRunSuite_Execute_HTMLFailureIsError(t *testing.T) {
	suite := coverageSuite()
	suite.Tool.HTMLArgs = []string{"html"}

	sc := &fakeScanner{targets: []string{"/ws/tests/test_a.py"}}
	runner := &scriptedRunner{results: []domain.CommandResult{{ExitCode: 0}, {ExitCode: 2}}}

	uc := newSuiteUC(suite, domain.Environment{}, sc, runner, &fakeProfiles{}, &memStore{})
	report, id, err := uc.Execute(context.Background(), "s.yaml", "local")
	if err == nil {
		t.Fatal("expected html render failure to be an error")
	}
	if id != "" {
		t.Fatalf("expected no artifact id, got %q", id)
	}
	if len(report.Targets) != 1 {
		t.Fatalf("expected target results preserved, got %d", len(report.Targets))
	}
}

func TestRunSuite_Execute_ContextCancelledStopsLoop(t *testing.T) {
	sc := &fakeScanner{targets: []string{"/ws/tests/test_a.py", "/ws/tests/test_b.py"}}
	ctx, cancel := context.WithCancel(context.Background())
	runner := &cancelAfterRunner{cancel: cancel, after: 1}

	uc := newSuiteUC(coverageSuite(), domain.Environment{}, sc, runner, &fakeProfiles{}, nil)
	report, _, err := uc.Execute(ctx, "s.yaml", "local")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(report.Targets) != 1 {
		t.Fatalf("expected only the first target attempted, got %d", len(report.Targets))
	}
}

func TestRunSuite_Execute_GatesAndExtractsFromProfile(t *testing.T) {
	suite := coverageSuite()
	suite.Tool.Profile = "coverage.out"
	min := 50.0
	suite.Gates = map[string]domain.GateCheck{"$.percent": {Min: &min}}
	suite.Extract = domain.ExtractSpec{"pct": "$.percent"}

	sc := &fakeScanner{targets: []string{"/ws/tests/test_a.py"}}
	profiles := &fakeProfiles{summary: domain.CoverageSummary{Mode: "set", Covered: 3, Total: 4, Percent: 75}}

	uc := newSuiteUC(suite, domain.Environment{}, sc, &scriptedRunner{}, profiles, nil)
	report, _, err := uc.Execute(context.Background(), "s.yaml", "local")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if profiles.pathSeen != "/ws/coverage.out" {
		t.Fatalf("expected profile under workspace root, got %q", profiles.pathSeen)
	}
	if report.Summary == nil || report.Summary.Percent != 75 {
		t.Fatalf("expected summary attached, got %+v", report.Summary)
	}
	if len(report.Gates) != 1 || !report.Gates[0].Passed {
		t.Fatalf("expected passing gate, got %+v", report.Gates)
	}
	if report.Extracted["pct"] != "75" {
		t.Fatalf("expected extracted pct=75, got %q", report.Extracted["pct"])
	}
	if report.Status != domain.RunPassed {
		t.Fatalf("expected passed, got %s", report.Status)
	}
}

func TestRunSuite_Execute_FailingGateFailsRun(t *testing.T) {
	suite := coverageSuite()
	suite.Tool.Profile = "coverage.out"
	min := 90.0
	suite.Gates = map[string]domain.GateCheck{"$.percent": {Min: &min}}

	sc := &fakeScanner{targets: []string{"/ws/tests/test_a.py"}}
	profiles := &fakeProfiles{summary: domain.CoverageSummary{Percent: 40}}

	uc := newSuiteUC(suite, domain.Environment{}, sc, &scriptedRunner{}, profiles, nil)
	report, _, err := uc.Execute(context.Background(), "s.yaml", "local")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if report.Status != domain.RunFailed {
		t.Fatalf("expected gate failure to fail the run, got %s", report.Status)
	}
}

func TestRunSuite_Execute_ProfileReadErrorAborts(t *testing.T) {
	suite := coverageSuite()
	suite.Tool.Profile = "coverage.out"

	sc := &fakeScanner{targets: []string{"/ws/tests/test_a.py"}}
	readErr := &domain.Fault{Op: "profile.read", Kind: domain.FaultNotFound, Err: domain.ErrNotFound}
	profiles := &fakeProfiles{err: readErr}

	uc := newSuiteUC(suite, domain.Environment{}, sc, &scriptedRunner{}, profiles, &memStore{})
	_, id, err := uc.Execute(context.Background(), "s.yaml", "local")
	if !domain.HasKind(err, domain.FaultNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
	if id != "" {
		t.Fatalf("expected no artifact, got id %q", id)
	}
}

func TestRunSuite_Execute_EnvVarOverridesSuiteVar(t *testing.T) {
	suite := coverageSuite()
	suite.Tool.Source = "{{source_pkg}}"
	suite.Vars = domain.Vars{"source_pkg": "photolab"}
	env := domain.Environment{Name: "ci", Vars: domain.Vars{"source_pkg": "photolab.camera"}}

	sc := &fakeScanner{targets: []string{"/ws/tests/test_a.py"}}
	runner := &scriptedRunner{}

	uc := newSuiteUC(suite, env, sc, runner, &fakeProfiles{}, nil)
	if _, _, err := uc.Execute(context.Background(), "s.yaml", "ci"); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	argv := runner.calls()[0].Argv
	if argv[3] != "--source=photolab.camera" {
		t.Fatalf("expected env var to win, got %v", argv)
	}
}

func TestRunSuite_Execute_MissingVarFails(t *testing.T) {
	suite := coverageSuite()
	suite.Dir = "{{tests_dir}}"

	uc := newSuiteUC(suite, domain.Environment{}, &fakeScanner{}, &scriptedRunner{}, &fakeProfiles{}, nil)
	_, _, err := uc.Execute(context.Background(), "s.yaml", "local")
	if !domain.HasKind(err, domain.FaultMissingVar) {
		t.Fatalf("expected missing_variable, got %v", err)
	}
}

func TestRunSuite_Execute_LoadErrorPropagates(t *testing.T) {
	loadErr := errors.New("suite not found")
	uc := NewRunSuite("/ws",
		fakeSuiteLoader{err: loadErr},
		stubEnvs{},
		&fakeScanner{}, &scriptedRunner{}, &fakeProfiles{}, nil,
	)

	_, _, err := uc.Execute(context.Background(), "s.yaml", "local")
	if !errors.Is(err, loadErr) {
		t.Fatalf("expected wrapped load error, got %v", err)
	}
}

func TestRunSuite_Execute_ScanErrorPropagates(t *testing.T) {
	scanErr := &domain.Fault{Op: "scan.glob", Kind: domain.FaultBadConfig, Err: errors.New("bad pattern")}
	sc := &fakeScanner{err: scanErr}

	uc := newSuiteUC(coverageSuite(), domain.Environment{}, sc, &scriptedRunner{}, &fakeProfiles{}, nil)
	_, _, err := uc.Execute(context.Background(), "s.yaml", "local")
	if !errors.Is(err, scanErr) {
		t.Fatalf("expected scan error, got %v", err)
	}
}

func TestRunSuite_Execute_EmptyTargetListPasses(t *testing.T) {
	sc := &fakeScanner{}
	runner := &scriptedRunner{}

	uc := newSuiteUC(coverageSuite(), domain.Environment{}, sc, runner, &fakeProfiles{}, nil)
	report, _, err := uc.Execute(context.Background(), "s.yaml", "local")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(runner.calls()) != 0 {
		t.Fatalf("expected no invocations, got %d", len(runner.calls()))
	}
	if report.Status != domain.RunPassed {
		t.Fatalf("expected passed, got %s", report.Status)
	}
}

func TestRunSuite_Execute_StoreErrorSurfaces(t *testing.T) {
	saveErr := errors.New("reports dir is read-only")
	sc := &fakeScanner{targets: []string{"/ws/tests/test_a.py"}}

	uc := newSuiteUC(coverageSuite(), domain.Environment{}, sc, &scriptedRunner{}, &fakeProfiles{}, &failStore{err: saveErr})
	report, id, err := uc.Execute(context.Background(), "s.yaml", "local")
	if !errors.Is(err, saveErr) {
		t.Fatalf("expected store error, got %v", err)
	}
	if id != "" {
		t.Fatalf("expected empty id on store error, got %q", id)
	}
	if len(report.Targets) != 1 {
		t.Fatalf("report should still carry results, got %d", len(report.Targets))
	}
}

func TestRunSuite_Execute_ParallelKeepsTargetOrder(t *testing.T) {
	sc := &fakeScanner{targets: []string{
		"/ws/tests/test_a.py",
		"/ws/tests/test_b.py",
		"/ws/tests/test_c.py",
		"/ws/tests/test_d.py",
	}}
	runner := &scriptedRunner{}

	uc := newSuiteUC(coverageSuite(), domain.Environment{}, sc, runner, &fakeProfiles{}, nil, WithParallel(3))
	report, _, err := uc.Execute(context.Background(), "s.yaml", "local")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(runner.calls()) != 4 {
		t.Fatalf("expected 4 invocations, got %d", len(runner.calls()))
	}
	want := []string{"tests/test_a.py", "tests/test_b.py", "tests/test_c.py", "tests/test_d.py"}
	for i, tr := range report.Targets {
		if tr.Target != want[i] {
			t.Fatalf("expected ordered results, got %v at %d", tr.Target, i)
		}
	}
}

var _ ports.SuiteLoader = (*fakeSuiteLoader)(nil)
var _ ports.PipelineLoader = (*fakePipelineLoader)(nil)
var _ ports.EnvironmentSource = (*stubEnvs)(nil)
var _ ports.TargetScanner = (*fakeScanner)(nil)
var _ ports.CommandRunner = (*scriptedRunner)(nil)
var _ ports.ProfileReader = (*fakeProfiles)(nil)
var _ ports.ReportWriter = (*memStore)(nil)
