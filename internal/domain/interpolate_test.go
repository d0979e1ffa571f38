package domain

import (
	"errors"
	"testing"
	"time"
)

// newScope builds a scope with a frozen clock and uuid; tests that care
// about either pass their own option on top.
func newScope(t *testing.T, vars Vars, opts ...InterpOption) *RunScope {
	t.Helper()
	base := []InterpOption{
		WithClock(func() time.Time { return time.Unix(1_700_000_000, 0) }),
		WithNewID(func() (string, error) { return "feedface-0000-4000-8000-000000000000", nil }),
	}
	sc, err := NewInterpolator(append(base, opts...)...).NewScope(vars)
	if err != nil {
		t.Fatalf("build scope: %v", err)
	}
	return sc
}

// resolve fails the test on any ResolveString error.
func resolve(t *testing.T, sc *RunScope, in string) string {
	t.Helper()
	out, err := sc.ResolveString(in)
	if err != nil {
		t.Fatalf("ResolveString(%q): %v", in, err)
	}
	return out
}

func TestResolveString_PlainText(t *testing.T) {
	sc := newScope(t, Vars{})
	got := resolve(t, sc, "coverage run -a")
	if got != "coverage run -a" {
		t.Fatalf("got %q, want %q", got, "coverage run -a")
	}
}

func TestResolveString_SuiteVar(t *testing.T) {
	sc := newScope(t, Vars{"source_pkg": "photolab"})
	got := resolve(t, sc, "--source={{source_pkg}}")
	if want := "--source=photolab"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestResolveString_TimestampAndUUID(t *testing.T) {
	sc := newScope(t, Vars{},
		WithClock(func() time.Time { return time.Unix(42, 0) }),
		WithNewID(func() (string, error) { return "11111111-2222-3333-4444-555555555555", nil }),
	)

	got := resolve(t, sc, "covhtml-{{$timestamp}}-{{$uuid}}")
	if want := "covhtml-42-11111111-2222-3333-4444-555555555555"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestResolveString_BuiltinsStableWithinRuntime(t *testing.T) {
	calls := 0
	sc := newScope(t, Vars{}, WithNewID(func() (string, error) {
		calls++
		return "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee", nil
	}))

	a := resolve(t, sc, "{{$uuid}}")
	b := resolve(t, sc, "{{$uuid}}")
	if a != b {
		t.Fatalf("uuid changed within one runtime: %q vs %q", a, b)
	}
	if calls != 1 {
		t.Fatalf("uuid generations = %d, want 1", calls)
	}
}

func TestResolveString_UnknownVar(t *testing.T) {
	sc := newScope(t, Vars{})
	_, err := sc.ResolveString("run {{target_dir}}")
	if err == nil {
		t.Fatal("want an error for the unknown variable")
	}
	if !HasKind(err, FaultMissingVar) {
		t.Fatalf("err = %v, want missing_variable", err)
	}
}

func TestResolveString_Unclosed(t *testing.T) {
	sc := newScope(t, Vars{"a": "1"})
	_, err := sc.ResolveString("oops {{a")
	if !HasKind(err, FaultBadConfig) {
		t.Fatalf("err = %v, want invalid_config", err)
	}
}

func TestResolveString_BlankPlaceholder(t *testing.T) {
	sc := newScope(t, Vars{})
	_, err := sc.ResolveString("oops {{  }}")
	if !HasKind(err, FaultBadConfig) {
		t.Fatalf("err = %v, want invalid_config", err)
	}
}

func TestPutAddsRuntimeVar(t *testing.T) {
	sc := newScope(t, Vars{})
	sc.Put("percent", "87.5")

	got := resolve(t, sc, "coverage={{percent}}")
	if got != "coverage=87.5" {
		t.Fatalf("got %q, want %q", got, "coverage=87.5")
	}
}

func TestResolveSuite(t *testing.T) {
	sc := newScope(t, Vars{
		"tests_dir":  "tests",
		"source_pkg": "photolab",
	})

	s := Suite{
		Name:    "coverage",
		Dir:     "{{tests_dir}}",
		Pattern: "*.py",
		Exclude: []string{"conftest.py"},
		Tool: ToolSpec{
			Command:    "coverage",
			RunArgs:    []string{"run"},
			Accumulate: "-a",
			SourceFlag: "--source",
			Source:     "{{source_pkg}}",
			HTMLArgs:   []string{"html"},
		},
	}

	resolved, err := sc.ResolveSuite(s)
	if err != nil {
		t.Fatalf("ResolveSuite: %v", err)
	}
	if resolved.Dir != "tests" {
		t.Fatalf("Dir = %q, want tests", resolved.Dir)
	}
	if resolved.Tool.Source != "photolab" {
		t.Fatalf("Tool.Source = %q, want photolab", resolved.Tool.Source)
	}

	// Input must stay untouched.
	if s.Tool.Source != "{{source_pkg}}" {
		t.Fatalf("input mutated: Tool.Source = %q", s.Tool.Source)
	}
}

func TestResolveSuite_MissingVarNamesField(t *testing.T) {
	sc := newScope(t, Vars{})

	_, err := sc.ResolveSuite(Suite{Dir: "{{tests_dir}}"})
	if !HasKind(err, FaultMissingVar) {
		t.Fatalf("err = %v, want missing_variable", err)
	}

	var fe *Fault
	if !errors.As(err, &fe) {
		t.Fatalf("err type = %T, want *Fault", err)
	}
}

func TestResolveStep(t *testing.T) {
	sc := newScope(t, Vars{"conda_home": "/opt/conda"})

	s := Step{
		Name: "install-conda",
		Run:  "bash miniconda.sh -b -p {{conda_home}}",
		Env:  Vars{"CONDA_HOME": "{{conda_home}}"},
	}

	resolved, err := sc.ResolveStep(s)
	if err != nil {
		t.Fatalf("ResolveStep: %v", err)
	}
	if resolved.Run != "bash miniconda.sh -b -p /opt/conda" {
		t.Fatalf("Run = %q", resolved.Run)
	}
	if resolved.Env["CONDA_HOME"] != "/opt/conda" {
		t.Fatalf("Env = %v", resolved.Env)
	}
	if s.Env["CONDA_HOME"] != "{{conda_home}}" {
		t.Fatalf("input mutated: Env = %v", s.Env)
	}
}
