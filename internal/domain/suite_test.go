package domain

import (
	"reflect"
	"testing"
)

func specTool() ToolSpec {
	return ToolSpec{
		Command:    "coverage",
		RunArgs:    []string{"run"},
		Accumulate: "-a",
		SourceFlag: "--source",
		Source:     "photolab",
		EraseArgs:  []string{"erase"},
		HTMLArgs:   []string{"html"},
	}
}

func TestRunArgvCarriesAccumulateAndSource(t *testing.T) {
	got := specTool().RunArgv("tests/test_camera.py")
	want := []string{"coverage", "run", "-a", "--source=photolab", "tests/test_camera.py"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRunArgvExtraArgsBeforeTarget(t *testing.T) {
	tool := specTool()
	tool.ExtraArgs = []string{"--branch"}

	got := tool.RunArgv("tests/test_filters.py")
	want := []string{"coverage", "run", "-a", "--source=photolab", "--branch", "tests/test_filters.py"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRunArgvOmitsEmptyPieces(t *testing.T) {
	tool := ToolSpec{Command: "go", RunArgs: []string{"test"}}

	got := tool.RunArgv("./...")
	want := []string{"go", "test", "./..."}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestEraseAndHTMLArgv(t *testing.T) {
	tool := specTool()

	if got, want := tool.EraseArgv(), []string{"coverage", "erase"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("erase: expected %v, got %v", want, got)
	}
	if got, want := tool.HTMLArgv(), []string{"coverage", "html"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("html: expected %v, got %v", want, got)
	}

	tool.EraseArgs = nil
	tool.HTMLArgs = nil
	if tool.EraseArgv() != nil {
		t.Fatalf("expected nil erase argv when disabled")
	}
	if tool.HTMLArgv() != nil {
		t.Fatalf("expected nil html argv when disabled")
	}
}

func TestSuiteExcluded(t *testing.T) {
	s := Suite{Exclude: []string{"conftest.py"}}

	if !s.Excluded("conftest.py") {
		t.Fatalf("expected conftest.py to be excluded")
	}
	if s.Excluded("test_camera.py") {
		t.Fatalf("expected test_camera.py to pass")
	}
}
