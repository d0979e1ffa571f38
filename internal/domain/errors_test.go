package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestFaultWrapUnwrap(t *testing.T) {
	root := errors.New("root")
	err := &Fault{
		Op:   "suiteyaml.load",
		Kind: FaultBadConfig,
		Path: "suites/coverage.yaml",
		Err:  root,
	}

	if !errors.Is(err, root) {
		t.Fatal("errors.Is missed the wrapped cause")
	}

	var got *Fault
	if !errors.As(err, &got) {
		t.Fatal("errors.As missed the fault")
	}
	if got.Kind != FaultBadConfig {
		t.Fatalf("Kind = %s, want %s", got.Kind, FaultBadConfig)
	}
}

func TestFaultMessageIncludesOpKindAndPath(t *testing.T) {
	err := &Fault{
		Op:   "scriptscan.scan",
		Kind: FaultNotFound,
		Path: "tests",
		Err:  ErrNotFound,
	}

	msg := err.Error()
	for _, want := range []string{"scriptscan.scan", "not_found", "tests"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message %q is missing %q", msg, want)
		}
	}
}

func TestHasKind(t *testing.T) {
	err := &Fault{Op: "pipeline.when", Kind: FaultBadConfig, Err: ErrInvalidConfig}

	if !HasKind(err, FaultBadConfig) {
		t.Fatal("HasKind missed the fault's own kind")
	}
	if HasKind(err, FaultExec) {
		t.Fatal("HasKind matched a kind the fault does not carry")
	}
	if HasKind(errors.New("plain"), FaultExec) {
		t.Fatal("HasKind matched a plain error")
	}
}

func TestHasKindWrapped(t *testing.T) {
	inner := &Fault{Op: "envyaml.load", Kind: FaultNotFound, Err: ErrNotFound}
	wrapped := &Fault{Op: "runsuite.env", Kind: FaultNotFound, Err: inner}

	if !HasKind(wrapped, FaultNotFound) {
		t.Fatal("HasKind did not walk the wrap chain")
	}
}
