package domain

import (
	"reflect"
	"testing"
)

func TestCloneIsWritableAndDetached(t *testing.T) {
	var nilVars Vars
	got := nilVars.Clone()
	if got == nil {
		t.Fatalf("expected non-nil clone of nil vars")
	}
	got["source_pkg"] = "photolab"

	base := Vars{"a": "1"}
	clone := base.Clone()
	clone["a"] = "changed"
	if base["a"] != "1" {
		t.Fatalf("expected base untouched, got %v", base)
	}
}

func TestMergeOverrideWins(t *testing.T) {
	base := Vars{"a": "1", "b": "2"}
	override := Vars{"b": "20", "c": "3"}

	got := Merge(base, override)
	want := Vars{"a": "1", "b": "20", "c": "3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	// Must not mutate inputs.
	if base["b"] != "2" {
		t.Fatalf("expected base untouched, got %v", base)
	}
}

func TestEnvironSortedPairs(t *testing.T) {
	got := Environ(Vars{"B": "2", "A": "1", "C": "3"})
	want := []string{"A=1", "B=2", "C=3"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestEnvironEmpty(t *testing.T) {
	if got := Environ(nil); got != nil {
		t.Fatalf("expected nil for empty vars, got %v", got)
	}
}
