package gates

import (
	"testing"

	"github.com/covrig/covrig/internal/domain"
)

func sampleSummary() domain.CoverageSummary {
	return domain.CoverageSummary{
		Mode: "set",
		Files: []domain.FileCoverage{
			{Name: "photolab/camera.go", Covered: 8, Total: 10, Percent: 80},
			{Name: "photolab/filters.go", Covered: 1, Total: 4, Percent: 25},
		},
		Covered: 9,
		Total:   14,
		Percent: 64.28,
	}
}

func ptrFloat(v float64) *float64 { return &v }
func ptrString(v string) *string  { return &v }

func TestEvaluate_NoGates(t *testing.T) {
	got := Evaluate(sampleSummary(), nil)
	if len(got) != 0 {
		t.Fatalf("results = %d, want none", len(got))
	}
}

func TestEvaluate_MinPasses(t *testing.T) {
	got := Evaluate(sampleSummary(), map[string]domain.GateCheck{
		"$.percent": {Min: ptrFloat(60)},
	})
	if len(got) != 1 {
		t.Fatalf("results = %d, want 1", len(got))
	}
	if !got[0].Passed {
		t.Fatalf("gate failed: %s", got[0].Message)
	}
	if got[0].Name != "$.percent" {
		t.Fatalf("Name = %q, want the expression", got[0].Name)
	}
}

func TestEvaluate_MinFails(t *testing.T) {
	got := Evaluate(sampleSummary(), map[string]domain.GateCheck{
		"$.percent": {Min: ptrFloat(90)},
	})
	if len(got) != 1 {
		t.Fatalf("results = %d, want 1", len(got))
	}
	if got[0].Passed {
		t.Fatal("min gate passed on a percent below the floor")
	}
}

func TestEvaluate_MinBoundaryPasses(t *testing.T) {
	got := Evaluate(sampleSummary(), map[string]domain.GateCheck{
		"$.total": {Min: ptrFloat(14)},
	})
	if !got[0].Passed {
		t.Fatalf("exact match failed the min gate: %s", got[0].Message)
	}
}

func TestEvaluate_MaxFails(t *testing.T) {
	got := Evaluate(sampleSummary(), map[string]domain.GateCheck{
		"$.total": {Max: ptrFloat(10)},
	})
	if got[0].Passed {
		t.Fatal("max gate passed on a total above the ceiling")
	}
}

func TestEvaluate_Exists(t *testing.T) {
	got := Evaluate(sampleSummary(), map[string]domain.GateCheck{
		"$.mode": {Exists: true},
	})
	if !got[0].Passed {
		t.Fatalf("gate failed: %s", got[0].Message)
	}
}

func TestEvaluate_ExistsFailsForMissingField(t *testing.T) {
	got := Evaluate(sampleSummary(), map[string]domain.GateCheck{
		"$.nope": {Exists: true},
	})
	if got[0].Passed {
		t.Fatal("exists gate passed for an unknown key")
	}
}

func TestEvaluate_Eq(t *testing.T) {
	got := Evaluate(sampleSummary(), map[string]domain.GateCheck{
		"$.mode": {Eq: ptrString("set")},
	})
	if !got[0].Passed {
		t.Fatalf("gate failed: %s", got[0].Message)
	}
}

func TestEvaluate_FilterExpressionUnwrapsSingleMatch(t *testing.T) {
	got := Evaluate(sampleSummary(), map[string]domain.GateCheck{
		`$.files[?(@.name=="photolab/camera.go")].percent`: {Min: ptrFloat(75)},
	})
	if len(got) != 1 {
		t.Fatalf("results = %d, want 1", len(got))
	}
	if !got[0].Passed {
		t.Fatalf("gate failed: %s", got[0].Message)
	}
}

func TestEvaluate_MultipleChecksPerExpression(t *testing.T) {
	got := Evaluate(sampleSummary(), map[string]domain.GateCheck{
		"$.percent": {Exists: true, Min: ptrFloat(50), Max: ptrFloat(70)},
	})
	if len(got) != 3 {
		t.Fatalf("results = %d, want 3", len(got))
	}
	for _, r := range got {
		if !r.Passed {
			t.Fatalf("check failed: %s", r.Message)
		}
	}
}

func TestEvaluate_AllGatesRunEvenWhenOneFails(t *testing.T) {
	got := Evaluate(sampleSummary(), map[string]domain.GateCheck{
		"$.percent": {Min: ptrFloat(99)},
		"$.mode":    {Exists: true},
	})
	if len(got) != 2 {
		t.Fatalf("results = %d, want 2", len(got))
	}
	// Sorted by expression: $.mode first.
	if !got[0].Passed {
		t.Fatalf("$.mode failed: %s", got[0].Message)
	}
	if got[1].Passed {
		t.Fatal("$.percent min gate passed, want fail")
	}
}

func TestEvaluate_NonNumericValueFailsMin(t *testing.T) {
	got := Evaluate(sampleSummary(), map[string]domain.GateCheck{
		"$.mode": {Min: ptrFloat(1)},
	})
	if got[0].Passed {
		t.Fatal("min gate passed on a non-numeric value")
	}
}
