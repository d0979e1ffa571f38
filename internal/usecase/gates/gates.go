package gates

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/PaesslerAG/jsonpath"

	"github.com/covrig/covrig/internal/domain"
)

// Evaluate applies the suite's gate checks against the coverage summary
// document. Checks address the summary via JSONPath; all gates run even when
// earlier ones fail.
func Evaluate(summary domain.CoverageSummary, checks map[string]domain.GateCheck) []domain.GateResult {
	if len(checks) == 0 {
		return []domain.GateResult{}
	}

	exprs := make([]string, 0, len(checks))
	for expr := range checks {
		exprs = append(exprs, expr)
	}
	slices.Sort(exprs) // stable output for tests/UI

	doc, err := summaryDoc(summary)
	if err != nil {
		out := make([]domain.GateResult, 0, len(exprs))
		for _, expr := range exprs {
			out = append(out, fail(expr, "gate %q: summary is not addressable: %v", expr, err))
		}
		return out
	}

	var out []domain.GateResult
	for _, expr := range exprs {
		val, qerr := jsonpath.Get(expr, doc)
		out = append(out, gateChecks(expr, checks[expr], unwrapSingle(val), qerr)...)
	}
	return out
}

func gateChecks(expr string, c domain.GateCheck, val any, qerr error) []domain.GateResult {
	var out []domain.GateResult
	if c.Exists {
		out = append(out, checkExists(expr, val, qerr))
	}
	if c.Min != nil {
		out = append(out, checkMin(expr, val, qerr, *c.Min))
	}
	if c.Max != nil {
		out = append(out, checkMax(expr, val, qerr, *c.Max))
	}
	if c.Eq != nil {
		out = append(out, checkEq(expr, val, qerr, *c.Eq))
	}
	return out
}

func checkExists(expr string, val any, qerr error) domain.GateResult {
	if qerr != nil {
		return fail(expr, "exists: invalid jsonpath %q: %v", expr, qerr)
	}
	if isEmpty(val) {
		return fail(expr, "exists: %q has no value", expr)
	}
	return pass(expr, "exists: %q", expr)
}

func checkMin(expr string, val any, qerr error, min float64) domain.GateResult {
	f, err := numericValue(val, qerr)
	if err != nil {
		return fail(expr, "min: %q: %v", expr, err)
	}
	if f < min {
		return fail(expr, "min: expected %q >= %v, got %v", expr, min, f)
	}
	return pass(expr, "min: %v >= %v", f, min)
}

func checkMax(expr string, val any, qerr error, max float64) domain.GateResult {
	f, err := numericValue(val, qerr)
	if err != nil {
		return fail(expr, "max: %q: %v", expr, err)
	}
	if f > max {
		return fail(expr, "max: expected %q <= %v, got %v", expr, max, f)
	}
	return pass(expr, "max: %v <= %v", f, max)
}

func checkEq(expr string, val any, qerr error, expected string) domain.GateResult {
	if qerr != nil {
		return fail(expr, "eq: %q: %v", expr, qerr)
	}
	s, err := stringValue(val)
	if err != nil {
		return fail(expr, "eq: %q: %v", expr, err)
	}
	if s != expected {
		return fail(expr, "eq: expected %q == %q, got %q", expr, expected, s)
	}
	return pass(expr, "eq: %q == %q", expr, expected)
}

func pass(expr, format string, args ...any) domain.GateResult {
	return domain.GateResult{Name: expr, Passed: true, Message: fmt.Sprintf(format, args...)}
}

func fail(expr, format string, args ...any) domain.GateResult {
	return domain.GateResult{Name: expr, Passed: false, Message: fmt.Sprintf(format, args...)}
}

func numericValue(val any, qerr error) (float64, error) {
	if qerr != nil {
		return 0, qerr
	}
	if f, ok := val.(float64); ok {
		return f, nil
	}
	if s, ok := val.(string); ok {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", s)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%T is not a number", val)
}

func stringValue(val any) (string, error) {
	switch x := val.(type) {
	case nil:
		return "", errors.New("no value at path")
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	}
	return fmt.Sprint(val), nil
}

// unwrapSingle flattens the one-element slices jsonpath filters return.
func unwrapSingle(val any) any {
	if arr, ok := val.([]any); ok && len(arr) == 1 {
		return arr[0]
	}
	return val
}

func summaryDoc(summary domain.CoverageSummary) (any, error) {
	raw, err := json.Marshal(summary)
	if err != nil {
		return nil, err
	}
	var doc any
	err = json.Unmarshal(raw, &doc)
	return doc, err
}

func isEmpty(val any) bool {
	switch x := val.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	return false
}
