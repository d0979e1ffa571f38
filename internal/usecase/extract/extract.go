package extract

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"github.com/covrig/covrig/internal/domain"
)

// Apply pulls values out of the coverage summary document into report vars
// using JSONPath rules (map: varName -> expression). Rules are evaluated
// independently; one failing rule never blocks the others.
func Apply(summary domain.CoverageSummary, rules domain.ExtractSpec) (domain.Vars, []domain.ExtractRecord) {
	if len(rules) == 0 {
		return domain.Vars{}, []domain.ExtractRecord{}
	}

	names := make([]string, 0, len(rules))
	for name := range rules {
		names = append(names, name)
	}
	slices.Sort(names) // deterministic rule order

	vars := domain.Vars{}
	results := make([]domain.ExtractRecord, 0, len(names))

	doc, docErr := summaryDoc(summary)

	for _, name := range names {
		rule := strings.TrimSpace(rules[name])

		var val string
		err := docErr
		if err == nil {
			val, err = eval(doc, rule)
		}
		if err != nil {
			results = append(results, domain.ExtractRecord{Name: name, Message: fmt.Sprintf("extract %q via %s: %v", name, rule, err)})
			continue
		}

		vars[name] = val
		results = append(results, domain.ExtractRecord{Name: name, Success: true, Message: fmt.Sprintf("extracted %q from %s", name, rule)})
	}

	return vars, results
}

// summaryDoc round-trips the summary through JSON so jsonpath sees the same
// shape the report file carries.
func summaryDoc(summary domain.CoverageSummary) (any, error) {
	b, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("summary is not addressable: %w", err)
	}
	var doc any
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("summary is not addressable: %w", err)
	}
	return doc, nil
}

func eval(doc any, rule string) (string, error) {
	if rule == "" {
		return "", fmt.Errorf("empty jsonpath expression")
	}

	val, err := jsonpath.Get(rule, doc)
	if err != nil {
		return "", fmt.Errorf("jsonpath error: %w", err)
	}
	if emptyValue(val) {
		return "", fmt.Errorf("no value found")
	}
	return stringify(val)
}

func emptyValue(val any) bool {
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

// stringify renders an extracted value the way it will appear in report vars.
// Single-element arrays collapse to their element, the usual shape of a
// jsonpath filter match.
func stringify(val any) (string, error) {
	if arr, ok := val.([]any); ok && len(arr) == 1 {
		return stringify(arr[0])
	}

	switch x := val.(type) {
	case string:
		return x, nil
	case []any, map[string]any:
		b, err := json.Marshal(x)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return fmt.Sprint(val), nil
}
