package tui

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/covrig/covrig/internal/domain"
)

var (
	reLine   = regexp.MustCompile(`(?i)\bline\s+(\d+)\b`)
	reQuoted = regexp.MustCompile(`"([^"]+)"`)
)

// notFoundByOp maps operation prefixes to the noun shown to the user. Ordered
// so the most specific op wins.
var notFoundByOp = []struct{ op, msg string }{
	{"suiteyaml", "Suite not found"},
	{"pipelineyaml", "Pipeline not found"},
	{"envyaml", "Environment not found"},
	{"runstore", "Report not found"},
	{"workdir.findroot", "Workspace not found"},
}

// toastFor turns an error into the short message shown in the toast line.
func toastFor(err error) string {
	if err == nil {
		return ""
	}

	var fe *domain.Fault
	if errors.As(err, &fe) {
		return faultMessage(fe)
	}

	// Raw errors from outside the domain layer: still try to be specific.
	s := err.Error()
	if isYAMLError(s) {
		if line := lineNumber(s); line != "" {
			return "YAML error at line " + line
		}
		return "YAML error"
	}
	if strings.Contains(s, "no value for") {
		if v := lastQuoted(s); v != "" {
			return "Undefined variable " + v
		}
		return "Undefined variable"
	}

	return "Unexpected error (details in log)"
}

func faultMessage(fe *domain.Fault) string {
	switch fe.Kind {
	case domain.FaultNotFound:
		msg := "Not found"
		for _, e := range notFoundByOp {
			if strings.Contains(fe.Op, e.op) {
				msg = e.msg
				break
			}
		}
		return msg

	case domain.FaultMissingVar:
		// The resolver quotes the placeholder name last: no value for "x".
		if v := lastQuoted(fe.Error()); v != "" {
			return "Undefined variable " + v
		}
		return "Undefined variable"

	case domain.FaultBadConfig:
		return badConfigMessage(fe)

	case domain.FaultExec:
		return "Command failed (details in log)"

	case domain.FaultGate:
		return "Coverage gate failed"

	case domain.FaultUpload:
		return "Upload failed (details in log)"
	}
	return "Unexpected error (details in log)"
}

func badConfigMessage(fe *domain.Fault) string {
	name := "config"
	if strings.TrimSpace(fe.Path) != "" {
		name = filepath.Base(fe.Path)
	}

	s := fe.Error()
	if line := lineNumber(s); line != "" {
		return "YAML error in " + name + " at line " + line
	}
	if isYAMLError(s) {
		return "YAML error in " + name
	}
	return "Invalid configuration"
}

func isYAMLError(s string) bool {
	low := strings.ToLower(s)
	return strings.Contains(low, "yaml:") ||
		strings.Contains(low, "did not find expected") ||
		strings.Contains(low, "cannot unmarshal")
}

func lineNumber(s string) string {
	if m := reLine.FindStringSubmatch(s); len(m) == 2 {
		return m[1]
	}
	return ""
}

// lastQuoted returns the final double-quoted token in s. Wrapped errors put
// the innermost message last, so that token is the most specific detail.
func lastQuoted(s string) string {
	ms := reQuoted.FindAllStringSubmatch(s, -1)
	if len(ms) == 0 {
		return ""
	}
	return ms[len(ms)-1][1]
}
