package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/covrig/covrig/internal/domain"
)

func clampString(s string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "…"
}

// renderReport draws the results card body for a finished suite or pipeline
// run.
func renderReport(report domain.RunReport, runID string) string {
	var b strings.Builder

	if runID != "" {
		fmt.Fprintf(&b, "Saved as %s\n\n", runID)
	}

	if len(report.Targets) > 0 {
		b.WriteString("Targets:\n")
		for _, t := range report.Targets {
			status := "OK"
			if t.Failed() {
				status = "FAIL"
			}
			fmt.Fprintf(&b, "  - [%s] %s (exit=%d, %dms)\n", status, t.Target, t.ExitCode, t.DurationMS)
			if t.Error != nil {
				fmt.Fprintf(&b, "    %s\n", clampString(t.Error.Message, 80))
			}
		}
		b.WriteString("\n")
	}

	if len(report.Steps) > 0 {
		b.WriteString("Steps:\n")
		for _, s := range report.Steps {
			switch s.Status {
			case domain.StepSkipped:
				fmt.Fprintf(&b, "  - [SKIP] %s/%s\n", s.Phase, s.Name)
			case domain.StepFailed:
				fmt.Fprintf(&b, "  - [FAIL] %s/%s (exit=%d, %dms)\n", s.Phase, s.Name, s.ExitCode, s.DurationMS)
				if s.Error != nil {
					fmt.Fprintf(&b, "    %s\n", clampString(s.Error.Message, 80))
				}
			default:
				fmt.Fprintf(&b, "  - [OK] %s/%s (%dms)\n", s.Phase, s.Name, s.DurationMS)
			}
		}
		b.WriteString("\n")
	}

	if report.Summary != nil {
		fmt.Fprintf(&b, "Coverage: %.1f%% (%d/%d statements)\n\n",
			report.Summary.Percent, report.Summary.Covered, report.Summary.Total)
	}

	if len(report.Gates) > 0 {
		b.WriteString("Gates:\n")
		for _, g := range report.Gates {
			mark := "✓"
			if !g.Passed {
				mark = "✗"
			}
			fmt.Fprintf(&b, "  %s %s %s\n", mark, g.Name, clampString(g.Message, 70))
		}
		b.WriteString("\n")
	}

	if len(report.Extracted) > 0 {
		b.WriteString("Extracted vars:\n")
		keys := make([]string, 0, len(report.Extracted))
		for k := range report.Extracted {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  - %s = %s\n", k, report.Extracted[k])
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
