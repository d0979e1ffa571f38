package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/covrig/covrig/internal/domain"
	"github.com/covrig/covrig/internal/infra/watcher"
	"github.com/covrig/covrig/internal/usecase"
)

func newCoverCmd() *cobra.Command {
	var (
		wsFlag   string
		env      string
		parallel int
		watch    bool
		noSave   bool
		format   string
	)

	c := &cobra.Command{
		Use:   "cover [suite]",
		Short: "Run a coverage suite from a covrig workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(wsFlag)
			if err != nil {
				return err
			}

			arg := ""
			if len(args) > 0 {
				arg = args[0]
			}

			suitePath, err := resolveSuitePath(ws, arg)
			if err != nil {
				return err
			}

			envSel, err := resolveEnvironmentArg(ws, env)
			if err != nil {
				return err
			}

			store := ws.store
			if noSave {
				store = nil
			}

			if parallel <= 0 {
				parallel = ws.conf.Exec.Parallel
			}

			uc := usecase.NewRunSuite(
				ws.root, ws.suites, ws.envs, ws.scanner, ws.runner, ws.profiles, store,
				usecase.WithParallel(parallel),
			)

			if watch {
				return watchSuite(cmd, ws, uc, suitePath, envSel, format)
			}

			report, runID, err := uc.Execute(cmd.Context(), suitePath, envSel)
			if err != nil {
				// Saving can fail after the run completed; print what we have.
				_ = printReport(os.Stdout, report, runID, format)
				return err
			}

			if err := printReport(os.Stdout, report, runID, format); err != nil {
				return err
			}

			return failureExit("cover.gates", report)
		},
	}

	c.Flags().StringVarP(&wsFlag, "workspace", "w", "", "Workspace directory (default: nearest covrig.yaml)")
	c.Flags().StringVarP(&env, "env", "e", "", "Environment name or path (optional; defaults to COVRIG_ENV, then workspace default)")
	c.Flags().IntVar(&parallel, "parallel", 0, "Concurrent target invocations (default from covrig.yaml)")
	c.Flags().BoolVar(&watch, "watch", false, "Re-run the suite when matching files change")
	c.Flags().BoolVar(&noSave, "no-save", false, "Do not save a run artifact under reports/")
	c.Flags().StringVar(&format, "format", "pretty", "Report format: pretty or json")

	return c
}

// watchSuite resolves the suite once to learn which directory and pattern to
// watch, then re-executes on every settled change until interrupted.
func watchSuite(cmd *cobra.Command, ws *wsContext, uc *usecase.RunSuite, suitePath, envSel, format string) error {
	suite, err := ws.suites.LoadSuite(suitePath)
	if err != nil {
		return err
	}
	env, err := ws.envs.LoadEnvironment(envSel)
	if err != nil {
		return err
	}

	sc, err := domain.NewInterpolator().NewScope(domain.Merge(suite.Vars, env.Vars))
	if err != nil {
		return err
	}
	resolved, err := sc.ResolveSuite(suite)
	if err != nil {
		return err
	}

	dir := resolved.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(ws.root, dir)
	}

	changes := make(chan []string, 1)
	w, err := watcher.New(resolved.Pattern, func(paths []string) {
		select {
		case changes <- paths:
		default:
		}
	})
	if err != nil {
		return err
	}
	if err := w.Watch(dir); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w.Start(ctx)
	defer w.Stop()

	runOnce := func() {
		report, runID, err := uc.Execute(ctx, suitePath, envSel)
		_ = printReport(os.Stdout, report, runID, format)
		if err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}

	fmt.Printf("watching %s for %s (ctrl-c to stop)\n\n", dir, resolved.Pattern)
	runOnce()

	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-changes:
			fmt.Printf("\nchanged: %s\n\n", strings.Join(paths, ", "))
			runOnce()
		}
	}
}

func printReport(w io.Writer, report domain.RunReport, runID string, style string) error {
	switch style {
	case "json":
		// The id wraps the report so the domain model stays id-free.
		body := struct {
			RunID  string           `json:"run_id"`
			Report domain.RunReport `json:"report"`
		}{runID, report}
		raw, err := json.MarshalIndent(body, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", raw)
		return err
	case "", "pretty":
		printPrettyReport(w, report, runID)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want pretty or json)", style)
	}
}

func printPrettyReport(w io.Writer, report domain.RunReport, runID string) {
	total := report.EndedAt.Sub(report.StartedAt)
	if report.StartedAt.IsZero() || report.EndedAt.IsZero() {
		total = 0
	}

	label := "Suite:"
	if report.Kind == domain.RunKindPipeline {
		label = "Pipeline:"
	}

	fmt.Fprintf(w, "%-9s %s\n", label, report.Name)
	fmt.Fprintf(w, "%-9s %s\n", "Env:", report.EnvName)
	if report.RuntimeVersion != "" {
		fmt.Fprintf(w, "%-9s %s\n", "Runtime:", report.RuntimeVersion)
	}
	fmt.Fprintf(w, "%-9s %s\n", "Started:", report.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "%-9s %s\n", "Duration:", total)
	fmt.Fprintf(w, "%-9s %s\n", "Status:", report.Status)
	if runID != "" {
		fmt.Fprintf(w, "%-9s %s\n", "Run ID:", runID)
	}
	fmt.Fprintln(w)

	for _, t := range report.Targets {
		state := "OK"
		if t.Failed() {
			state = "FAIL"
		}

		fmt.Fprintf(w, "- [%s] %s (exit=%d, %dms)\n", state, t.Target, t.ExitCode, t.DurationMS)
		if t.Error != nil {
			fmt.Fprintf(w, "  error: %s (%s)\n", t.Error.Message, t.Error.Kind)
		}
	}
	if len(report.Targets) > 0 {
		fmt.Fprintln(w)
	}

	for _, s := range report.Steps {
		switch s.Status {
		case domain.StepSkipped:
			fmt.Fprintf(w, "- [SKIP] %s/%s\n", s.Phase, s.Name)
			if s.SkipReason != "" {
				fmt.Fprintf(w, "  skipped: %s\n", s.SkipReason)
			}
		case domain.StepFailed:
			fmt.Fprintf(w, "- [FAIL] %s/%s (exit=%d, %dms)\n", s.Phase, s.Name, s.ExitCode, s.DurationMS)
			if s.Error != nil {
				fmt.Fprintf(w, "  error: %s (%s)\n", s.Error.Message, s.Error.Kind)
			}
		default:
			fmt.Fprintf(w, "- [OK] %s/%s (exit=%d, %dms)\n", s.Phase, s.Name, s.ExitCode, s.DurationMS)
		}
	}
	if len(report.Steps) > 0 {
		fmt.Fprintln(w)
	}

	if report.Summary != nil {
		fmt.Fprintf(w, "Coverage: %.1f%% (%d/%d statements)\n", report.Summary.Percent, report.Summary.Covered, report.Summary.Total)
	}

	if len(report.Gates) > 0 {
		pass, fail := tallyGates(report.Gates)
		fmt.Fprintf(w, "Gates: %d pass / %d fail\n", pass, fail)
		for _, g := range report.Gates {
			mark := "✓"
			if !g.Passed {
				mark = "✗"
			}
			fmt.Fprintf(w, "  %s %s - %s\n", mark, g.Name, g.Message)
		}
	}

	if len(report.Extracts) > 0 {
		ok, bad := tallyExtracts(report.Extracts)
		fmt.Fprintf(w, "Extracts: %d ok / %d fail\n", ok, bad)
		for _, ex := range report.Extracts {
			mark := "✓"
			if !ex.Success {
				mark = "✗"
			}
			fmt.Fprintf(w, "  %s %s - %s\n", mark, ex.Name, ex.Message)
		}
	}

	if len(report.Extracted) > 0 {
		fmt.Fprintf(w, "Extracted vars:\n")
		for k, v := range report.Extracted {
			fmt.Fprintf(w, "  %s = %s\n", k, v)
		}
	}
}

// failureExit turns a failed report into a non-zero exit. Gate failures get
// the gate_failed kind so callers can tell a quality miss from a broken run.
func failureExit(op string, report domain.RunReport) error {
	fails := countFailures(report)
	if fails == 0 {
		return nil
	}
	if _, gateFails := tallyGates(report.Gates); gateFails > 0 {
		gateErr := fmt.Errorf("%d failed check(s): %w", fails, domain.ErrGateFailed)
		return &domain.Fault{Op: op, Kind: domain.FaultGate, Err: gateErr}
	}
	return fmt.Errorf("run failed (%d failed check(s))", fails)
}

// countFailures counts everything that flips a run to failed: failed targets,
// failed steps outside after_success, and failed gates.
func countFailures(report domain.RunReport) int {
	n := report.FailedTargets()
	for _, s := range report.Steps {
		if s.Status == domain.StepFailed && s.Phase != domain.PhaseAfterSuccess {
			n++
		}
	}
	for _, g := range report.Gates {
		if !g.Passed {
			n++
		}
	}
	return n
}

func tallyGates(results []domain.GateResult) (passed int, failed int) {
	for _, g := range results {
		if g.Passed {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}

func tallyExtracts(results []domain.ExtractRecord) (ok int, bad int) {
	for _, e := range results {
		if e.Success {
			ok++
		} else {
			bad++
		}
	}
	return ok, bad
}
