package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/covrig/covrig/internal/domain"
)

func newReportCmd() *cobra.Command {
	var (
		wsFlag string
		format string
	)

	c := &cobra.Command{
		Use:   "report [id|path]",
		Short: "Show a saved run report, or summarize a cover profile",
		Long: "Show a saved run report by id or path. With no argument the most recent\n" +
			"report is shown. A path that is not a saved report is parsed as a Go cover\n" +
			"profile and summarized.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ws, err := openWorkspace(wsFlag)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				report, id, err := ws.reports.LatestReport()
				if err != nil {
					return err
				}
				return printReport(os.Stdout, report, id, format)
			}

			arg := args[0]

			report, id, loadErr := ws.reports.LoadReport(arg)
			if loadErr == nil {
				return printReport(os.Stdout, report, id, format)
			}
			if !domain.HasKind(loadErr, domain.FaultNotFound) {
				return loadErr
			}

			summary, profErr := ws.profiles.ReadProfile(absUnder(ws.root, arg))
			if profErr != nil {
				var errs *multierror.Error
				errs = multierror.Append(errs, fmt.Errorf("not a saved report: %w", loadErr))
				errs = multierror.Append(errs, fmt.Errorf("not a cover profile: %w", profErr))
				return errs.ErrorOrNil()
			}

			return printSummary(os.Stdout, summary, format)
		},
	}

	c.Flags().StringVarP(&wsFlag, "workspace", "w", "", "Workspace directory (default: nearest covrig.yaml)")
	c.Flags().StringVar(&format, "format", "pretty", "Report format: pretty or json")

	return c
}

func printSummary(w io.Writer, summary domain.CoverageSummary, style string) error {
	switch style {
	case "json":
		raw, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", raw)
		return err
	case "", "pretty":
		fmt.Fprintf(w, "Mode:     %s\n", summary.Mode)
		fmt.Fprintf(w, "Coverage: %.1f%% (%d/%d statements)\n\n", summary.Percent, summary.Covered, summary.Total)
		for _, f := range summary.Files {
			fmt.Fprintf(w, "- %6.1f%%  %s (%d/%d)\n", f.Percent, f.Name, f.Covered, f.Total)
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q (want pretty or json)", style)
	}
}
