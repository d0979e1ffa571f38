package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/covrig/covrig/internal/usecase"
)

func newCICmd() *cobra.Command {
	var wsFlag string
	var env string
	var noSave bool
	var format string

	c := &cobra.Command{
		Use:   "ci [pipeline]",
		Short: "Run a CI pipeline from a covrig workspace",
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

			pipelinePath, err := resolvePipelinePath(ws, arg)
			if err != nil {
				return err
			}

			envSel, err := resolveEnvironmentArg(ws, env)
			if err != nil {
				return err
			}

			var store = ws.store
			if noSave {
				store = nil
			}

			uc := usecase.NewRunPipeline(ws.root, ws.pipelines, ws.envs, ws.runner, store)

			report, runID, err := uc.Execute(cmd.Context(), pipelinePath, envSel)
			if err != nil {
				_ = printReport(os.Stdout, report, runID, format)
				return err
			}

			if err := printReport(os.Stdout, report, runID, format); err != nil {
				return err
			}

			return failureExit("ci.checks", report)
		},
	}

	c.Flags().StringVarP(&wsFlag, "workspace", "w", "", "Workspace directory (default: nearest covrig.yaml)")
	c.Flags().StringVarP(&env, "env", "e", "", "Environment name or path (optional; defaults to COVRIG_ENV, then workspace default)")
	c.Flags().BoolVar(&noSave, "no-save", false, "Do not save a run artifact under reports/")
	c.Flags().StringVar(&format, "format", "pretty", "Report format: pretty or json")

	return c
}
