package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/covrig/covrig/internal/usecase"
)

func newValidateCmd() *cobra.Command {
	var wsFlag string
	var env string

	c := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a suite or pipeline file (nothing is executed)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := openWorkspace(wsFlag)
			if err != nil {
				return err
			}

			path, err := resolveDescriptorPath(ws, args[0])
			if err != nil {
				return err
			}

			envSel, err := resolveEnvironmentArg(ws, env)
			if err != nil {
				return err
			}

			uc := usecase.NewValidateFile(ws.suites, ws.pipelines, ws.envs)
			if err := uc.Execute(cmd.Context(), path, envSel); err != nil {
				return err
			}

			fmt.Println("OK")
			return nil
		},
	}

	c.Flags().StringVarP(&wsFlag, "workspace", "w", "", "Workspace directory (default: nearest covrig.yaml)")
	c.Flags().StringVarP(&env, "env", "e", "", "Environment name or path (optional; defaults to COVRIG_ENV, then workspace default)")

	return c
}

// resolveDescriptorPath accepts a suite name, pipeline name, or a path to
// either kind of file. Names are probed in the suites dir first, then the
// pipelines dir.
func resolveDescriptorPath(ws *wsContext, arg string) (string, error) {
	if p, err := resolveSuitePath(ws, arg); err == nil {
		return p, nil
	}
	return resolvePipelinePath(ws, arg)
}
