package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/covrig/covrig/internal/infra/fsworkspace"
	"github.com/covrig/covrig/internal/usecase"
)

func newInitCmd() *cobra.Command {
	var path string
	var force bool

	c := &cobra.Command{
		Use:   "init",
		Short: "Create a covrig workspace (covrig.yaml, suites/, pipelines/, env/)",
		RunE: func(_ *cobra.Command, _ []string) error {
			uc := usecase.NewSeedWorkspace(fsworkspace.NewSeeder())
			root, err := uc.Execute(path, force)
			if err != nil {
				return err
			}

			fmt.Printf("workspace created at %s\n", root)
			return nil
		},
	}

	c.Flags().StringVar(&path, "path", "", "Directory to initialize (default: current directory)")
	c.Flags().BoolVar(&force, "force", false, "Overwrite files that already exist")

	return c
}
