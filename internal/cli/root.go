package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/covrig/covrig/internal/infra/fsworkspace"
	"github.com/covrig/covrig/internal/infra/logger"
	"github.com/covrig/covrig/internal/infra/workdir"
	"github.com/covrig/covrig/internal/ui/tui"
)

func Execute() {
	if err := newCovrigCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCovrigCmd() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:          "covrig",
		Short:        "covrig - coverage suites and CI pipelines from YAML workspaces",
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runTUI(debug)
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable verbose logging to .covrig/logs/covrig.log")

	cmd.AddCommand(
		newInitCmd(),
		newCoverCmd(),
		newCICmd(),
		newSuitesCmd(),
		newPipelinesCmd(),
		newEnvsCmd(),
		newReportCmd(),
		newUploadCmd(),
		newValidateCmd(),
		newVersionCmd(),
	)

	return cmd
}

// runTUI starts the interactive surface. Logs land in the workspace when one
// is found, under the current directory otherwise.
func runTUI(debug bool) error {
	wd := "."
	if d, err := os.Getwd(); err == nil {
		wd = d
	}
	if abs, err := filepath.Abs(wd); err == nil {
		wd = abs
	}

	loc := workdir.NewLocator()

	logConf := logger.Config{Root: wd, Debug: debug}
	if root, findErr := loc.FindRoot(wd); findErr == nil && root != "" {
		logConf.Root = root
		if conf, confErr := workdir.LoadConfig(root); confErr == nil {
			logConf.MaxSizeMB = conf.Logging.MaxSizeMB
			logConf.MaxBackups = conf.Logging.MaxBackups
			logConf.MaxAgeDays = conf.Logging.MaxAgeDays
		}
	}

	closeLog, _ := logger.Setup(logConf)
	if closeLog != nil {
		defer func() { _ = closeLog() }()
	}

	if err := tui.Start(tui.Deps{
		Locator: loc,
		Seeder:  fsworkspace.NewSeeder(),
		Logger:  logger.Log(),
		Debug:   debug,
	}); err != nil {
		if p := logger.Filename(); p != "" {
			fmt.Fprintf(os.Stderr, "details in %s\n", p)
		}
		return err
	}
	return nil
}
