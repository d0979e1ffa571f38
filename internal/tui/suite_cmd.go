package tui

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/covrig/covrig/internal/infra/envyaml"
	"github.com/covrig/covrig/internal/infra/modinfo"
	"github.com/covrig/covrig/internal/infra/profile"
	"github.com/covrig/covrig/internal/infra/runstore"
	"github.com/covrig/covrig/internal/infra/scriptscan"
	"github.com/covrig/covrig/internal/infra/shellrunner"
	"github.com/covrig/covrig/internal/infra/suiteyaml"
	"github.com/covrig/covrig/internal/infra/workdir"
	"github.com/covrig/covrig/internal/usecase"
)

// envSelector picks the environment set when the caller does not name one,
// mirroring the CLI precedence.
const envSelector = "COVRIG_ENV"

const runDeadline = 30 * time.Minute

// StartSuiteRun executes a coverage suite in a background goroutine and
// returns the feed the UI listens on.
func StartSuiteRun(root, suitePath, env string, lg *slog.Logger, verbose bool) (chan Done, tea.Cmd) {
	ch := make(chan Done, 1)

	if lg == nil {
		lg = slog.Default()
	}

	go func() {
		defer close(ch)

		lg.Info("suite.start",
			"workspace", root,
			"suite_path", suitePath,
			"env", env,
			"verbose", verbose,
		)

		conf, err := workdir.LoadConfig(root)
		if err != nil {
			lg.Error("suite.load_config.failed", "err", err)
			ch <- Done{Err: err}
			return
		}

		if strings.TrimSpace(env) == "" {
			env = strings.TrimSpace(os.Getenv(envSelector))
		}
		if env == "" {
			env = conf.Defaults.Environment
		}

		suiteSrc := suiteyaml.NewSource(
			suiteyaml.WithSuitesDir(conf.Paths.SuitesDir),
			suiteyaml.WithDefaultSource(modinfo.SourcePackage(root)),
		)
		envSrc := envyaml.NewSource(
			root,
			envyaml.WithDir(conf.Paths.EnvironmentsDir),
		)
		runner := shellrunner.New(
			shellrunner.WithDefaultTimeout(time.Duration(conf.Exec.TimeoutSec)*time.Second),
			shellrunner.WithMaxOutputBytes(int64(conf.Exec.MaxOutputKB)*1024),
		)
		store := runstore.New(root, conf, runstore.WithIndex(true))

		uc := usecase.NewRunSuite(
			root,
			suiteSrc,
			envSrc,
			scriptscan.NewScanner(),
			runner,
			profile.NewReader(),
			store,
			usecase.WithParallel(conf.Exec.Parallel),
		)

		ctx, cancel := context.WithTimeout(context.Background(), runDeadline)
		defer cancel()

		report, id, err := uc.Execute(ctx, suitePath, env)

		if err != nil {
			lg.Error("suite.failed", "err", err, "saved_id", id)
		} else {
			lg.Info("suite.ok", "saved_id", id, "status", string(report.Status))
		}

		for _, tr := range report.Targets {
			if tr.Error != nil {
				lg.Warn("target.error",
					"target", tr.Target,
					"kind", string(tr.Error.Kind),
					"message", tr.Error.Message,
					"exit", tr.ExitCode,
					"duration_ms", tr.DurationMS,
				)
			} else if verbose {
				lg.Debug("target.done",
					"target", tr.Target,
					"exit", tr.ExitCode,
					"duration_ms", tr.DurationMS,
				)
			}
		}

		ch <- Done{Report: report, ID: id, Err: err}
	}()

	return ch, Listen(ch)
}
