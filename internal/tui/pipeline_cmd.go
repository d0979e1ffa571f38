package tui

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/covrig/covrig/internal/infra/envyaml"
	"github.com/covrig/covrig/internal/infra/pipelineyaml"
	"github.com/covrig/covrig/internal/infra/runstore"
	"github.com/covrig/covrig/internal/infra/shellrunner"
	"github.com/covrig/covrig/internal/infra/workdir"
	"github.com/covrig/covrig/internal/usecase"
)

// StartPipelineRun executes a CI pipeline in a background goroutine and
// returns the feed the UI listens on.
func StartPipelineRun(root, pipelinePath, env string, lg *slog.Logger, verbose bool) (chan Done, tea.Cmd) {
	ch := make(chan Done, 1)

	if lg == nil {
		lg = slog.Default()
	}

	go func() {
		defer close(ch)

		lg.Info("pipeline.start",
			"workspace", root,
			"pipeline_path", pipelinePath,
			"env", env,
			"verbose", verbose,
		)

		conf, err := workdir.LoadConfig(root)
		if err != nil {
			lg.Error("pipeline.load_config.failed", "err", err)
			ch <- Done{Err: err}
			return
		}

		if strings.TrimSpace(env) == "" {
			env = strings.TrimSpace(os.Getenv(envSelector))
		}
		if env == "" {
			env = conf.Defaults.Environment
		}

		pipeSrc := pipelineyaml.NewSource(
			pipelineyaml.WithPipelinesDir(conf.Paths.PipelinesDir),
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

		uc := usecase.NewRunPipeline(root, pipeSrc, envSrc, runner, store)

		ctx, cancel := context.WithTimeout(context.Background(), runDeadline)
		defer cancel()

		report, id, err := uc.Execute(ctx, pipelinePath, env)

		if err != nil {
			lg.Error("pipeline.failed", "err", err, "saved_id", id)
		} else {
			lg.Info("pipeline.ok", "saved_id", id, "status", string(report.Status))
		}

		for _, st := range report.Steps {
			if st.Error != nil {
				lg.Warn("step.error",
					"step", st.Name,
					"phase", string(st.Phase),
					"kind", string(st.Error.Kind),
					"message", st.Error.Message,
					"exit", st.ExitCode,
					"duration_ms", st.DurationMS,
				)
			} else if verbose {
				lg.Debug("step.done",
					"step", st.Name,
					"phase", string(st.Phase),
					"status", string(st.Status),
					"exit", st.ExitCode,
					"duration_ms", st.DurationMS,
				)
			}
		}

		ch <- Done{Report: report, ID: id, Err: err}
	}()

	return ch, Listen(ch)
}
