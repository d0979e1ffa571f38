package tui

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/covrig/covrig/internal/infra/envyaml"
	"github.com/covrig/covrig/internal/infra/pipelineyaml"
	"github.com/covrig/covrig/internal/infra/runstore"
	"github.com/covrig/covrig/internal/infra/suiteyaml"
	"github.com/covrig/covrig/internal/infra/workdir"
	"github.com/covrig/covrig/internal/usecase"
)

// cmdProbeWorkspace looks for a workspace around the current directory. It
// runs at startup and again after the user seeds one.
func cmdProbeWorkspace(deps Deps) tea.Cmd {
	return func() tea.Msg {
		if deps.Locator == nil {
			return wsProbedMsg{err: errors.New("workspace locator is not wired")}
		}

		wd, err := os.Getwd()
		if err != nil {
			return wsProbedMsg{err: fmt.Errorf("getwd: %w", err)}
		}

		root, err := deps.Locator.FindRoot(wd)
		if err != nil {
			return wsProbedMsg{err: err}
		}
		return wsProbedMsg{found: true, root: root}
	}
}

func cmdSeedWorkspace(deps Deps, root string) tea.Cmd {
	return func() tea.Msg {
		if deps.Seeder == nil {
			return wsSeededMsg{root: root, err: errors.New("workspace seeder is not wired")}
		}

		resolved, err := usecase.NewSeedWorkspace(deps.Seeder).Execute(root, true)
		if err != nil {
			return wsSeededMsg{root: root, err: err}
		}
		return wsSeededMsg{root: resolved}
	}
}

// pickEntries flattens loader refs into picker rows. SuiteRef, PipelineRef,
// and EnvironmentRef all share the name/path shape.
func pickEntries[T ~struct {
	Name string
	Path string
}](refs []T) []pickEntry {
	out := make([]pickEntry, 0, len(refs))
	for _, ref := range refs {
		out = append(out, pickEntry(ref))
	}
	return out
}

func cmdLoadSuites(root string) tea.Cmd {
	return func() tea.Msg {
		conf, err := workdir.LoadConfig(root)
		if err != nil {
			return pickerLoadedMsg{root: root, err: err}
		}

		src := suiteyaml.NewSource(
			suiteyaml.WithSuitesDir(conf.Paths.SuitesDir),
		)

		refs, err := src.ListSuites(root)
		if err != nil {
			return pickerLoadedMsg{root: root, err: err}
		}
		return pickerLoadedMsg{root: root, ents: pickEntries(refs)}
	}
}

func cmdLoadPipelines(root string) tea.Cmd {
	return func() tea.Msg {
		conf, err := workdir.LoadConfig(root)
		if err != nil {
			return pickerLoadedMsg{root: root, err: err}
		}

		src := pipelineyaml.NewSource(
			pipelineyaml.WithPipelinesDir(conf.Paths.PipelinesDir),
		)

		refs, err := src.ListPipelines(root)
		if err != nil {
			return pickerLoadedMsg{root: root, err: err}
		}
		return pickerLoadedMsg{root: root, ents: pickEntries(refs)}
	}
}

func cmdLoadEnvs(root string) tea.Cmd {
	return func() tea.Msg {
		conf, err := workdir.LoadConfig(root)
		if err != nil {
			return pickerLoadedMsg{root: root, err: err}
		}

		src := envyaml.NewSource(
			root,
			envyaml.WithDir(conf.Paths.EnvironmentsDir),
		)

		refs, err := src.ListEnvironments(root)
		if err != nil {
			return pickerLoadedMsg{root: root, err: err}
		}
		return pickerLoadedMsg{root: root, ents: pickEntries(refs)}
	}
}

func cmdLoadLatestReport(root string) tea.Cmd {
	return func() tea.Msg {
		conf, err := workdir.LoadConfig(root)
		if err != nil {
			return latestReportMsg{err: err}
		}

		store := runstore.New(root, conf)
		report, id, err := store.LatestReport()
		return latestReportMsg{report: report, id: id, err: err}
	}
}
