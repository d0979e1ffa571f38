package tui

import (
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/covrig/covrig/internal/domain"
	feed "github.com/covrig/covrig/internal/tui"
)

type page int

const (
	pageHome page = iota
	pageSuites
	pagePipelines
	pageEnvs
	pageRunning
	pageResults
)

type actionItem struct {
	label string
	blurb string
}

func (a actionItem) Title() string       { return a.label }
func (a actionItem) Description() string { return a.blurb }
func (a actionItem) FilterValue() string { return a.label }

type pickItem struct {
	name string
	path string
	desc string
}

func (p pickItem) Title() string       { return p.name }
func (p pickItem) Description() string { return p.desc }
func (p pickItem) FilterValue() string { return p.name }

type app struct {
	styles Styles
	deps   Deps

	pg      page
	actions list.Model
	picker  list.Model

	wsReady bool
	wsRoot  string

	running bool
	runName string

	report domain.RunReport
	runID  string

	toast string
}

func Start(deps Deps) error {
	prog := tea.NewProgram(guardModel(newApp(deps), deps.Logger), tea.WithAltScreen())
	_, err := prog.Run()
	return err
}

// newList builds a picker-style list with the chrome we draw ourselves
// switched off.
func newList(title string) list.Model {
	lst := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	lst.Title = title
	lst.SetShowStatusBar(false)
	lst.SetFilteringEnabled(true)
	lst.SetShowHelp(false)
	return lst
}

func newApp(deps Deps) app {
	actions := newList("covrig")
	actions.SetItems([]list.Item{
		actionItem{"Cover", "Run a coverage suite"},
		actionItem{"CI", "Run a pipeline"},
		actionItem{"Environments", "View environment sets"},
		actionItem{"Latest report", "Show the most recent saved run"},
		actionItem{"Init workspace", "Create covrig.yaml and the workspace dirs here"},
		actionItem{"Quit", "Exit covrig"},
	})

	a := app{
		styles:  DefaultStyles(),
		deps:    deps,
		pg:      pageHome,
		actions: actions,
		picker:  newList(""),
	}

	if deps.Locator != nil {
		if cwd, err := os.Getwd(); err == nil {
			if root, err := deps.Locator.FindRoot(cwd); err == nil {
				a.wsReady = true
				a.wsRoot = root
			}
		}
	}

	return a
}

func (a app) Init() tea.Cmd { return nil }

// goHome returns to the home screen and clears any toast.
func (a app) goHome() app {
	a.pg = pageHome
	a.toast = ""
	return a
}

func (a app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.actions.SetSize(msg.Width-4, msg.Height-10)
		a.picker.SetSize(msg.Width-4, msg.Height-10)
		return a, nil

	case wsProbedMsg:
		a.wsReady = msg.found
		a.wsRoot = msg.root
		return a, nil

	case wsSeededMsg:
		if msg.err != nil {
			a.toast = toastFor(msg.err)
			return a, nil
		}
		a.toast = "Workspace ready"
		return a, cmdProbeWorkspace(a.deps)

	case pickerLoadedMsg:
		if msg.err != nil {
			a.toast = toastFor(msg.err)
			a.pg = pageHome
			return a, nil
		}
		a.picker.SetItems(pickItems(msg.root, msg.ents))
		return a, nil

	case latestReportMsg:
		if msg.err != nil {
			a.toast = toastFor(msg.err)
			return a, nil
		}
		a.report = msg.report
		a.runID = msg.id
		a.pg = pageResults
		return a, nil

	case feed.Done:
		a.running = false
		a.report = msg.Report
		a.runID = msg.ID
		if msg.Err != nil {
			a.toast = toastFor(msg.Err)
		}
		a.pg = pageResults
		return a, nil

	case tea.KeyMsg:
		pickerActive := a.pg == pageSuites || a.pg == pagePipelines || a.pg == pageEnvs
		if !(pickerActive && a.picker.FilterState() == list.Filtering) {
			switch msg.String() {
			case "ctrl+c":
				return a, tea.Quit

			case "q":
				if a.pg == pageHome {
					return a, tea.Quit
				}
				if a.pg != pageRunning {
					a = a.goHome()
				}
				return a, nil

			case "esc":
				if a.pg != pageHome && a.pg != pageRunning {
					a = a.goHome()
				}
				return a, nil

			case "enter":
				switch a.pg {
				case pageHome:
					return a.selectAction()
				case pageSuites:
					return a.startSuite()
				case pagePipelines:
					return a.startPipeline()
				}
			}
		}
	}

	switch a.pg {
	case pageHome:
		var cmd tea.Cmd
		a.actions, cmd = a.actions.Update(msg)
		return a, cmd

	case pageSuites, pagePipelines, pageEnvs:
		var cmd tea.Cmd
		a.picker, cmd = a.picker.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a app) selectAction() (tea.Model, tea.Cmd) {
	it, ok := a.actions.SelectedItem().(actionItem)
	if !ok {
		return a, nil
	}

	switch it.label {
	case "Quit":
		return a, tea.Quit

	case "Init workspace":
		cwd, err := os.Getwd()
		if err != nil {
			a.toast = "Unexpected error (details in log)"
			return a, nil
		}
		a.toast = "Initializing workspace..."
		return a, cmdSeedWorkspace(a.deps, cwd)
	}

	if !a.wsReady {
		a.toast = "No workspace found (pick \"Init workspace\" first)"
		return a, nil
	}

	switch it.label {
	case "Cover":
		a.pg = pageSuites
		a.picker.Title = "Suites"
		a.picker.SetItems(nil)
		return a, cmdLoadSuites(a.wsRoot)

	case "CI":
		a.pg = pagePipelines
		a.picker.Title = "Pipelines"
		a.picker.SetItems(nil)
		return a, cmdLoadPipelines(a.wsRoot)

	case "Environments":
		a.pg = pageEnvs
		a.picker.Title = "Environments"
		a.picker.SetItems(nil)
		return a, cmdLoadEnvs(a.wsRoot)

	case "Latest report":
		return a, cmdLoadLatestReport(a.wsRoot)
	}
	return a, nil
}

func (a app) startSuite() (tea.Model, tea.Cmd) {
	it, ok := a.picker.SelectedItem().(pickItem)
	if !ok {
		return a, nil
	}

	a.running = true
	a.runName = it.name
	a.toast = ""
	a.pg = pageRunning

	_, cmd := feed.StartSuiteRun(a.wsRoot, it.path, "", a.deps.Logger, a.deps.Debug)
	return a, cmd
}

func (a app) startPipeline() (tea.Model, tea.Cmd) {
	it, ok := a.picker.SelectedItem().(pickItem)
	if !ok {
		return a, nil
	}

	a.running = true
	a.runName = it.name
	a.toast = ""
	a.pg = pageRunning

	_, cmd := feed.StartPipelineRun(a.wsRoot, it.path, "", a.deps.Logger, a.deps.Debug)
	return a, cmd
}

// pickItems decorates picker entries with their workspace-relative path
// so the picker shows where each definition lives.
func pickItems(root string, ents []pickEntry) []list.Item {
	items := make([]list.Item, 0, len(ents))
	for _, ent := range ents {
		rel, err := filepath.Rel(root, ent.Path)
		if err != nil {
			rel = ent.Path
		}
		items = append(items, pickItem{name: ent.Name, path: ent.Path, desc: rel})
	}
	return items
}

func (a app) header() string {
	return a.styles.Heading.Render("covrig") + "\n" +
		a.styles.Tagline.Render("coverage suites and CI pipelines from YAML workspaces") + "\n"
}

func (a app) banner() string {
	var b string
	if a.wsReady {
		b = a.styles.Hint.Render("Workspace: " + a.wsRoot)
	} else {
		b = a.styles.Panel.Render(
			"⚠ No workspace here.\n\nPick \"Init workspace\" to seed covrig.yaml and the starter layout.",
		)
	}
	if a.toast != "" {
		b += "\n" + a.styles.Toast.Render(a.toast)
	}
	return b
}

// chrome stacks the shared frame (header, workspace banner, body, optional
// help line) and pads it.
func (a app) chrome(body, help string) string {
	s := a.header() + "\n" + a.banner() + "\n\n" + body
	if help != "" {
		s += "\n" + help
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(s)
}

func (a app) View() string {
	switch a.pg {
	case pageHome:
		return a.chrome(
			a.styles.Panel.Render(a.actions.View()),
			a.styles.Hint.Render("↑/↓ move • enter select • / filter • q quit"),
		)

	case pageSuites, pagePipelines:
		return a.chrome(
			a.styles.Panel.Render(a.picker.View()),
			a.styles.Hint.Render("↑/↓ move • enter run • / filter • esc back"),
		)

	case pageEnvs:
		return a.chrome(
			a.styles.Panel.Render(a.picker.View()),
			a.styles.Hint.Render("↑/↓ move • / filter • esc back"),
		)

	case pageRunning:
		return a.chrome(a.styles.Panel.Render(
			a.styles.Heading.Render("Running "+a.runName)+"\n\n"+
				"The external tool is running; results will appear here.",
		), "")

	case pageResults:
		statusLine := a.styles.Pass.Render(string(domain.RunPassed))
		if a.report.Status == domain.RunFailed {
			statusLine = a.styles.Fail.Render(string(domain.RunFailed))
		}
		title := a.report.Name
		if title == "" {
			title = "Run"
		}
		return a.chrome(a.styles.Panel.Render(
			a.styles.Heading.Render(title)+"  "+statusLine+"\n\n"+
				renderReport(a.report, a.runID)+"\n\n"+
				a.styles.Hint.Render("esc back • q home"),
		), "")

	default:
		return a.chrome("unknown state", "")
	}
}
