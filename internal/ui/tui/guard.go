package tui

import (
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
)

// guardedModel wraps the real app so a panic in Update or View drops the
// user back on the home screen instead of tearing down the terminal.
type guardedModel struct {
	m  app
	lg *slog.Logger
}

func guardModel(m app, lg *slog.Logger) guardedModel {
	if lg == nil {
		lg = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return guardedModel{m: m, lg: lg}
}

func resetAfterPanic(m app) app {
	m.pg = pageHome
	m.running = false
	m.runName = ""
	m.toast = "Unexpected error (details in log)"
	return m
}

func (g guardedModel) logPanic(phase string, r any) {
	g.lg.Error("tui.panic",
		"phase", phase,
		"screen", int(g.m.pg),
		"reason", fmt.Sprint(r),
		"trace", string(debug.Stack()),
	)
}

func (g guardedModel) Init() tea.Cmd {
	return g.m.Init()
}

func (g guardedModel) Update(msg tea.Msg) (tm tea.Model, cmd tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			g.logPanic("update", r)
			g.m = resetAfterPanic(g.m)
			tm, cmd = g, nil
		}
	}()

	inner, c := g.m.Update(msg)

	switch next := inner.(type) {
	case app:
		g.m = next
	case guardedModel:
		g = next
	}

	return g, c
}

func (g guardedModel) View() (out string) {
	defer func() {
		if r := recover(); r != nil {
			g.logPanic("view", r)
			out = "Unexpected error (details in log)"
		}
	}()
	return g.m.View()
}

var _ tea.Model = (*guardedModel)(nil)
