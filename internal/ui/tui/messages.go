package tui

import "github.com/covrig/covrig/internal/domain"

type wsProbedMsg struct {
	found bool
	root  string
	err   error
}

type wsSeededMsg struct {
	root string
	err  error
}

// pickEntry is one selectable row for the picker screens. Suite, pipeline,
// and environment refs all flatten into it.
type pickEntry struct {
	Name string
	Path string
}

type pickerLoadedMsg struct {
	root string
	ents []pickEntry
	err  error
}

type latestReportMsg struct {
	report domain.RunReport
	id     string
	err    error
}
