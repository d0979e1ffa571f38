package tui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Listen yields the next event from a run feed as a bubbletea message.
func Listen(ch <-chan Done) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return Done{Err: errors.New("run feed closed early")}
		}
		return ev
	}
}
