package tui

import (
	"log/slog"

	"github.com/covrig/covrig/internal/ports"
)

// Deps carries everything the interactive surface needs from the outside:
// workspace discovery and seeding, plus the process-wide logger. Runs
// themselves go through the run feed, which builds its own wiring per run.
type Deps struct {
	Locator ports.WorkspaceLocator
	Seeder  ports.WorkspaceSeeder

	Logger *slog.Logger
	Debug  bool
}
