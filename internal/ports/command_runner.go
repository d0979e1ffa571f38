package ports

import (
	"context"

	"github.com/covrig/covrig/internal/domain"
)

// CommandRunner executes a single external command and captures its output.
type CommandRunner interface {
	Run(ctx context.Context, cmd domain.Command) (domain.CommandResult, error)
}
