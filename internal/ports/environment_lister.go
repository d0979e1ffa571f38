package ports

import "github.com/covrig/covrig/internal/domain"

// EnvironmentLister enumerates the environment sets defined under a workspace.
type EnvironmentLister interface {
	ListEnvironments(root string) ([]domain.EnvironmentRef, error)
}
