package ports

import "github.com/covrig/covrig/internal/domain"

// EnvironmentSource resolves an environment set by name or by file path,
// secrets overlay included.
type EnvironmentSource interface {
	LoadEnvironment(nameOrPath string) (domain.Environment, error)
}
