package ports

import "github.com/covrig/covrig/internal/domain"

// SuiteLoader reads coverage suite definitions out of a workspace.
type SuiteLoader interface {
	LoadSuite(path string) (domain.Suite, error)
	ListSuites(root string) ([]domain.SuiteRef, error)
}
