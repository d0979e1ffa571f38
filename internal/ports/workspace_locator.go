package ports

// WorkspaceLocator walks upward from a starting point to the nearest
// covrig.yaml and reports the directory holding it.
type WorkspaceLocator interface {
	FindRoot(from string) (string, error)
}
