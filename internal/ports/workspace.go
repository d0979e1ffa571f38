package ports

// WorkspaceSeeder seeds the directory layout and starter files of a new
// workspace at root. force overwrites starter files that already exist.
type WorkspaceSeeder interface {
	Seed(root string, force bool) error
}
