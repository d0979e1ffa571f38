package cli

import (
	"fmt"
	"path/filepath"
)

// listEntry is one row of a `covrig <resource> list` listing. detail carries a
// short summary of the file contents, or a note when the file does not parse.
type listEntry struct {
	name   string
	path   string
	detail string
}

// unreadableNote formats the detail for entries whose file failed to load.
// Listing keeps going so one broken file does not hide the rest.
func unreadableNote(err error) string {
	return fmt.Sprintf("(unreadable: %v)", err)
}

// printListing renders a resource listing under the workspace header. Paths
// are shown relative to the root so output does not leak absolute paths.
func printListing(root, defaultName string, entries []listEntry) {
	fmt.Printf("Workspace: %s\n", root)
	fmt.Printf("Default:   %s\n\n", defaultName)

	for _, e := range entries {
		rel, _ := filepath.Rel(root, e.path)
		fmt.Printf("- %s  (%s)\n", e.name, rel)
		if e.detail != "" {
			fmt.Printf("    %s\n", e.detail)
		}
	}
}
