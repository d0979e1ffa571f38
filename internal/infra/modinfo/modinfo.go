package modinfo

import (
	"os"
	"path"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// SourcePackage derives a default source package for suites that omit
// tool.source. A workspace holding a go.mod contributes the last element of
// its module path; anything else contributes nothing.
func SourcePackage(root string) string {
	b, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return ""
	}
	mp := modfile.ModulePath(b)
	if mp == "" {
		return ""
	}
	return path.Base(mp)
}
