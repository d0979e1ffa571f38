package usecase

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/covrig/covrig/internal/domain"
	"github.com/covrig/covrig/internal/ports"
)

// SeedWorkspace seeds a new covrig workspace on disk. An empty root means the
// current directory; relative roots are resolved so the seeder always
// sees an absolute path.
type SeedWorkspace struct {
	seeder ports.WorkspaceSeeder
}

func NewSeedWorkspace(seeder ports.WorkspaceSeeder) *SeedWorkspace {
	return &SeedWorkspace{seeder: seeder}
}

// Execute creates the workspace and returns the resolved root directory.
func (uc *SeedWorkspace) Execute(root string, force bool) (string, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", &domain.Fault{Op: "seedworkspace.execute", Kind: domain.FaultExec, Err: err}
		}
		root = wd
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", &domain.Fault{Op: "seedworkspace.execute", Kind: domain.FaultBadConfig, Path: root, Err: err}
	}

	if err := uc.seeder.Seed(abs, force); err != nil {
		return "", err
	}
	return abs, nil
}
