package scriptscan

import (
	"path/filepath"
	"slices"

	"github.com/covrig/covrig/internal/domain"
	"github.com/covrig/covrig/internal/ports"
)

// Scanner enumerates suite targets with a filename glob. Matches come back
// sorted so successive runs visit files in a stable order.
type Scanner struct{}

func NewScanner() *Scanner {
	return &Scanner{}
}

var _ ports.TargetScanner = (*Scanner)(nil)

func (s *Scanner) Scan(dir, pattern string, exclude []string) ([]string, error) {
	if pattern == "" {
		pattern = "*"
	}

	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		// Only malformed patterns reach here.
		return nil, &domain.Fault{
			Op:   "scriptscan.scan",
			Kind: domain.FaultBadConfig,
			Path: dir,
			Err:  err,
		}
	}

	skip := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		skip[e] = struct{}{}
	}

	targets := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := skip[filepath.Base(m)]; ok {
			continue
		}
		targets = append(targets, m)
	}

	slices.Sort(targets)
	return targets, nil
}
