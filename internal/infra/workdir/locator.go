package workdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/covrig/covrig/internal/domain"
)

// Locator finds the covrig workspace root by walking up from a start directory
// until it sees the marker config file.
type Locator struct {
	ConfigFile string // defaults to "covrig.yaml"
}

func NewLocator() *Locator {
	return &Locator{ConfigFile: "covrig.yaml"}
}

func (l *Locator) FindRoot(from string) (string, error) {
	if from == "" {
		return "", opErr("workdir.findroot", domain.FaultBadConfig, "", errors.New("start directory is empty"))
	}

	dir, err := l.normalize(from)
	if err != nil {
		return "", opErr("workdir.findroot", domain.FaultExec, "", err)
	}

	for {
		if l.markerAt(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // filesystem root
		}
		dir = parent
	}

	notFound := fmt.Errorf("no %s here or above: %w", l.ConfigFile, domain.ErrNotFound)
	return "", opErr("workdir.findroot", domain.FaultNotFound, from, notFound)
}

// opErr tags package errors with the op that raised them.
func opErr(op string, kind domain.FaultKind, path string, err error) error {
	return &domain.Fault{Op: op, Kind: kind, Path: path, Err: err}
}

// normalize resolves the start point to an absolute directory, accepting a file path
// by using its parent.
func (l *Locator) normalize(from string) (string, error) {
	p, err := filepath.Abs(from)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(p); err == nil && !info.IsDir() {
		p = filepath.Dir(p)
	}
	return filepath.Clean(p), nil
}

func (l *Locator) markerAt(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, l.ConfigFile))
	return err == nil
}
