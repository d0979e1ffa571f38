package envyaml

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/covrig/covrig/internal/domain"
	"github.com/covrig/covrig/internal/ports"
)

// Source reads environment var files from the workspace env dir. A local
// secrets overlay, when present next to the env file, overrides its vars and
// never shows up in listings.
type Source struct {
	root    string
	dir     string
	overlay string
}

type Option func(*Source)

// WithDir points the loader at a non-default environments directory.
func WithDir(dir string) Option {
	return func(src *Source) { src.dir = dir }
}

// WithOverlay renames the secrets file the loader looks for.
func WithOverlay(name string) Option {
	return func(src *Source) { src.overlay = name }
}

func NewSource(wsRoot string, opts ...Option) *Source {
	src := &Source{root: wsRoot, dir: "env", overlay: "secrets.local.yaml"}
	for _, o := range opts {
		o(src)
	}
	return src
}

var _ ports.EnvironmentSource = (*Source)(nil)
var _ ports.EnvironmentLister = (*Source)(nil)

// LoadEnvironment accepts either an env name (e.g. "ci") or a path to a YAML
// file.
func (src *Source) LoadEnvironment(nameOrPath string) (domain.Environment, error) {
	file, name := src.resolve(nameOrPath)

	var env domain.Environment
	base, err := src.loadVars(file, false)
	if err != nil {
		return env, err
	}

	secrets, err := src.loadVars(filepath.Join(filepath.Dir(file), src.overlay), true)
	if err != nil {
		return env, err
	}

	env = domain.Environment{Name: name, Vars: domain.Merge(base, secrets)}
	return env, nil
}

// resolve maps a name or path argument to the file to read plus the display
// name. Bare names probe .yaml first, then .yml.
func (src *Source) resolve(nameOrPath string) (file, name string) {
	if strings.HasSuffix(nameOrPath, ".yaml") || strings.HasSuffix(nameOrPath, ".yml") ||
		strings.Contains(nameOrPath, string(filepath.Separator)) {
		file = filepath.Clean(nameOrPath)
		return file, strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}

	name = nameOrPath
	file = filepath.Join(src.root, src.dir, name+".yaml")
	if _, err := os.Stat(file); os.IsNotExist(err) {
		alt := filepath.Join(src.root, src.dir, name+".yml")
		if _, altErr := os.Stat(alt); altErr == nil {
			file = alt
		}
	}
	return file, name
}

// ListEnvironments enumerates env files under the workspace, skipping the
// secrets overlay.
func (src *Source) ListEnvironments(root string) ([]domain.EnvironmentRef, error) {
	dir := filepath.Join(root, src.dir)
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, envErr("envyaml.list", domain.FaultNotFound, dir, err)
	}

	var found []domain.EnvironmentRef
	for _, ent := range ents {
		name := ent.Name()
		if ent.IsDir() || name == src.overlay {
			continue
		}
		switch filepath.Ext(name) {
		case ".yaml", ".yml":
		default:
			continue
		}

		stem := strings.TrimSuffix(name, filepath.Ext(name))
		found = append(found, domain.EnvironmentRef{Name: stem, Path: filepath.Join(dir, name)})
	}

	slices.SortFunc(found, func(a, b domain.EnvironmentRef) int { return strings.Compare(a.Name, b.Name) })
	return found, nil
}

type envDoc struct {
	Vars domain.Vars `yaml:"vars"`
}

// loadVars reads one vars file. Optional files that do not exist yield an
// empty map instead of an error.
func (src *Source) loadVars(path string, optional bool) (domain.Vars, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return make(domain.Vars), nil
		}
		kind := domain.FaultNotFound
		if optional {
			kind = domain.FaultExec
		}
		return nil, envErr("envyaml.load", kind, path, err)
	}

	var doc envDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, envErr("envyaml.load", domain.FaultBadConfig, path, err)
	}

	return doc.Vars, nil
}

// envErr tags a loader failure with the op that hit it.
func envErr(op string, kind domain.FaultKind, path string, err error) error {
	return &domain.Fault{Op: op, Kind: kind, Path: path, Err: err}
}
