package suiteyaml

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/covrig/covrig/internal/domain"
	"github.com/covrig/covrig/internal/ports"
	"gopkg.in/yaml.v3"
)

type Source struct {
	suitesDir     string
	defaultSource string
}

func NewSource(opts ...Option) *Source {
	src := &Source{suitesDir: "suites"}
	for _, o := range opts {
		o(src)
	}
	return src
}

type Option func(*Source)

func WithSuitesDir(dir string) Option {
	return func(src *Source) { src.suitesDir = dir }
}

// WithDefaultSource sets the source package used when a suite omits
// tool.source (typically derived from the instrumented project itself).
func WithDefaultSource(pkg string) Option {
	return func(src *Source) { src.defaultSource = pkg }
}

var _ ports.SuiteLoader = (*Source)(nil)

func (src *Source) LoadSuite(path string) (domain.Suite, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Suite{}, suiteErr("suiteyaml.load", domain.FaultNotFound, path, err)
	}

	var doc suiteDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return domain.Suite{}, suiteErr("suiteyaml.load", domain.FaultBadConfig, path, err)
	}

	return src.mapAndValidate(path, doc)
}

func (src *Source) ListSuites(root string) ([]domain.SuiteRef, error) {
	dir := filepath.Join(root, src.suitesDir)
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, suiteErr("suiteyaml.list", domain.FaultNotFound, dir, err)
	}

	var found []domain.SuiteRef
	for _, ent := range ents {
		if ref, ok := refFor(dir, ent); ok {
			found = append(found, ref)
		}
	}

	slices.SortFunc(found, func(a, b domain.SuiteRef) int { return strings.Compare(a.Name, b.Name) })
	return found, nil
}

// refFor turns one directory entry into a suite ref. The display name is the
// YAML name field when the file has one, the file stem otherwise.
func refFor(dir string, e os.DirEntry) (domain.SuiteRef, bool) {
	fname := e.Name()
	ext := filepath.Ext(fname)
	if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
		return domain.SuiteRef{}, false
	}

	path := filepath.Join(dir, fname)
	display := strings.TrimSuffix(fname, ext)

	var head struct {
		Name string `yaml:"name"`
	}
	if raw, err := os.ReadFile(path); err == nil {
		if yaml.Unmarshal(raw, &head) == nil && strings.TrimSpace(head.Name) != "" {
			display = head.Name
		}
	}

	return domain.SuiteRef{Name: display, Path: path}, true
}

type suiteDoc struct {
	Name    string      `yaml:"name"`
	Dir     string      `yaml:"dir"`
	Pattern string      `yaml:"pattern"`
	Exclude []string    `yaml:"exclude"`
	Vars    domain.Vars `yaml:"vars"`

	Tool toolDoc `yaml:"tool"`

	Gates   map[string]gateDoc `yaml:"gates"`
	Extract domain.ExtractSpec `yaml:"extract"`
}

type toolDoc struct {
	Command    string   `yaml:"command"`
	RunArgs    []string `yaml:"run_args"`
	Accumulate *string  `yaml:"accumulate"`
	SourceFlag string   `yaml:"source_flag"`
	Source     string   `yaml:"source"`
	ExtraArgs  []string `yaml:"extra_args"`
	EraseArgs  []string `yaml:"erase_args"`
	HTMLArgs   []string `yaml:"html_args"`
	Profile    string   `yaml:"profile"`
	TimeoutSec int      `yaml:"timeout_sec"`
}

type gateDoc struct {
	Exists bool     `yaml:"exists"`
	Min    *float64 `yaml:"min"`
	Max    *float64 `yaml:"max"`
	Eq     *string  `yaml:"eq"`
}

func (src *Source) mapAndValidate(path string, doc suiteDoc) (domain.Suite, error) {
	if strings.TrimSpace(doc.Name) == "" {
		return domain.Suite{}, badField(path, "name", "suite name is required")
	}
	if strings.TrimSpace(doc.Dir) == "" {
		return domain.Suite{}, badField(path, "dir", "target directory is required")
	}

	s := domain.Suite{
		Name:    doc.Name,
		Dir:     doc.Dir,
		Pattern: doc.Pattern,
		Exclude: doc.Exclude,
		Vars:    doc.Vars,
		Extract: doc.Extract,
	}

	if strings.TrimSpace(s.Pattern) == "" {
		s.Pattern = "*.py"
	}
	if s.Vars == nil {
		s.Vars = domain.Vars{}
	}
	if s.Extract == nil {
		s.Extract = domain.ExtractSpec{}
	}

	s.Tool = mapTool(doc.Tool)
	if s.Tool.Source == "" {
		s.Tool.Source = src.defaultSource
	}
	if s.Tool.Source == "" {
		return domain.Suite{}, badField(path, "tool.source", "source package is required")
	}
	if s.Tool.TimeoutSec < 0 {
		return domain.Suite{}, badField(path, "tool.timeout_sec", "timeout must not be negative")
	}

	s.Gates = make(map[string]domain.GateCheck, len(doc.Gates))
	for name, g := range doc.Gates {
		if g.Min != nil && g.Max != nil && *g.Min > *g.Max {
			return domain.Suite{}, badField(path, fmt.Sprintf("gates.%s", name), "min exceeds max")
		}
		s.Gates[name] = domain.GateCheck{
			Exists: g.Exists,
			Min:    g.Min,
			Max:    g.Max,
			Eq:     g.Eq,
		}
	}

	return s, nil
}

// mapTool fills the conventional `coverage run -a --source=<pkg>` layout for
// any tool field the YAML omits. An explicit empty accumulate string disables
// the flag.
func mapTool(d toolDoc) domain.ToolSpec {
	t := domain.ToolSpec{
		Command:    d.Command,
		RunArgs:    d.RunArgs,
		SourceFlag: d.SourceFlag,
		Source:     d.Source,
		ExtraArgs:  d.ExtraArgs,
		EraseArgs:  d.EraseArgs,
		HTMLArgs:   d.HTMLArgs,
		Profile:    d.Profile,
		TimeoutSec: d.TimeoutSec,
	}

	if t.Command == "" {
		t.Command = "coverage"
	}
	if t.RunArgs == nil {
		t.RunArgs = []string{"run"}
	}
	if d.Accumulate != nil {
		t.Accumulate = *d.Accumulate
	} else {
		t.Accumulate = "-a"
	}
	if t.SourceFlag == "" {
		t.SourceFlag = "--source"
	}
	if t.HTMLArgs == nil {
		t.HTMLArgs = []string{"html"}
	}

	return t
}

// badField rejects a suite document with a pointer to the offending field.
func badField(path, field, msg string) error {
	return suiteErr("suiteyaml.validate", domain.FaultBadConfig, path, fmt.Errorf("field %s: %s", field, msg))
}

// suiteErr tags a loader failure with the op that hit it.
func suiteErr(op string, kind domain.FaultKind, path string, err error) error {
	return &domain.Fault{Op: op, Kind: kind, Path: path, Err: err}
}
