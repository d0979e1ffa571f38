package pipelineyaml

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/covrig/covrig/internal/domain"
	"github.com/covrig/covrig/internal/ports"
	"gopkg.in/yaml.v3"
)

type Source struct {
	pipelinesDir string
}

func NewSource(opts ...Option) *Source {
	src := &Source{pipelinesDir: "pipelines"}
	for _, o := range opts {
		o(src)
	}
	return src
}

type Option func(*Source)

func WithPipelinesDir(dir string) Option {
	return func(src *Source) { src.pipelinesDir = dir }
}

var _ ports.PipelineLoader = (*Source)(nil)

func (src *Source) LoadPipeline(path string) (domain.Pipeline, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Pipeline{}, pipeErr("pipelineyaml.load", domain.FaultNotFound, path, err)
	}

	var doc pipelineDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return domain.Pipeline{}, pipeErr("pipelineyaml.load", domain.FaultBadConfig, path, err)
	}

	return mapPipeline(path, doc)
}

func (src *Source) ListPipelines(root string) ([]domain.PipelineRef, error) {
	dir := filepath.Join(root, src.pipelinesDir)
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, pipeErr("pipelineyaml.list", domain.FaultNotFound, dir, err)
	}

	var found []domain.PipelineRef
	for _, ent := range ents {
		if ref, ok := refFor(dir, ent); ok {
			found = append(found, ref)
		}
	}

	slices.SortFunc(found, func(a, b domain.PipelineRef) int { return strings.Compare(a.Name, b.Name) })
	return found, nil
}

// refFor turns one directory entry into a pipeline ref. The display name is
// the YAML name field when the file has one, the file stem otherwise.
func refFor(dir string, e os.DirEntry) (domain.PipelineRef, bool) {
	fname := e.Name()
	ext := filepath.Ext(fname)
	if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
		return domain.PipelineRef{}, false
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

	return domain.PipelineRef{Name: display, Path: path}, true
}

// pipeErr tags a loader failure with the op that hit it.
func pipeErr(op string, kind domain.FaultKind, path string, err error) error {
	return &domain.Fault{Op: op, Kind: kind, Path: path, Err: err}
}
