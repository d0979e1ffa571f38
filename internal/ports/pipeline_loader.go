package ports

import "github.com/covrig/covrig/internal/domain"

// PipelineLoader reads pipeline definitions out of a workspace.
type PipelineLoader interface {
	LoadPipeline(path string) (domain.Pipeline, error)
	ListPipelines(root string) ([]domain.PipelineRef, error)
}
