package pipelineyaml

import (
	"fmt"
	"strings"

	"github.com/covrig/covrig/internal/domain"
	gvers "github.com/hashicorp/go-version"
)

func mapPipeline(path string, doc pipelineDoc) (domain.Pipeline, error) {
	if strings.TrimSpace(doc.Name) == "" {
		return domain.Pipeline{}, badField(path, "name", "pipeline name is required")
	}
	if doc.Script == nil || strings.TrimSpace(doc.Script.Run) == "" {
		return domain.Pipeline{}, badField(path, "script", "a single script command is required")
	}

	p := domain.Pipeline{
		Name: doc.Name,
		Runtime: domain.RuntimeSpec{
			Version: strings.TrimSpace(doc.Runtime.Version),
			FromEnv: strings.TrimSpace(doc.Runtime.FromEnv),
		},
		Env: domain.Vars(doc.Env),
	}
	if p.Env == nil {
		p.Env = domain.Vars{}
	}

	var err error
	if p.Setup, err = mapSteps(path, "setup", doc.Setup); err != nil {
		return domain.Pipeline{}, err
	}
	if p.Install, err = mapSteps(path, "install", doc.Install); err != nil {
		return domain.Pipeline{}, err
	}
	if p.AfterSuccess, err = mapSteps(path, "after_success", doc.AfterSuccess); err != nil {
		return domain.Pipeline{}, err
	}

	script, err := mapStep(path, "script", *doc.Script)
	if err != nil {
		return domain.Pipeline{}, err
	}
	if script.Name == "" {
		script.Name = "script"
	}
	p.Script = script

	return p, nil
}

func mapSteps(path, phase string, in []stepDoc) ([]domain.Step, error) {
	out := make([]domain.Step, 0, len(in))
	for i, st := range in {
		field := fmt.Sprintf("%s[%d]", phase, i)
		s, err := mapStep(path, field, st)
		if err != nil {
			return nil, err
		}
		if s.Name == "" {
			s.Name = fmt.Sprintf("%s-%d", phase, i+1)
		}
		out = append(out, s)
	}
	return out, nil
}

func mapStep(path, field string, st stepDoc) (domain.Step, error) {
	if strings.TrimSpace(st.Run) == "" {
		return domain.Step{}, badField(path, field+".run", "step command is required")
	}
	if st.TimeoutSec < 0 {
		return domain.Step{}, badField(path, field+".timeout_sec", "timeout must not be negative")
	}

	// Reject malformed constraints at load time rather than mid-run.
	when := strings.TrimSpace(st.When)
	if when != "" {
		if _, err := gvers.NewConstraint(when); err != nil {
			return domain.Step{}, badField(path, field+".when", err.Error())
		}
	}

	s := domain.Step{
		Name:       strings.TrimSpace(st.Name),
		Run:        st.Run,
		When:       when,
		Env:        domain.Vars(st.Env),
		TimeoutSec: st.TimeoutSec,
	}
	if s.Env == nil {
		s.Env = domain.Vars{}
	}
	return s, nil
}

// badField rejects a pipeline document with a pointer to the offending field.
func badField(path, field, msg string) error {
	err := fmt.Errorf("field %s: %s: %w", field, msg, domain.ErrInvalidConfig)
	return pipeErr("pipelineyaml.map", domain.FaultBadConfig, path, err)
}
