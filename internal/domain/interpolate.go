package domain

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Interpolator expands {{var}} placeholders in suite and pipeline descriptors.
// Besides workspace variables it understands two built-ins, {{$timestamp}}
// and {{$uuid}}, which are frozen once per run.
//
// It lives in domain because expansion needs no YAML, filesystem, or exec
// machinery.
type Interpolator struct {
	clock func() time.Time
	newID func() (string, error)
}

type InterpOption func(*Interpolator)

// WithClock pins the clock behind {{$timestamp}}.
func WithClock(now func() time.Time) InterpOption {
	return func(ip *Interpolator) { ip.clock = now }
}

// WithNewID swaps the generator behind {{$uuid}}.
func WithNewID(gen func() (string, error)) InterpOption {
	return func(ip *Interpolator) { ip.newID = gen }
}

func NewInterpolator(opts ...InterpOption) *Interpolator {
	ip := &Interpolator{clock: time.Now, newID: randomUUID}
	for _, o := range opts {
		o(ip)
	}
	return ip
}

// RunScope is the per-run view of the variable set. Built-ins are
// computed once at construction, so every field of a run sees the same
// {{$uuid}} and {{$timestamp}}.
type RunScope struct {
	scope    Vars
	builtins Vars
}

func (ip *Interpolator) NewScope(vars Vars) (*RunScope, error) {
	id, err := ip.newID()
	if err != nil {
		return nil, &Fault{Op: "vars.builtins", Kind: FaultExec, Err: fmt.Errorf("uuid: %w", err)}
	}

	builtins := Vars{
		"$timestamp": strconv.FormatInt(ip.clock().Unix(), 10),
		"$uuid":      id,
	}
	return &RunScope{scope: vars.Clone(), builtins: builtins}, nil
}

// Put adds or overrides a runtime variable for subsequent resolutions.
func (rs *RunScope) Put(key, value string) {
	rs.scope[key] = value
}

// ResolveString expands every placeholder in s. Built-ins win over workspace
// variables of the same name.
func (rs *RunScope) ResolveString(s string) (string, error) {
	var sb strings.Builder

	tail := s
	for {
		open := strings.Index(tail, "{{")
		if open < 0 {
			sb.WriteString(tail)
			return sb.String(), nil
		}
		sb.WriteString(tail[:open])
		tail = tail[open+2:]

		end := strings.Index(tail, "}}")
		if end < 0 {
			return "", resolveErr(FaultBadConfig, errors.New("missing closing }}"))
		}
		name := strings.TrimSpace(tail[:end])
		tail = tail[end+2:]

		val, err := rs.lookup(name)
		if err != nil {
			return "", err
		}
		sb.WriteString(val)
	}
}

func (rs *RunScope) lookup(name string) (string, error) {
	if name == "" {
		return "", resolveErr(FaultBadConfig, errors.New("empty placeholder name"))
	}
	if v, ok := rs.builtins[name]; ok {
		return v, nil
	}
	if v, ok := rs.scope[name]; ok {
		return v, nil
	}
	return "", resolveErr(FaultMissingVar, fmt.Errorf("no value for %q: %w", name, ErrMissingVar))
}

// ResolveStrings expands each element of a slice; a nil slice stays nil.
func (rs *RunScope) ResolveStrings(in []string) ([]string, error) {
	if in == nil {
		return in, nil
	}
	res := make([]string, 0, len(in))
	for _, s := range in {
		ev, err := rs.ResolveString(s)
		if err != nil {
			return nil, err
		}
		res = append(res, ev)
	}
	return res, nil
}

// ResolveVars expands the values of a variable map; keys stay literal.
func (rs *RunScope) ResolveVars(in Vars) (Vars, error) {
	res := Vars{}
	for key, val := range in {
		ev, err := rs.ResolveString(val)
		if err != nil {
			return nil, err
		}
		res[key] = ev
	}
	return res, nil
}

// ResolveSuite expands every templatable suite field on a copy of s. Gate and
// extract expressions stay literal: they address the summary document, not
// the variable set.
func (rs *RunScope) ResolveSuite(s Suite) (Suite, error) {
	res := s

	dir, err := rs.ResolveString(s.Dir)
	if err != nil {
		return Suite{}, fieldErr(err, "suite.dir")
	}
	res.Dir = dir

	pattern, err := rs.ResolveString(s.Pattern)
	if err != nil {
		return Suite{}, fieldErr(err, "suite.pattern")
	}
	res.Pattern = pattern

	exclude, err := rs.ResolveStrings(s.Exclude)
	if err != nil {
		return Suite{}, fieldErr(err, "suite.exclude")
	}
	res.Exclude = exclude

	tool, err := rs.resolveTool(s.Tool)
	if err != nil {
		return Suite{}, fieldErr(err, "suite.tool")
	}
	res.Tool = tool

	return res, nil
}

func (rs *RunScope) resolveTool(t ToolSpec) (ToolSpec, error) {
	res := t

	var err error
	if res.Command, err = rs.ResolveString(t.Command); err != nil {
		return ToolSpec{}, err
	}
	if res.RunArgs, err = rs.ResolveStrings(t.RunArgs); err != nil {
		return ToolSpec{}, err
	}
	if res.Accumulate, err = rs.ResolveString(t.Accumulate); err != nil {
		return ToolSpec{}, err
	}
	if res.SourceFlag, err = rs.ResolveString(t.SourceFlag); err != nil {
		return ToolSpec{}, err
	}
	if res.Source, err = rs.ResolveString(t.Source); err != nil {
		return ToolSpec{}, err
	}
	if res.ExtraArgs, err = rs.ResolveStrings(t.ExtraArgs); err != nil {
		return ToolSpec{}, err
	}
	if res.EraseArgs, err = rs.ResolveStrings(t.EraseArgs); err != nil {
		return ToolSpec{}, err
	}
	if res.HTMLArgs, err = rs.ResolveStrings(t.HTMLArgs); err != nil {
		return ToolSpec{}, err
	}
	if res.Profile, err = rs.ResolveString(t.Profile); err != nil {
		return ToolSpec{}, err
	}
	return res, nil
}

// ResolveStep expands a step's command line and env values on a copy of s.
func (rs *RunScope) ResolveStep(s Step) (Step, error) {
	res := s

	run, err := rs.ResolveString(s.Run)
	if err != nil {
		return Step{}, fieldErr(err, "step.run")
	}
	res.Run = run

	if s.Env != nil {
		env, err := rs.ResolveVars(s.Env)
		if err != nil {
			return Step{}, fieldErr(err, "step.env")
		}
		res.Env = env
	}

	return res, nil
}

func resolveErr(kind FaultKind, err error) error {
	return &Fault{Op: "vars.resolve", Kind: kind, Err: err}
}

// fieldErr tags err with the descriptor field being resolved while keeping
// its kind intact for HasKind checks.
func fieldErr(err error, field string) error {
	kind := FaultExec
	var fe *Fault
	if errors.As(err, &fe) {
		kind = fe.Kind
	}
	return resolveErr(kind, fmt.Errorf("%s: %w", field, err))
}

// randomUUID returns an RFC 4122 version 4 identifier.
func randomUUID() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}

	buf[6] = (buf[6] & 0x0f) | 0x40 // version 4
	buf[8] = (buf[8] & 0x3f) | 0x80 // variant 10

	return fmt.Sprintf("%x-%x-%x-%x-%x", buf[0:4], buf[4:6], buf[6:8], buf[8:10], buf[10:16]), nil
}
