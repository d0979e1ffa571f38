package domain

import "slices"

// Vars holds template and process variables as plain strings.
type Vars map[string]string

// Clone returns a writable copy of v. The copy is never nil, so callers can
// assign into it without mutating the source.
func (v Vars) Clone() Vars {
	return Merge(v, nil)
}

// Merge layers override on top of base without touching either; the result is
// a fresh, non-nil map.
func Merge(base, override Vars) Vars {
	out := make(Vars, len(base)+len(override))
	for k, val := range base {
		out[k] = val
	}
	for k, val := range override {
		out[k] = val
	}
	return out
}

// Environ renders vars as KEY=VALUE pairs for process environments, in sorted
// key order so command invocations stay reproducible.
func Environ(vars Vars) []string {
	if len(vars) == 0 {
		return nil
	}
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+vars[k])
	}
	return out
}

// Environment is a named variable set layered under a suite or pipeline
// (local, ci). The loader merges the secrets overlay in before it gets here.
type Environment struct {
	Name string
	Vars Vars
}

// EnvironmentRef is a lightweight reference to an environment file on disk.
type EnvironmentRef struct {
	Name string
	Path string
}
