package pipeline

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Registry is the ordered, validated list of stages. It is built once before
// any document is processed and is read-only afterwards.
type Registry struct {
	stages   []Stage
	position map[string]int
}

// NewRegistry validates stages in the given order and returns the registry.
// Any violation is reported as an error wrapping ErrStageOrder that lists
// every problem found.
func NewRegistry(stages ...Stage) (*Registry, error) {
	result := Validate(stages)
	if !result.Valid {
		return nil, fmt.Errorf("%w: %s", ErrStageOrder, strings.Join(result.Errors, "; "))
	}
	r := &Registry{
		stages:   append([]Stage(nil), stages...),
		position: make(map[string]int, len(stages)),
	}
	for i, s := range stages {
		r.position[s.Name()] = i
	}
	return r, nil
}

// MustRegistry is NewRegistry that panics on error, for static stage lists.
func MustRegistry(stages ...Stage) *Registry {
	r, err := NewRegistry(stages...)
	if err != nil {
		panic(err)
	}
	return r
}

// Stages returns the registered stages in execution order.
func (r *Registry) Stages() []Stage {
	return append([]Stage(nil), r.stages...)
}

// Phase returns the stages of one phase in execution order.
func (r *Registry) Phase(p Phase) []Stage {
	var out []Stage
	for _, s := range r.stages {
		if s.Phase() == p {
			out = append(out, s)
		}
	}
	return out
}

// Lookup returns the stage registered under name.
func (r *Registry) Lookup(name string) (Stage, bool) {
	i, ok := r.position[name]
	if !ok {
		return nil, false
	}
	return r.stages[i], true
}

// Names returns the stage names in execution order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.stages))
	for i, s := range r.stages {
		out[i] = s.Name()
	}
	return out
}

// Len returns the number of registered stages.
func (r *Registry) Len() int { return len(r.stages) }

// providers returns the names of registered stages providing c.
func (r *Registry) providers(c Capability) []string {
	var out []string
	for _, s := range r.stages {
		for _, p := range s.Dependencies().Provides {
			if p == c {
				out = append(out, s.Name())
				break
			}
		}
	}
	return out
}

// checkReady verifies at run time that every dependency of s has already
// been applied to doc.
func (r *Registry) checkReady(doc *Document, s Stage) error {
	deps := s.Dependencies()
	var errs []error
	for _, name := range deps.MustRunAfter {
		if !doc.HasApplied(name) {
			errs = append(errs, fmt.Errorf("%w: %s must run after %s", ErrStageOrder, s.Name(), name))
		}
	}
	for _, name := range deps.MustRunBefore {
		if doc.HasApplied(name) {
			errs = append(errs, fmt.Errorf("%w: %s must run before %s", ErrStageOrder, s.Name(), name))
		}
	}
	for _, c := range slices.Concat(deps.Requires, deps.Follows) {
		for _, p := range r.providers(c) {
			if p != s.Name() && !doc.HasApplied(p) {
				errs = append(errs, fmt.Errorf("%w: %s needs %s from %s", ErrStageOrder, s.Name(), c, p))
			}
		}
	}
	return errors.Join(errs...)
}
