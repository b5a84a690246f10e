package pipeline

import (
	"fmt"
	"slices"
)

// ValidationResult holds the results of registry validation.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// AddError adds an error to the validation result.
func (vr *ValidationResult) AddError(format string, args ...any) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, fmt.Sprintf(format, args...))
}

// AddWarning adds a warning to the validation result.
func (vr *ValidationResult) AddWarning(format string, args ...any) {
	vr.Warnings = append(vr.Warnings, fmt.Sprintf(format, args...))
}

// Validate checks an ordered stage list against the dependencies its stages
// declare. It checks for:
//   - empty or duplicate names and unknown phases
//   - a stage whose transform does not match its phase
//   - phases running out of order
//   - MustRunAfter/MustRunBefore targets that are missing or misplaced
//   - capabilities consumed before (or without) their providers
//   - terminal stages that are not last in their phase
//
// Capabilities nobody consumes are reported as warnings.
func Validate(stages []Stage) *ValidationResult {
	result := &ValidationResult{Valid: true}
	if len(stages) == 0 {
		result.AddWarning("no stages registered")
		return result
	}

	position := make(map[string]int, len(stages))
	providers := make(map[Capability][]int)
	for i, s := range stages {
		name := s.Name()
		if name == "" {
			result.AddError("stage at position %d has no name", i+1)
			continue
		}
		if _, dup := position[name]; dup {
			result.AddError("stage %q registered twice", name)
			continue
		}
		position[name] = i
		for _, c := range s.Dependencies().Provides {
			providers[c] = append(providers[c], i)
		}
	}

	lastPhase := -1
	for i, s := range stages {
		name := s.Name()
		phase := s.Phase()
		idx := PhaseIndex(phase)
		switch {
		case idx < 0:
			result.AddError("stage %q has invalid phase %q", name, phase)
			continue
		case idx < lastPhase:
			result.AddError("stage %q (%s) registered after a %s stage", name, phase, PhaseOrder[lastPhase])
		}
		if idx > lastPhase {
			lastPhase = idx
		}
		validateTransform(result, s)

		deps := s.Dependencies()
		for _, dep := range deps.MustRunAfter {
			at, ok := position[dep]
			switch {
			case !ok:
				result.AddError("stage %q depends on missing stage %q (MustRunAfter)", name, dep)
			case at >= i:
				result.AddError("stage %q must run after %q", name, dep)
			}
		}
		for _, next := range deps.MustRunBefore {
			at, ok := position[next]
			switch {
			case !ok:
				result.AddError("stage %q requires missing stage %q to run after it (MustRunBefore)", name, next)
			case at <= i:
				result.AddError("stage %q must run before %q", name, next)
			}
		}
		for _, c := range deps.Requires {
			if len(providers[c]) == 0 {
				result.AddError("stage %q requires %q but no stage provides it", name, c)
			}
		}
		for _, c := range slices.Concat(deps.Requires, deps.Follows) {
			for _, at := range providers[c] {
				if at > i {
					result.AddError("stage %q needs %q but provider %q runs after it", name, c, stages[at].Name())
				}
			}
		}
		if deps.Terminal {
			for _, later := range stages[i+1:] {
				if later.Phase() == phase {
					result.AddError("stage %q must be the last %s stage, %q follows it", name, phase, later.Name())
					break
				}
			}
		}
	}

	consumed := make(map[Capability]bool)
	for _, s := range stages {
		deps := s.Dependencies()
		for _, c := range slices.Concat(deps.Requires, deps.Follows) {
			consumed[c] = true
		}
	}
	for _, s := range stages {
		for _, c := range s.Dependencies().Provides {
			if !consumed[c] {
				result.AddWarning("stage %q provides %q which no registered stage consumes", s.Name(), c)
			}
		}
	}
	return result
}

func validateTransform(result *ValidationResult, s Stage) {
	switch s.Phase() {
	case PreConversion:
		if _, ok := s.(SourceStage); !ok {
			result.AddError("stage %q is %s but does not transform the source tree", s.Name(), PreConversion)
		}
	case PostConversion:
		if _, ok := s.(RenderStage); !ok {
			result.AddError("stage %q is %s but does not transform the render tree", s.Name(), PostConversion)
		}
	}
}
