package pipeline

import (
	"errors"
	"fmt"

	"git.home.luguber.info/inful/folio/internal/markdown"
)

var (
	// ErrStageOrder reports a registry or run that violates declared dependencies.
	ErrStageOrder = errors.New("stage order violation")
	// ErrStageReapplied reports a stage applied twice to one document.
	ErrStageReapplied = errors.New("stage already applied")
	// ErrWrongPhase reports a stage applied to a tree of the other phase.
	ErrWrongPhase = errors.New("stage applied in wrong phase")
)

// Pseudo stage names used when the failure is not inside a registered stage.
const (
	StageConvert   = "convert"
	StageHighlight = "highlight"
)

// StageError is a stage-local failure. It aborts the run for one document.
type StageError struct {
	Stage string
	Pos   markdown.Pos
	Err   error
}

func (e *StageError) Error() string {
	if e.Pos.IsZero() {
		return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("stage %s at %s: %v", e.Stage, e.Pos, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

type positioned struct {
	pos markdown.Pos
	err error
}

func (p *positioned) Error() string { return p.err.Error() }
func (p *positioned) Unwrap() error { return p.err }

// At attaches a source position to an error returned from a stage. The
// executor lifts it into the StageError.
func At(pos markdown.Pos, err error) error {
	if err == nil {
		return nil
	}
	return &positioned{pos: pos, err: err}
}

// Errorf is At with a formatted message.
func Errorf(pos markdown.Pos, format string, args ...any) error {
	return At(pos, fmt.Errorf(format, args...))
}

func newStageError(stage string, err error) *StageError {
	var se *StageError
	if errors.As(err, &se) {
		return se
	}
	out := &StageError{Stage: stage, Err: err}
	var p *positioned
	if errors.As(err, &p) {
		out.Pos = p.pos
		if err == error(p) {
			out.Err = p.err
		}
	}
	return out
}
