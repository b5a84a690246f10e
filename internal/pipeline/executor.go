package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/folio/internal/logfields"
	"git.home.luguber.info/inful/folio/internal/markdown"
	"git.home.luguber.info/inful/folio/internal/metrics"
)

// Highlighter decorates the code blocks of a finished render tree and
// returns how many it decorated.
type Highlighter interface {
	Highlight(root *html.Node) (int, error)
}

// Executor runs the registered stages against documents. It holds no
// per-document state and is safe for concurrent use.
type Executor struct {
	registry    *Registry
	engine      *markdown.Engine
	highlighter Highlighter
	recorder    metrics.Recorder
	logger      *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithHighlighter runs h after the post-conversion stages.
func WithHighlighter(h Highlighter) Option {
	return func(e *Executor) { e.highlighter = h }
}

// WithRecorder records per-stage durations and results.
func WithRecorder(r metrics.Recorder) Option {
	return func(e *Executor) { e.recorder = metrics.OrNoop(r) }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExecutor returns an executor for the stages of reg.
func NewExecutor(reg *Registry, engine *markdown.Engine, opts ...Option) *Executor {
	e := &Executor{
		registry: reg,
		engine:   engine,
		recorder: metrics.NoopRecorder{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Registry returns the executor's stage registry.
func (e *Executor) Registry() *Registry { return e.registry }

// Run drives doc through every pre-conversion stage, the conversion, every
// post-conversion stage and the highlighter. The first failure aborts the run
// and is returned as a *StageError.
func (e *Executor) Run(ctx context.Context, doc *Document) (*html.Node, error) {
	if doc.SourceTree == nil && !doc.Converted() {
		doc.SourceTree = e.engine.Parse(doc.Source)
	}

	for _, s := range e.registry.Phase(PreConversion) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.Apply(doc, s); err != nil {
			return nil, err
		}
	}

	if !doc.Converted() {
		doc.Meta.Links = markdown.Links(doc.SourceTree, doc.Source)
		root, err := e.engine.Convert(doc.Source, doc.SourceTree)
		if err != nil {
			return nil, &StageError{Stage: StageConvert, Err: err}
		}
		doc.RenderTree = root
	}

	for _, s := range e.registry.Phase(PostConversion) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.Apply(doc, s); err != nil {
			return nil, err
		}
	}

	if e.highlighter != nil {
		n, err := e.highlighter.Highlight(doc.RenderTree)
		if err != nil {
			return nil, &StageError{Stage: StageHighlight, Err: err}
		}
		doc.Meta.CodeBlocks = n
	}
	return doc.RenderTree, nil
}

// Apply runs one stage against doc. It rejects a stage that was already
// applied, that belongs to the other phase, or whose dependencies have not
// run yet.
func (e *Executor) Apply(doc *Document, s Stage) error {
	name := s.Name()
	if doc.HasApplied(name) {
		return &StageError{Stage: name, Err: ErrStageReapplied}
	}
	if err := e.registry.checkReady(doc, s); err != nil {
		return &StageError{Stage: name, Err: err}
	}

	start := time.Now()
	var err error
	switch s.Phase() {
	case PreConversion:
		src, ok := s.(SourceStage)
		switch {
		case !ok:
			err = fmt.Errorf("%w: %s has no source transform", ErrWrongPhase, name)
		case doc.Converted():
			err = fmt.Errorf("%w: %s after conversion", ErrWrongPhase, name)
		default:
			err = src.TransformSource(doc)
		}
	case PostConversion:
		rnd, ok := s.(RenderStage)
		switch {
		case !ok:
			err = fmt.Errorf("%w: %s has no render transform", ErrWrongPhase, name)
		case !doc.Converted():
			err = fmt.Errorf("%w: %s before conversion", ErrWrongPhase, name)
		default:
			err = rnd.TransformRender(doc)
		}
	default:
		err = fmt.Errorf("%w: unknown phase %q", ErrWrongPhase, s.Phase())
	}
	elapsed := time.Since(start)

	e.recorder.ObserveStageDuration(name, elapsed)
	if err != nil {
		e.recorder.IncStageResult(name, metrics.ResultFailed)
		se := newStageError(name, err)
		e.logger.Debug("Stage failed",
			logfields.Collection(doc.Collection),
			logfields.Entry(doc.ID),
			logfields.Stage(name),
			logfields.Error(se))
		return se
	}
	e.recorder.IncStageResult(name, metrics.ResultSuccess)
	doc.applied = append(doc.applied, name)
	e.logger.Debug("Stage applied",
		logfields.Collection(doc.Collection),
		logfields.Entry(doc.ID),
		logfields.Stage(name),
		logfields.Phase(string(s.Phase())),
		logfields.DurationMS(float64(elapsed.Microseconds())/1000))
	return nil
}
