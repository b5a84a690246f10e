package build

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"git.home.luguber.info/inful/folio/internal/collections"
	"git.home.luguber.info/inful/folio/internal/config"
	"git.home.luguber.info/inful/folio/internal/content"
	"git.home.luguber.info/inful/folio/internal/eventstore"
	ferrors "git.home.luguber.info/inful/folio/internal/foundation/errors"
	"git.home.luguber.info/inful/folio/internal/highlight"
	"git.home.luguber.info/inful/folio/internal/loader"
	"git.home.luguber.info/inful/folio/internal/logfields"
	"git.home.luguber.info/inful/folio/internal/markdown"
	"git.home.luguber.info/inful/folio/internal/metrics"
	"git.home.luguber.info/inful/folio/internal/parallel"
	"git.home.luguber.info/inful/folio/internal/pipeline"
	"git.home.luguber.info/inful/folio/internal/pipeline/stages"
)

// DefaultBuildService is the standard BuildService.
type DefaultBuildService struct {
	recorder metrics.Recorder
	store    eventstore.Store
	clock    clockwork.Clock
	newID    func() string
}

// NewBuildService creates a DefaultBuildService without metrics or journal.
func NewBuildService() *DefaultBuildService {
	return &DefaultBuildService{
		recorder: metrics.NoopRecorder{},
		clock:    clockwork.NewRealClock(),
		newID:    uuid.NewString,
	}
}

// WithRecorder records build, entry and stage metrics to r.
func (s *DefaultBuildService) WithRecorder(r metrics.Recorder) *DefaultBuildService {
	s.recorder = metrics.OrNoop(r)
	return s
}

// WithEventStore journals builds to store instead of the store named by
// build.event_store. The caller keeps ownership of store.
func (s *DefaultBuildService) WithEventStore(store eventstore.Store) *DefaultBuildService {
	s.store = store
	return s
}

// WithClock replaces the clock used for build timing.
func (s *DefaultBuildService) WithClock(c clockwork.Clock) *DefaultBuildService {
	s.clock = c
	return s
}

// WithIDGenerator replaces the build ID generator (for testing).
func (s *DefaultBuildService) WithIDGenerator(fn func() string) *DefaultBuildService {
	s.newID = fn
	return s
}

// run is the state of one build.
type run struct {
	*DefaultBuildService
	cfg      *config.Config
	req      BuildRequest
	result   *BuildResult
	store    eventstore.Store
	executor *pipeline.Executor
	theme    *highlight.Theme
	logger   *slog.Logger
}

// Run executes a complete build.
//
// Per-entry and per-document problems are collected into the result and do
// not stop the build; the returned error is ErrBuildFailed when any were
// reported. Configuration, journal and output errors abort the build.
func (s *DefaultBuildService) Run(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	result := &BuildResult{
		BuildID:   s.newID(),
		StartTime: s.clock.Now(),
	}
	finish := func(status BuildStatus, outcome metrics.BuildOutcomeLabel) {
		result.Status = status
		result.EndTime = s.clock.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		s.recorder.IncBuildOutcome(outcome)
		s.recorder.ObserveBuildDuration(result.Duration)
	}

	if req.Config == nil {
		finish(BuildStatusFailed, metrics.BuildFailed)
		return result, ferrors.ConfigError("config required").Build()
	}
	cfg := req.Config
	result.OutputPath = cfg.Build.OutputDir
	if req.OutputDir != "" {
		result.OutputPath = req.OutputDir
	}

	r := &run{
		DefaultBuildService: s,
		cfg:                 cfg,
		req:                 req,
		result:              result,
		logger:              slog.Default().With(logfields.BuildID(result.BuildID)),
	}

	cols, err := r.collections()
	if err != nil {
		finish(BuildStatusFailed, metrics.BuildFailed)
		return result, err
	}
	if err := r.prepare(); err != nil {
		finish(BuildStatusFailed, metrics.BuildFailed)
		return result, err
	}

	closeStore, err := r.openJournal()
	if err != nil {
		finish(BuildStatusFailed, metrics.BuildFailed)
		return result, err
	}
	defer closeStore()

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	r.logger.Info("Build started",
		slog.String("root", cfg.Content.Root),
		slog.Any("collections", names),
		logfields.Workers(parallel.Workers(cfg.Build.Workers)),
		slog.Bool("dry_run", req.Options.DryRun))
	r.journal(ctx, func() (eventstore.Event, error) {
		return eventstore.NewBuildStarted(result.BuildID, cfg.Content.Root, names, parallel.Workers(cfg.Build.Workers))
	})

	if !req.Options.DryRun {
		if err := prepareOutput(result.OutputPath, cfg.Build.Clean); err != nil {
			finish(BuildStatusFailed, metrics.BuildFailed)
			return result, err
		}
	}

	for _, c := range cols {
		if err := ctx.Err(); err != nil {
			break
		}
		cr, docs := r.collection(ctx, c)
		result.Collections = append(result.Collections, cr)
		if req.Options.DryRun || ctx.Err() != nil {
			continue
		}
		if err := writeCollection(result.OutputPath, cr, docs); err != nil {
			finish(BuildStatusFailed, metrics.BuildFailed)
			return result, err
		}
	}

	if ctx.Err() == nil && !req.Options.DryRun {
		if err := writeTheme(result.OutputPath, r.theme); err != nil {
			finish(BuildStatusFailed, metrics.BuildFailed)
			return result, err
		}
	}

	totals := result.Totals()
	switch {
	case ctx.Err() != nil:
		finish(BuildStatusCancelled, metrics.BuildCanceled)
	case totals.HasProblems():
		finish(BuildStatusFailed, metrics.BuildFailed)
	default:
		finish(BuildStatusSuccess, metrics.BuildSuccess)
	}

	status := eventstore.StatusSucceeded
	if result.Status != BuildStatusSuccess {
		status = eventstore.StatusFailed
	}
	r.journal(context.WithoutCancel(ctx), func() (eventstore.Event, error) {
		return eventstore.NewBuildCompleted(result.BuildID, status,
			totals.Entries, totals.Rendered, totals.Rejected, totals.Failed, result.Duration)
	})

	r.logger.Info("Build finished",
		slog.String("status", string(result.Status)),
		logfields.Count(totals.Entries),
		slog.Int("rendered", totals.Rendered),
		slog.Int("rejected", totals.Rejected),
		slog.Int("failed", totals.Failed),
		logfields.DurationMS(float64(result.Duration.Microseconds())/1000))

	switch result.Status {
	case BuildStatusCancelled:
		return result, ctx.Err()
	case BuildStatusFailed:
		return result, ErrBuildFailed.WithContext("problems", totals.Rejected+totals.Failed+totals.Fatal)
	}
	return result, nil
}

// collections resolves the configured collections and the requested subset.
func (r *run) collections() ([]collections.Collection, error) {
	cols, err := collections.Apply(collections.Defaults(), overrides(r.cfg.Content.Collections))
	if err != nil {
		return nil, ferrors.ConfigError("invalid collection override").WithCause(err).Build()
	}
	if len(r.req.Options.Collections) == 0 {
		return cols, nil
	}
	var out []collections.Collection
	for _, name := range r.req.Options.Collections {
		i := slices.IndexFunc(cols, func(c collections.Collection) bool { return c.Name == name })
		if i < 0 {
			return nil, ferrors.ValidationError(fmt.Sprintf("unknown collection %q", name)).Build()
		}
		out = append(out, cols[i])
	}
	return out, nil
}

func overrides(in map[string]config.CollectionOverride) map[string]collections.Override {
	out := make(map[string]collections.Override, len(in))
	for name, o := range in {
		out[name] = collections.Override{Dir: o.Dir, Include: o.Include, Exclude: o.Exclude}
	}
	return out
}

// prepare builds the stage registry, theme and executor shared by every
// document of the build.
func (r *run) prepare() error {
	reg, err := stages.NewRegistry(r.cfg)
	if err != nil {
		return ferrors.PipelineError("invalid stage pipeline").WithCause(err).Build()
	}
	hl := r.cfg.Highlight
	theme, err := highlight.NewTheme(highlight.ThemeOptions{
		Light:            hl.Light,
		Dark:             hl.Dark,
		Replacements:     hl.Replacements,
		DarkReplacements: hl.DarkReplacements,
	})
	if err != nil {
		return ferrors.ConfigError("invalid highlight configuration").WithCause(err).Build()
	}
	r.theme = theme
	r.executor = pipeline.NewExecutor(reg, markdown.NewEngine(stages.EngineOptions(r.cfg)),
		pipeline.WithHighlighter(highlight.New(theme, hl.CopyDurationMS)),
		pipeline.WithRecorder(r.recorder),
		pipeline.WithLogger(r.logger),
	)
	return nil
}

// openJournal selects the event store of the build and returns its closer.
func (r *run) openJournal() (func(), error) {
	noop := func() {}
	switch {
	case r.req.Options.DryRun:
		return noop, nil
	case r.DefaultBuildService.store != nil:
		r.store = r.DefaultBuildService.store
		return noop, nil
	case r.cfg.Build.EventStore == "":
		return noop, nil
	}
	store, err := eventstore.NewSQLiteStore(r.cfg.Build.EventStore,
		eventstore.WithClock(r.clock),
		eventstore.WithRetry(r.cfg.Build.JournalRetry.Policy()))
	if err != nil {
		return nil, err
	}
	r.store = store
	return func() {
		if err := store.Close(); err != nil {
			r.logger.Warn("Failed to close event store", logfields.Error(err))
		}
	}, nil
}

// journal records an event. Journal failures are logged, never fatal: the
// journal describes the build, it does not gate it.
func (r *run) journal(ctx context.Context, build func() (eventstore.Event, error)) {
	if r.store == nil {
		return
	}
	e, err := build()
	if err == nil {
		err = eventstore.Record(ctx, r.store, e)
	}
	if err != nil {
		r.logger.Warn("Failed to journal build event", logfields.Error(err))
	}
}

// rendered pairs a document with its rendered fragment.
type rendered struct {
	entry *content.Entry
	meta  pipeline.Metadata
	html  string
}

// collection ingests one collection and renders its documents.
func (r *run) collection(ctx context.Context, c collections.Collection) (*CollectionResult, []rendered) {
	start := r.clock.Now()
	cr := &CollectionResult{Name: c.Name}
	logger := r.logger.With(logfields.Collection(c.Name))

	lc := c.LoaderConfig(r.cfg.Content.Root, r.cfg.Content.PrivateMarker, r.cfg.Site.Locales, r.cfg.Site.DefaultLocale)
	batch, err := content.Ingester{Workers: r.cfg.Build.Workers}.Ingest(ctx, lc, c.Schema)
	if errors.Is(err, loader.ErrBaseNotFound) {
		cr.Warnings = []error{err}
		cr.Duration = r.clock.Since(start)
		logger.Warn("Collection directory missing, skipped", logfields.Path(lc.BasePath))
		return cr, nil
	}
	if err != nil && batch == nil {
		cr.Fatal = err
		cr.Duration = r.clock.Since(start)
		logger.Error("Collection failed", logfields.Error(err))
		r.journal(ctx, func() (eventstore.Event, error) {
			return eventstore.NewEntryRejected(r.result.BuildID, c.Name, "", lc.BasePath, []string{err.Error()})
		})
		return cr, nil
	}

	cr.Problems = batch.Problems
	cr.Warnings = batch.Warnings
	for _, w := range batch.Warnings {
		logger.Warn("Skipped file", logfields.Error(w))
	}
	for _, p := range batch.Problems {
		r.recorder.IncEntryResult(c.Name, metrics.ResultRejected)
		r.journal(ctx, func() (eventstore.Event, error) {
			return eventstore.NewEntryRejected(r.result.BuildID, c.Name, p.ID, p.Path, problemLines(p))
		})
	}

	for _, e := range batch.Entries {
		if e.Flags().Draft && !r.cfg.Build.IncludeDrafts {
			cr.Drafts++
			r.recorder.IncEntryResult(c.Name, metrics.ResultSkipped)
			continue
		}
		cr.Entries = append(cr.Entries, e)
	}

	docs := r.render(ctx, cr, logger)
	cr.Duration = r.clock.Since(start)
	logger.Debug("Collection rendered",
		slog.Int("rendered", cr.Rendered),
		slog.Int("failed", len(cr.Failures)),
		logfields.DurationMS(float64(cr.Duration.Microseconds())/1000))
	return cr, docs
}

// render runs the pipeline over every entry with a body. Entries without one
// pass through as data-only documents.
func (r *run) render(ctx context.Context, cr *CollectionResult, logger *slog.Logger) []rendered {
	results := parallel.RunOrdered(ctx, cr.Entries, parallel.Workers(r.cfg.Build.Workers),
		func(ctx context.Context, e *content.Entry) (rendered, error) {
			out := rendered{entry: e}
			if !e.HasBody() {
				return out, nil
			}
			start := r.clock.Now()
			doc := pipeline.NewDocument(e.Collection, e.ID, e.Body, e.BodyLine)
			root, err := r.executor.Run(ctx, doc)
			r.recorder.ObserveDocumentDuration(e.Collection, r.clock.Since(start))
			if err != nil {
				return out, err
			}
			html, err := markdown.Render(root)
			if err != nil {
				return out, &pipeline.StageError{Stage: "render", Err: err}
			}
			out.meta = doc.Meta
			out.html = html
			return out, nil
		})

	var docs []rendered
	for i, res := range results {
		e := cr.Entries[i]
		if res.Err != nil {
			if ctx.Err() != nil && errors.Is(res.Err, ctx.Err()) {
				continue
			}
			r.fail(ctx, cr, e, res.Err, logger)
			continue
		}
		if res.Value.html != "" {
			cr.Rendered++
		}
		r.recorder.IncEntryResult(e.Collection, metrics.ResultSuccess)
		docs = append(docs, res.Value)
	}
	return docs
}

func (r *run) fail(ctx context.Context, cr *CollectionResult, e *content.Entry, err error, logger *slog.Logger) {
	f := DocumentFailure{Collection: e.Collection, ID: e.ID, Path: e.Path, Err: err}
	cr.Failures = append(cr.Failures, f)
	r.recorder.IncEntryResult(e.Collection, metrics.ResultFailed)

	stage, pos := "", ""
	if se, ok := f.StageError(); ok {
		stage = se.Stage
		if !se.Pos.IsZero() {
			pos = se.Pos.String()
		}
	}
	logger.Error("Document failed",
		logfields.Entry(e.ID),
		logfields.Path(e.Path),
		logfields.Stage(stage),
		logfields.Error(err))
	r.journal(ctx, func() (eventstore.Event, error) {
		return eventstore.NewDocumentFailed(r.result.BuildID, e.Collection, e.ID, stage, pos, err.Error())
	})
}

// problemLines flattens a rejected entry into one line per problem.
func problemLines(p content.Problem) []string {
	if fe := p.FieldErrors(); len(fe) > 0 {
		out := make([]string, len(fe))
		for i, e := range fe {
			out[i] = e.Error()
		}
		return out
	}
	return []string{p.Err.Error()}
}
