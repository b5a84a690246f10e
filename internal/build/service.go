package build

import (
	"context"
	"errors"
	"time"

	"git.home.luguber.info/inful/folio/internal/config"
	"git.home.luguber.info/inful/folio/internal/content"
	"git.home.luguber.info/inful/folio/internal/pipeline"
)

// BuildService executes builds. The CLI build, check and watch commands all
// route through it.
type BuildService interface {
	Run(ctx context.Context, req BuildRequest) (*BuildResult, error)
}

// BuildRequest contains the inputs of one build.
type BuildRequest struct {
	Config *config.Config

	// OutputDir overrides build.output_dir when set.
	OutputDir string

	Options BuildOptions
}

// BuildOptions modify build behavior.
type BuildOptions struct {
	// DryRun runs ingestion and the pipeline without writing output or
	// journaling.
	DryRun bool

	// Collections restricts the build to the named collections.
	Collections []string
}

// BuildStatus is the outcome of a build.
type BuildStatus string

const (
	// BuildStatusSuccess means every entry was ingested and every document rendered.
	BuildStatusSuccess BuildStatus = "success"

	// BuildStatusFailed means at least one entry or document was reported.
	// Everything valid was still processed.
	BuildStatusFailed BuildStatus = "failed"

	// BuildStatusCancelled means the context ended the build early.
	BuildStatusCancelled BuildStatus = "cancelled"
)

// IsSuccess reports whether the build finished without problems.
func (s BuildStatus) IsSuccess() bool { return s == BuildStatusSuccess }

// BuildResult is the outcome of a build.
type BuildResult struct {
	BuildID    string
	Status     BuildStatus
	OutputPath string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration

	Collections []*CollectionResult
}

// CollectionResult summarizes one collection.
type CollectionResult struct {
	Name string
	// Fatal is a loader error that stopped the whole collection, such as a
	// duplicate identifier.
	Fatal error

	Entries  []*content.Entry
	Problems []content.Problem
	Warnings []error
	Failures []DocumentFailure

	Rendered int
	Drafts   int
	Duration time.Duration
}

// DocumentFailure is a document aborted by a pipeline stage.
type DocumentFailure struct {
	Collection string
	ID         string
	Path       string
	Err        error
}

func (f DocumentFailure) Error() string {
	return f.Collection + "/" + f.ID + " (" + f.Path + "): " + f.Err.Error()
}

func (f DocumentFailure) Unwrap() error { return f.Err }

// StageError returns the stage failure, if the document failed inside one.
func (f DocumentFailure) StageError() (*pipeline.StageError, bool) {
	var se *pipeline.StageError
	ok := errors.As(f.Err, &se)
	return se, ok
}

// Totals adds up the collection counters of a result.
type Totals struct {
	Entries  int
	Rendered int
	Drafts   int
	Rejected int
	Failed   int
	Warnings int
	Fatal    int
}

// Totals returns the counters over every collection.
func (r *BuildResult) Totals() Totals {
	var t Totals
	for _, c := range r.Collections {
		t.Entries += len(c.Entries)
		t.Rendered += c.Rendered
		t.Drafts += c.Drafts
		t.Rejected += len(c.Problems)
		t.Failed += len(c.Failures)
		t.Warnings += len(c.Warnings)
		if c.Fatal != nil {
			t.Fatal++
		}
	}
	return t
}

// HasProblems reports whether any entry, document or collection failed.
func (t Totals) HasProblems() bool {
	return t.Rejected > 0 || t.Failed > 0 || t.Fatal > 0
}
