package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/folio/internal/loader"
	"git.home.luguber.info/inful/folio/internal/logfields"
	"git.home.luguber.info/inful/folio/internal/parallel"
	"git.home.luguber.info/inful/folio/internal/schema"
)

// ErrValidationFailed marks a problem produced by schema validation.
var ErrValidationFailed = errors.New("entry validation failed")

// Problem is a per-entry failure. One bad entry never hides another.
type Problem struct {
	Collection string
	// ID is empty when the file could not be parsed far enough to derive one.
	ID   string
	Path string
	Err  error
}

func (p Problem) Error() string {
	if p.ID != "" {
		return fmt.Sprintf("%s/%s (%s): %v", p.Collection, p.ID, p.Path, p.Err)
	}
	return fmt.Sprintf("%s (%s): %v", p.Collection, p.Path, p.Err)
}

func (p Problem) Unwrap() error { return p.Err }

// FieldErrors returns the schema errors of a validation problem.
func (p Problem) FieldErrors() schema.Errors {
	var errs schema.Errors
	if errors.As(p.Err, &errs) {
		return errs
	}
	return nil
}

// Batch is the ingestion result of one collection.
type Batch struct {
	Collection string
	Entries    []*Entry
	Problems   []Problem
	// Warnings are skipped files; they do not fail the build.
	Warnings []error
	Duration time.Duration
}

// Ingester validates loaded records against their collection schema.
type Ingester struct {
	Workers int
}

// Ingest loads one collection and validates every record.
//
// A fatal loader error (duplicate identifier, missing base path, bad pattern)
// is returned as the error. Everything else is collected into the batch so one
// pass reports every problem.
func (in Ingester) Ingest(ctx context.Context, cfg loader.Config, s *schema.Schema) (*Batch, error) {
	start := time.Now()
	res, err := loader.Load(ctx, cfg)
	if err != nil && res == nil {
		return nil, err
	}

	batch := &Batch{Collection: cfg.Collection, Warnings: res.Warnings}
	for _, fe := range loader.FileErrors(err) {
		batch.Problems = append(batch.Problems, Problem{Collection: cfg.Collection, Path: fe.Path, Err: fe.Err})
	}

	results := parallel.RunOrdered(ctx, res.Records, parallel.Workers(in.Workers),
		func(_ context.Context, rec loader.RawRecord) (*Entry, error) {
			return Validate(rec, s)
		})
	for i, r := range results {
		if r.Err != nil {
			src := res.Records[i].Source()
			batch.Problems = append(batch.Problems, Problem{
				Collection: src.Collection,
				ID:         src.ID,
				Path:       src.RelPath,
				Err:        r.Err,
			})
			continue
		}
		batch.Entries = append(batch.Entries, r.Value)
	}
	batch.Duration = time.Since(start)

	if err := ctx.Err(); err != nil {
		return batch, err
	}

	slog.Info("Collection ingested",
		logfields.Collection(cfg.Collection),
		logfields.Count(len(batch.Entries)),
		slog.Int("problems", len(batch.Problems)),
		slog.Int("warnings", len(batch.Warnings)),
		logfields.DurationMS(float64(batch.Duration.Microseconds())/1000))
	return batch, nil
}

// Validate turns one raw record into an entry.
func Validate(rec loader.RawRecord, s *schema.Schema) (*Entry, error) {
	data, err := s.Validate(rec.FrontMatter())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	body, line := rec.Body()
	fp, err := Fingerprint(data, body)
	if err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}
	src := rec.Source()
	return &Entry{
		Collection:  src.Collection,
		ID:          src.ID,
		Locale:      src.Locale,
		Path:        src.RelPath,
		Format:      src.Format,
		Data:        data,
		Body:        body,
		BodyLine:    line,
		Fingerprint: fp,
	}, nil
}
