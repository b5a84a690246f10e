// Package eventstore keeps an append-only journal of builds in SQLite and
// folds it back into build summaries.
package eventstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Build statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// BuildSummary is the folded view of one build's events.
type BuildSummary struct {
	BuildID     string        `json:"build_id"`
	Status      string        `json:"status"`
	Root        string        `json:"root,omitempty"`
	Collections []string      `json:"collections,omitempty"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Duration    time.Duration `json:"duration,omitempty"`
	Entries     int           `json:"entries"`
	Rendered    int           `json:"rendered"`
	Rejected    int           `json:"rejected"`
	Failed      int           `json:"failed"`
	// FirstFailure describes the first failed document, if any.
	FirstFailure string `json:"first_failure,omitempty"`
}

// BuildHistoryProjection is an in-memory view of build history rebuilt from
// a Store and kept current with Apply.
type BuildHistoryProjection struct {
	mu      sync.RWMutex
	store   Store
	builds  map[string]*BuildSummary
	history []*BuildSummary // completed builds, newest first
	maxSize int
}

// NewBuildHistoryProjection creates a projection keeping at most
// maxHistorySize completed builds.
func NewBuildHistoryProjection(store Store, maxHistorySize int) *BuildHistoryProjection {
	if maxHistorySize <= 0 {
		maxHistorySize = 100
	}
	return &BuildHistoryProjection{
		store:   store,
		builds:  make(map[string]*BuildSummary),
		maxSize: maxHistorySize,
	}
}

// Rebuild reconstructs the projection from every stored event.
func (p *BuildHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.builds = make(map[string]*BuildSummary)
	p.history = nil
	for _, event := range events {
		if err := p.applyLocked(event); err != nil {
			return err
		}
	}
	sort.SliceStable(p.history, func(i, j int) bool {
		return p.history[i].StartedAt.After(p.history[j].StartedAt)
	})
	p.trimLocked()
	return nil
}

// Apply folds a single event into the projection.
func (p *BuildHistoryProjection) Apply(event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.applyLocked(event)
}

func (p *BuildHistoryProjection) applyLocked(event Event) error {
	buildID := event.BuildID()
	if buildID == "" {
		return nil
	}
	typed, err := Decode(event)
	if err != nil {
		return err
	}

	summary, ok := p.builds[buildID]
	if !ok {
		summary = &BuildSummary{BuildID: buildID, Status: StatusRunning, StartedAt: event.Timestamp()}
		p.builds[buildID] = summary
	}

	switch e := typed.(type) {
	case *BuildStarted:
		summary.StartedAt = e.Timestamp()
		summary.Root = e.Root
		summary.Collections = e.Collections
	case *EntryRejected:
		summary.Rejected++
	case *DocumentFailed:
		summary.Failed++
		if summary.FirstFailure == "" {
			summary.FirstFailure = fmt.Sprintf("%s/%s: %s", e.Collection, e.Entry, e.Error)
		}
	case *BuildCompleted:
		at := e.Timestamp()
		summary.CompletedAt = &at
		summary.Duration = e.Duration
		summary.Status = e.Status
		summary.Entries = e.Entries
		summary.Rendered = e.Rendered
		summary.Rejected = e.Rejected
		summary.Failed = e.Failed
		p.addToHistoryLocked(summary)
	}
	return nil
}

func (p *BuildHistoryProjection) addToHistoryLocked(summary *BuildSummary) {
	for _, h := range p.history {
		if h.BuildID == summary.BuildID {
			return
		}
	}
	p.history = append([]*BuildSummary{summary}, p.history...)
	p.trimLocked()
}

// trimLocked bounds history and forgets completed builds that fell out of it.
func (p *BuildHistoryProjection) trimLocked() {
	if len(p.history) > p.maxSize {
		p.history = p.history[:p.maxSize]
	}
	keep := make(map[string]struct{}, len(p.history))
	for _, h := range p.history {
		keep[h.BuildID] = struct{}{}
	}
	for id, summary := range p.builds {
		if summary.Status == StatusRunning {
			continue
		}
		if _, ok := keep[id]; !ok {
			delete(p.builds, id)
		}
	}
}

// History returns completed builds, newest first.
func (p *BuildHistoryProjection) History() []BuildSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]BuildSummary, len(p.history))
	for i, h := range p.history {
		out[i] = *h
	}
	return out
}

// Build returns the summary of one build.
func (p *BuildHistoryProjection) Build(buildID string) (BuildSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	summary, ok := p.builds[buildID]
	if !ok {
		return BuildSummary{}, false
	}
	return *summary, true
}
