package report

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"git.home.luguber.info/inful/folio/internal/build"
	"git.home.luguber.info/inful/folio/internal/content"
	"git.home.luguber.info/inful/folio/internal/eventstore"
	"git.home.luguber.info/inful/folio/internal/markdown"
	"git.home.luguber.info/inful/folio/internal/pipeline"
)

func TestBuildReportListsEveryProblem(t *testing.T) {
	res := &build.BuildResult{
		BuildID:  "build-1",
		Status:   build.BuildStatusFailed,
		Duration: 1234 * time.Millisecond,
		Collections: []*build.CollectionResult{
			{
				Name:     "note",
				Entries:  []*content.Entry{{ID: "ok"}, {ID: "broken"}},
				Rendered: 1,
				Drafts:   2,
				Problems: []content.Problem{{Collection: "note", ID: "bad", Path: "bad.md", Err: errors.New("title: required")}},
				Failures: []build.DocumentFailure{{
					Collection: "note", ID: "broken", Path: "broken.md",
					Err: &pipeline.StageError{Stage: "math", Pos: markdown.Pos{Line: 5, Col: 5}, Err: errors.New("unbalanced braces")},
				}},
			},
			{Name: "resume", Warnings: []error{errors.New("collection base path not found")}},
		},
	}

	var buf bytes.Buffer
	New(&buf).Build(res, "build")
	out := buf.String()

	assert.Contains(t, out, "folio build")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "build-1 in 1.23s")
	assert.Contains(t, out, "2 entries, 1 rendered, 2 drafts")
	assert.Contains(t, out, "2 problems")
	assert.Contains(t, out, "note/bad (bad.md)")
	assert.Contains(t, out, "title: required")
	assert.Contains(t, out, "note/broken (broken.md)")
	assert.Contains(t, out, "stage math at 5:5: unbalanced braces")
	assert.Contains(t, out, "Warnings")
	assert.Contains(t, out, "resume: collection base path not found")
	assert.NotContains(t, out, "\x1b[", "non-terminal output is plain")
}

func TestBuildReportWithoutProblems(t *testing.T) {
	res := &build.BuildResult{
		BuildID:     "b",
		Status:      build.BuildStatusSuccess,
		Collections: []*build.CollectionResult{{Name: "note", Entries: []*content.Entry{{ID: "a"}}, Rendered: 1}},
	}
	var buf bytes.Buffer
	New(&buf).Build(res, "check")
	out := buf.String()

	assert.Contains(t, out, "folio check")
	assert.Contains(t, out, "success")
	assert.NotContains(t, out, "Problems")
	assert.NotContains(t, out, "Warnings")
}

func TestHistory(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).History(nil)
	assert.Contains(t, buf.String(), "No builds recorded.")

	buf.Reset()
	started := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	New(&buf).History([]eventstore.BuildSummary{
		{BuildID: "b2", Status: eventstore.StatusFailed, StartedAt: started, Entries: 3, Rendered: 2, Failed: 1, FirstFailure: "note/x: boom"},
		{BuildID: "b1", Status: eventstore.StatusSucceeded, StartedAt: started.Add(-time.Hour), Entries: 3, Rendered: 3},
	})
	out := buf.String()
	assert.Contains(t, out, "2026-02-03 04:05:06")
	assert.Contains(t, out, "b2")
	assert.Contains(t, out, "3 entries, 2 rendered, 0 rejected, 1 failed")
	assert.Contains(t, out, "note/x: boom")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("b2")), bytes.Index(buf.Bytes(), []byte("b1")))
}
