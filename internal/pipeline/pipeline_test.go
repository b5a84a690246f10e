package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gast "github.com/yuin/goldmark/ast"
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/folio/internal/markdown"
	"git.home.luguber.info/inful/folio/internal/metrics"
)

type fakeStage struct {
	name   string
	phase  Phase
	deps   Dependencies
	config map[string]any
	fn     func(doc *Document) error
}

func (f *fakeStage) Name() string               { return f.name }
func (f *fakeStage) Phase() Phase               { return f.phase }
func (f *fakeStage) Dependencies() Dependencies { return f.deps }
func (f *fakeStage) Config() map[string]any     { return f.config }

func (f *fakeStage) TransformSource(doc *Document) error { return f.run(doc) }
func (f *fakeStage) TransformRender(doc *Document) error { return f.run(doc) }

func (f *fakeStage) run(doc *Document) error {
	if f.fn == nil {
		return nil
	}
	return f.fn(doc)
}

func pre(name string, deps Dependencies) *fakeStage {
	return &fakeStage{name: name, phase: PreConversion, deps: deps}
}

func post(name string, deps Dependencies) *fakeStage {
	return &fakeStage{name: name, phase: PostConversion, deps: deps}
}

// bare declares a phase but implements neither transform.
type bare struct{ name string }

func (b bare) Name() string               { return b.name }
func (b bare) Phase() Phase               { return PostConversion }
func (b bare) Dependencies() Dependencies { return Dependencies{} }
func (b bare) Config() map[string]any     { return nil }

func orderedStages() []Stage {
	return []Stage{
		pre("table-normalize", Dependencies{Provides: []Capability{CapTablesNormalized}}),
		pre("table-wrap", Dependencies{Follows: []Capability{CapTablesNormalized}}),
		post("heading-ids", Dependencies{Provides: []Capability{CapHeadingIDs}}),
		post("heading-anchors", Dependencies{
			Requires: []Capability{CapHeadingIDs},
			Provides: []Capability{CapLinks},
		}),
		post("external-links", Dependencies{Follows: []Capability{CapLinks}}),
		post("sectionize", Dependencies{Requires: []Capability{CapHeadingIDs}, Terminal: true}),
	}
}

func TestNewRegistryAcceptsDeclaredOrder(t *testing.T) {
	reg, err := NewRegistry(orderedStages()...)
	require.NoError(t, err)
	assert.Equal(t, []string{"table-normalize", "table-wrap", "heading-ids", "heading-anchors", "external-links", "sectionize"}, reg.Names())
	assert.Len(t, reg.Phase(PreConversion), 2)
	assert.Len(t, reg.Phase(PostConversion), 4)

	s, ok := reg.Lookup("sectionize")
	require.True(t, ok)
	assert.True(t, s.Dependencies().Terminal)
	_, ok = reg.Lookup("nope")
	assert.False(t, ok)
}

func TestNewRegistryRejectsViolations(t *testing.T) {
	swap := func(i, j int) []Stage {
		s := orderedStages()
		s[i], s[j] = s[j], s[i]
		return s
	}
	tests := []struct {
		name   string
		stages []Stage
		want   string
	}{
		{"wrap before normalize", swap(0, 1), `"table-wrap" needs "tables-normalized" but provider "table-normalize" runs after it`},
		{"anchors before ids", swap(2, 3), `"heading-anchors" needs "heading-ids"`},
		{"sectionize not last", swap(4, 5), `"sectionize" must be the last post-conversion stage`},
		{"missing provider", orderedStages()[3:], `requires "heading-ids" but no stage provides it`},
		{"post before pre", swap(1, 2), `registered after a post-conversion stage`},
		{"duplicate", append(orderedStages(), pre("table-wrap", Dependencies{})), `"table-wrap" registered twice`},
		{"missing after", []Stage{pre("a", Dependencies{MustRunAfter: []string{"ghost"}})}, `missing stage "ghost"`},
		{"before misplaced", []Stage{pre("a", Dependencies{}), pre("b", Dependencies{MustRunBefore: []string{"a"}})}, `"b" must run before "a"`},
		{"invalid phase", []Stage{&fakeStage{name: "x", phase: "middle"}}, `invalid phase "middle"`},
		{"no render transform", []Stage{bare{name: "bare"}}, `does not transform the render tree`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry(tt.stages...)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrStageOrder)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidateWarnsOnUnconsumedCapability(t *testing.T) {
	result := Validate([]Stage{pre("math", Dependencies{Provides: []Capability{CapMath}})})
	assert.True(t, result.Valid)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], `"math"`)

	empty := Validate(nil)
	assert.True(t, empty.Valid)
	assert.NotEmpty(t, empty.Warnings)
}

func TestMustRegistryPanics(t *testing.T) {
	assert.Panics(t, func() { MustRegistry(pre("a", Dependencies{}), pre("a", Dependencies{})) })
}

func newExecutor(t *testing.T, stages ...Stage) *Executor {
	t.Helper()
	reg, err := NewRegistry(stages...)
	require.NoError(t, err)
	return NewExecutor(reg, markdown.NewEngine(markdown.Options{}))
}

func TestRunAppliesStagesInOrder(t *testing.T) {
	var seen []string
	record := func(doc *Document) error {
		seen = append(seen, fmt.Sprintf("%d:%t", len(doc.Applied()), doc.Converted()))
		return nil
	}
	stages := orderedStages()
	for _, s := range stages {
		s.(*fakeStage).fn = record
	}
	exec := newExecutor(t, stages...)

	doc := NewDocument("note", "hello", "# Title\n\nbody\n", 4)
	root, err := exec.Run(t.Context(), doc)
	require.NoError(t, err)
	require.NotNil(t, root)

	assert.Equal(t, []string{"0:false", "1:false", "2:true", "3:true", "4:true", "5:true"}, seen)
	assert.Equal(t, exec.Registry().Names(), doc.Applied())
	out, err := markdown.Render(root)
	require.NoError(t, err)
	assert.Contains(t, out, "<h1>Title</h1>")
	assert.Equal(t, 3, doc.LineOffset)
}

func TestRunIsFailFastWithPosition(t *testing.T) {
	boom := errors.New("unbalanced braces")
	stages := orderedStages()
	stages[1].(*fakeStage).fn = func(doc *Document) error {
		return At(doc.Locator().At(2), boom)
	}
	var after bool
	stages[2].(*fakeStage).fn = func(*Document) error { after = true; return nil }
	exec := newExecutor(t, stages...)

	doc := NewDocument("note", "broken", "ab\ncd\n", 3)
	_, err := exec.Run(t.Context(), doc)
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "table-wrap", se.Stage)
	assert.Equal(t, markdown.Pos{Line: 3, Col: 3}, se.Pos)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "stage table-wrap at 3:3: unbalanced braces", err.Error())
	assert.False(t, after, "stages after a failure must not run")
	assert.Equal(t, []string{"table-normalize"}, doc.Applied())
}

func TestApplyRejectsOutOfOrder(t *testing.T) {
	exec := newExecutor(t, orderedStages()...)
	reg := exec.Registry()
	doc := NewDocument("note", "x", "| a |\n|---|\n| b |\n", 1)
	doc.SourceTree = markdown.NewEngine(markdown.Options{}).Parse(doc.Source)

	wrap, _ := reg.Lookup("table-wrap")
	err := exec.Apply(doc, wrap)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStageOrder)
	assert.Contains(t, err.Error(), "table-normalize")

	normalize, _ := reg.Lookup("table-normalize")
	require.NoError(t, exec.Apply(doc, normalize))
	require.NoError(t, exec.Apply(doc, wrap))

	err = exec.Apply(doc, wrap)
	assert.ErrorIs(t, err, ErrStageReapplied)

	ids, _ := reg.Lookup("heading-ids")
	err = exec.Apply(doc, ids)
	assert.ErrorIs(t, err, ErrWrongPhase)

	anchors, _ := reg.Lookup("heading-anchors")
	doc.RenderTree = &html.Node{Type: html.DocumentNode}
	err = exec.Apply(doc, anchors)
	assert.ErrorIs(t, err, ErrStageOrder)
}

func TestApplyRejectsPreStageAfterConversion(t *testing.T) {
	exec := newExecutor(t, pre("a", Dependencies{}))
	doc := NewDocument("note", "x", "text", 1)
	doc.RenderTree = &html.Node{Type: html.DocumentNode}
	a, _ := exec.Registry().Lookup("a")
	assert.ErrorIs(t, exec.Apply(doc, a), ErrWrongPhase)
}

type countingHighlighter struct{ err error }

func (c countingHighlighter) Highlight(root *html.Node) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	return len(markdown.FindAll(root, func(n *html.Node) bool { return n.Data == "pre" })), nil
}

func TestRunHighlighter(t *testing.T) {
	reg := MustRegistry(pre("noop", Dependencies{}))
	engine := markdown.NewEngine(markdown.Options{})

	exec := NewExecutor(reg, engine, WithHighlighter(countingHighlighter{}))
	doc := NewDocument("note", "code", "```go\nx\n```\n\n```\ny\n```\n", 1)
	_, err := exec.Run(t.Context(), doc)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.Meta.CodeBlocks)

	failing := NewExecutor(reg, engine, WithHighlighter(countingHighlighter{err: errors.New("no lexer")}))
	_, err = failing.Run(t.Context(), NewDocument("note", "code", "text", 1))
	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageHighlight, se.Stage)
}

func TestRunHonorsCancellation(t *testing.T) {
	exec := newExecutor(t, orderedStages()...)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err := exec.Run(ctx, NewDocument("note", "x", "text", 1))
	assert.ErrorIs(t, err, context.Canceled)
}

type stageRecorder struct {
	metrics.NoopRecorder
	mu        sync.Mutex
	results   map[string]metrics.ResultLabel
	durations int
}

func (r *stageRecorder) ObserveStageDuration(string, time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durations++
}

func (r *stageRecorder) IncStageResult(stage string, result metrics.ResultLabel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[stage] = result
}

func TestRunRecordsStageMetrics(t *testing.T) {
	stages := orderedStages()
	stages[3].(*fakeStage).fn = func(*Document) error { return errors.New("boom") }
	reg, err := NewRegistry(stages...)
	require.NoError(t, err)

	rec := &stageRecorder{results: map[string]metrics.ResultLabel{}}
	exec := NewExecutor(reg, markdown.NewEngine(markdown.Options{}), WithRecorder(rec))
	_, err = exec.Run(t.Context(), NewDocument("note", "x", "# a\n", 1))
	require.Error(t, err)

	assert.Equal(t, 4, rec.durations)
	assert.Equal(t, metrics.ResultSuccess, rec.results["heading-ids"])
	assert.Equal(t, metrics.ResultFailed, rec.results["heading-anchors"])
	assert.NotContains(t, rec.results, "sectionize")
}

func TestRunSourceTreeMutationIsVisible(t *testing.T) {
	stage := pre("drop-headings", Dependencies{})
	stage.fn = func(doc *Document) error {
		for c := doc.SourceTree.FirstChild(); c != nil; {
			next := c.NextSibling()
			if c.Kind() == gast.KindHeading {
				doc.SourceTree.RemoveChild(doc.SourceTree, c)
			}
			c = next
		}
		return nil
	}
	exec := newExecutor(t, stage)
	root, err := exec.Run(t.Context(), NewDocument("note", "x", "# gone\n\nkept\n", 1))
	require.NoError(t, err)
	out, err := markdown.Render(root)
	require.NoError(t, err)
	assert.False(t, strings.Contains(out, "gone"))
	assert.Contains(t, out, "<p>kept</p>")
}

func TestRunCollectsLinks(t *testing.T) {
	reg := MustRegistry(pre("noop", Dependencies{}))
	exec := NewExecutor(reg, markdown.NewEngine(markdown.Options{}))
	doc := NewDocument("note", "links", "See [the jotting](/jotting/one) and ![chart](chart.png).\n\n`[skip](x)`\n", 1)

	_, err := exec.Run(t.Context(), doc)
	require.NoError(t, err)
	assert.Equal(t, []markdown.Link{
		{Kind: markdown.LinkKindInline, Destination: "/jotting/one"},
		{Kind: markdown.LinkKindImage, Destination: "chart.png"},
	}, doc.Meta.Links)
}
