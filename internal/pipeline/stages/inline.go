package stages

import (
	gast "github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"

	"git.home.luguber.info/inful/folio/internal/markdown"
	"git.home.luguber.info/inful/folio/internal/pipeline"
)

// StrikethroughStage turns ~~x~~ (and ~x~ when SingleTilde) into <del>.
type StrikethroughStage struct {
	info
	SingleTilde bool
}

// NewStrikethrough returns the strikethrough stage.
func NewStrikethrough(singleTilde bool) *StrikethroughStage {
	return &StrikethroughStage{info: preInfo(NameStrikethrough, pipeline.Dependencies{}), SingleTilde: singleTilde}
}

func (s *StrikethroughStage) Config() map[string]any {
	return map[string]any{"singleTilde": s.SingleTilde}
}

func (s *StrikethroughStage) TransformSource(doc *pipeline.Document) error {
	build := func(int, int) (gast.Node, bool) { return east.NewStrikethrough(), true }
	markdown.Delimited{Open: "~~", Close: "~~", Accept: tight, Build: build}.Apply(doc.SourceTree, doc.Source)
	if s.SingleTilde {
		single := func(inner []byte) bool { return tight(inner) && inner[0] != '~' }
		markdown.Delimited{Open: "~", Close: "~", Accept: single, Build: build}.Apply(doc.SourceTree, doc.Source)
	}
	return nil
}

// delimitedStage wraps a run enclosed by a fixed marker into a custom node.
type delimitedStage struct {
	info
	marker string
	newFn  func() gast.Node
}

func (s *delimitedStage) Config() map[string]any {
	return map[string]any{"marker": s.marker}
}

func (s *delimitedStage) TransformSource(doc *pipeline.Document) error {
	markdown.Delimited{
		Open:   s.marker,
		Close:  s.marker,
		Accept: tight,
		Build:  func(int, int) (gast.Node, bool) { return s.newFn(), true },
	}.Apply(doc.SourceTree, doc.Source)
	return nil
}

// NewIns returns the ++inserted++ stage.
func NewIns() pipeline.SourceStage {
	return &delimitedStage{info: preInfo(NameIns, pipeline.Dependencies{}), marker: "++",
		newFn: func() gast.Node { return markdown.NewIns() }}
}

// NewMark returns the ==highlighted== stage.
func NewMark() pipeline.SourceStage {
	return &delimitedStage{info: preInfo(NameMark, pipeline.Dependencies{}), marker: "==",
		newFn: func() gast.Node { return markdown.NewMark() }}
}

// NewSpoiler returns the ||spoiler|| stage.
func NewSpoiler() pipeline.SourceStage {
	return &delimitedStage{info: preInfo(NameSpoiler, pipeline.Dependencies{}), marker: "||",
		newFn: func() gast.Node { return markdown.NewSpoiler() }}
}
