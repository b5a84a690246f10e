package stages

import (
	"regexp"
	"strings"

	gast "github.com/yuin/goldmark/ast"

	"git.home.luguber.info/inful/folio/internal/markdown"
	"git.home.luguber.info/inful/folio/internal/pipeline"
)

var rubyPattern = regexp.MustCompile(`\{([^{}|\s][^{}|]*)((?:\|[^{}|]*)+)\}`)

// RubyStage turns {base|reading} and {漢字|かん|じ} into ruby annotations.
type RubyStage struct{ info }

// NewRuby returns the ruby annotation stage.
func NewRuby() *RubyStage {
	return &RubyStage{info: preInfo(NameRuby, pipeline.Dependencies{
		Follows: []pipeline.Capability{pipeline.CapAttributes},
	})}
}

func (s *RubyStage) Config() map[string]any { return map[string]any{"separator": "|"} }

func (s *RubyStage) TransformSource(doc *pipeline.Document) error {
	return markdown.RewriteText(doc.SourceTree, doc.Source, rubyPattern, func(_ *gast.Text, m []int) (gast.Node, error) {
		base := strings.TrimSpace(string(doc.Source[m[2]:m[3]]))
		readings := strings.Split(string(doc.Source[m[4]+1:m[5]]), "|")
		nonEmpty := false
		for i, r := range readings {
			readings[i] = strings.TrimSpace(r)
			nonEmpty = nonEmpty || readings[i] != ""
		}
		if base == "" || !nonEmpty {
			return nil, nil
		}
		return &markdown.Ruby{Base: base, Readings: readings}, nil
	})
}
