package stages

import (
	"regexp"

	"github.com/yuin/goldmark-emoji/definition"
	gast "github.com/yuin/goldmark/ast"

	"git.home.luguber.info/inful/folio/internal/markdown"
	"git.home.luguber.info/inful/folio/internal/pipeline"
)

var (
	shortcode = regexp.MustCompile(`:([a-z0-9_+\-]+):`)
	emojis    = definition.Github()
)

// GemojiStage replaces :shortcode: with the GitHub emoji it names. Unknown
// shortcodes are left alone.
type GemojiStage struct{ info }

// NewGemoji returns the emoji shortcode stage.
func NewGemoji() *GemojiStage {
	return &GemojiStage{info: preInfo(NameGemoji, pipeline.Dependencies{})}
}

func (s *GemojiStage) Config() map[string]any { return map[string]any{"set": "github"} }

func (s *GemojiStage) TransformSource(doc *pipeline.Document) error {
	return markdown.RewriteText(doc.SourceTree, doc.Source, shortcode,
		func(_ *gast.Text, m []int) (gast.Node, error) {
			e, ok := emojis.Get(string(doc.Source[m[2]:m[3]]))
			if !ok || !e.IsUnicode() {
				return nil, nil
			}
			return gast.NewString([]byte(string(e.Unicode))), nil
		})
}
