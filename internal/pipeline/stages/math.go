package stages

import (
	"bytes"
	"strings"

	gast "github.com/yuin/goldmark/ast"

	"git.home.luguber.info/inful/folio/internal/markdown"
	"git.home.luguber.info/inful/folio/internal/pipeline"
)

// MathStage extracts $inline$ and $$display$$ TeX. The TeX is taken from
// the raw source so markdown syntax inside formulas is not interpreted.
type MathStage struct{ info }

// NewMath returns the math extraction stage.
func NewMath() *MathStage {
	return &MathStage{info: preInfo(NameMath, pipeline.Dependencies{
		Provides: []pipeline.Capability{pipeline.CapMath},
	})}
}

func (s *MathStage) Config() map[string]any {
	return map[string]any{"inline": "$", "display": "$$"}
}

func (s *MathStage) TransformSource(doc *pipeline.Document) error {
	loc := doc.Locator()
	count := s.displayBlocks(doc, loc)

	inline := func(display bool, width int) func(start, stop int) (gast.Node, bool) {
		return func(start, stop int) (gast.Node, bool) {
			return &markdown.InlineMath{
				TeX:     string(doc.Source[start:stop]),
				Pos:     loc.At(start - width),
				Display: display,
			}, false
		}
	}
	noDollar := func(inner []byte) bool {
		return tight(inner) && inner[0] != '$' && inner[len(inner)-1] != '$'
	}
	count += markdown.Delimited{Open: "$$", Close: "$$", Accept: noDollar, Build: inline(true, 2)}.
		Apply(doc.SourceTree, doc.Source)
	count += markdown.Delimited{Open: "$", Close: "$", Accept: noDollar, Build: inline(false, 1)}.
		Apply(doc.SourceTree, doc.Source)

	doc.Meta.Math = doc.Meta.Math || count > 0
	return nil
}

// displayBlocks replaces paragraphs consisting of a single $$…$$ run.
func (s *MathStage) displayBlocks(doc *pipeline.Document, loc markdown.Locator) int {
	var paras []*gast.Paragraph
	_ = gast.Walk(doc.SourceTree, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			return gast.WalkContinue, nil
		}
		if p, ok := n.(*gast.Paragraph); ok {
			paras = append(paras, p)
			return gast.WalkSkipChildren, nil
		}
		return gast.WalkContinue, nil
	})

	count := 0
	for _, p := range paras {
		lines := p.Lines()
		if lines.Len() == 0 {
			continue
		}
		var raw bytes.Buffer
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			raw.Write(seg.Value(doc.Source))
		}
		text := bytes.TrimSpace(raw.Bytes())
		if len(text) < 4 || !bytes.HasPrefix(text, []byte("$$")) || !bytes.HasSuffix(text, []byte("$$")) {
			continue
		}
		inner := text[2 : len(text)-2]
		if bytes.Contains(inner, []byte("$$")) {
			continue
		}
		tex := strings.TrimSpace(string(inner))
		if tex == "" {
			continue
		}
		dm := &markdown.DisplayMath{TeX: tex, Pos: loc.At(lines.At(0).Start)}
		p.Parent().ReplaceChild(p.Parent(), p, dm)
		count++
	}
	return count
}
