package stages

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/folio/internal/markdown"
	"git.home.luguber.info/inful/folio/internal/pipeline"
)

var (
	errUnbalancedBraces = errors.New("unbalanced braces")
	errUnbalancedLeft   = errors.New(`unbalanced \left and \right`)
)

// MathRenderStage validates extracted TeX and emits KaTeX auto-render
// markup: \( … \) for inline and \[ … \] for display math.
type MathRenderStage struct{ info }

// NewMathRender returns the math rendering stage.
func NewMathRender() *MathRenderStage {
	return &MathRenderStage{info: postInfo(NameMathRender, pipeline.Dependencies{
		Requires: []pipeline.Capability{pipeline.CapMath},
	})}
}

func (s *MathRenderStage) Config() map[string]any {
	return map[string]any{"renderer": "katex", "inline": `\(…\)`, "display": `\[…\]`}
}

func (s *MathRenderStage) TransformRender(doc *pipeline.Document) error {
	for _, n := range markdown.FindAll(doc.RenderTree, func(n *html.Node) bool {
		return markdown.HasClass(n, "math")
	}) {
		raw, _ := markdown.Attr(n, "data-pos")
		pos, _ := markdown.ParsePos(raw)
		tex := markdown.TextContent(n)
		if err := CheckTeX(tex); err != nil {
			return pipeline.At(pos, fmt.Errorf("invalid TeX %q: %w", tex, err))
		}
		markdown.RemoveAttr(n, "data-pos")
		for c := n.FirstChild; c != nil; c = n.FirstChild {
			n.RemoveChild(c)
		}
		open, closing := `\(`, `\)`
		if markdown.HasClass(n, "math-display") {
			open, closing = `\[`, `\]`
		}
		n.AppendChild(&html.Node{Type: html.TextNode, Data: open + tex + closing})
	}
	return nil
}

// CheckTeX reports unbalanced groups: every unescaped { needs a }, and every
// \left needs a \right.
func CheckTeX(tex string) error {
	depth := 0
	for i := 0; i < len(tex); i++ {
		switch tex[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return errUnbalancedBraces
			}
		}
	}
	if depth != 0 {
		return errUnbalancedBraces
	}
	if countCommand(tex, `\left`) != countCommand(tex, `\right`) {
		return errUnbalancedLeft
	}
	return nil
}

// countCommand counts occurrences of a control word not followed by a letter.
func countCommand(tex, cmd string) int {
	n := 0
	for i := 0; ; {
		j := strings.Index(tex[i:], cmd)
		if j < 0 {
			return n
		}
		end := i + j + len(cmd)
		if end >= len(tex) || !isASCIILetter(tex[end]) {
			n++
		}
		i = end
	}
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
