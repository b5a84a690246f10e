package stages

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/folio/internal/markdown"
	"git.home.luguber.info/inful/folio/internal/pipeline"
)

// SectionizeStage wraps each top-level heading and the content up to the
// next heading of the same or a higher rank into a <section>. Sections nest
// by heading rank. The footnote section and anything after it stay at the
// top level. It must be the last post-conversion stage.
type SectionizeStage struct{ info }

// NewSectionize returns the sectionize stage.
func NewSectionize() *SectionizeStage {
	return &SectionizeStage{info: postInfo(NameSectionize, pipeline.Dependencies{
		Requires: []pipeline.Capability{pipeline.CapHeadingIDs},
		Follows:  []pipeline.Capability{pipeline.CapHeadingAnchors, pipeline.CapFootnoteRefs},
		Terminal: true,
	})}
}

func (s *SectionizeStage) Config() map[string]any { return nil }

type openSection struct {
	depth int
	node  *html.Node
}

func (s *SectionizeStage) TransformRender(doc *pipeline.Document) error {
	root := doc.RenderTree
	var children []*html.Node
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		children = append(children, c)
	}
	for _, c := range children {
		root.RemoveChild(c)
	}

	var stack []openSection
	tail := false
	for _, c := range children {
		if tail || isFootnoteSection(c) {
			tail = true
			root.AppendChild(c)
			continue
		}
		if depth, ok := markdown.IsHeading(c); ok {
			for len(stack) > 0 && stack[len(stack)-1].depth >= depth {
				stack = stack[:len(stack)-1]
			}
			section := markdown.NewElement("section")
			if id, ok := markdown.Attr(c, "id"); ok && id != "" {
				markdown.SetAttr(section, "aria-labelledby", id)
			}
			parentOf(root, stack).AppendChild(section)
			stack = append(stack, openSection{depth: depth, node: section})
			section.AppendChild(c)
			continue
		}
		parentOf(root, stack).AppendChild(c)
	}
	return nil
}

func parentOf(root *html.Node, stack []openSection) *html.Node {
	if len(stack) == 0 {
		return root
	}
	return stack[len(stack)-1].node
}

func isFootnoteSection(n *html.Node) bool {
	if n.DataAtom != atom.Section {
		return false
	}
	_, ok := markdown.Attr(n, "data-footnotes")
	return ok
}
