package stages

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/folio/internal/markdown"
	"git.home.luguber.info/inful/folio/internal/pipeline"
)

// FigureStage turns a paragraph holding nothing but one image into a figure
// captioned with the image title, or its alt text when there is no title.
type FigureStage struct{ info }

// NewFigure returns the figure stage.
func NewFigure() *FigureStage {
	return &FigureStage{info: postInfo(NameFigure, pipeline.Dependencies{})}
}

func (s *FigureStage) Config() map[string]any {
	return map[string]any{"caption": "title|alt"}
}

func (s *FigureStage) TransformRender(doc *pipeline.Document) error {
	for _, p := range markdown.FindAll(doc.RenderTree, func(n *html.Node) bool { return n.DataAtom == atom.P }) {
		img := loneImage(p)
		if img == nil {
			continue
		}
		caption, _ := markdown.Attr(img, "title")
		if caption == "" {
			caption, _ = markdown.Attr(img, "alt")
		}

		figure := markdown.NewElement("figure")
		p.Parent.InsertBefore(figure, p)
		p.Parent.RemoveChild(p)
		p.RemoveChild(img)
		figure.AppendChild(img)
		if caption != "" {
			fc := markdown.NewElement("figcaption")
			fc.AppendChild(&html.Node{Type: html.TextNode, Data: caption})
			figure.AppendChild(fc)
		}
	}
	return nil
}

func loneImage(p *html.Node) *html.Node {
	var img *html.Node
	for c := p.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return nil
			}
		case html.ElementNode:
			if c.DataAtom != atom.Img || img != nil {
				return nil
			}
			img = c
		}
	}
	return img
}
