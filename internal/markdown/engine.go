// Package markdown owns the two tree representations a document passes
// through: the goldmark AST (source tree) and the x/net/html node tree (render
// tree), plus the conversion between them.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// FootnoteLabel configures the label placed above the footnote list.
type FootnoteLabel struct {
	Text     string
	Tag      string
	Classes  []string
	Suppress bool
}

// Options configure an Engine.
type Options struct {
	Footnotes FootnoteLabel
}

// Engine parses markdown into a source tree and converts source trees into
// render trees. It is safe for concurrent use.
type Engine struct {
	md        goldmark.Markdown
	footnotes FootnoteLabel
}

// NewEngine returns an engine with GFM tables, footnotes, task lists,
// autolinks and CJK-friendly emphasis enabled. Strikethrough is not parsed
// here; the strikethrough stage handles it so the tilde policy is configurable.
func NewEngine(opts Options) *Engine {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Linkify,
			extension.TaskList,
			extension.Footnote,
			extension.CJK,
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
			renderer.WithNodeRenderers(
				util.Prioritized(&nodeRenderer{}, 500),
				util.Prioritized(extension.NewStrikethroughHTMLRenderer(), 500),
			),
		),
	)
	return &Engine{md: md, footnotes: opts.Footnotes}
}

// Parse builds the source tree of a markdown body.
func (e *Engine) Parse(source []byte) gast.Node {
	return e.md.Parser().Parse(text.NewReader(source))
}

// Convert renders the source tree and parses the result into a render tree.
// The returned root is a document node whose children are the body content.
func (e *Engine) Convert(source []byte, tree gast.Node) (*html.Node, error) {
	var buf bytes.Buffer
	if err := e.md.Renderer().Render(&buf, source, tree); err != nil {
		return nil, fmt.Errorf("render source tree: %w", err)
	}
	root, err := ParseFragment(buf.Bytes())
	if err != nil {
		return nil, err
	}
	applyFootnoteLabel(root, e.footnotes)
	return root, nil
}

// ParseFragment parses an HTML body fragment into a detached document node.
func ParseFragment(fragment []byte) (*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(fragment), body)
	if err != nil {
		return nil, fmt.Errorf("parse render tree: %w", err)
	}
	root := &html.Node{Type: html.DocumentNode}
	for _, n := range nodes {
		root.AppendChild(n)
	}
	return root, nil
}

// Render serializes the children of root.
func Render(root *html.Node) (string, error) {
	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

// applyFootnoteLabel turns the footnote container into a labelled section:
// the separator rule is dropped and, unless suppressed, a label element is
// inserted before the list.
func applyFootnoteLabel(root *html.Node, label FootnoteLabel) {
	for _, div := range FindAll(root, func(n *html.Node) bool {
		return n.DataAtom == atom.Div && HasClass(n, "footnotes")
	}) {
		div.Data, div.DataAtom = "section", atom.Section
		RemoveAttr(div, "role")
		SetAttr(div, "data-footnotes", "")
		for c := div.FirstChild; c != nil; {
			next := c.NextSibling
			if c.DataAtom == atom.Hr {
				div.RemoveChild(c)
			}
			c = next
		}
		if label.Suppress {
			continue
		}
		tag := label.Tag
		if tag == "" {
			tag = "h2"
		}
		text := label.Text
		if text == "" {
			text = "Footnotes"
		}
		el := NewElement(tag, html.Attribute{Key: "id", Val: "footnote-label"})
		for _, cls := range label.Classes {
			AddClass(el, cls)
		}
		el.AppendChild(&html.Node{Type: html.TextNode, Data: text})
		div.InsertBefore(el, firstElement(div))
	}
}

func firstElement(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return c
		}
	}
	return nil
}
