package stages

import (
	"bytes"
	"regexp"
	"strconv"

	gast "github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"

	"git.home.luguber.info/inful/folio/internal/markdown"
	"git.home.luguber.info/inful/folio/internal/pipeline"
)

var danglingRef = regexp.MustCompile(`\[\^([^\]\s]+)\]`)

// inlineNote holds the content of a ^[inline footnote] until it is moved
// into the footnote list.
type inlineNote struct{ gast.BaseInline }

var kindInlineNote = gast.NewNodeKind("InlineNote")

func (n *inlineNote) Kind() gast.NodeKind           { return kindInlineNote }
func (n *inlineNote) Dump(source []byte, level int) { gast.DumpHelper(n, source, level, nil, nil) }

// FootnoteStage resolves footnote references into one document-wide list.
// Inline ^[notes] become footnotes, every footnote is numbered by its first
// reference in reading order, and a reference without a definition fails.
type FootnoteStage struct {
	info
	label markdown.FootnoteLabel
}

// NewFootnote returns the footnote stage. The label only describes how the
// footnote container is rendered; the engine applies it at conversion.
func NewFootnote(label markdown.FootnoteLabel) *FootnoteStage {
	return &FootnoteStage{
		info: preInfo(NameFootnote, pipeline.Dependencies{
			Provides: []pipeline.Capability{pipeline.CapFootnoteRefs, pipeline.CapLinks},
		}),
		label: label,
	}
}

func (s *FootnoteStage) Config() map[string]any {
	return map[string]any{
		"footnoteLabel":        s.label.Text,
		"footnoteLabelTagName": s.label.Tag,
		"footnoteLabelClasses": s.label.Classes,
		"suppressLabel":        s.label.Suppress,
	}
}

func (s *FootnoteStage) TransformSource(doc *pipeline.Document) error {
	root := doc.SourceTree
	markdown.Delimited{
		Open:   "^[",
		Close:  "]",
		Accept: func(inner []byte) bool { return len(bytes.TrimSpace(inner)) > 0 },
		Build:  func(int, int) (gast.Node, bool) { return &inlineNote{}, true },
	}.Apply(root, doc.Source)

	list := footnoteList(root)
	defined := make(map[int]*east.Footnote)
	if list != nil {
		for c := list.FirstChild(); c != nil; c = c.NextSibling() {
			if fn, ok := c.(*east.Footnote); ok {
				defined[fn.Index] = fn
			}
		}
	}

	r := &renumbering{defined: defined, index: map[int]int{}, refs: map[int]int{}}
	r.visit(collectRefs(root))
	for i := 0; i < len(r.ordered); i++ {
		r.visit(collectRefs(r.ordered[i]))
	}

	if err := markdown.RewriteText(root, doc.Source, danglingRef, func(_ *gast.Text, m []int) (gast.Node, error) {
		return nil, pipeline.Errorf(doc.Locator().At(m[0]), "undefined footnote reference %q", doc.Source[m[2]:m[3]])
	}); err != nil {
		return err
	}

	for _, l := range r.links {
		l.RefCount = r.refs[l.Index]
	}
	if len(r.ordered) == 0 {
		if list != nil {
			root.RemoveChild(root, list)
		}
		return nil
	}
	if list == nil {
		list = east.NewFootnoteList()
		root.AppendChild(root, list)
	}
	list.RemoveChildren(list)
	doc.Meta.Footnotes = doc.Meta.Footnotes[:0]
	for _, fn := range r.ordered {
		container := stripBacklinks(fn)
		for i := 0; i < r.refs[fn.Index]; i++ {
			bl := east.NewFootnoteBacklink(fn.Index)
			bl.RefCount = r.refs[fn.Index]
			bl.RefIndex = i
			container.AppendChild(container, bl)
		}
		list.AppendChild(list, fn)
		doc.Meta.Footnotes = append(doc.Meta.Footnotes, string(fn.Ref))
	}
	list.Count = len(r.ordered)
	return nil
}

type renumbering struct {
	defined map[int]*east.Footnote
	// index maps parser indexes to reading-order indexes.
	index   map[int]int
	refs    map[int]int
	links   []*east.FootnoteLink
	ordered []*east.Footnote
}

func (r *renumbering) visit(refs []gast.Node) {
	for _, ref := range refs {
		switch n := ref.(type) {
		case *east.FootnoteLink:
			idx, seen := r.index[n.Index]
			if !seen {
				fn, ok := r.defined[n.Index]
				if !ok {
					continue
				}
				idx = len(r.ordered) + 1
				r.index[n.Index] = idx
				fn.Index = idx
				r.ordered = append(r.ordered, fn)
			}
			n.Index = idx
			n.RefIndex = r.refs[idx]
			r.refs[idx]++
			r.links = append(r.links, n)
		case *inlineNote:
			idx := len(r.ordered) + 1
			fn := east.NewFootnote([]byte(strconv.Itoa(idx)))
			fn.Index = idx
			para := gast.NewParagraph()
			for c := n.FirstChild(); c != nil; {
				next := c.NextSibling()
				para.AppendChild(para, c)
				c = next
			}
			fn.AppendChild(fn, para)
			link := east.NewFootnoteLink(idx)
			n.Parent().ReplaceChild(n.Parent(), n, link)
			r.refs[idx] = 1
			r.links = append(r.links, link)
			r.ordered = append(r.ordered, fn)
		}
	}
}

func footnoteList(root gast.Node) *east.FootnoteList {
	for c := root.FirstChild(); c != nil; c = c.NextSibling() {
		if l, ok := c.(*east.FootnoteList); ok {
			return l
		}
	}
	return nil
}

// collectRefs returns footnote links and inline notes under n in reading
// order, not descending into the footnote list or into inline notes.
func collectRefs(n gast.Node) []gast.Node {
	var refs []gast.Node
	_ = gast.Walk(n, func(c gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			return gast.WalkContinue, nil
		}
		switch c.Kind() {
		case east.KindFootnoteList:
			if c != n {
				return gast.WalkSkipChildren, nil
			}
		case east.KindFootnoteLink:
			refs = append(refs, c)
		case kindInlineNote:
			refs = append(refs, c)
			return gast.WalkSkipChildren, nil
		}
		return gast.WalkContinue, nil
	})
	return refs
}

// stripBacklinks removes parser-generated backlinks and returns the node new
// backlinks belong in.
func stripBacklinks(fn *east.Footnote) gast.Node {
	var backlinks []gast.Node
	_ = gast.Walk(fn, func(c gast.Node, entering bool) (gast.WalkStatus, error) {
		if entering && c.Kind() == east.KindFootnoteBacklink {
			backlinks = append(backlinks, c)
		}
		return gast.WalkContinue, nil
	})
	for _, b := range backlinks {
		b.Parent().RemoveChild(b.Parent(), b)
	}
	var container gast.Node = fn
	if last := fn.LastChild(); last != nil && last.Kind() == gast.KindParagraph {
		container = last
	}
	return container
}
