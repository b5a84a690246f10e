package stages

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/folio/internal/markdown"
	"git.home.luguber.info/inful/folio/internal/pipeline"
)

// HeadingIDsStage gives every heading a unique id. Ids already present in
// the document, including those set by attribute lists, are kept and
// reserved. The headings are recorded for the table of contents.
type HeadingIDsStage struct{ info }

// NewHeadingIDs returns the heading id stage.
func NewHeadingIDs() *HeadingIDsStage {
	return &HeadingIDsStage{info: postInfo(NameHeadingIDs, pipeline.Dependencies{
		Provides: []pipeline.Capability{pipeline.CapHeadingIDs},
		Follows:  []pipeline.Capability{pipeline.CapAttributes},
	})}
}

func (s *HeadingIDsStage) Config() map[string]any { return map[string]any{"slugger": "github"} }

func (s *HeadingIDsStage) TransformRender(doc *pipeline.Document) error {
	slugs := newSlugger()
	for _, n := range markdown.FindAll(doc.RenderTree, func(*html.Node) bool { return true }) {
		if id, ok := markdown.Attr(n, "id"); ok && id != "" {
			slugs.reserve(id)
		}
	}

	doc.Meta.Headings = doc.Meta.Headings[:0]
	for _, h := range markdown.FindAll(doc.RenderTree, func(n *html.Node) bool {
		_, ok := markdown.IsHeading(n)
		return ok
	}) {
		depth, _ := markdown.IsHeading(h)
		text := strings.TrimSpace(markdown.TextContent(h))
		id, ok := markdown.Attr(h, "id")
		if !ok || id == "" {
			id = slugs.slug(text)
			markdown.SetAttr(h, "id", id)
		}
		doc.Meta.Headings = append(doc.Meta.Headings, pipeline.Heading{Depth: depth, ID: id, Text: text})
	}
	return nil
}

// slugger produces GitHub-style anchors: NFC-normalized, lower-cased,
// punctuation dropped, spaces turned into hyphens, repeats suffixed -1, -2….
type slugger struct {
	used map[string]int
}

func newSlugger() *slugger { return &slugger{used: map[string]int{}} }

func (s *slugger) reserve(id string) { s.used[id]++ }

func (s *slugger) slug(text string) string {
	base := Slugify(text)
	if base == "" {
		base = "section"
	}
	id := base
	for n := s.used[base]; ; n++ {
		if n > 0 {
			id = base + "-" + strconv.Itoa(n)
		}
		if _, taken := s.used[id]; !taken {
			s.used[base] = n + 1
			if id != base {
				s.used[id]++
			}
			return id
		}
	}
}

// Slugify converts heading text into an anchor without deduplication.
func Slugify(text string) string {
	text = strings.ToLower(norm.NFC.String(strings.TrimSpace(text)))
	var b strings.Builder
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r) || r == '_' || r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
	}
	return b.String()
}

// Anchor behaviors.
const (
	AnchorWrap    = "wrap"
	AnchorPrepend = "prepend"
	AnchorAppend  = "append"
)

// HeadingAnchorsStage links every heading that has an id to itself. It never
// invents ids.
type HeadingAnchorsStage struct {
	info
	Behavior string
	Class    string
	Symbol   string
}

// NewHeadingAnchors returns the heading anchor stage.
func NewHeadingAnchors(behavior, class, symbol string) *HeadingAnchorsStage {
	switch behavior {
	case AnchorPrepend, AnchorAppend:
	default:
		behavior = AnchorWrap
	}
	return &HeadingAnchorsStage{
		info: postInfo(NameHeadingAnchors, pipeline.Dependencies{
			Requires: []pipeline.Capability{pipeline.CapHeadingIDs},
			Provides: []pipeline.Capability{pipeline.CapHeadingAnchors, pipeline.CapLinks},
		}),
		Behavior: behavior,
		Class:    class,
		Symbol:   symbol,
	}
}

func (s *HeadingAnchorsStage) Config() map[string]any {
	return map[string]any{"behavior": s.Behavior, "class": s.Class, "content": s.Symbol}
}

func (s *HeadingAnchorsStage) TransformRender(doc *pipeline.Document) error {
	for _, h := range markdown.FindAll(doc.RenderTree, func(n *html.Node) bool {
		_, ok := markdown.IsHeading(n)
		return ok
	}) {
		id, ok := markdown.Attr(h, "id")
		if !ok || id == "" {
			continue
		}
		a := markdown.NewElement("a", html.Attribute{Key: "href", Val: "#" + id})
		if s.Class != "" {
			markdown.AddClass(a, s.Class)
		}
		switch s.Behavior {
		case AnchorWrap:
			markdown.MoveChildren(h, a)
			h.AppendChild(a)
		default:
			markdown.SetAttr(a, "aria-hidden", "true")
			markdown.SetAttr(a, "tabindex", "-1")
			a.AppendChild(&html.Node{Type: html.TextNode, Data: s.Symbol})
			if s.Behavior == AnchorPrepend {
				h.InsertBefore(a, h.FirstChild)
			} else {
				h.AppendChild(a)
			}
		}
	}
	return nil
}

// isAnchor reports an <a> element.
func isAnchor(n *html.Node) bool { return n.DataAtom == atom.A }
