package stages

import (
	"regexp"
	"strings"

	gast "github.com/yuin/goldmark/ast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/folio/internal/markdown"
	"git.home.luguber.info/inful/folio/internal/pipeline"
)

// Callout label casings.
const (
	CasingCapitalize = "capitalize"
	CasingUpper      = "upper"
	CasingLower      = "lower"
)

// CalloutTypes are the recognised alert types.
var CalloutTypes = []string{"note", "tip", "important", "warning", "caution"}

var calloutMarker = regexp.MustCompile(`^\[!([A-Za-z]+)\](?:[ \t]+(.*?))?\s*$`)

// CalloutsStage converts GitHub-style alert blockquotes (> [!NOTE]) into
// callouts. A blockquote with an unknown type stays a blockquote.
type CalloutsStage struct {
	info
	Casing string
}

// NewCallouts returns the callout stage with the given label casing.
func NewCallouts(casing string) *CalloutsStage {
	if casing != CasingUpper && casing != CasingLower {
		casing = CasingCapitalize
	}
	return &CalloutsStage{info: preInfo(NameCallouts, pipeline.Dependencies{}), Casing: casing}
}

func (s *CalloutsStage) Config() map[string]any {
	return map[string]any{"typeFormat": s.Casing, "types": CalloutTypes}
}

// Label returns the default title of a callout type. Casers are stateful,
// so each call gets its own.
func (s *CalloutsStage) Label(typ string) string {
	switch s.Casing {
	case CasingUpper:
		return cases.Upper(language.Und).String(typ)
	case CasingLower:
		return cases.Lower(language.Und).String(typ)
	default:
		return cases.Title(language.Und).String(typ)
	}
}

func (s *CalloutsStage) TransformSource(doc *pipeline.Document) error {
	var quotes []*gast.Blockquote
	_ = gast.Walk(doc.SourceTree, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if q, ok := n.(*gast.Blockquote); ok && entering {
			quotes = append(quotes, q)
		}
		return gast.WalkContinue, nil
	})

	for _, q := range quotes {
		para, ok := q.FirstChild().(*gast.Paragraph)
		if !ok || para.Lines().Len() == 0 {
			continue
		}
		first := para.Lines().At(0)
		m := calloutMarker.FindSubmatch(first.Value(doc.Source))
		if m == nil {
			continue
		}
		typ := strings.ToLower(string(m[1]))
		if !isCalloutType(typ) {
			continue
		}
		title := strings.TrimSpace(string(m[2]))
		if title == "" {
			title = s.Label(typ)
		}

		dropFirstLine(para, first.Stop)
		if para.ChildCount() == 0 {
			q.RemoveChild(q, para)
		}
		callout := &markdown.Callout{AlertType: typ, Title: title}
		for c := q.FirstChild(); c != nil; {
			next := c.NextSibling()
			callout.AppendChild(callout, c)
			c = next
		}
		q.Parent().ReplaceChild(q.Parent(), q, callout)
	}
	return nil
}

// dropFirstLine removes the inline nodes of a paragraph's first line.
func dropFirstLine(para gast.Node, lineStop int) {
	for c := para.FirstChild(); c != nil; {
		next := c.NextSibling()
		done := false
		if t, ok := c.(*gast.Text); ok {
			done = t.SoftLineBreak() || t.HardLineBreak() || t.Segment.Stop >= lineStop
		}
		para.RemoveChild(para, c)
		if done {
			return
		}
		c = next
	}
}

func isCalloutType(typ string) bool {
	for _, t := range CalloutTypes {
		if t == typ {
			return true
		}
	}
	return false
}
