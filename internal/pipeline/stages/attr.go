package stages

import (
	"regexp"
	"strings"

	gast "github.com/yuin/goldmark/ast"

	"git.home.luguber.info/inful/folio/internal/markdown"
	"git.home.luguber.info/inful/folio/internal/pipeline"
)

var (
	attrBlock    = regexp.MustCompile(`[ \t]*\{([^{}]*)\}[ \t]*$`)
	attrOpen     = regexp.MustCompile(`\{[.#][^{}]*$`)
	attrClass    = regexp.MustCompile(`^\.([A-Za-z_][\w-]*)$`)
	attrID       = regexp.MustCompile(`^#([A-Za-z_][\w:.-]*)$`)
	attrKeyValue = regexp.MustCompile(`^([A-Za-z_:][\w:.-]*)=(?:"([^"]*)"|'([^']*)'|([^\s"'=<>` + "`" + `]+))$`)
	attrToken    = regexp.MustCompile(`(?:[^\s"']+|"[^"]*"|'[^']*')+`)
)

// AttrStage applies a trailing {.class #id key=value} list to the heading or
// paragraph it ends.
type AttrStage struct{ info }

// NewAttr returns the attribute list stage.
func NewAttr() *AttrStage {
	return &AttrStage{info: preInfo(NameAttr, pipeline.Dependencies{
		Provides: []pipeline.Capability{pipeline.CapAttributes},
	})}
}

func (s *AttrStage) Config() map[string]any { return nil }

func (s *AttrStage) TransformSource(doc *pipeline.Document) error {
	var targets []gast.Node
	_ = gast.Walk(doc.SourceTree, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			return gast.WalkContinue, nil
		}
		switch n.Kind() {
		case gast.KindHeading, gast.KindParagraph:
			targets = append(targets, n)
			return gast.WalkSkipChildren, nil
		}
		return gast.WalkContinue, nil
	})

	loc := doc.Locator()
	for _, n := range targets {
		markdown.MergeText(n)
		last, ok := n.LastChild().(*gast.Text)
		if !ok || last.IsRaw() {
			continue
		}
		val := last.Segment.Value(doc.Source)
		m := attrBlock.FindSubmatchIndex(val)
		if m == nil {
			if o := attrOpen.FindIndex(val); o != nil {
				return pipeline.Errorf(loc.At(last.Segment.Start+o[0]), "unterminated attribute list %q", val[o[0]:])
			}
			continue
		}
		attrs, ok := parseAttrs(string(val[m[2]:m[3]]))
		if !ok {
			continue
		}
		for _, a := range attrs {
			n.SetAttributeString(a.key, []byte(a.val))
		}
		last.Segment = last.Segment.WithStop(last.Segment.Start + m[0])
		if last.Segment.IsEmpty() {
			n.RemoveChild(n, last)
		}
	}
	return nil
}

type attribute struct{ key, val string }

// parseAttrs parses the inside of an attribute list. Every token must be
// valid, otherwise the list is treated as plain text.
func parseAttrs(raw string) ([]attribute, bool) {
	tokens := attrToken.FindAllString(raw, -1)
	if len(tokens) == 0 {
		return nil, false
	}
	var classes []string
	var out []attribute
	for _, tok := range tokens {
		if m := attrClass.FindStringSubmatch(tok); m != nil {
			classes = append(classes, m[1])
			continue
		}
		if m := attrID.FindStringSubmatch(tok); m != nil {
			out = append(out, attribute{"id", m[1]})
			continue
		}
		if m := attrKeyValue.FindStringSubmatch(tok); m != nil {
			out = append(out, attribute{m[1], m[2] + m[3] + m[4]})
			continue
		}
		return nil, false
	}
	if len(classes) > 0 {
		out = append(out, attribute{"class", strings.Join(classes, " ")})
	}
	return out, true
}
