package stages

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	gast "github.com/yuin/goldmark/ast"

	"git.home.luguber.info/inful/folio/internal/markdown"
	"git.home.luguber.info/inful/folio/internal/pipeline"
)

var abbrDefinition = regexp.MustCompile(`^\*\[([^\]]+)\]:[ \t]*(.*?)\s*$`)

// AbbrStage collects *[ABBR]: Title definitions, removes them, and marks
// every whole-word occurrence of a defined abbreviation.
type AbbrStage struct{ info }

// NewAbbr returns the abbreviation stage.
func NewAbbr() *AbbrStage {
	return &AbbrStage{info: preInfo(NameAbbr, pipeline.Dependencies{})}
}

func (s *AbbrStage) Config() map[string]any { return nil }

func (s *AbbrStage) TransformSource(doc *pipeline.Document) error {
	defs := s.collect(doc)
	if len(defs) == 0 {
		return nil
	}
	if doc.Meta.Abbreviations == nil {
		doc.Meta.Abbreviations = make(map[string]string, len(defs))
	}
	shorts := make([]string, 0, len(defs))
	for short, title := range defs {
		doc.Meta.Abbreviations[short] = title
		shorts = append(shorts, short)
	}
	// Longest first so "HTML5" wins over "HTML".
	sort.Slice(shorts, func(i, j int) bool {
		if len(shorts[i]) != len(shorts[j]) {
			return len(shorts[i]) > len(shorts[j])
		}
		return shorts[i] < shorts[j]
	})
	quoted := make([]string, len(shorts))
	for i, sh := range shorts {
		quoted[i] = regexp.QuoteMeta(sh)
	}
	re := regexp.MustCompile(strings.Join(quoted, "|"))

	return markdown.RewriteText(doc.SourceTree, doc.Source, re, func(_ *gast.Text, m []int) (gast.Node, error) {
		if !wordBoundary(doc.Source, m[0], m[1]) {
			return nil, nil
		}
		short := string(doc.Source[m[0]:m[1]])
		return &markdown.Abbr{Short: short, Title: defs[short]}, nil
	})
}

// collect removes definition paragraphs and returns their definitions. A
// paragraph counts only when every one of its lines is a definition.
func (s *AbbrStage) collect(doc *pipeline.Document) map[string]string {
	var paras []*gast.Paragraph
	_ = gast.Walk(doc.SourceTree, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if p, ok := n.(*gast.Paragraph); ok && entering {
			paras = append(paras, p)
			return gast.WalkSkipChildren, nil
		}
		return gast.WalkContinue, nil
	})

	defs := make(map[string]string)
	for _, p := range paras {
		lines := p.Lines()
		if lines.Len() == 0 {
			continue
		}
		found := make(map[string]string, lines.Len())
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			m := abbrDefinition.FindSubmatch(seg.Value(doc.Source))
			if m == nil {
				found = nil
				break
			}
			found[strings.TrimSpace(string(m[1]))] = string(m[2])
		}
		if found == nil {
			continue
		}
		for k, v := range found {
			defs[k] = v
		}
		p.Parent().RemoveChild(p.Parent(), p)
	}
	return defs
}

func wordBoundary(source []byte, start, stop int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRune(source[:start])
		if isWordRune(r) {
			return false
		}
	}
	if stop < len(source) {
		r, _ := utf8.DecodeRune(source[stop:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

// isWordRune reports runes that continue a word. CJK characters do not, so
// "HTML은" still matches HTML.
func isWordRune(r rune) bool {
	if isCJK(r) {
		return false
	}
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
