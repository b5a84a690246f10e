// Package stages implements the concrete pipeline stages and assembles them
// into the default, validated stage order.
package stages

import (
	"unicode"
	"unicode/utf8"

	"git.home.luguber.info/inful/folio/internal/pipeline"
)

// Stage names. The order of the constants is not significant; Default is.
const (
	NameStrikethrough  = "strikethrough"
	NameIns            = "ins"
	NameMark           = "mark"
	NameSpoiler        = "spoiler"
	NameAttr           = "attr"
	NameMath           = "math"
	NameGemoji         = "gemoji"
	NameFootnote       = "footnote"
	NameAbbr           = "abbr"
	NameTableNormalize = "table-normalize"
	NameTableWrap      = "table-wrap"
	NameRuby           = "ruby"
	NameCallouts       = "callouts"
	NameReading        = "reading"

	NameHeadingIDs     = "heading-ids"
	NameHeadingAnchors = "heading-anchors"
	NameExternalLinks  = "external-links"
	NameMathRender     = "math-render"
	NameFigure         = "figure"
	NameSectionize     = "sectionize"
)

// info carries the identity shared by every stage.
type info struct {
	name  string
	phase pipeline.Phase
	deps  pipeline.Dependencies
}

func (i info) Name() string                        { return i.name }
func (i info) Phase() pipeline.Phase               { return i.phase }
func (i info) Dependencies() pipeline.Dependencies { return i.deps }

func preInfo(name string, deps pipeline.Dependencies) info {
	return info{name: name, phase: pipeline.PreConversion, deps: deps}
}

func postInfo(name string, deps pipeline.Dependencies) info {
	return info{name: name, phase: pipeline.PostConversion, deps: deps}
}

// tight accepts inner text that is non-empty and neither starts nor ends
// with white space.
func tight(inner []byte) bool {
	if len(inner) == 0 {
		return false
	}
	first, _ := utf8.DecodeRune(inner)
	last, _ := utf8.DecodeLastRune(inner)
	return !unicode.IsSpace(first) && !unicode.IsSpace(last)
}
