package markdown

import (
	"fmt"

	gast "github.com/yuin/goldmark/ast"
)

// Node kinds added by the pre-conversion stages.
var (
	KindIns          = gast.NewNodeKind("Ins")
	KindMark         = gast.NewNodeKind("Mark")
	KindSpoiler      = gast.NewNodeKind("Spoiler")
	KindInlineMath   = gast.NewNodeKind("InlineMath")
	KindDisplayMath  = gast.NewNodeKind("DisplayMath")
	KindAbbr         = gast.NewNodeKind("Abbr")
	KindRuby         = gast.NewNodeKind("Ruby")
	KindCallout      = gast.NewNodeKind("Callout")
	KindTableWrapper = gast.NewNodeKind("TableWrapper")
)

var (
	_ gast.Node = (*Ins)(nil)
	_ gast.Node = (*Mark)(nil)
	_ gast.Node = (*Spoiler)(nil)
	_ gast.Node = (*InlineMath)(nil)
	_ gast.Node = (*DisplayMath)(nil)
	_ gast.Node = (*Abbr)(nil)
	_ gast.Node = (*Ruby)(nil)
	_ gast.Node = (*Callout)(nil)
	_ gast.Node = (*TableWrapper)(nil)
)

// Ins is inserted text (++x++).
type Ins struct{ gast.BaseInline }

func NewIns() *Ins                           { return &Ins{} }
func (n *Ins) Kind() gast.NodeKind           { return KindIns }
func (n *Ins) Dump(source []byte, level int) { gast.DumpHelper(n, source, level, nil, nil) }

// Mark is highlighted text (==x==).
type Mark struct{ gast.BaseInline }

func NewMark() *Mark                          { return &Mark{} }
func (n *Mark) Kind() gast.NodeKind           { return KindMark }
func (n *Mark) Dump(source []byte, level int) { gast.DumpHelper(n, source, level, nil, nil) }

// Spoiler is text hidden until revealed (||x||).
type Spoiler struct{ gast.BaseInline }

func NewSpoiler() *Spoiler                       { return &Spoiler{} }
func (n *Spoiler) Kind() gast.NodeKind           { return KindSpoiler }
func (n *Spoiler) Dump(source []byte, level int) { gast.DumpHelper(n, source, level, nil, nil) }

// InlineMath holds TeX taken verbatim from the source ($x$). Display is set
// for $$x$$ written inside a paragraph.
type InlineMath struct {
	gast.BaseInline
	TeX     string
	Pos     Pos
	Display bool
}

func (n *InlineMath) Kind() gast.NodeKind { return KindInlineMath }
func (n *InlineMath) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{"TeX": n.TeX}, nil)
}

// DisplayMath is a block of TeX ($$ … $$).
type DisplayMath struct {
	gast.BaseBlock
	TeX string
	Pos Pos
}

func (n *DisplayMath) Kind() gast.NodeKind { return KindDisplayMath }
func (n *DisplayMath) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{"TeX": n.TeX}, nil)
}

// Abbr is an occurrence of a defined abbreviation.
type Abbr struct {
	gast.BaseInline
	Short string
	Title string
}

func (n *Abbr) Kind() gast.NodeKind { return KindAbbr }
func (n *Abbr) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{"Short": n.Short, "Title": n.Title}, nil)
}

// Ruby annotates base text with readings. When Readings has one entry per
// base rune each rune gets its own annotation.
type Ruby struct {
	gast.BaseInline
	Base     string
	Readings []string
}

func (n *Ruby) Kind() gast.NodeKind { return KindRuby }
func (n *Ruby) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{
		"Base":     n.Base,
		"Readings": fmt.Sprint(n.Readings),
	}, nil)
}

// Callout is a GitHub-style alert converted from a blockquote.
type Callout struct {
	gast.BaseBlock
	// AlertType is the lower-case alert type, e.g. "note".
	AlertType string
	// Title is the rendered label after casing.
	Title string
}

func (n *Callout) Kind() gast.NodeKind { return KindCallout }
func (n *Callout) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{"AlertType": n.AlertType, "Title": n.Title}, nil)
}

// TableWrapper is a layout container around a table.
type TableWrapper struct {
	gast.BaseBlock
	Class string
}

func (n *TableWrapper) Kind() gast.NodeKind { return KindTableWrapper }
func (n *TableWrapper) Dump(source []byte, level int) {
	gast.DumpHelper(n, source, level, map[string]string{"Class": n.Class}, nil)
}
