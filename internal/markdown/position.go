package markdown

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	gast "github.com/yuin/goldmark/ast"
)

// Pos is a 1-based line and column in the original content file.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	if p.Line == 0 {
		return "?"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}

// IsZero reports whether the position is unknown.
func (p Pos) IsZero() bool { return p.Line == 0 }

// ParsePos reads the "line:col" form produced by String.
func ParsePos(s string) (Pos, bool) {
	l, c, ok := strings.Cut(s, ":")
	if !ok {
		return Pos{}, false
	}
	line, err1 := strconv.Atoi(l)
	col, err2 := strconv.Atoi(c)
	if err1 != nil || err2 != nil || line < 1 || col < 1 {
		return Pos{}, false
	}
	return Pos{Line: line, Col: col}, true
}

// Locator maps byte offsets of a body onto file positions. LineOffset is the
// number of file lines preceding the body (front matter).
type Locator struct {
	Source     []byte
	LineOffset int
}

// At returns the position of a byte offset.
func (l Locator) At(offset int) Pos {
	if offset < 0 || offset > len(l.Source) {
		return Pos{}
	}
	before := l.Source[:offset]
	line := bytes.Count(before, []byte("\n")) + 1
	col := offset - bytes.LastIndexByte(before, '\n')
	return Pos{Line: line + l.LineOffset, Col: col}
}

// Of returns the position where n starts, or the zero Pos when neither n nor
// its descendants carry source information.
func (l Locator) Of(n gast.Node) Pos {
	if off, ok := StartOffset(n); ok {
		return l.At(off)
	}
	return Pos{}
}

// StartOffset finds the first source offset covered by n.
func StartOffset(n gast.Node) (int, bool) {
	if n == nil {
		return 0, false
	}
	if t, ok := n.(*gast.Text); ok {
		return t.Segment.Start, true
	}
	if n.Type() == gast.TypeBlock {
		if lines := n.Lines(); lines != nil && lines.Len() > 0 {
			return lines.At(0).Start, true
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if off, ok := StartOffset(c); ok {
			return off, true
		}
	}
	return 0, false
}
