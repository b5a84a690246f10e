package markdown

import (
	"bytes"
	"regexp"
	"strings"

	gast "github.com/yuin/goldmark/ast"
)

// IsLiteral reports nodes whose content is verbatim and must not be rewritten
// by inline syntax stages.
func IsLiteral(n gast.Node) bool {
	switch n.Kind() {
	case gast.KindCodeSpan, gast.KindRawHTML, gast.KindAutoLink,
		gast.KindCodeBlock, gast.KindFencedCodeBlock, gast.KindHTMLBlock,
		KindInlineMath, KindDisplayMath:
		return true
	}
	return false
}

// TextParents returns every node under root with at least one direct Text
// child, skipping literal subtrees. The slice is collected before any caller
// mutation, so callers may restructure the children of each parent freely.
func TextParents(root gast.Node) []gast.Node {
	var parents []gast.Node
	_ = gast.Walk(root, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			return gast.WalkContinue, nil
		}
		if IsLiteral(n) {
			return gast.WalkSkipChildren, nil
		}
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if c.Kind() == gast.KindText {
				parents = append(parents, n)
				break
			}
		}
		return gast.WalkContinue, nil
	})
	return parents
}

// MergeText joins adjacent Text children of parent whose segments are
// contiguous in the source, so inline syntax split by the parser (for example
// at an unmatched `*` or `[`) can be matched as one run.
func MergeText(parent gast.Node) {
	for c := parent.FirstChild(); c != nil; {
		t, ok := c.(*gast.Text)
		if !ok {
			c = c.NextSibling()
			continue
		}
		next, ok := t.NextSibling().(*gast.Text)
		if ok && mergeable(t, next) {
			t.Segment = t.Segment.WithStop(next.Segment.Stop)
			t.SetSoftLineBreak(next.SoftLineBreak())
			t.SetHardLineBreak(next.HardLineBreak())
			parent.RemoveChild(parent, next)
			continue
		}
		c = t.NextSibling()
	}
}

func mergeable(a, b *gast.Text) bool {
	return !a.IsRaw() && !b.IsRaw() &&
		!a.SoftLineBreak() && !a.HardLineBreak() &&
		a.Segment.Padding == 0 && b.Segment.Padding == 0 &&
		a.Segment.Stop == b.Segment.Start
}

// SplitText cuts t at the relative offset at. t keeps the left part; the right
// part is inserted after it, inherits t's line break flags and is returned.
func SplitText(t *gast.Text, at int) *gast.Text {
	right := gast.NewTextSegment(t.Segment.WithStart(t.Segment.Start + at))
	right.SetSoftLineBreak(t.SoftLineBreak())
	right.SetHardLineBreak(t.HardLineBreak())
	right.SetRaw(t.IsRaw())
	t.Segment = t.Segment.WithStop(t.Segment.Start + at)
	t.SetSoftLineBreak(false)
	t.SetHardLineBreak(false)
	if p := t.Parent(); p != nil {
		p.InsertAfter(p, t, right)
	}
	return right
}

// isVoidText reports a Text that renders nothing.
func isVoidText(n gast.Node) bool {
	t, ok := n.(*gast.Text)
	return ok && t.Segment.IsEmpty() && !t.SoftLineBreak() && !t.HardLineBreak()
}

func removeIfVoid(n gast.Node) {
	if n != nil && isVoidText(n) && n.Parent() != nil {
		n.Parent().RemoveChild(n.Parent(), n)
	}
}

func escapedAt(source []byte, offset int) bool {
	backslashes := 0
	for i := offset - 1; i >= 0 && source[i] == '\\'; i-- {
		backslashes++
	}
	return backslashes%2 == 1
}

// Delimited describes an inline syntax enclosed by an opening and a closing
// marker, such as ==mark== or $math$. The enclosed run may span several
// sibling nodes, e.g. ==**bold** text==.
type Delimited struct {
	Open  string
	Close string
	// SameText restricts a match to a single text node.
	SameText bool
	// Accept may reject a candidate by its raw inner source.
	Accept func(inner []byte) bool
	// Build creates the replacement node for the inner source range
	// [start, stop). When keep is true the enclosed nodes become its children.
	Build func(start, stop int) (node gast.Node, keep bool)
}

// Apply rewrites every occurrence under root and returns how many were found.
func (d Delimited) Apply(root gast.Node, source []byte) int {
	count := 0
	for _, parent := range TextParents(root) {
		MergeText(parent)
		count += d.applyTo(parent, source)
	}
	return count
}

func (d Delimited) applyTo(parent gast.Node, source []byte) int {
	count := 0
	open, closing := []byte(d.Open), []byte(d.Close)
	var c gast.Node = parent.FirstChild()
	from := 0
	for c != nil {
		t, ok := c.(*gast.Text)
		if !ok || t.IsRaw() {
			c, from = c.NextSibling(), 0
			continue
		}
		val := t.Segment.Value(source)
		if from >= len(val) {
			c, from = c.NextSibling(), 0
			continue
		}
		i := bytes.Index(val[from:], open)
		if i < 0 {
			c, from = c.NextSibling(), 0
			continue
		}
		i += from
		openAbs := t.Segment.Start + i
		innerStart := openAbs + len(open)
		closeText, closeAbs, found := d.findClose(t, innerStart, closing, source)
		if escapedAt(source, openAbs) || !found ||
			(d.Accept != nil && !d.Accept(source[innerStart:closeAbs])) {
			from = i + 1
			continue
		}

		node, keep := d.Build(innerStart, closeAbs)

		rest := t
		if i > 0 {
			rest = SplitText(t, i)
		}
		if closeText == t {
			closeText = rest
		}
		after := SplitText(closeText, closeAbs-closeText.Segment.Start)
		after.Segment = after.Segment.WithStart(after.Segment.Start + len(closing))
		rest.Segment = rest.Segment.WithStart(rest.Segment.Start + len(open))

		parent.InsertBefore(parent, rest, node)
		for n := gast.Node(rest); n != nil; {
			next := n.NextSibling()
			last := n == gast.Node(closeText)
			if keep && !isVoidText(n) {
				node.AppendChild(node, n)
			} else {
				parent.RemoveChild(parent, n)
			}
			if last {
				break
			}
			n = next
		}
		count++

		if isVoidText(after) {
			c = after.NextSibling()
			parent.RemoveChild(parent, after)
		} else {
			c = after
		}
		from = 0
	}
	return count
}

func (d Delimited) findClose(t *gast.Text, innerStart int, closing, source []byte) (*gast.Text, int, bool) {
	searchStart := innerStart + 1
	if searchStart <= t.Segment.Stop {
		for off := searchStart; off <= t.Segment.Stop; {
			j := bytes.Index(source[off:t.Segment.Stop], closing)
			if j < 0 {
				break
			}
			if !escapedAt(source, off+j) {
				return t, off + j, true
			}
			off += j + 1
		}
	}
	if d.SameText {
		return nil, 0, false
	}
	for s := t.NextSibling(); s != nil; s = s.NextSibling() {
		st, ok := s.(*gast.Text)
		if !ok || st.IsRaw() {
			continue
		}
		if j := bytes.Index(st.Segment.Value(source), closing); j >= 0 && !escapedAt(source, st.Segment.Start+j) {
			return st, st.Segment.Start + j, true
		}
	}
	return nil, 0, false
}

// RewriteText replaces regexp matches inside text nodes under root. replace
// receives the absolute submatch offsets and returns the node to substitute, or
// nil to leave the match alone. The first error aborts the rewrite.
func RewriteText(root gast.Node, source []byte, re *regexp.Regexp,
	replace func(t *gast.Text, m []int) (gast.Node, error)) error {
	for _, parent := range TextParents(root) {
		MergeText(parent)
		var texts []*gast.Text
		for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*gast.Text); ok && !t.IsRaw() {
				texts = append(texts, t)
			}
		}
		for _, t := range texts {
			if err := rewriteOne(t, source, re, replace); err != nil {
				return err
			}
		}
	}
	return nil
}

func rewriteOne(t *gast.Text, source []byte, re *regexp.Regexp,
	replace func(t *gast.Text, m []int) (gast.Node, error)) error {
	base := t.Segment.Start
	locs := re.FindAllSubmatchIndex(t.Segment.Value(source), -1)
	parent := t.Parent()
	replaced := false
	for k := len(locs) - 1; k >= 0; k-- {
		m := make([]int, len(locs[k]))
		for i, v := range locs[k] {
			if v >= 0 {
				v += base
			}
			m[i] = v
		}
		if escapedAt(source, m[0]) {
			continue
		}
		node, err := replace(t, m)
		if err != nil {
			return err
		}
		if node == nil {
			continue
		}
		right := SplitText(t, m[1]-base)
		mid := SplitText(t, m[0]-base)
		parent.ReplaceChild(parent, mid, node)
		removeIfVoid(right)
		replaced = true
	}
	if replaced {
		removeIfVoid(t)
	}
	return nil
}

// PlainText concatenates the visible text under n. Line breaks and block
// boundaries become spaces.
func PlainText(n gast.Node, source []byte) string {
	var b strings.Builder
	_ = gast.Walk(n, func(c gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			if c != n && c.Type() == gast.TypeBlock && b.Len() > 0 {
				b.WriteByte(' ')
			}
			return gast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *gast.Text:
			b.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *gast.String:
			b.Write(v.Value)
		case *InlineMath:
			b.WriteString(v.TeX)
		case *Ruby:
			b.WriteString(v.Base)
		case *Abbr:
			b.WriteString(v.Short)
		}
		return gast.WalkContinue, nil
	})
	return b.String()
}
