package markdown

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gast "github.com/yuin/goldmark/ast"
	"golang.org/x/net/html"
)

func convert(t *testing.T, e *Engine, source []byte, tree gast.Node) string {
	t.Helper()
	root, err := e.Convert(source, tree)
	require.NoError(t, err)
	out, err := Render(root)
	require.NoError(t, err)
	return out
}

func TestDelimited_SpansSiblingNodes(t *testing.T) {
	e := NewEngine(Options{})
	src := []byte("a ==b **c**== d\n")
	tree := e.Parse(src)

	n := Delimited{Open: "==", Close: "==", Build: func(int, int) (gast.Node, bool) {
		return NewMark(), true
	}}.Apply(tree, src)
	assert.Equal(t, 1, n)
	assert.Contains(t, convert(t, e, src, tree), "<p>a <mark>b <strong>c</strong></mark> d</p>")
}

func TestDelimited_MultipleAndUnclosed(t *testing.T) {
	e := NewEngine(Options{})
	src := []byte("++x++ and ++y++ but ++z\n")
	tree := e.Parse(src)

	n := Delimited{Open: "++", Close: "++", Build: func(int, int) (gast.Node, bool) {
		return NewIns(), true
	}}.Apply(tree, src)
	assert.Equal(t, 2, n)
	assert.Contains(t, convert(t, e, src, tree), "<ins>x</ins> and <ins>y</ins> but ++z")
}

func TestDelimited_EscapedOpenerIsLiteral(t *testing.T) {
	e := NewEngine(Options{})
	src := []byte(`price \$5 and $x$` + "\n")
	tree := e.Parse(src)

	var got []string
	Delimited{Open: "$", Close: "$", Build: func(start, stop int) (gast.Node, bool) {
		got = append(got, string(src[start:stop]))
		return &InlineMath{TeX: string(src[start:stop])}, false
	}}.Apply(tree, src)
	assert.Equal(t, []string{"x"}, got)
}

func TestDelimited_EmptyInnerIsNotAMatch(t *testing.T) {
	e := NewEngine(Options{})
	src := []byte("a ==== b\n")
	tree := e.Parse(src)
	n := Delimited{Open: "==", Close: "==", Build: func(int, int) (gast.Node, bool) {
		return NewMark(), true
	}}.Apply(tree, src)
	assert.Zero(t, n)
}

func TestMergeTextJoinsParserSplits(t *testing.T) {
	e := NewEngine(Options{})
	src := []byte("*[HTML]: Hyper Text\n")
	tree := e.Parse(src)
	para := tree.FirstChild()
	MergeText(para)

	require.Equal(t, 1, para.ChildCount())
	assert.Equal(t, "*[HTML]: Hyper Text", string(para.FirstChild().(*gast.Text).Segment.Value(src)))
}

func TestRewriteText(t *testing.T) {
	e := NewEngine(Options{})
	src := []byte("say :wave: to :nobody: and `:wave:`\n")
	tree := e.Parse(src)

	re := regexp.MustCompile(`:([a-z]+):`)
	err := RewriteText(tree, src, re, func(_ *gast.Text, m []int) (gast.Node, error) {
		if string(src[m[2]:m[3]]) != "wave" {
			return nil, nil
		}
		return gast.NewString([]byte("👋")), nil
	})
	require.NoError(t, err)
	assert.Contains(t, convert(t, e, src, tree), "say 👋 to :nobody: and <code>:wave:</code>")
}

func TestLocator(t *testing.T) {
	src := []byte("first\nsecond line\n")
	l := Locator{Source: src, LineOffset: 4}
	assert.Equal(t, Pos{Line: 5, Col: 1}, l.At(0))
	assert.Equal(t, Pos{Line: 6, Col: 3}, l.At(8))

	e := NewEngine(Options{})
	tree := e.Parse([]byte("# Title\n\npara\n"))
	heading := tree.FirstChild()
	assert.Equal(t, Pos{Line: 1, Col: 3}, Locator{Source: []byte("# Title\n\npara\n")}.Of(heading))

	p, ok := ParsePos("12:7")
	require.True(t, ok)
	assert.Equal(t, Pos{Line: 12, Col: 7}, p)
	assert.Equal(t, "12:7", p.String())
	_, ok = ParsePos("x")
	assert.False(t, ok)
}

func TestConvert_FootnoteLabel(t *testing.T) {
	src := []byte("text[^1]\n\n[^1]: note\n")

	e := NewEngine(Options{Footnotes: FootnoteLabel{Text: "Notes", Tag: "p", Classes: []string{"hidden"}}})
	out := convert(t, e, src, e.Parse(src))
	assert.Contains(t, out, `<section class="footnotes" data-footnotes="">`)
	assert.Contains(t, out, `<p id="footnote-label" class="hidden">Notes</p>`)
	assert.NotContains(t, out, "<hr")

	e = NewEngine(Options{Footnotes: FootnoteLabel{Suppress: true}})
	out = convert(t, e, src, e.Parse(src))
	assert.NotContains(t, out, "footnote-label")
}

func TestCustomNodeRendering(t *testing.T) {
	e := NewEngine(Options{})
	src := []byte("x\n")
	tree := e.Parse(src)
	para := tree.FirstChild()
	para.AppendChild(para, &Ruby{Base: "漢字", Readings: []string{"かん", "じ"}})
	para.AppendChild(para, &Abbr{Short: "HTML", Title: "Hyper <Text>"})
	para.AppendChild(para, &InlineMath{TeX: "a<b", Pos: Pos{Line: 1, Col: 2}})

	out := convert(t, e, src, tree)
	assert.Contains(t, out, "<ruby>漢<rp>(</rp><rt>かん</rt><rp>)</rp>字<rp>(</rp><rt>じ</rt><rp>)</rp></ruby>")
	assert.Contains(t, out, `<abbr title="Hyper &lt;Text&gt;">HTML</abbr>`)
	assert.Contains(t, out, `<span class="math math-inline" data-pos="1:2">a&lt;b</span>`)
}

func TestCalloutRendering(t *testing.T) {
	e := NewEngine(Options{})
	src := []byte("> body\n")
	tree := e.Parse(src)
	quote := tree.FirstChild()
	callout := &Callout{AlertType: "warning", Title: "Careful <now>"}
	for c := quote.FirstChild(); c != nil; {
		next := c.NextSibling()
		callout.AppendChild(callout, c)
		c = next
	}
	tree.ReplaceChild(tree, quote, callout)

	var node gast.Node = callout
	assert.Equal(t, gast.TypeBlock, node.Type())
	assert.Equal(t, KindCallout, node.Kind())

	out := convert(t, e, src, tree)
	assert.Contains(t, out, `<div class="callout callout-warning" data-callout="warning">`)
	assert.Contains(t, out, `<p class="callout-title">Careful &lt;now&gt;</p>`)
	assert.Contains(t, out, "<p>body</p>")
	assert.NotContains(t, out, "<blockquote>")
}

func TestHTMLHelpers(t *testing.T) {
	root, err := ParseFragment([]byte(`<p class="a">one <em>two</em></p><h3>t</h3>`))
	require.NoError(t, err)

	ps := FindAll(root, func(n *html.Node) bool { return n.Data == "p" })
	require.Len(t, ps, 1)
	assert.True(t, HasClass(ps[0], "a"))
	AddClass(ps[0], "b")
	AddClass(ps[0], "b")
	v, _ := Attr(ps[0], "class")
	assert.Equal(t, "a b", v)
	assert.Equal(t, "one two", TextContent(ps[0]))

	hs := FindAll(root, func(n *html.Node) bool { _, ok := IsHeading(n); return ok })
	level, _ := IsHeading(hs[0])
	assert.Equal(t, 3, level)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(TextContent(root)), "one"))
}
