package stages

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/folio/internal/config"
)

func TestInlineMarkers(t *testing.T) {
	out, _ := run(t, config.Default(), "~~gone~~ and ~one~ plus ++in++ ==hi== ||secret||\n")

	assert.Contains(t, out, "<del>gone</del>")
	assert.Contains(t, out, "~one~", "single tilde is literal by default")
	assert.Contains(t, out, "<ins>in</ins>")
	assert.Contains(t, out, "<mark>hi</mark>")
	assert.Contains(t, out, `<span class="spoiler">secret</span>`)
}

func TestInlineMarkersAroundNonASCII(t *testing.T) {
	cfg := config.Default()
	cfg.Markdown.Strikethrough.SingleTilde = true

	out, _ := run(t, cfg, "==мех== ++są++ ||Š|| ~жà~ x\n")
	assert.Contains(t, out, "<mark>мех</mark>")
	assert.Contains(t, out, "<ins>są</ins>")
	assert.Contains(t, out, `<span class="spoiler">Š</span>`)
	assert.Contains(t, out, "<del>жà</del>")

	out, _ = run(t, config.Default(), "==\u00a0x== ++x\u00a0++\n")
	assert.NotContains(t, out, "<mark>")
	assert.NotContains(t, out, "<ins>")
}

func TestTight(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"a", true},
		{" a", false},
		{"a ", false},
		{"мех", true},
		{"są", true},
		{"Š", true},
		{"\u00a0a", false},
		{"a\u0085", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tight([]byte(tt.in)), "%q", tt.in)
	}
}

func TestSingleTildeStrikethrough(t *testing.T) {
	cfg := config.Default()
	cfg.Markdown.Strikethrough.SingleTilde = true

	out, _ := run(t, cfg, "~~two~~ and ~one~ but ~ loose ~\n")
	assert.Contains(t, out, "<del>two</del>")
	assert.Contains(t, out, "<del>one</del>")
	assert.Contains(t, out, "~ loose ~")
}

func TestMarkersSpanEmphasis(t *testing.T) {
	out, _ := run(t, config.Default(), "==**bold** text==\n")
	assert.Contains(t, out, "<mark><strong>bold</strong> text</mark>")
}

func TestMarkersIgnoreCode(t *testing.T) {
	out, _ := run(t, config.Default(), "`==code==` and ==real==\n")
	assert.Contains(t, out, "<code>==code==</code>")
	assert.Contains(t, out, "<mark>real</mark>")
}

func TestAttributeLists(t *testing.T) {
	out, doc := run(t, config.Default(), "## Title {#custom .big}\n\nSome text {.lead data-x=\"1 2\"}\n\nKeep {not valid}\n")

	assert.Contains(t, out, `<h2 id="custom" class="big"><a href="#custom">Title</a></h2>`)
	assert.Contains(t, out, `<p data-x="1 2" class="lead">Some text</p>`)
	assert.Contains(t, out, "<p>Keep {not valid}</p>")
	require.Len(t, doc.Meta.Headings, 1)
	assert.Equal(t, "custom", doc.Meta.Headings[0].ID)
}

func TestParseAttrs(t *testing.T) {
	tests := []struct {
		raw  string
		want []attribute
		ok   bool
	}{
		{".a .b", []attribute{{"class", "a b"}}, true},
		{"#top", []attribute{{"id", "top"}}, true},
		{"#x .y lang=en", []attribute{{"id", "x"}, {"lang", "en"}, {"class", "y"}}, true},
		{`title='a b'`, []attribute{{"title", "a b"}}, true},
		{"", nil, false},
		{"plain words", nil, false},
		{".ok bad", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := parseAttrs(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMath(t *testing.T) {
	src := "Inline $a+b$ and $$x^2$$ here.\n\n$$\n\\frac{1}{2}\n$$\n\nPrices $5 and $10 stay.\n"
	out, doc := run(t, config.Default(), src)

	assert.Contains(t, out, `<span class="math math-inline">\(a+b\)</span>`)
	assert.Contains(t, out, `<span class="math math-display">\[x^2\]</span>`)
	assert.Contains(t, out, `<div class="math math-display">\[\frac{1}{2}\]</div>`)
	assert.Contains(t, out, "Prices $5 and $10 stay.")
	assert.NotContains(t, out, "data-pos")
	assert.True(t, doc.Meta.Math)
}

func TestMathKeepsMarkdownSyntax(t *testing.T) {
	out, _ := run(t, config.Default(), "Set $a_1 * b_2 * c$ here\n")
	assert.Contains(t, out, `\(a_1 * b_2 * c\)`)
	assert.NotContains(t, out, "<em>")
}

func TestGemoji(t *testing.T) {
	out, _ := run(t, config.Default(), ":smile: and :notanemoji: and `:smile:`\n")
	assert.Contains(t, out, "😄 and :notanemoji:")
	assert.Contains(t, out, "<code>:smile:</code>")
}

func TestFootnotesNumberedByFirstReference(t *testing.T) {
	src := "Second[^b] then first[^a] and again[^b].\n\n[^a]: Alpha note.\n[^b]: Beta note.\n"
	out, doc := run(t, config.Default(), src)

	assert.Equal(t, []string{"b", "a"}, doc.Meta.Footnotes)
	assert.Contains(t, out, `Second<sup id="fnref:1"><a href="#fn:1" class="footnote-ref" role="doc-noteref">1</a></sup>`)
	assert.Contains(t, out, `first<sup id="fnref:2"><a href="#fn:2" class="footnote-ref" role="doc-noteref">2</a></sup>`)
	assert.Contains(t, out, `again<sup id="fnref1:1">`)

	assert.Contains(t, out, `<section class="footnotes" data-footnotes="">`)
	assert.Contains(t, out, `<p id="footnote-label" class="hidden">Footnotes</p>`)
	assert.Less(t, strings.Index(out, `<li id="fn:1">`), strings.Index(out, `<li id="fn:2">`))
	assert.Less(t, strings.Index(out, "Beta note."), strings.Index(out, "Alpha note."))
	assert.Contains(t, out, `href="#fnref1:1"`, "second reference gets its own backlink")
	assert.NotContains(t, out, "<hr")
}

func TestInlineFootnotes(t *testing.T) {
	src := "Start[^n] then^[an *inline* note] end.\n\n[^n]: Named.\n"
	out, doc := run(t, config.Default(), src)

	assert.Equal(t, []string{"n", "2"}, doc.Meta.Footnotes)
	assert.Contains(t, out, `then<sup id="fnref:2">`)
	assert.Contains(t, out, "an <em>inline</em> note")
	assert.NotContains(t, out, "^[")
}

func TestUnreferencedFootnotesAreDropped(t *testing.T) {
	out, doc := run(t, config.Default(), "No refs.\n\n[^x]: Orphan.\n")
	assert.NotContains(t, out, "Orphan")
	assert.NotContains(t, out, "data-footnotes")
	assert.Empty(t, doc.Meta.Footnotes)
}

func TestSuppressedFootnoteLabel(t *testing.T) {
	cfg := config.Default()
	cfg.Markdown.Footnotes.Suppress = true
	out, _ := run(t, cfg, "A[^1].\n\n[^1]: One.\n")
	assert.NotContains(t, out, "footnote-label")
	assert.Contains(t, out, `<li id="fn:1">`)
}

func TestAbbreviations(t *testing.T) {
	src := "The HTML spec and HTML5 differ. XHTML is not HTML.\n\n*[HTML]: HyperText Markup Language\n*[HTML5]: HTML version 5\n"
	out, doc := run(t, config.Default(), src)

	assert.Contains(t, out, `The <abbr title="HyperText Markup Language">HTML</abbr> spec`)
	assert.Contains(t, out, `<abbr title="HTML version 5">HTML5</abbr> differ`)
	assert.Contains(t, out, "XHTML is not")
	assert.NotContains(t, out, "*[HTML]")
	assert.Equal(t, map[string]string{
		"HTML":  "HyperText Markup Language",
		"HTML5": "HTML version 5",
	}, doc.Meta.Abbreviations)
}

func TestAbbreviationNextToCJK(t *testing.T) {
	out, _ := run(t, config.Default(), "HTML은 좋다\n\n*[HTML]: HyperText Markup Language\n")
	assert.Contains(t, out, `<abbr title="HyperText Markup Language">HTML</abbr>은`)
}

func TestTableColspanAndRowspan(t *testing.T) {
	src := "| A | B | C |\n|---|---|---|\n| x | < | y |\n| p | q | r |\n| ^ | s | t |\n"
	out, _ := run(t, config.Default(), src)

	assert.Contains(t, out, `<td colspan="2">x</td>`)
	assert.Contains(t, out, `<td rowspan="2">p</td>`)
	assert.NotContains(t, out, "<td>&lt;</td>")
	assert.NotContains(t, out, "<td>^</td>")
	assert.Regexp(t, `<div class="table-wrapper">\s*<table>`, out)
}

func TestTableEmptyCellMerge(t *testing.T) {
	src := "| A | B | C |\n|---|---|---|\n| a |   | b |\n"

	out, _ := run(t, config.Default(), src)
	assert.Contains(t, out, `<td colspan="2">a</td>`)

	cfg := config.Default()
	cfg.Markdown.Tables.ColspanWithEmpty = false
	out, _ = run(t, cfg, src)
	assert.NotContains(t, out, "colspan")
	assert.Contains(t, out, "<td></td>")
}

func TestTableMarkerNextToForeignSpanStaysLiteral(t *testing.T) {
	// The "^" sits under a cell spanning two columns, so it cannot extend it.
	src := "| A | B |\n|---|---|\n| x | < |\n| ^ | y |\n"
	out, _ := run(t, config.Default(), src)
	assert.Contains(t, out, `<td colspan="2">x</td>`)
	assert.Contains(t, out, "<td>^</td>")
}

func TestRuby(t *testing.T) {
	out, _ := run(t, config.Default(), "{漢字|かん|じ} and {東京|とうきょう}\n")
	assert.Contains(t, out,
		"<ruby>漢<rp>(</rp><rt>かん</rt><rp>)</rp>字<rp>(</rp><rt>じ</rt><rp>)</rp></ruby>")
	assert.Contains(t, out, "<ruby>東京<rp>(</rp><rt>とうきょう</rt><rp>)</rp></ruby>")
}

func TestCallouts(t *testing.T) {
	src := "> [!WARNING]\n> Be careful.\n\n> [!TIP] Pro move\n> Do this.\n\n> [!FOO]\n> Plain quote.\n"
	out, _ := run(t, config.Default(), src)

	assert.Contains(t, out, `<div class="callout callout-warning" data-callout="warning">`)
	assert.Contains(t, out, `<p class="callout-title">Warning</p>`)
	assert.Contains(t, out, "<p>Be careful.</p>")
	assert.Contains(t, out, `<p class="callout-title">Pro move</p>`)
	assert.Contains(t, out, "<blockquote>")
	assert.Contains(t, out, "[!FOO]")
	assert.NotContains(t, out, "[!WARNING]")
}

func TestCalloutLabelCasing(t *testing.T) {
	tests := []struct {
		casing string
		want   string
	}{
		{CasingCapitalize, "Important"},
		{CasingUpper, "IMPORTANT"},
		{CasingLower, "important"},
		{"unknown", "Important"},
	}
	for _, tt := range tests {
		t.Run(tt.casing, func(t *testing.T) {
			assert.Equal(t, tt.want, NewCallouts(tt.casing).Label("important"))
		})
	}
}

func TestReadingTime(t *testing.T) {
	_, doc := run(t, config.Default(), "# Title\n\nOne two three.\n\nFour five\n")
	assert.Equal(t, 6, doc.Meta.Words)
	assert.Equal(t, 1, doc.Meta.ReadingMinutes)
}

func TestCountWords(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"Hello world", 2},
		{"don't stop", 2},
		{"'quoted' word", 2},
		{"日本語", 3},
		{"한국어 문장", 2},
		{"mixed 日本 text", 4},
		{"v2.0 release", 3},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, CountWords(tt.text))
		})
	}
}

func TestReadingMinutes(t *testing.T) {
	assert.Equal(t, 0, ReadingMinutes(0, 200))
	assert.Equal(t, 1, ReadingMinutes(1, 200))
	assert.Equal(t, 1, ReadingMinutes(200, 200))
	assert.Equal(t, 2, ReadingMinutes(201, 200))
	assert.Equal(t, 1, ReadingMinutes(10, 0))
}
