package highlight

import (
	"testing"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/folio/internal/markdown"
)

func defaultTheme(t *testing.T) *Theme {
	t.Helper()
	theme, err := NewTheme(ThemeOptions{
		Light:        "github",
		Dark:         "github-dark",
		Replacements: map[string]string{"#fff": "var(--block-color)"},
	})
	require.NoError(t, err)
	return theme
}

func TestThemeResolvesBothVariants(t *testing.T) {
	theme := defaultTheme(t)

	kw := theme.Resolve(chroma.Keyword)
	assert.Equal(t, "#000000", kw.Light)
	assert.Equal(t, "#ff7b72", kw.Dark)

	name := theme.Resolve(chroma.NameVariable)
	assert.Equal(t, "#008080", name.Light)
}

func TestThemeReplacementsMatchCanonicalColors(t *testing.T) {
	theme := defaultTheme(t)
	bg := theme.Background()
	assert.Equal(t, "var(--block-color)", bg.Light, "#fff matches chroma's #ffffff")
	assert.Equal(t, "#0d1117", bg.Dark, "dark replacements are separate")
}

func TestThemeDarkReplacements(t *testing.T) {
	theme, err := NewTheme(ThemeOptions{
		Light:            "github",
		Dark:             "github-dark",
		DarkReplacements: map[string]string{"#FF7B72": "var(--kw)"},
	})
	require.NoError(t, err)
	kw := theme.Resolve(chroma.Keyword)
	assert.Equal(t, "#000000", kw.Light)
	assert.Equal(t, "var(--kw)", kw.Dark)
}

func TestThemeUnknownStyle(t *testing.T) {
	_, err := NewTheme(ThemeOptions{Light: "github", Dark: "no-such-style"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown dark highlight style "no-such-style"`)

	_, err = NewTheme(ThemeOptions{Light: "", Dark: "github-dark"})
	assert.Error(t, err)
}

func TestThemeVariant(t *testing.T) {
	theme := defaultTheme(t)

	light, err := theme.Variant(Light)
	require.NoError(t, err)
	assert.Equal(t, "#000000", light["Keyword"])
	assert.Equal(t, "#dd1144", light["LiteralString"])

	dark, err := theme.Variant(Dark)
	require.NoError(t, err)
	assert.Equal(t, "#ff7b72", dark["Keyword"])

	_, err = theme.Variant("sepia")
	assert.Error(t, err)
}

func TestCanonicalColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"#FFF", "#ffffff"},
		{"#AbC", "#aabbcc"},
		{"#abcd", "#aabbccdd"},
		{"#ffffffff", "#ffffff"},
		{"#11223344", "#11223344"},
		{" #123456 ", "#123456"},
		{"var(--Block)", "var(--block)"},
		{"#ggg", "#ggg"},
		{"#", "#"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalColor(tt.in))
		})
	}
}

func parse(t *testing.T, fragment string) *html.Node {
	t.Helper()
	root, err := markdown.ParseFragment([]byte(fragment))
	require.NoError(t, err)
	return root
}

func render(t *testing.T, root *html.Node) string {
	t.Helper()
	out, err := markdown.Render(root)
	require.NoError(t, err)
	return out
}

func TestHighlightDecoratesCodeBlocks(t *testing.T) {
	src := "package main\n\nfunc main() {}\n"
	root := parse(t, `<p>Intro</p><pre><code class="language-go">`+src+`</code></pre>`)
	h := New(defaultTheme(t), 1500)

	n, err := h.Highlight(root)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	out := render(t, root)
	assert.Contains(t, out, `<div class="code-block"><pre class="highlight github github-dark" style="background-color:var(--block-color);--dark-bg:#0d1117;--dark:#e6edf3" tabindex="0" data-language="go"><code class="language-go">`)
	assert.Contains(t, out, `<span class="line"><span style="color:#000000;--dark:`)
	assert.Contains(t, out, `<button type="button" class="copy" aria-label="Copy code" data-state="idle" data-duration="1500" data-last-activated="0">Copy</button></div>`)

	code := markdown.FindAll(root, func(n *html.Node) bool { return n.DataAtom == atom.Code })
	require.Len(t, code, 1)
	assert.Equal(t, src, markdown.TextContent(code[0]), "highlighting keeps the literal text")

	lines := markdown.FindAll(code[0], func(n *html.Node) bool { return markdown.HasClass(n, "line") })
	assert.Len(t, lines, 3)
}

func TestHighlightIsIdempotent(t *testing.T) {
	root := parse(t, `<pre><code class="language-go">x := 1</code></pre>`)
	h := New(defaultTheme(t), 0)

	n, err := h.Highlight(root)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	first := render(t, root)

	n, err = h.Highlight(root)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, first, render(t, root))
	assert.Equal(t, DefaultCopyDuration, h.CopyDurationMS())
}

func TestHighlightUnknownAndMissingLanguage(t *testing.T) {
	root := parse(t, `<pre><code class="language-nonexistent">a &lt; b</code></pre><pre><code>plain</code></pre>`)
	h := New(defaultTheme(t), 1500)

	n, err := h.Highlight(root)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	out := render(t, root)
	assert.Contains(t, out, `data-language="nonexistent"`)
	assert.Contains(t, out, "a &lt; b")
	assert.Equal(t, 1, countSubstr(out, "data-language="))
}

func TestHighlightIgnoresPreWithoutCode(t *testing.T) {
	root := parse(t, `<pre>raw</pre><pre><span>x</span><code>y</code></pre>`)
	n, err := New(defaultTheme(t), 1500).Highlight(root)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestLanguage(t *testing.T) {
	root := parse(t, `<code class="foo language-rust bar"></code><code></code>`)
	codes := markdown.FindAll(root, func(n *html.Node) bool { return n.DataAtom == atom.Code })
	require.Len(t, codes, 2)
	assert.Equal(t, "rust", Language(codes[0]))
	assert.Equal(t, "", Language(codes[1]))
}

func TestControlsFollowBlocks(t *testing.T) {
	root := parse(t, `<pre><code class="language-sh">echo one</code></pre><pre><code>two</code></pre>`)
	h := New(defaultTheme(t), 900)
	_, err := h.Highlight(root)
	require.NoError(t, err)

	var copied []string
	clip := ClipboardFunc(func(s string) error {
		copied = append(copied, s)
		return nil
	})
	controls := h.Controls(root, WithClipboard(clip))
	require.Len(t, controls, 2)
	for _, c := range controls {
		require.NoError(t, c.Activate())
		c.Close()
	}
	assert.Equal(t, []string{"echo one", "two"}, copied)
	assert.Equal(t, 900*time.Millisecond, controls[0].Duration())
}

func countSubstr(s, sub string) int {
	n := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			n++
		}
	}
	return n
}
