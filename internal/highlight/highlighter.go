package highlight

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/folio/internal/markdown"
)

// DefaultCopyDuration is the copy control reset time in milliseconds.
const DefaultCopyDuration = 1500

// Highlighter colors every <pre><code> block of a render tree and wraps it
// with a copy control. It is safe for concurrent use on distinct trees.
type Highlighter struct {
	theme      *Theme
	durationMS int
}

// New returns a highlighter using theme. A non-positive duration falls back
// to DefaultCopyDuration.
func New(theme *Theme, copyDurationMS int) *Highlighter {
	if copyDurationMS <= 0 {
		copyDurationMS = DefaultCopyDuration
	}
	return &Highlighter{theme: theme, durationMS: copyDurationMS}
}

// CopyDurationMS returns the configured reset duration.
func (h *Highlighter) CopyDurationMS() int { return h.durationMS }

// Highlight rewrites every code block under root and returns how many it
// decorated. Blocks already inside a code-block wrapper are skipped.
func (h *Highlighter) Highlight(root *html.Node) (int, error) {
	blocks := markdown.FindAll(root, func(n *html.Node) bool {
		return n.DataAtom == atom.Pre && codeChild(n) != nil && !markdown.HasClass(n.Parent, "code-block")
	})
	for _, pre := range blocks {
		if err := h.highlightBlock(pre); err != nil {
			return 0, err
		}
	}
	return len(blocks), nil
}

func (h *Highlighter) highlightBlock(pre *html.Node) error {
	code := codeChild(pre)
	lang := Language(code)
	source := markdown.TextContent(code)

	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	it, err := chroma.Coalesce(lexer).Tokenise(nil, source)
	if err != nil {
		return fmt.Errorf("tokenise %s code block: %w", languageLabel(lang), err)
	}

	for c := code.FirstChild; c != nil; c = code.FirstChild {
		code.RemoveChild(c)
	}
	for _, line := range chroma.SplitTokensIntoLines(it.Tokens()) {
		span := markdown.NewElement("span", html.Attribute{Key: "class", Val: "line"})
		for _, tok := range line {
			if tok.Value == "" {
				continue
			}
			span.AppendChild(h.token(tok))
		}
		code.AppendChild(span)
	}

	lightName, darkName := h.theme.Names()
	markdown.AddClass(pre, "highlight")
	markdown.AddClass(pre, lightName)
	markdown.AddClass(pre, darkName)
	markdown.SetAttr(pre, "style", blockStyle(h.theme.Background(), h.theme.Resolve(chroma.Background)))
	markdown.SetAttr(pre, "tabindex", "0")
	if lang != "" {
		markdown.SetAttr(pre, "data-language", lang)
	}

	wrapper := markdown.NewElement("div", html.Attribute{Key: "class", Val: "code-block"})
	pre.Parent.InsertBefore(wrapper, pre)
	pre.Parent.RemoveChild(pre)
	wrapper.AppendChild(pre)
	wrapper.AppendChild(h.copyButton())
	return nil
}

func (h *Highlighter) token(tok chroma.Token) *html.Node {
	text := &html.Node{Type: html.TextNode, Data: tok.Value}
	colors := h.theme.Resolve(tok.Type)
	if colors.IsZero() {
		return text
	}
	span := markdown.NewElement("span", html.Attribute{Key: "style", Val: tokenStyle(colors)})
	span.AppendChild(text)
	return span
}

// copyButton is the client-side copy control. Its attributes carry the state
// CopyControl models: the reset duration and the last activation time.
func (h *Highlighter) copyButton() *html.Node {
	b := markdown.NewElement("button",
		html.Attribute{Key: "type", Val: "button"},
		html.Attribute{Key: "class", Val: "copy"},
		html.Attribute{Key: "aria-label", Val: "Copy code"},
		html.Attribute{Key: "data-state", Val: string(StateIdle)},
		html.Attribute{Key: "data-duration", Val: strconv.Itoa(h.durationMS)},
		html.Attribute{Key: "data-last-activated", Val: "0"},
	)
	b.AppendChild(&html.Node{Type: html.TextNode, Data: "Copy"})
	return b
}

func tokenStyle(c Colors) string {
	var parts []string
	if c.Light != "" {
		parts = append(parts, "color:"+c.Light)
	}
	if c.Dark != "" {
		parts = append(parts, "--dark:"+c.Dark)
	}
	return strings.Join(parts, ";")
}

func blockStyle(bg, fg Colors) string {
	var parts []string
	if bg.Light != "" {
		parts = append(parts, "background-color:"+bg.Light)
	}
	if bg.Dark != "" {
		parts = append(parts, "--dark-bg:"+bg.Dark)
	}
	if s := tokenStyle(fg); s != "" {
		parts = append(parts, s)
	}
	return strings.Join(parts, ";")
}

func codeChild(pre *html.Node) *html.Node {
	for c := pre.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			if c.DataAtom == atom.Code {
				return c
			}
			return nil
		}
	}
	return nil
}

// Language returns the fence language of a <code> element, taken from its
// language-* class.
func Language(code *html.Node) string {
	v, _ := markdown.Attr(code, "class")
	for _, cls := range strings.Fields(v) {
		if lang, ok := strings.CutPrefix(cls, "language-"); ok {
			return lang
		}
	}
	return ""
}

func languageLabel(lang string) string {
	if lang == "" {
		return "plain"
	}
	return lang
}

// Controls returns a copy control for every decorated block under root, in
// document order, each holding the block's literal text.
func (h *Highlighter) Controls(root *html.Node, opts ...CopyOption) []*CopyControl {
	var out []*CopyControl
	for _, wrapper := range markdown.FindAll(root, func(n *html.Node) bool {
		return n.DataAtom == atom.Div && markdown.HasClass(n, "code-block")
	}) {
		for c := wrapper.FirstChild; c != nil; c = c.NextSibling {
			if c.DataAtom == atom.Pre {
				if code := codeChild(c); code != nil {
					out = append(out, NewCopyControl(markdown.TextContent(code), h.durationMS, opts...))
				}
				break
			}
		}
	}
	return out
}
