package markdown

import (
	"strings"
	"unicode/utf8"

	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// nodeRenderer renders the custom nodes to HTML.
type nodeRenderer struct{}

func (r *nodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindIns, r.tag("ins"))
	reg.Register(KindMark, r.tag("mark"))
	reg.Register(KindSpoiler, r.renderSpoiler)
	reg.Register(KindInlineMath, r.renderInlineMath)
	reg.Register(KindDisplayMath, r.renderDisplayMath)
	reg.Register(KindAbbr, r.renderAbbr)
	reg.Register(KindRuby, r.renderRuby)
	reg.Register(KindCallout, r.renderCallout)
	reg.Register(KindTableWrapper, r.renderTableWrapper)
}

func (r *nodeRenderer) tag(name string) renderer.NodeRendererFunc {
	return func(w util.BufWriter, _ []byte, n gast.Node, entering bool) (gast.WalkStatus, error) {
		if entering {
			_ = w.WriteByte('<')
			_, _ = w.WriteString(name)
			gmhtml.RenderAttributes(w, n, nil)
			_ = w.WriteByte('>')
		} else {
			_, _ = w.WriteString("</" + name + ">")
		}
		return gast.WalkContinue, nil
	}
}

func (r *nodeRenderer) renderSpoiler(w util.BufWriter, _ []byte, n gast.Node, entering bool) (gast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString(`<span class="spoiler"`)
		gmhtml.RenderAttributes(w, n, nil)
		_ = w.WriteByte('>')
	} else {
		_, _ = w.WriteString("</span>")
	}
	return gast.WalkContinue, nil
}

func (r *nodeRenderer) renderInlineMath(w util.BufWriter, _ []byte, n gast.Node, entering bool) (gast.WalkStatus, error) {
	if !entering {
		return gast.WalkContinue, nil
	}
	m := n.(*InlineMath)
	class := "math math-inline"
	if m.Display {
		class = "math math-display"
	}
	_, _ = w.WriteString(`<span class="` + class + `" data-pos="` + m.Pos.String() + `">`)
	_, _ = w.Write(util.EscapeHTML([]byte(m.TeX)))
	_, _ = w.WriteString("</span>")
	return gast.WalkSkipChildren, nil
}

func (r *nodeRenderer) renderDisplayMath(w util.BufWriter, _ []byte, n gast.Node, entering bool) (gast.WalkStatus, error) {
	if !entering {
		return gast.WalkContinue, nil
	}
	m := n.(*DisplayMath)
	_, _ = w.WriteString(`<div class="math math-display" data-pos="` + m.Pos.String() + `">`)
	_, _ = w.Write(util.EscapeHTML([]byte(m.TeX)))
	_, _ = w.WriteString("</div>\n")
	return gast.WalkSkipChildren, nil
}

func (r *nodeRenderer) renderAbbr(w util.BufWriter, _ []byte, n gast.Node, entering bool) (gast.WalkStatus, error) {
	if !entering {
		return gast.WalkContinue, nil
	}
	a := n.(*Abbr)
	_, _ = w.WriteString(`<abbr title="`)
	_, _ = w.Write(util.EscapeHTML([]byte(a.Title)))
	_, _ = w.WriteString(`">`)
	_, _ = w.Write(util.EscapeHTML([]byte(a.Short)))
	_, _ = w.WriteString("</abbr>")
	return gast.WalkSkipChildren, nil
}

func (r *nodeRenderer) renderRuby(w util.BufWriter, _ []byte, n gast.Node, entering bool) (gast.WalkStatus, error) {
	if !entering {
		return gast.WalkContinue, nil
	}
	rb := n.(*Ruby)
	_, _ = w.WriteString("<ruby>")
	if len(rb.Readings) > 1 && len(rb.Readings) == utf8.RuneCountInString(rb.Base) {
		i := 0
		for _, ch := range rb.Base {
			writeRubyPair(w, string(ch), rb.Readings[i])
			i++
		}
	} else {
		writeRubyPair(w, rb.Base, strings.Join(rb.Readings, ""))
	}
	_, _ = w.WriteString("</ruby>")
	return gast.WalkSkipChildren, nil
}

func writeRubyPair(w util.BufWriter, base, reading string) {
	_, _ = w.Write(util.EscapeHTML([]byte(base)))
	_, _ = w.WriteString("<rp>(</rp><rt>")
	_, _ = w.Write(util.EscapeHTML([]byte(reading)))
	_, _ = w.WriteString("</rt><rp>)</rp>")
}

func (r *nodeRenderer) renderCallout(w util.BufWriter, _ []byte, n gast.Node, entering bool) (gast.WalkStatus, error) {
	c := n.(*Callout)
	if entering {
		_, _ = w.WriteString(`<div class="callout callout-` + c.AlertType + `" data-callout="` + c.AlertType + `">` + "\n")
		_, _ = w.WriteString(`<p class="callout-title">`)
		_, _ = w.Write(util.EscapeHTML([]byte(c.Title)))
		_, _ = w.WriteString("</p>\n")
	} else {
		_, _ = w.WriteString("</div>\n")
	}
	return gast.WalkContinue, nil
}

func (r *nodeRenderer) renderTableWrapper(w util.BufWriter, _ []byte, n gast.Node, entering bool) (gast.WalkStatus, error) {
	tw := n.(*TableWrapper)
	if entering {
		_, _ = w.WriteString(`<div class="`)
		_, _ = w.Write(util.EscapeHTML([]byte(tw.Class)))
		_, _ = w.WriteString(`">` + "\n")
	} else {
		_, _ = w.WriteString("</div>\n")
	}
	return gast.WalkContinue, nil
}
