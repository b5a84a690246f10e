// Package highlight colors fenced code blocks with a light and a dark
// palette at once and attaches a copy control to every block.
package highlight

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// Variant names.
const (
	Light = "light"
	Dark  = "dark"
)

// Colors is the resolved color of one token type in both variants. An empty
// field means the variant leaves the token uncolored.
type Colors struct {
	Light string `json:"light,omitempty"`
	Dark  string `json:"dark,omitempty"`
}

// IsZero reports whether neither variant colors the token.
func (c Colors) IsZero() bool { return c.Light == "" && c.Dark == "" }

// ThemeOptions name the chroma styles of both variants and the color
// substitutions applied after resolution. Replacement keys are matched after
// canonicalization, so "#FFF" matches "#ffffff".
type ThemeOptions struct {
	Light            string
	Dark             string
	Replacements     map[string]string
	DarkReplacements map[string]string
}

// Theme resolves token types to dual-variant colors. It is immutable once
// built and safe for concurrent use.
type Theme struct {
	lightName, darkName string
	light, dark         *chroma.Style
	lightSubst          map[string]string
	darkSubst           map[string]string
}

// NewTheme looks up both styles. Unknown style names are an error rather
// than a silent fallback.
func NewTheme(opts ThemeOptions) (*Theme, error) {
	light, ok := styles.Registry[opts.Light]
	if !ok {
		return nil, fmt.Errorf("unknown %s highlight style %q", Light, opts.Light)
	}
	dark, ok := styles.Registry[opts.Dark]
	if !ok {
		return nil, fmt.Errorf("unknown %s highlight style %q", Dark, opts.Dark)
	}
	return &Theme{
		lightName:  opts.Light,
		darkName:   opts.Dark,
		light:      light,
		dark:       dark,
		lightSubst: canonicalKeys(opts.Replacements),
		darkSubst:  canonicalKeys(opts.DarkReplacements),
	}, nil
}

// Names returns the style names of the light and dark variants.
func (t *Theme) Names() (light, dark string) { return t.lightName, t.darkName }

// Resolve returns the foreground colors of tt.
func (t *Theme) Resolve(tt chroma.TokenType) Colors {
	return Colors{
		Light: substitute(colour(t.light.Get(tt).Colour), t.lightSubst),
		Dark:  substitute(colour(t.dark.Get(tt).Colour), t.darkSubst),
	}
}

// Background returns the block background colors.
func (t *Theme) Background() Colors {
	return Colors{
		Light: substitute(colour(t.light.Get(chroma.Background).Background), t.lightSubst),
		Dark:  substitute(colour(t.dark.Get(chroma.Background).Background), t.darkSubst),
	}
}

// Variant returns the token→color mapping of one variant, keyed by chroma
// token type name. Only token types the style declares are listed.
func (t *Theme) Variant(name string) (map[string]string, error) {
	var style *chroma.Style
	var subst map[string]string
	switch name {
	case Light:
		style, subst = t.light, t.lightSubst
	case Dark:
		style, subst = t.dark, t.darkSubst
	default:
		return nil, fmt.Errorf("unknown theme variant %q", name)
	}
	out := make(map[string]string)
	for _, tt := range style.Types() {
		if c := substitute(colour(style.Get(tt).Colour), subst); c != "" {
			out[tt.String()] = c
		}
	}
	return out, nil
}

func colour(c chroma.Colour) string {
	if !c.IsSet() {
		return ""
	}
	return c.String()
}

func substitute(c string, subst map[string]string) string {
	if c == "" {
		return ""
	}
	if r, ok := subst[c]; ok {
		return r
	}
	return c
}

func canonicalKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[CanonicalColor(k)] = v
	}
	return out
}

// CanonicalColor lower-cases a hex color and expands the #rgb and #rgba
// shorthands. Other values are only trimmed and lower-cased.
func CanonicalColor(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if !strings.HasPrefix(c, "#") || !isHex(c[1:]) {
		return c
	}
	switch len(c) {
	case 4, 5:
		var b strings.Builder
		b.WriteByte('#')
		for _, ch := range c[1:] {
			b.WriteRune(ch)
			b.WriteRune(ch)
		}
		c = b.String()
	}
	// chroma colours carry no alpha channel.
	if len(c) == 9 && strings.HasSuffix(c, "ff") {
		c = c[:7]
	}
	return c
}

func isHex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return false
		}
	}
	return true
}
