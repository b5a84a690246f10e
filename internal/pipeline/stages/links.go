package stages

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/folio/internal/markdown"
	"git.home.luguber.info/inful/folio/internal/pipeline"
)

// ExternalLinksStage adds target and rel to links leaving the site. A link
// is external when it is absolute http(s) and its host differs from the
// site's base URL host.
type ExternalLinksStage struct {
	info
	Target   string
	Rel      []string
	siteHost string
}

// NewExternalLinks returns the external link stage. baseURL may be empty, in
// which case every absolute http(s) link is external.
func NewExternalLinks(target string, rel []string, baseURL string) *ExternalLinksStage {
	s := &ExternalLinksStage{
		info: postInfo(NameExternalLinks, pipeline.Dependencies{
			Follows: []pipeline.Capability{pipeline.CapLinks},
		}),
		Target: target,
		Rel:    append([]string(nil), rel...),
	}
	if u, err := url.Parse(baseURL); err == nil {
		s.siteHost = strings.ToLower(u.Hostname())
	}
	return s
}

func (s *ExternalLinksStage) Config() map[string]any {
	return map[string]any{"target": s.Target, "rel": s.Rel}
}

func (s *ExternalLinksStage) TransformRender(doc *pipeline.Document) error {
	for _, a := range markdown.FindAll(doc.RenderTree, isAnchor) {
		href, ok := markdown.Attr(a, "href")
		if !ok || !s.IsExternal(href) {
			continue
		}
		if s.Target != "" {
			markdown.SetAttr(a, "target", s.Target)
		}
		if len(s.Rel) > 0 {
			markdown.SetAttr(a, "rel", mergeTokens(a, "rel", s.Rel))
		}
	}
	return nil
}

// IsExternal reports whether href leaves the site.
func (s *ExternalLinksStage) IsExternal(href string) bool {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	case "":
		if !strings.HasPrefix(href, "//") {
			return false
		}
	default:
		return false
	}
	host := strings.ToLower(u.Hostname())
	return host != "" && host != s.siteHost
}

func mergeTokens(n *html.Node, key string, add []string) string {
	existing, _ := markdown.Attr(n, key)
	tokens := strings.Fields(existing)
	for _, t := range add {
		found := false
		for _, e := range tokens {
			if e == t {
				found = true
				break
			}
		}
		if !found {
			tokens = append(tokens, t)
		}
	}
	return strings.Join(tokens, " ")
}
