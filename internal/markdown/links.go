package markdown

import (
	gast "github.com/yuin/goldmark/ast"
)

type LinkKind string

const (
	LinkKindInline LinkKind = "inline"
	LinkKindImage  LinkKind = "image"
	LinkKindAuto   LinkKind = "auto"
)

// Link is an outbound reference found in a source tree.
type Link struct {
	Kind        LinkKind `json:"kind"`
	Destination string   `json:"destination"`
}

// Links returns the links, images and autolinks of a source tree in
// document order. Reference-style links are reported with their resolved
// destination. Code spans and code blocks never contain links.
func Links(tree gast.Node, source []byte) []Link {
	var links []Link
	_ = gast.Walk(tree, func(n gast.Node, entering bool) (gast.WalkStatus, error) {
		if !entering {
			return gast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *gast.AutoLink:
			links = append(links, Link{Kind: LinkKindAuto, Destination: string(node.URL(source))})
		case *gast.Image:
			links = append(links, Link{Kind: LinkKindImage, Destination: string(node.Destination)})
		case *gast.Link:
			links = append(links, Link{Kind: LinkKindInline, Destination: string(node.Destination)})
		}
		return gast.WalkContinue, nil
	})
	return links
}
