package pipeline

import (
	gast "github.com/yuin/goldmark/ast"
	"golang.org/x/net/html"

	"git.home.luguber.info/inful/folio/internal/markdown"
)

// Heading is one entry of a document's table of contents.
type Heading struct {
	Depth int    `json:"depth"`
	ID    string `json:"id"`
	Text  string `json:"text"`
}

// Metadata is derived by stages without changing visible structure.
type Metadata struct {
	Headings       []Heading         `json:"headings,omitempty"`
	Footnotes      []string          `json:"footnotes,omitempty"`
	Abbreviations  map[string]string `json:"abbreviations,omitempty"`
	Words          int               `json:"words"`
	ReadingMinutes int               `json:"readingMinutes"`
	Math           bool              `json:"math,omitempty"`
	CodeBlocks     int               `json:"codeBlocks,omitempty"`
	Links          []markdown.Link   `json:"links,omitempty"`
}

// Document is the body of one entry together with its evolving trees. Every
// document owns its trees; stages never share state across documents.
type Document struct {
	Collection string
	ID         string
	Source     []byte
	// LineOffset is the number of lines preceding Source in its file.
	LineOffset int

	SourceTree gast.Node
	RenderTree *html.Node
	Meta       Metadata

	applied []string
}

// NewDocument prepares a document for a pipeline run.
func NewDocument(collection, id string, body string, bodyLine int) *Document {
	offset := 0
	if bodyLine > 1 {
		offset = bodyLine - 1
	}
	return &Document{
		Collection: collection,
		ID:         id,
		Source:     []byte(body),
		LineOffset: offset,
	}
}

// Locator maps source offsets of this document to file positions.
func (d *Document) Locator() markdown.Locator {
	return markdown.Locator{Source: d.Source, LineOffset: d.LineOffset}
}

// Applied returns the names of the stages applied so far, in order.
func (d *Document) Applied() []string {
	out := make([]string, len(d.applied))
	copy(out, d.applied)
	return out
}

// HasApplied reports whether the named stage already ran on the document.
func (d *Document) HasApplied(name string) bool {
	for _, n := range d.applied {
		if n == name {
			return true
		}
	}
	return false
}

// Converted reports whether the render tree exists.
func (d *Document) Converted() bool { return d.RenderTree != nil }
