package loader

import "strings"

// Format is the source format of a raw record, derived from the file extension.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatMDX      Format = "mdx"
	FormatYAML     Format = "yaml"
	FormatJSON     Format = "json"
)

// HasBody reports whether records of this format carry a markup body.
func (f Format) HasBody() bool {
	return f == FormatMarkdown || f == FormatMDX
}

// Origin describes where a record came from.
type Origin struct {
	Collection string
	ID         string
	Locale     string
	// Path is the absolute file path.
	Path string
	// RelPath is slash-separated and relative to the collection base.
	RelPath string
	Format  Format
}

// RawRecord is an unvalidated record read from one file. Every format exposes
// the same front matter and body extraction; formats without a body return an
// empty one.
type RawRecord interface {
	Source() Origin
	FrontMatter() map[string]any
	// Body returns the markup body and the 1-based source line it starts on.
	Body() (string, int)
}

// MarkdownRecord is a markdown or MDX file split into front matter and body.
type MarkdownRecord struct {
	Origin
	Fields   map[string]any
	Text     string
	BodyLine int
}

func (r *MarkdownRecord) Source() Origin              { return r.Origin }
func (r *MarkdownRecord) FrontMatter() map[string]any { return r.Fields }
func (r *MarkdownRecord) Body() (string, int)         { return r.Text, r.BodyLine }

// DataRecord is a structured data file decoded wholesale.
type DataRecord struct {
	Origin
	Fields map[string]any
}

func (r *DataRecord) Source() Origin              { return r.Origin }
func (r *DataRecord) FrontMatter() map[string]any { return r.Fields }
func (r *DataRecord) Body() (string, int)         { return "", 0 }

// formatFor maps a file extension onto a record format.
func formatFor(ext string) (Format, bool) {
	switch strings.ToLower(ext) {
	case ".md", ".markdown":
		return FormatMarkdown, true
	case ".mdx":
		return FormatMDX, true
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	}
	return "", false
}
