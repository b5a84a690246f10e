// Package frontmatter splits `---` delimited YAML front matter from a document body.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// Document is the result of splitting a source file.
type Document struct {
	// Raw is the YAML between the delimiters, without them.
	Raw []byte
	// Body is everything after the closing delimiter.
	Body []byte
	// Had reports whether the source started with a front matter block.
	Had bool
	// BodyLine is the 1-based source line on which Body starts.
	BodyLine int
	// Newline is the detected line ending ("\n" or "\r\n").
	Newline string
}

// ErrMissingClosingDelimiter indicates the document started with a front matter
// delimiter but never closed it.
var ErrMissingClosingDelimiter = errors.New("front matter start delimiter found but closing delimiter is missing")

// Split separates front matter from the body.
//
// A source that does not start with `---` has no front matter: Had is false and
// Body is the full input.
func Split(content []byte) (Document, error) {
	nl := detectNewline(content)
	doc := Document{Body: content, BodyLine: 1, Newline: nl}

	open := []byte("---" + nl)
	if !bytes.HasPrefix(content, open) {
		return doc, nil
	}

	start := len(open)
	if bytes.HasPrefix(content[start:], open) {
		doc.Raw = []byte{}
		doc.Body = content[start+len(open):]
		doc.Had = true
		doc.BodyLine = 3
		return doc, nil
	}

	closeSeq := []byte(nl + "---" + nl)
	idx := bytes.Index(content[start:], closeSeq)
	end := start + idx
	bodyStart := end + len(closeSeq)
	if idx < 0 {
		// A closing delimiter on the very last line without a trailing newline.
		tail := []byte(nl + "---")
		if !bytes.HasSuffix(content, tail) {
			return Document{}, ErrMissingClosingDelimiter
		}
		end = len(content) - len(tail)
		bodyStart = len(content)
	}

	doc.Raw = content[start : end+len(nl)]
	doc.Body = content[bodyStart:]
	doc.Had = true
	doc.BodyLine = bytes.Count(content[:bodyStart], []byte("\n")) + 1
	return doc, nil
}

// ParseYAML parses raw front matter (without delimiters) into a map.
func ParseYAML(raw []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	var fields map[string]any
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func detectNewline(content []byte) string {
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}
