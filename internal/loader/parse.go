package loader

import (
	"bytes"
	"encoding/json"
	"fmt"

	"git.home.luguber.info/inful/folio/internal/frontmatter"
	"gopkg.in/yaml.v3"
)

type parseFunc func(origin Origin, data []byte) (RawRecord, error)

var parsers = map[Format]parseFunc{
	FormatMarkdown: parseMarkdown,
	FormatMDX:      parseMarkdown,
	FormatYAML:     parseYAML,
	FormatJSON:     parseJSON,
}

func parseMarkdown(origin Origin, data []byte) (RawRecord, error) {
	doc, err := frontmatter.Split(data)
	if err != nil {
		return nil, err
	}
	fields, err := frontmatter.ParseYAML(doc.Raw)
	if err != nil {
		return nil, fmt.Errorf("front matter: %w", err)
	}
	return &MarkdownRecord{
		Origin:   origin,
		Fields:   fields,
		Text:     string(doc.Body),
		BodyLine: doc.BodyLine,
	}, nil
}

func parseYAML(origin Origin, data []byte) (RawRecord, error) {
	var fields map[string]any
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return &DataRecord{Origin: origin, Fields: fields}, nil
}

// parseJSON keeps numbers as json.Number so integers survive without float rounding.
func parseJSON(origin Origin, data []byte) (RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after top-level object")
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return &DataRecord{Origin: origin, Fields: fields}, nil
}
