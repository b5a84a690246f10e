// Package content turns raw records into validated, immutable entries.
package content

import (
	"strings"
	"time"

	"github.com/inful/mdfp"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/folio/internal/loader"
)

// Entry is a validated record. It is created during ingestion and not modified
// afterwards.
type Entry struct {
	Collection string
	ID         string
	Locale     string
	// Path is slash-separated and relative to the collection base.
	Path   string
	Format loader.Format
	// Data holds the validated fields, defaults applied.
	Data     map[string]any
	Body     string
	BodyLine int
	// Fingerprint is a content hash over the validated fields and the body.
	Fingerprint string
}

// Flags are the computed listing flags of an entry.
type Flags struct {
	Draft     bool
	Sensitive bool
	TOC       bool
	Top       int
}

// Flags reads the listing flags from the validated data. Collections without a
// flag report its zero value.
func (e *Entry) Flags() Flags {
	f := Flags{}
	f.Draft, _ = e.Data["draft"].(bool)
	f.Sensitive, _ = e.Data["sensitive"].(bool)
	f.TOC, _ = e.Data["toc"].(bool)
	f.Top, _ = e.Data["top"].(int)
	return f
}

// Title returns the title field, or the identifier when there is none.
func (e *Entry) Title() string {
	if t, ok := e.Data["title"].(string); ok && t != "" {
		return t
	}
	return e.ID
}

// Timestamp returns the validated timestamp field.
func (e *Entry) Timestamp() (time.Time, bool) {
	t, ok := e.Data["timestamp"].(time.Time)
	return t, ok
}

// HasBody reports whether the entry carries markup to render.
func (e *Entry) HasBody() bool {
	return e.Format.HasBody() && strings.TrimSpace(e.Body) != ""
}

// Fingerprint hashes the validated fields (YAML, keys sorted) together with
// the body. An existing fingerprint field is excluded from the hash.
func Fingerprint(data map[string]any, body string) (string, error) {
	fields := make(map[string]any, len(data))
	for k, v := range data {
		if k == mdfp.FingerprintField {
			continue
		}
		fields[k] = v
	}
	serialized := ""
	if len(fields) > 0 {
		out, err := yaml.Marshal(fields)
		if err != nil {
			return "", err
		}
		serialized = strings.TrimSuffix(string(out), "\n")
	}
	return mdfp.CalculateFingerprintFromParts(serialized, body), nil
}
