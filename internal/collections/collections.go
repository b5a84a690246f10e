// Package collections declares the site's content collections: where each lives,
// which files it includes, and the schema its entries are validated against.
package collections

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/folio/internal/loader"
	"git.home.luguber.info/inful/folio/internal/schema"
)

// Collection names.
const (
	Note        = "note"
	Jotting     = "jotting"
	Preface     = "preface"
	Information = "information"
	Resume      = "resume"
)

// Collection binds a schema to its on-disk location.
type Collection struct {
	Name    string
	Dir     string
	Include []string
	Exclude []string
	Schema  *schema.Schema
}

// privateExcludes hides underscore-prefixed files and directories. The loader
// also enforces the marker during the walk; the patterns keep the declared
// surface readable for external tooling.
var privateExcludes = []string{"**/_*", "**/_*/**"}

// Defaults returns the five collections of the site, in a stable order.
func Defaults() []Collection {
	return []Collection{
		{Name: Note, Dir: Note, Include: []string{"**/*.md"}, Exclude: privateExcludes, Schema: NoteSchema()},
		{Name: Jotting, Dir: Jotting, Include: []string{"**/*.md"}, Exclude: privateExcludes, Schema: JottingSchema()},
		{Name: Preface, Dir: Preface, Include: []string{"**/*.md"}, Exclude: privateExcludes, Schema: PrefaceSchema()},
		{Name: Information, Dir: Information, Include: []string{"**/*.{md,mdx,yaml}"}, Exclude: privateExcludes, Schema: InformationSchema()},
		{Name: Resume, Dir: Resume, Include: []string{"**/*.json"}, Exclude: privateExcludes, Schema: ResumeSchema()},
	}
}

// Override replaces the location or patterns of a collection. Zero fields keep
// the default.
type Override struct {
	Dir     string
	Include []string
	Exclude []string
}

// Apply returns cols with overrides merged in. Unknown names are an error.
func Apply(cols []Collection, overrides map[string]Override) ([]Collection, error) {
	out := make([]Collection, len(cols))
	copy(out, cols)
	index := make(map[string]int, len(out))
	for i, c := range out {
		index[c.Name] = i
	}
	for name, o := range overrides {
		i, ok := index[name]
		if !ok {
			return nil, fmt.Errorf("unknown collection %q", name)
		}
		if o.Dir != "" {
			out[i].Dir = o.Dir
		}
		if len(o.Include) > 0 {
			out[i].Include = o.Include
		}
		if len(o.Exclude) > 0 {
			out[i].Exclude = o.Exclude
		}
	}
	return out, nil
}

// LoaderConfig builds the loader configuration for c under the content root.
func (c Collection) LoaderConfig(root, privateMarker string, locales []string, defaultLocale string) loader.Config {
	return loader.Config{
		Collection:    c.Name,
		BasePath:      filepath.Join(root, c.Dir),
		Include:       c.Include,
		Exclude:       c.Exclude,
		PrivateMarker: privateMarker,
		Locales:       locales,
		DefaultLocale: defaultLocale,
	}
}

// Registry returns a schema registry populated with the schemas of cols.
func Registry(cols []Collection) (*schema.Registry, error) {
	reg := schema.NewRegistry()
	for _, c := range cols {
		if err := reg.Register(c.Schema); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
