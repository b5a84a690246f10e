// Package schema declares per-collection field schemas and validates raw
// front matter records against them.
//
// Validation is total and side-effect free: every field is visited, all
// failures are collected into an Errors value, and the same input always yields
// the same output. Absent optional fields either take their declared default or
// stay absent; they never fail validation. A nil value is treated as absent.
package schema

import (
	"fmt"
	"sort"
	"sync"
)

// Schema is the validation contract of one collection.
type Schema struct {
	name        string
	root        ObjectSpec
	passthrough bool
}

// New declares a schema whose top level is an object of fields.
func New(name string, fields ...Field) *Schema {
	return &Schema{name: name, root: ObjectSpec{Fields: fields}}
}

// Passthrough declares a schema that accepts any record unchanged.
func Passthrough(name string) *Schema {
	return &Schema{name: name, passthrough: true}
}

// Name returns the schema name (normally the collection name).
func (s *Schema) Name() string { return s.name }

// IsPassthrough reports whether the schema skips field validation.
func (s *Schema) IsPassthrough() bool { return s.passthrough }

// Fields returns the top-level field declarations in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.root.Fields))
	copy(out, s.root.Fields)
	return out
}

// Validate applies the schema to raw and returns the typed record.
//
// On failure the returned error is an Errors value holding every problem found.
// Keys not declared by the schema are dropped from the result.
func (s *Schema) Validate(raw map[string]any) (map[string]any, error) {
	if raw == nil {
		raw = map[string]any{}
	}
	if s.passthrough {
		return cloneValue(raw).(map[string]any), nil
	}

	var errs Errors
	out, ok := s.root.check(nil, raw, &errs)
	if !ok || len(errs) > 0 {
		return nil, errs
	}
	return out.(map[string]any), nil
}

// Check verifies the schema declaration itself: field names are unique per
// object and every default satisfies its own spec.
func (s *Schema) Check() error {
	if s.passthrough {
		return nil
	}
	return checkObject(nil, s.root)
}

func checkObject(path Path, obj ObjectSpec) error {
	seen := make(map[string]struct{}, len(obj.Fields))
	for _, f := range obj.Fields {
		fp := path.Key(f.Name)
		if f.Name == "" {
			return fmt.Errorf("schema field at %s has an empty name", path)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("schema field %s declared twice", fp)
		}
		seen[f.Name] = struct{}{}
		if f.Spec == nil {
			return fmt.Errorf("schema field %s has no spec", fp)
		}
		if f.HasDefault {
			var errs Errors
			if _, ok := f.Spec.check(fp, f.Default, &errs); !ok {
				return fmt.Errorf("schema field %s has invalid default: %w", fp, errs)
			}
		}
		if err := checkNested(fp, f.Spec); err != nil {
			return err
		}
	}
	return nil
}

func checkNested(path Path, spec Spec) error {
	switch s := spec.(type) {
	case ObjectSpec:
		return checkObject(path, s)
	case ArraySpec:
		if s.Elem == nil {
			return fmt.Errorf("schema array %s has no element spec", path)
		}
		return checkNested(path.Index(0), s.Elem)
	}
	return nil
}

// Registry holds the schemas of all collections. It is populated once at
// startup and read concurrently afterwards.
type Registry struct {
	mu      sync.RWMutex
	schemas map[string]*Schema
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{schemas: make(map[string]*Schema)}
}

// Register adds schemas, rejecting duplicates and invalid declarations.
func (r *Registry) Register(schemas ...*Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range schemas {
		if s == nil {
			return fmt.Errorf("nil schema")
		}
		if _, exists := r.schemas[s.name]; exists {
			return fmt.Errorf("schema %q already registered", s.name)
		}
		if err := s.Check(); err != nil {
			return fmt.Errorf("schema %q: %w", s.name, err)
		}
		r.schemas[s.name] = s
	}
	return nil
}

// Get returns the schema registered under name.
func (r *Registry) Get(name string) (*Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[name]
	return s, ok
}

// Names returns the registered schema names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.schemas))
	for n := range r.schemas {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
