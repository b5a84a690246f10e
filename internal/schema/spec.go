package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// Kind names the value type a Spec accepts.
type Kind string

const (
	KindString Kind = "string"
	KindDate   Kind = "date"
	KindBool   Kind = "boolean"
	KindInt    Kind = "integer"
	KindArray  Kind = "array"
	KindObject Kind = "object"
	KindEnum   Kind = "enum"
)

// Spec is the closed set of field specifications. The unexported check method
// keeps implementations inside this package, so every failure mode is known here.
type Spec interface {
	Kind() Kind
	check(path Path, v any, errs *Errors) (any, bool)
}

// dateLayouts are tried in order for string-valued dates.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// StringSpec accepts strings.
type StringSpec struct{}

func (StringSpec) Kind() Kind { return KindString }

func (StringSpec) check(path Path, v any, errs *Errors) (any, bool) {
	s, ok := v.(string)
	if !ok {
		*errs = append(*errs, mismatch(path, KindString, v))
		return nil, false
	}
	return s, true
}

// DateSpec accepts time.Time values or strings in one of the supported layouts.
type DateSpec struct{}

func (DateSpec) Kind() Kind { return KindDate }

func (DateSpec) check(path Path, v any, errs *Errors) (any, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
		*errs = append(*errs, &FieldError{
			Path:     path,
			Code:     CodeTypeMismatch,
			Expected: string(KindDate),
			Got:      "string",
			Message:  fmt.Sprintf("expected date, got unparseable string %q", t),
		})
		return nil, false
	default:
		*errs = append(*errs, mismatch(path, KindDate, v))
		return nil, false
	}
}

// BoolSpec accepts booleans.
type BoolSpec struct{}

func (BoolSpec) Kind() Kind { return KindBool }

func (BoolSpec) check(path Path, v any, errs *Errors) (any, bool) {
	b, ok := v.(bool)
	if !ok {
		*errs = append(*errs, mismatch(path, KindBool, v))
		return nil, false
	}
	return b, true
}

// IntSpec accepts whole numbers, optionally bounded below.
type IntSpec struct {
	Min    int
	HasMin bool
}

func (IntSpec) Kind() Kind { return KindInt }

func (s IntSpec) check(path Path, v any, errs *Errors) (any, bool) {
	n, ok := toInt(v)
	if !ok {
		*errs = append(*errs, mismatch(path, KindInt, v))
		return nil, false
	}
	if s.HasMin && n < s.Min {
		*errs = append(*errs, violation(path, fmt.Sprintf(">= %d", s.Min), fmt.Sprint(n),
			fmt.Sprintf("must be greater than or equal to %d, got %d", s.Min, n)))
		return nil, false
	}
	return n, true
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int(n), true
	case float64:
		if n != math.Trunc(n) || n >= math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	}
	return 0, false
}

// EnumSpec accepts one of a fixed set of strings.
type EnumSpec struct {
	Values []string
}

func (EnumSpec) Kind() Kind { return KindEnum }

func (s EnumSpec) check(path Path, v any, errs *Errors) (any, bool) {
	str, ok := v.(string)
	if !ok {
		*errs = append(*errs, mismatch(path, KindEnum, v))
		return nil, false
	}
	if !slices.Contains(s.Values, str) {
		*errs = append(*errs, violation(path, strings.Join(s.Values, "|"), str,
			fmt.Sprintf("must be one of [%s], got %q", strings.Join(s.Values, ", "), str)))
		return nil, false
	}
	return str, true
}

// ArraySpec accepts a list whose every element satisfies Elem.
type ArraySpec struct {
	Elem Spec
}

func (ArraySpec) Kind() Kind { return KindArray }

func (s ArraySpec) check(path Path, v any, errs *Errors) (any, bool) {
	items, ok := toSlice(v)
	if !ok {
		*errs = append(*errs, mismatch(path, KindArray, v))
		return nil, false
	}
	out := make([]any, 0, len(items))
	valid := true
	for i, item := range items {
		got, ok := s.Elem.check(path.Index(i), item, errs)
		if !ok {
			valid = false
			continue
		}
		out = append(out, got)
	}
	if !valid {
		return nil, false
	}
	return out, true
}

func toSlice(v any) ([]any, bool) {
	switch items := v.(type) {
	case []any:
		return items, true
	case []string:
		out := make([]any, len(items))
		for i, s := range items {
			out[i] = s
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(items))
		for i, m := range items {
			out[i] = m
		}
		return out, true
	}
	return nil, false
}

// ObjectSpec accepts a mapping validated field by field. Keys not declared in
// Fields are dropped from the result. Defaults apply only to absent keys; an
// explicit null is checked like any other value and fails as a type mismatch.
type ObjectSpec struct {
	Fields []Field
}

func (ObjectSpec) Kind() Kind { return KindObject }

func (s ObjectSpec) check(path Path, v any, errs *Errors) (any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		*errs = append(*errs, mismatch(path, KindObject, v))
		return nil, false
	}
	out := make(map[string]any, len(s.Fields))
	valid := true
	for _, f := range s.Fields {
		fieldPath := path.Key(f.Name)
		raw, present := m[f.Name]
		if !present {
			switch {
			case f.HasDefault:
				out[f.Name] = cloneValue(f.Default)
			case f.Required:
				*errs = append(*errs, missing(fieldPath))
				valid = false
			}
			continue
		}
		got, ok := f.Spec.check(fieldPath, raw, errs)
		if !ok {
			valid = false
			continue
		}
		out[f.Name] = got
	}
	if !valid {
		return nil, false
	}
	return out, true
}

// Field declares one key of an ObjectSpec.
type Field struct {
	Name       string
	Spec       Spec
	Required   bool
	Default    any
	HasDefault bool
}

// Required declares a field that must be present.
func Required(name string, spec Spec) Field {
	return Field{Name: name, Spec: spec, Required: true}
}

// Optional declares a field that may be absent; absence yields no value.
func Optional(name string, spec Spec) Field {
	return Field{Name: name, Spec: spec}
}

// Defaulted declares an optional field that takes def when absent.
func Defaulted(name string, spec Spec, def any) Field {
	return Field{Name: name, Spec: spec, Default: def, HasDefault: true}
}

// String returns a StringSpec.
func String() Spec { return StringSpec{} }

// Date returns a DateSpec.
func Date() Spec { return DateSpec{} }

// Bool returns a BoolSpec.
func Bool() Spec { return BoolSpec{} }

// Int returns an unbounded IntSpec.
func Int() Spec { return IntSpec{} }

// NonNegativeInt returns an IntSpec rejecting values below zero.
func NonNegativeInt() Spec { return IntSpec{Min: 0, HasMin: true} }

// Enum returns an EnumSpec over values.
func Enum(values ...string) Spec { return EnumSpec{Values: values} }

// Array returns an ArraySpec of elem.
func Array(elem Spec) Spec { return ArraySpec{Elem: elem} }

// Object returns an ObjectSpec of fields.
func Object(fields ...Field) Spec { return ObjectSpec{Fields: fields} }

func cloneValue(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
