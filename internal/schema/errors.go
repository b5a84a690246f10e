package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Code classifies a FieldError.
type Code string

const (
	CodeMissingField        Code = "MissingField"
	CodeTypeMismatch        Code = "TypeMismatch"
	CodeConstraintViolation Code = "ConstraintViolation"
)

// Sentinels matched by FieldError.Is, so callers can write errors.Is(err, schema.ErrMissingField).
var (
	ErrMissingField        = errors.New("missing field")
	ErrTypeMismatch        = errors.New("type mismatch")
	ErrConstraintViolation = errors.New("constraint violation")
)

// FieldError is a single path-scoped validation failure.
type FieldError struct {
	Path     Path
	Code     Code
	Expected string
	Got      string
	Message  string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Is maps the error code onto the package sentinels.
func (e *FieldError) Is(target error) bool {
	switch target {
	case ErrMissingField:
		return e.Code == CodeMissingField
	case ErrTypeMismatch:
		return e.Code == CodeTypeMismatch
	case ErrConstraintViolation:
		return e.Code == CodeConstraintViolation
	}
	return false
}

// Errors aggregates every FieldError found in one record.
type Errors []*FieldError

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, fe := range e {
		parts[i] = fe.Error()
	}
	return strings.Join(parts, "; ")
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (e Errors) Unwrap() []error {
	out := make([]error, len(e))
	for i, fe := range e {
		out[i] = fe
	}
	return out
}

// ByCode returns the subset of errors with the given code.
func (e Errors) ByCode(code Code) Errors {
	var out Errors
	for _, fe := range e {
		if fe.Code == code {
			out = append(out, fe)
		}
	}
	return out
}

// Find returns the error reported at path, if any.
func (e Errors) Find(path string) (*FieldError, bool) {
	for _, fe := range e {
		if fe.Path.String() == path {
			return fe, true
		}
	}
	return nil, false
}

func missing(path Path) *FieldError {
	return &FieldError{Path: path, Code: CodeMissingField, Message: "required field is missing"}
}

func mismatch(path Path, expected Kind, got any) *FieldError {
	g := describe(got)
	return &FieldError{
		Path:     path,
		Code:     CodeTypeMismatch,
		Expected: string(expected),
		Got:      g,
		Message:  fmt.Sprintf("expected %s, got %s", expected, g),
	}
}

func violation(path Path, expected, got, msg string) *FieldError {
	return &FieldError{Path: path, Code: CodeConstraintViolation, Expected: expected, Got: got, Message: msg}
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "integer"
	case float32, float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
