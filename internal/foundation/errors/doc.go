// Package errors provides the classified error primitives shared across folio.
//
// A ClassifiedError carries a broad category (config, validation, pipeline, ...),
// a severity and a structured context map. Domain packages keep their own typed
// errors (schema.FieldError, pipeline.StageError) and wrap them in a
// ClassifiedError only at boundaries where the category decides presentation,
// such as the CLI exit code.
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryFileSystem, "read content file").
//		WithContext("path", path).
//		WithCause(readErr).
//		Build()
package errors
