package loader

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateIdentifier indicates two files of one collection map to the same
	// identifier. It is fatal to the build.
	ErrDuplicateIdentifier = errors.New("duplicate identifier")

	// ErrUnsupportedFormat indicates a matched file has no parser for its extension.
	// The file is skipped and reported as a warning.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrBaseNotFound indicates the collection base path does not exist.
	ErrBaseNotFound = errors.New("collection base path not found")

	// ErrWalkFailed indicates filesystem traversal of a collection failed.
	ErrWalkFailed = errors.New("collection walk failed")

	// ErrReadFailed indicates reading a discovered file failed.
	ErrReadFailed = errors.New("content file read failed")

	// ErrParseFailed indicates a file could not be split or decoded.
	ErrParseFailed = errors.New("content file parse failed")

	// ErrInvalidPattern indicates a malformed include or exclude glob.
	ErrInvalidPattern = errors.New("invalid glob pattern")
)

// FileError ties a read or parse failure to the file it came from.
type FileError struct {
	// Path is relative to the collection base.
	Path string
	Err  error
}

func (e *FileError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

func (e *FileError) Unwrap() error { return e.Err }

// FileErrors flattens a joined loader error into its per-file parts.
func FileErrors(err error) []*FileError {
	var out []*FileError
	var walk func(error)
	walk = func(e error) {
		if e == nil {
			return
		}
		if fe, ok := e.(*FileError); ok {
			out = append(out, fe)
			return
		}
		if joined, ok := e.(interface{ Unwrap() []error }); ok {
			for _, inner := range joined.Unwrap() {
				walk(inner)
			}
		}
	}
	walk(err)
	return out
}
