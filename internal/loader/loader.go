// Package loader enumerates a collection's files and parses each into a raw
// record keyed by source format.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/folio/internal/logfields"
)

// DefaultPrivateMarker hides files and directories whose name starts with it.
const DefaultPrivateMarker = "_"

// Config describes one collection on disk.
type Config struct {
	Collection string
	BasePath   string
	// Include lists doublestar patterns relative to BasePath. A file must match one.
	Include []string
	// Exclude lists doublestar patterns; a match removes the file.
	Exclude []string
	// PrivateMarker hides any path component starting with it. Empty uses
	// DefaultPrivateMarker.
	PrivateMarker string
	Locales       []string
	DefaultLocale string
}

// Result is the outcome of loading one collection.
type Result struct {
	Records []RawRecord
	// Warnings holds skipped files; each wraps ErrUnsupportedFormat.
	Warnings []error
}

// Load discovers and parses every file of the collection.
//
// Records are sorted by identifier, so the result does not depend on walk order.
// Read and parse failures do not stop the walk: they are returned joined, each
// as a *FileError, alongside the records that did load. A duplicate identifier
// is returned immediately.
func Load(ctx context.Context, cfg Config) (*Result, error) {
	if err := validatePatterns(cfg); err != nil {
		return nil, err
	}
	marker := cfg.PrivateMarker
	if marker == "" {
		marker = DefaultPrivateMarker
	}

	info, err := os.Stat(cfg.BasePath)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s (collection %s)", ErrBaseNotFound, cfg.BasePath, cfg.Collection)
	}

	result := &Result{}
	var failures []error
	byID := make(map[string]string)

	walkErr := filepath.WalkDir(cfg.BasePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if p == cfg.BasePath {
			return nil
		}
		name := d.Name()
		if d.IsDir() {
			if isHidden(name, marker) {
				return filepath.SkipDir
			}
			return nil
		}
		if isHidden(name, marker) {
			return nil
		}

		rel, err := filepath.Rel(cfg.BasePath, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !Matches(cfg, rel) {
			return nil
		}

		format, ok := formatFor(path.Ext(rel))
		if !ok {
			warn := fmt.Errorf("%w: %s", ErrUnsupportedFormat, rel)
			result.Warnings = append(result.Warnings, warn)
			slog.Warn("Skipping file with unsupported format",
				logfields.Collection(cfg.Collection),
				logfields.Path(rel))
			return nil
		}

		origin := Origin{
			Collection: cfg.Collection,
			ID:         Identifier(rel),
			Locale:     localeFor(rel, cfg),
			Path:       p,
			RelPath:    rel,
			Format:     format,
		}
		if prev, dup := byID[origin.ID]; dup {
			return fmt.Errorf("%w: %q in collection %s from %s and %s",
				ErrDuplicateIdentifier, origin.ID, cfg.Collection, prev, rel)
		}
		byID[origin.ID] = rel

		data, err := os.ReadFile(p)
		if err != nil {
			failures = append(failures, &FileError{Path: rel, Err: fmt.Errorf("%w: %w", ErrReadFailed, err)})
			return nil
		}
		rec, err := parsers[format](origin, data)
		if err != nil {
			failures = append(failures, &FileError{Path: rel, Err: fmt.Errorf("%w: %w", ErrParseFailed, err)})
			return nil
		}
		result.Records = append(result.Records, rec)

		slog.Debug("Loaded content file",
			logfields.Collection(cfg.Collection),
			logfields.Entry(origin.ID),
			logfields.Format(string(format)))
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, ErrDuplicateIdentifier) || errors.Is(walkErr, context.Canceled) ||
			errors.Is(walkErr, context.DeadlineExceeded) {
			return nil, walkErr
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrWalkFailed, cfg.BasePath, walkErr)
	}

	sort.Slice(result.Records, func(i, j int) bool {
		return result.Records[i].Source().ID < result.Records[j].Source().ID
	})

	slog.Debug("Collection loaded",
		logfields.Collection(cfg.Collection),
		logfields.Count(len(result.Records)))

	if len(failures) > 0 {
		return result, errors.Join(failures...)
	}
	return result, nil
}

// Matches reports whether rel (slash-separated, relative to the base) is
// selected by the include and exclude patterns. Private-marker hiding is
// applied separately during the walk.
func Matches(cfg Config, rel string) bool {
	included := false
	for _, pattern := range cfg.Include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, pattern := range cfg.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return false
		}
	}
	return true
}

// Identifier derives the stable entry identifier from a relative path: the
// extension is stripped and every segment is NFC-normalized, lower-cased and
// has spaces replaced by dashes.
func Identifier(rel string) string {
	rel = filepath.ToSlash(rel)
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	segments := strings.Split(rel, "/")
	for i, s := range segments {
		s = norm.NFC.String(strings.TrimSpace(s))
		s = strings.ToLower(s)
		segments[i] = strings.Join(strings.Fields(s), "-")
	}
	return strings.Join(segments, "/")
}

// IsPrivate reports whether any component of rel starts with the marker.
func IsPrivate(rel, marker string) bool {
	if marker == "" {
		marker = DefaultPrivateMarker
	}
	for _, seg := range strings.Split(filepath.ToSlash(rel), "/") {
		if isHidden(seg, marker) {
			return true
		}
	}
	return false
}

func isHidden(name, marker string) bool {
	return strings.HasPrefix(name, marker) || strings.HasPrefix(name, ".")
}

func localeFor(rel string, cfg Config) string {
	if first, _, found := strings.Cut(rel, "/"); found && slices.Contains(cfg.Locales, first) {
		return first
	}
	return cfg.DefaultLocale
}

func validatePatterns(cfg Config) error {
	if len(cfg.Include) == 0 {
		return fmt.Errorf("%w: collection %s has no include pattern", ErrInvalidPattern, cfg.Collection)
	}
	for _, p := range slices.Concat(cfg.Include, cfg.Exclude) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("%w: %q (collection %s)", ErrInvalidPattern, p, cfg.Collection)
		}
	}
	return nil
}
