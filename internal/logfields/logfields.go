package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyCollection = "collection"
	KeyEntry      = "entry"
	KeyLocale     = "locale"
	KeyStage      = "stage"
	KeyPhase      = "phase"
	KeyPath       = "path"
	KeyFormat     = "format"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyWorkers    = "workers"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Collection(n string) slog.Attr   { return slog.String(KeyCollection, n) }
func Entry(id string) slog.Attr       { return slog.String(KeyEntry, id) }
func Locale(l string) slog.Attr       { return slog.String(KeyLocale, l) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Phase(p string) slog.Attr        { return slog.String(KeyPhase, p) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Format(f string) slog.Attr       { return slog.String(KeyFormat, f) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Workers(n int) slog.Attr         { return slog.Int(KeyWorkers, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
