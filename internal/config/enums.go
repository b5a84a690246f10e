package config

import (
	"log/slog"

	"git.home.luguber.info/inful/folio/internal/foundation/normalization"
)

// CalloutCasing selects how callout labels are cased.
type CalloutCasing string

const (
	CasingCapitalize CalloutCasing = "capitalize"
	CasingUpper      CalloutCasing = "upper"
	CasingLower      CalloutCasing = "lower"
)

var casingNormalizer = normalization.NewNormalizer("callout casing", map[string]CalloutCasing{
	"capitalize": CasingCapitalize,
	"upper":      CasingUpper,
	"uppercase":  CasingUpper,
	"lower":      CasingLower,
	"lowercase":  CasingLower,
}, CasingCapitalize)

// AnchorBehavior selects where heading anchors are placed.
type AnchorBehavior string

const (
	AnchorWrap    AnchorBehavior = "wrap"
	AnchorPrepend AnchorBehavior = "prepend"
	AnchorAppend  AnchorBehavior = "append"
)

var anchorNormalizer = normalization.NewNormalizer("anchor behavior", map[string]AnchorBehavior{
	"wrap":    AnchorWrap,
	"prepend": AnchorPrepend,
	"before":  AnchorPrepend,
	"append":  AnchorAppend,
	"after":   AnchorAppend,
}, AnchorWrap)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevelNormalizer = normalization.NewNormalizer("log level", map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}, LogLevelInfo)

// SlogLevel maps a normalized level onto slog.
func SlogLevel(raw string) slog.Level {
	switch logLevelNormalizer.Normalize(raw) {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormatNormalizer = normalization.NewNormalizer("log format", map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}, LogFormatText)
