// Package config loads and validates the site configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/folio/internal/foundation/errors"
	"git.home.luguber.info/inful/folio/internal/retry"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "folio.yaml"

// Config is the complete site configuration.
type Config struct {
	Site      SiteConfig      `yaml:"site"`
	Content   ContentConfig   `yaml:"content"`
	Markdown  MarkdownConfig  `yaml:"markdown"`
	Highlight HighlightConfig `yaml:"highlight"`
	Build     BuildConfig     `yaml:"build"`
	Watch     WatchConfig     `yaml:"watch"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// SiteConfig holds site-wide identity and locale settings.
type SiteConfig struct {
	Title         string   `yaml:"title"`
	BaseURL       string   `yaml:"base_url"`
	Locales       []string `yaml:"locales"`
	DefaultLocale string   `yaml:"default_locale"`
}

// ContentConfig locates the collections on disk.
type ContentConfig struct {
	Root          string                        `yaml:"root"`
	PrivateMarker string                        `yaml:"private_marker"`
	Collections   map[string]CollectionOverride `yaml:"collections,omitempty"`
}

// CollectionOverride changes where one collection is read from.
type CollectionOverride struct {
	Dir     string   `yaml:"dir"`
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
}

// BuildConfig controls batch builds.
type BuildConfig struct {
	Workers   int    `yaml:"workers"`
	OutputDir string `yaml:"output_dir"`
	Clean     bool   `yaml:"clean"`
	// EventStore is the sqlite file of the build journal. Empty disables it.
	EventStore string `yaml:"event_store"`
	// IncludeDrafts writes draft entries to the output.
	IncludeDrafts bool `yaml:"include_drafts"`
	// JournalRetry is the backoff for journal writes to a locked database.
	JournalRetry RetryConfig `yaml:"journal_retry"`
}

// RetryConfig describes a backoff policy.
type RetryConfig struct {
	Mode       string `yaml:"mode"`
	Initial    string `yaml:"initial"`
	Max        string `yaml:"max"`
	MaxRetries int    `yaml:"max_retries"`
}

// Policy converts the section into a retry policy. Unparsable durations fall
// back to the policy defaults.
func (r RetryConfig) Policy() retry.Policy {
	initial, _ := time.ParseDuration(r.Initial)
	maxDelay, _ := time.ParseDuration(r.Max)
	return retry.NewPolicy(retry.Mode(r.Mode), initial, maxDelay, r.MaxRetries)
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	Debounce string `yaml:"debounce"`
	// Interval schedules a periodic full rebuild. Empty disables it.
	Interval string `yaml:"interval"`
}

// DebounceDuration parses Debounce, falling back to 300ms.
func (w WatchConfig) DebounceDuration() time.Duration {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil || d <= 0 {
		return 300 * time.Millisecond
	}
	return d
}

// IntervalDuration parses Interval; zero means disabled.
func (w WatchConfig) IntervalDuration() time.Duration {
	if w.Interval == "" {
		return 0
	}
	d, _ := time.ParseDuration(w.Interval)
	return d
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus endpoint of the watch command.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	Path    string `yaml:"path"`
}

// Load reads path on top of the defaults.
//
// .env and .env.local are loaded first without overriding the process
// environment, then ${VAR} references in the file are expanded. A missing file
// at DefaultPath yields the defaults; a missing explicit path is an error.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	cfg := Default()
	// Validate picks the first configured locale unless the file names one.
	cfg.Site.DefaultLocale = ""
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && path == DefaultPath:
		slog.Debug("No configuration file, using defaults", slog.String("path", path))
	case err != nil:
		return nil, ferrors.ConfigError("failed to read configuration file").
			WithCause(err).
			WithContext("path", path).
			Build()
	default:
		if err := Parse(cfg, data); err != nil {
			return nil, ferrors.ConfigError("failed to parse configuration file").
				WithCause(err).
				WithContext("path", path).
				Build()
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse expands environment references in data and decodes it onto cfg.
// Keys absent from data keep their current value.
func Parse(cfg *Config, data []byte) error {
	expanded := os.ExpandEnv(string(data))
	return yaml.Unmarshal([]byte(expanded), cfg)
}

func loadEnvFiles() {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("Failed to load environment file", slog.String("path", name), slog.String("error", err.Error()))
			continue
		}
		slog.Debug("Loaded environment variables", slog.String("path", name))
	}
}

// Validate checks cross-field constraints and normalizes enum values in place.
func (c *Config) Validate() error {
	var problems []string
	addf := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	switch {
	case len(c.Site.Locales) == 0:
		addf("site.locales must not be empty")
	case c.Site.DefaultLocale == "":
		c.Site.DefaultLocale = c.Site.Locales[0]
	case !slices.Contains(c.Site.Locales, c.Site.DefaultLocale):
		addf("site.default_locale %q is not one of site.locales %v", c.Site.DefaultLocale, c.Site.Locales)
	}
	if c.Content.Root == "" {
		addf("content.root must be set")
	}
	if c.Build.Workers < 0 {
		addf("build.workers must be >= 0, got %d", c.Build.Workers)
	}
	if c.Build.OutputDir == "" {
		addf("build.output_dir must be set")
	}
	if c.Highlight.CopyDurationMS <= 0 {
		addf("highlight.copy_duration_ms must be positive, got %d", c.Highlight.CopyDurationMS)
	}
	if c.Markdown.Reading.WordsPerMinute <= 0 {
		addf("markdown.reading.words_per_minute must be positive, got %d", c.Markdown.Reading.WordsPerMinute)
	}
	if _, err := time.ParseDuration(c.Watch.Debounce); c.Watch.Debounce != "" && err != nil {
		addf("watch.debounce: %v", err)
	}
	if _, err := time.ParseDuration(c.Watch.Interval); c.Watch.Interval != "" && err != nil {
		addf("watch.interval: %v", err)
	}
	if err := c.Build.JournalRetry.validate(); err != nil {
		addf("build.journal_retry: %v", err)
	}

	var err error
	if c.Markdown.Callouts.Casing, err = normalizeString(casingNormalizer.Parse, c.Markdown.Callouts.Casing); err != nil {
		addf("markdown.callouts.casing: %v", err)
	}
	if c.Markdown.HeadingAnchors.Behavior, err = normalizeString(anchorNormalizer.Parse, c.Markdown.HeadingAnchors.Behavior); err != nil {
		addf("markdown.heading_anchors.behavior: %v", err)
	}
	if c.Logging.Level, err = normalizeString(logLevelNormalizer.Parse, c.Logging.Level); err != nil {
		addf("logging.level: %v", err)
	}
	if c.Logging.Format, err = normalizeString(logFormatNormalizer.Parse, c.Logging.Format); err != nil {
		addf("logging.format: %v", err)
	}

	if len(problems) == 0 {
		return nil
	}
	b := ferrors.ConfigError("invalid configuration").WithContext("problems", problems)
	return b.Build()
}

// normalizeString keeps the raw value on failure so the error message and the
// config agree.
func normalizeString[T ~string](parse func(string) (T, error), raw string) (string, error) {
	v, err := parse(raw)
	if err != nil {
		return raw, err
	}
	return string(v), nil
}

func (r RetryConfig) validate() error {
	switch retry.Mode(r.Mode) {
	case "", retry.Fixed, retry.Linear, retry.Exponential:
	default:
		return fmt.Errorf("unknown mode %q", r.Mode)
	}
	for _, d := range []string{r.Initial, r.Max} {
		if _, err := time.ParseDuration(d); d != "" && err != nil {
			return err
		}
	}
	if r.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0, got %d", r.MaxRetries)
	}
	return nil
}
