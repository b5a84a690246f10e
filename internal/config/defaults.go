package config

import "git.home.luguber.info/inful/folio/internal/retry"

// Default returns the configuration used when the file leaves a key out.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			Title:         "folio",
			Locales:       []string{"ko", "en"},
			DefaultLocale: "ko",
		},
		Content: ContentConfig{
			Root:          "content",
			PrivateMarker: "_",
		},
		Markdown: MarkdownConfig{
			Strikethrough: StrikethroughConfig{SingleTilde: false},
			Tables:        TablesConfig{ColspanWithEmpty: true, WrapperClass: "table-wrapper"},
			Callouts:      CalloutsConfig{Casing: string(CasingCapitalize)},
			Footnotes: FootnotesConfig{
				Label:   "Footnotes",
				Tag:     "p",
				Classes: []string{"hidden"},
			},
			HeadingAnchors: HeadingAnchorsConfig{Behavior: string(AnchorWrap), Symbol: "#"},
			ExternalLinks: ExternalLinksConfig{
				Target: "_blank",
				Rel:    []string{"nofollow", "noopener", "noreferrer"},
			},
			Reading: ReadingConfig{WordsPerMinute: 200},
		},
		Highlight: HighlightConfig{
			Light:          "github",
			Dark:           "github-dark",
			Replacements:   map[string]string{"#fff": "var(--block-color)"},
			CopyDurationMS: 1500,
		},
		Build: BuildConfig{
			OutputDir: "dist",
			JournalRetry: RetryConfig{
				Mode:       string(retry.Exponential),
				Initial:    "25ms",
				Max:        "500ms",
				MaxRetries: 3,
			},
		},
		Watch: WatchConfig{
			Debounce: "300ms",
		},
		Logging: LoggingConfig{
			Level:  string(LogLevelInfo),
			Format: string(LogFormatText),
		},
		Metrics: MetricsConfig{
			Listen: ":9090",
			Path:   "/metrics",
		},
	}
}
