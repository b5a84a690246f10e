package config

// MarkdownConfig holds the per-stage options of the transform pipeline.
type MarkdownConfig struct {
	Strikethrough  StrikethroughConfig  `yaml:"strikethrough"`
	Tables         TablesConfig         `yaml:"tables"`
	Callouts       CalloutsConfig       `yaml:"callouts"`
	Footnotes      FootnotesConfig      `yaml:"footnotes"`
	HeadingAnchors HeadingAnchorsConfig `yaml:"heading_anchors"`
	ExternalLinks  ExternalLinksConfig  `yaml:"external_links"`
	Reading        ReadingConfig        `yaml:"reading"`
	// Disabled names stages left out of the pipeline. Stages other stages
	// depend on cannot be disabled without disabling the dependents too.
	Disabled []string `yaml:"disabled,omitempty"`
}

// StrikethroughConfig: with SingleTilde false only ~~x~~ strikes through.
type StrikethroughConfig struct {
	SingleTilde bool `yaml:"single_tilde"`
}

// TablesConfig controls merged-cell handling.
type TablesConfig struct {
	// ColspanWithEmpty merges an empty cell into its left neighbour.
	ColspanWithEmpty bool `yaml:"colspan_with_empty"`
	// WrapperClass is the class of the div wrapped around every table.
	WrapperClass string `yaml:"wrapper_class"`
}

// CalloutsConfig controls GitHub-style alert blockquotes.
type CalloutsConfig struct {
	Casing string `yaml:"casing"`
}

// FootnotesConfig controls the label rendered above the footnote list.
type FootnotesConfig struct {
	Label    string   `yaml:"label"`
	Tag      string   `yaml:"tag"`
	Classes  []string `yaml:"classes"`
	Suppress bool     `yaml:"suppress"`
}

// HeadingAnchorsConfig controls anchor links on headings.
type HeadingAnchorsConfig struct {
	Behavior string `yaml:"behavior"`
	Class    string `yaml:"class"`
	// Symbol is the text of prepended or appended anchors.
	Symbol string `yaml:"symbol"`
}

// ExternalLinksConfig controls attributes added to off-site links.
type ExternalLinksConfig struct {
	Target string   `yaml:"target"`
	Rel    []string `yaml:"rel"`
}

// ReadingConfig controls reading-time estimation.
type ReadingConfig struct {
	WordsPerMinute int `yaml:"words_per_minute"`
}

// HighlightConfig controls code block highlighting and the copy control.
type HighlightConfig struct {
	Light string `yaml:"light"`
	Dark  string `yaml:"dark"`
	// Replacements substitute literal colors after theme resolution, e.g.
	// "#fff" -> "var(--block-color)". They apply to the light variant.
	Replacements     map[string]string `yaml:"replacements"`
	DarkReplacements map[string]string `yaml:"dark_replacements,omitempty"`
	CopyDurationMS   int               `yaml:"copy_duration_ms"`
}
