package stages

import (
	"fmt"
	"sort"
	"strings"

	"git.home.luguber.info/inful/folio/internal/config"
	"git.home.luguber.info/inful/folio/internal/markdown"
	"git.home.luguber.info/inful/folio/internal/pipeline"
)

// FootnoteLabel maps the footnote options onto the engine's label settings.
func FootnoteLabel(md config.MarkdownConfig) markdown.FootnoteLabel {
	return markdown.FootnoteLabel{
		Text:     md.Footnotes.Label,
		Tag:      md.Footnotes.Tag,
		Classes:  append([]string(nil), md.Footnotes.Classes...),
		Suppress: md.Footnotes.Suppress,
	}
}

// EngineOptions returns the conversion options matching cfg.
func EngineOptions(cfg *config.Config) markdown.Options {
	return markdown.Options{Footnotes: FootnoteLabel(cfg.Markdown)}
}

// Default returns every stage in the fixed global order, configured from cfg.
func Default(cfg *config.Config) []pipeline.Stage {
	md := cfg.Markdown
	return []pipeline.Stage{
		NewStrikethrough(md.Strikethrough.SingleTilde),
		NewIns(),
		NewMark(),
		NewSpoiler(),
		NewAttr(),
		NewMath(),
		NewGemoji(),
		NewFootnote(FootnoteLabel(md)),
		NewAbbr(),
		NewTableNormalize(md.Tables.ColspanWithEmpty),
		NewTableWrap(md.Tables.WrapperClass),
		NewRuby(),
		NewCallouts(md.Callouts.Casing),
		NewReading(md.Reading.WordsPerMinute),

		NewHeadingIDs(),
		NewHeadingAnchors(md.HeadingAnchors.Behavior, md.HeadingAnchors.Class, md.HeadingAnchors.Symbol),
		NewExternalLinks(md.ExternalLinks.Target, md.ExternalLinks.Rel, cfg.Site.BaseURL),
		NewMathRender(),
		NewFigure(),
		NewSectionize(),
	}
}

// Names returns the names of the default stages in order.
func Names() []string {
	stages := Default(config.Default())
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name()
	}
	return names
}

// NewRegistry builds the validated registry for cfg, leaving out the stages
// listed in markdown.disabled. Disabling a stage another stage requires
// fails validation.
func NewRegistry(cfg *config.Config) (*pipeline.Registry, error) {
	disabled := make(map[string]bool, len(cfg.Markdown.Disabled))
	for _, name := range cfg.Markdown.Disabled {
		disabled[name] = true
	}
	var stages []pipeline.Stage
	for _, s := range Default(cfg) {
		if disabled[s.Name()] {
			delete(disabled, s.Name())
			continue
		}
		stages = append(stages, s)
	}
	if len(disabled) > 0 {
		unknown := make([]string, 0, len(disabled))
		for name := range disabled {
			unknown = append(unknown, name)
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("markdown.disabled: unknown stage(s) %s", strings.Join(unknown, ", "))
	}
	return pipeline.NewRegistry(stages...)
}
