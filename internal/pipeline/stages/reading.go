package stages

import (
	"unicode"

	"git.home.luguber.info/inful/folio/internal/markdown"
	"git.home.luguber.info/inful/folio/internal/pipeline"
)

// DefaultWordsPerMinute is used when no positive rate is configured.
const DefaultWordsPerMinute = 200

// ReadingStage records the word count and reading time of a document. It
// does not change the tree.
type ReadingStage struct {
	info
	WordsPerMinute int
}

// NewReading returns the reading-time stage.
func NewReading(wpm int) *ReadingStage {
	if wpm <= 0 {
		wpm = DefaultWordsPerMinute
	}
	return &ReadingStage{info: preInfo(NameReading, pipeline.Dependencies{}), WordsPerMinute: wpm}
}

func (s *ReadingStage) Config() map[string]any {
	return map[string]any{"wordsPerMinute": s.WordsPerMinute}
}

func (s *ReadingStage) TransformSource(doc *pipeline.Document) error {
	words := CountWords(markdown.PlainText(doc.SourceTree, doc.Source))
	doc.Meta.Words = words
	doc.Meta.ReadingMinutes = ReadingMinutes(words, s.WordsPerMinute)
	return nil
}

// CountWords counts runs of letters and digits as words. Every Han, Hiragana
// or Katakana character counts as a word of its own.
func CountWords(text string) int {
	words := 0
	inWord := false
	for _, r := range text {
		switch {
		case isCJK(r) && !unicode.Is(unicode.Hangul, r):
			words++
			inWord = false
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r):
			if !inWord {
				words++
				inWord = true
			}
		case (r == '\'' || r == '’') && inWord:
			// contraction
		default:
			inWord = false
		}
	}
	return words
}

// ReadingMinutes rounds up, with a minimum of one minute for any words.
func ReadingMinutes(words, wpm int) int {
	if words == 0 {
		return 0
	}
	if wpm <= 0 {
		wpm = DefaultWordsPerMinute
	}
	return (words + wpm - 1) / wpm
}

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul)
}
