package layout

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/kimodri/form-filler/model"
)

// WordFilterConfig holds configuration for OCR word filtering
type WordFilterConfig struct {
	// MinConfidence is the lowest OCR confidence kept (default: 0).
	// Tesseract reports -1 for block/paragraph/line rows that carry no text.
	MinConfidence float64

	// StripChars are removed from word text before the emptiness check
	// (default: "_", so typed underscore blanks do not become text)
	StripChars string
}

// DefaultWordFilterConfig returns sensible default configuration
func DefaultWordFilterConfig() WordFilterConfig {
	return WordFilterConfig{
		MinConfidence: 0,
		StripChars:    "_",
	}
}

// FilterStats counts what the word filter dropped
type FilterStats struct {
	Input         int
	Kept          int
	LowConfidence int
	Empty         int
	DegenerateBox int
}

// WordFilter drops empty and low-confidence OCR words
type WordFilter struct {
	config WordFilterConfig
}

// NewWordFilter creates a word filter with default configuration
func NewWordFilter() *WordFilter {
	return &WordFilter{config: DefaultWordFilterConfig()}
}

// NewWordFilterWithConfig creates a word filter with custom configuration
func NewWordFilterWithConfig(config WordFilterConfig) *WordFilter {
	return &WordFilter{config: config}
}

// Filter returns the usable words with cleaned text, preserving input order
func (f *WordFilter) Filter(words []model.Word) ([]model.Word, FilterStats) {
	stats := FilterStats{Input: len(words)}
	kept := make([]model.Word, 0, len(words))

	for _, w := range words {
		if w.Confidence < f.config.MinConfidence {
			stats.LowConfidence++
			continue
		}

		w.Text = f.clean(w.Text)
		if w.Text == "" {
			stats.Empty++
			continue
		}

		if w.Width <= 0 || w.Height <= 0 {
			stats.DegenerateBox++
			continue
		}

		kept = append(kept, w)
	}

	stats.Kept = len(kept)
	return kept, stats
}

// clean normalizes word text to NFC and removes strip characters
func (f *WordFilter) clean(s string) string {
	s = norm.NFC.String(s)
	for _, r := range f.config.StripChars {
		s = strings.ReplaceAll(s, string(r), "")
	}
	return strings.TrimSpace(s)
}
