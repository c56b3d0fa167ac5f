package layout

import "github.com/kimodri/form-filler/model"

// TokenizerConfig holds configuration for the token reconstruction pipeline.
// Each stage has its own sub-configuration.
type TokenizerConfig struct {
	// Word filtering configuration
	WordFilterConfig WordFilterConfig

	// Phrase segmentation configuration
	PhraseConfig PhraseConfig

	// Field-space detection configuration
	SpaceConfig SpaceConfig

	// Title classification configuration
	ClassifierConfig ClassifierConfig

	// Reading order configuration
	ReadingOrderConfig ReadingOrderConfig
}

// DefaultTokenizerConfig returns a configuration with sensible defaults for
// forms scanned at 300 DPI
func DefaultTokenizerConfig() TokenizerConfig {
	return TokenizerConfig{
		WordFilterConfig:   DefaultWordFilterConfig(),
		PhraseConfig:       DefaultPhraseConfig(),
		SpaceConfig:        DefaultSpaceConfig(),
		ClassifierConfig:   DefaultClassifierConfig(),
		ReadingOrderConfig: DefaultReadingOrderConfig(),
	}
}

// PageInput is the raw collaborator output for one page
type PageInput struct {
	Page     model.PageInfo
	Words    []model.Word
	Contours []model.Contour

	// First marks the first page of the document being read
	First bool
}

// PageStats summarizes what reconstruction did with one page
type PageStats struct {
	Words        FilterStats
	Phrases      int
	Spaces       int
	FormTitles   int
	Sections     int
	Labels       int
	Notes        int
	Degenerate   int
	NoNoteTokens bool
}

// PageResult holds one page's merged tokens in page-local coordinates
type PageResult struct {
	Page   model.PageInfo
	Tokens []model.Token
	Stats  PageStats
}

// Tokenizer runs word filtering, phrase segmentation, space detection,
// classification and reading-order merge for each page
type Tokenizer struct {
	config     TokenizerConfig
	filter     *WordFilter
	segmenter  *PhraseSegmenter
	spaces     *SpaceDetector
	classifier *Classifier
	merger     *ReadingOrderMerger
}

// NewTokenizer creates a tokenizer with default configuration
func NewTokenizer() *Tokenizer {
	return NewTokenizerWithConfig(DefaultTokenizerConfig())
}

// NewTokenizerWithConfig creates a tokenizer with custom configuration
func NewTokenizerWithConfig(config TokenizerConfig) *Tokenizer {
	return &Tokenizer{
		config:     config,
		filter:     NewWordFilterWithConfig(config.WordFilterConfig),
		segmenter:  NewPhraseSegmenterWithConfig(config.PhraseConfig),
		spaces:     NewSpaceDetectorWithConfig(config.SpaceConfig),
		classifier: NewClassifierWithConfig(config.ClassifierConfig),
		merger:     NewReadingOrderMergerWithConfig(config.ReadingOrderConfig),
	}
}

// Config returns the tokenizer configuration
func (t *Tokenizer) Config() TokenizerConfig {
	return t.config
}

// TokenizePage reconstructs the ordered token stream of one page.
// It never fails; degenerate input yields fewer (possibly zero) tokens.
func (t *Tokenizer) TokenizePage(in PageInput) PageResult {
	words, filterStats := t.filter.Filter(in.Words)
	phrases := t.segmenter.Segment(words, in.Page.Index)
	spaces := t.spaces.Detect(in.Contours, in.Page.Index)

	classified := t.classifier.Classify(phrases, in.Page, in.First)

	combined := make([]model.Token, 0, len(classified)+len(spaces))
	combined = append(combined, classified...)
	combined = append(combined, spaces...)
	merged := t.merger.Merge(combined)

	stats := PageStats{
		Words:      filterStats,
		Phrases:    len(phrases),
		Spaces:     len(spaces),
		Degenerate: len(combined) - len(merged),
	}
	for _, tok := range merged {
		switch tok.Kind {
		case model.FormTitle:
			stats.FormTitles++
		case model.SectionTitle:
			stats.Sections++
		case model.FieldLabel:
			stats.Labels++
		case model.Note:
			stats.Notes++
		}
	}
	stats.NoNoteTokens = countKind(phrases, model.Note) == 0

	return PageResult{Page: in.Page, Tokens: merged, Stats: stats}
}

// Tokenize reconstructs every page and assembles the global stream
func (t *Tokenizer) Tokenize(pages []PageInput) (*model.Document, []PageResult) {
	results := make([]PageResult, len(pages))
	for i, p := range pages {
		p.First = i == 0
		results[i] = t.TokenizePage(p)
	}
	return Assemble(PageTokensOf(results)), results
}

// PageTokensOf converts page results into Assemble input
func PageTokensOf(results []PageResult) []PageTokens {
	pages := make([]PageTokens, len(results))
	for i, r := range results {
		pages[i] = PageTokens{Page: r.Page, Tokens: r.Tokens}
	}
	return pages
}

func countKind(tokens []model.Token, kind model.Kind) int {
	n := 0
	for _, t := range tokens {
		if t.Kind == kind {
			n++
		}
	}
	return n
}
