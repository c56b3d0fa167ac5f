package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimodri/form-filler/model"
)

// makeWord creates an OCR word on block 1, paragraph 1
func makeWord(text string, left, top, w, h, line int) model.Word {
	return model.Word{
		Text:       text,
		Confidence: 90,
		Left:       left,
		Top:        top,
		Width:      w,
		Height:     h,
		BlockNum:   1,
		ParNum:     1,
		LineNum:    line,
	}
}

func makeToken(kind model.Kind, value string, x, y, w, h int) model.Token {
	return model.Token{Kind: kind, Value: value, BBox: model.NewBBox(x, y, w, h)}
}

func TestWordFilter(t *testing.T) {
	words := []model.Word{
		makeWord("Name:", 10, 10, 50, 20, 1),
		{Text: "", Confidence: -1, BlockNum: 1},
		makeWord("____", 70, 10, 80, 20, 1),
		makeWord("  ", 160, 10, 10, 20, 1),
		makeWord("ghost", 200, 10, 0, 20, 1),
		makeWord("Date__", 300, 10, 60, 20, 1),
	}

	kept, stats := NewWordFilter().Filter(words)

	require.Len(t, kept, 2)
	assert.Equal(t, "Name:", kept[0].Text)
	assert.Equal(t, "Date", kept[1].Text)
	assert.Equal(t, FilterStats{Input: 6, Kept: 2, LowConfidence: 1, Empty: 2, DegenerateBox: 1}, stats)
}

func TestWordFilterMinConfidence(t *testing.T) {
	config := DefaultWordFilterConfig()
	config.MinConfidence = 60
	f := NewWordFilterWithConfig(config)

	low := makeWord("blur", 0, 0, 10, 10, 1)
	low.Confidence = 30
	kept, stats := f.Filter([]model.Word{low, makeWord("clear", 20, 0, 10, 10, 1)})

	require.Len(t, kept, 1)
	assert.Equal(t, "clear", kept[0].Text)
	assert.Equal(t, 1, stats.LowConfidence)
}

func TestPhraseSegmenterSplitsOnGap(t *testing.T) {
	words := []model.Word{
		makeWord("John", 200, 100, 60, 20, 1),
		makeWord("Full", 10, 100, 40, 20, 1),
		makeWord("Name:", 55, 98, 60, 24, 1),
	}

	tokens := NewPhraseSegmenter().Segment(words, 0)

	require.Len(t, tokens, 2)
	assert.Equal(t, model.FieldLabel, tokens[0].Kind)
	assert.Equal(t, "Full Name:", tokens[0].Value)
	assert.Equal(t, model.NewBBox(10, 98, 105, 24), tokens[0].BBox)

	assert.Equal(t, model.Note, tokens[1].Kind)
	assert.Equal(t, "John", tokens[1].Value)
}

func TestPhraseSegmenterGapAtThresholdJoins(t *testing.T) {
	words := []model.Word{
		makeWord("Home", 0, 0, 50, 20, 1),
		makeWord("Address", 77, 0, 80, 20, 1),
	}

	tokens := NewPhraseSegmenter().Segment(words, 0)

	require.Len(t, tokens, 1)
	assert.Equal(t, "Home Address", tokens[0].Value)
}

func TestPhraseSegmenterKeepsLinesApart(t *testing.T) {
	words := []model.Word{
		makeWord("First", 0, 0, 50, 20, 1),
		makeWord("Second", 60, 40, 50, 20, 2),
		makeWord("line", 60, 0, 30, 20, 1),
	}

	tokens := NewPhraseSegmenter().Segment(words, 3)

	require.Len(t, tokens, 2)
	assert.Equal(t, "First line", tokens[0].Value)
	assert.Equal(t, "Second", tokens[1].Value)
	assert.Equal(t, 3, tokens[1].Page)
}

func TestPhraseSegmenterEmptyInput(t *testing.T) {
	assert.Empty(t, NewPhraseSegmenter().Segment(nil, 0))
}

func TestSpaceDetector(t *testing.T) {
	contours := []model.Contour{
		{X: 500, Y: 212, W: 300, H: 8},
		{X: 100, Y: 215, W: 300, H: 8},
		{X: 100, Y: 100, W: 101, H: 6},
		{X: 0, Y: 0, W: 2000, H: 3},
		{X: 0, Y: 50, W: 100, H: 10},
	}

	tokens := NewSpaceDetector().Detect(contours, 1)

	require.Len(t, tokens, 3)
	assert.Equal(t, model.NewBBox(100, 100, 101, 6), tokens[0].BBox)
	assert.Equal(t, model.NewBBox(100, 215, 300, 8), tokens[1].BBox)
	assert.Equal(t, model.NewBBox(500, 212, 300, 8), tokens[2].BBox)
	for _, tok := range tokens {
		assert.Equal(t, model.FieldSpace, tok.Kind)
		assert.Equal(t, model.FieldSpacePlaceholder, tok.Value)
		assert.Equal(t, 1, tok.Page)
	}
}

func TestSpaceDetectorClampsMinWidth(t *testing.T) {
	config := DefaultSpaceConfig()
	config.MinWidth = 5
	tokens := NewSpaceDetectorWithConfig(config).Detect([]model.Contour{
		{X: 0, Y: 0, W: 20, H: 10},
		{X: 0, Y: 40, W: 28, H: 10},
	}, 0)

	require.Len(t, tokens, 1)
	assert.Equal(t, 28, tokens[0].BBox.W)
}

func TestClassifier(t *testing.T) {
	page := model.PageInfo{Index: 0, Width: 1000, Height: 1400}
	tokens := []model.Token{
		makeToken(model.Note, "Employment Application Form", 300, 100, 400, 40),
		makeToken(model.Note, "Personal Data", 100, 400, 300, 30),
		makeToken(model.FieldLabel, "Name:", 100, 450, 100, 60),
		makeToken(model.Note, "Please print clearly in ink only thanks", 100, 500, 600, 20),
		makeToken(model.Note, "Sign here", 100, 600, 100, 20),
	}

	out := NewClassifier().Classify(tokens, page, true)

	assert.Equal(t, []model.Kind{
		model.FormTitle,
		model.SectionTitle,
		model.FieldLabel,
		model.Note,
		model.Note,
	}, model.Kinds(out))

	// input is not re-tagged in place
	assert.Equal(t, model.Note, tokens[0].Kind)
}

func TestClassifierSingleFormTitle(t *testing.T) {
	page := model.PageInfo{Width: 1000}
	tokens := []model.Token{
		makeToken(model.Note, "Application Form", 100, 100, 400, 40),
		makeToken(model.Note, "Barangay Clearance", 100, 120, 400, 40),
	}

	out := NewClassifier().Classify(tokens, page, true)

	assert.Equal(t, model.FormTitle, out[0].Kind)
	assert.Equal(t, model.SectionTitle, out[1].Kind)
}

func TestClassifierFirstPageTitleOnly(t *testing.T) {
	config := DefaultClassifierConfig()
	config.FirstPageTitleOnly = true
	classifier := NewClassifierWithConfig(config)
	tokens := []model.Token{makeToken(model.Note, "Continued Form", 100, 100, 400, 40)}

	tests := []struct {
		name  string
		index int
		first bool
		want  model.Kind
	}{
		{"first page", 0, true, model.FormTitle},
		{"later page", 1, false, model.SectionTitle},
		{"first selected page", 1, true, model.FormTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := classifier.Classify(tokens, model.PageInfo{Index: tt.index, Width: 1000}, tt.first)
			assert.Equal(t, tt.want, out[0].Kind)
		})
	}
}

func TestClassifierWithoutNotes(t *testing.T) {
	tokens := []model.Token{
		makeToken(model.FieldLabel, "Name:", 100, 100, 100, 30),
		model.NewFieldSpace(model.NewBBox(250, 110, 300, 8), 0),
	}

	var out []model.Token
	require.NotPanics(t, func() {
		out = NewClassifier().Classify(tokens, model.PageInfo{Width: 1000}, true)
	})
	assert.Equal(t, tokens, out)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 3.0, median([]int{5, 1, 3}))
	assert.Equal(t, 25.0, median([]int{40, 20, 30, 20}))
}

func TestReadingOrderMerge(t *testing.T) {
	tokens := []model.Token{
		makeToken(model.FieldSpace, "a", 300, 100, 200, 8),
		makeToken(model.FieldLabel, "b", 10, 110, 100, 30),
		makeToken(model.Note, "c", 50, 200, 100, 30),
		makeToken(model.Note, "degenerate", 0, 150, 0, 30),
	}

	merged := NewReadingOrderMerger().Merge(tokens)

	require.Len(t, merged, 3)
	assert.Equal(t, []string{"b", "a", "c"}, values(merged))
}

func TestReadingOrderMergeIsIdempotent(t *testing.T) {
	tokens := []model.Token{
		makeToken(model.Note, "d", 700, 420, 50, 20),
		makeToken(model.Note, "a", 10, 5, 50, 20),
		makeToken(model.Note, "c", 10, 400, 50, 20),
		makeToken(model.Note, "b", 400, 30, 50, 20),
		makeToken(model.Note, "e", 300, 430, 50, 20),
	}

	m := NewReadingOrderMerger()
	once := m.Merge(tokens)
	twice := m.Merge(once)

	assert.Equal(t, []string{"a", "b", "c", "e", "d"}, values(once))
	assert.Equal(t, once, twice)
}

func TestReadingOrderAnchorPolicy(t *testing.T) {
	tokens := []model.Token{
		makeToken(model.Note, "t0", 100, 0, 50, 20),
		makeToken(model.Note, "t40", 200, 40, 50, 20),
		makeToken(model.Note, "t60", 0, 60, 50, 20),
	}

	first := NewReadingOrderMerger().Merge(tokens)
	assert.Equal(t, []string{"t0", "t40", "t60"}, values(first))

	config := DefaultReadingOrderConfig()
	config.Anchor = AnchorRunningMean
	mean := NewReadingOrderMergerWithConfig(config).Merge(tokens)
	assert.Equal(t, []string{"t60", "t0", "t40"}, values(mean))

	assert.Equal(t, "first", AnchorFirst.String())
	assert.Equal(t, "running-mean", AnchorRunningMean.String())
}

func TestReadingOrderMergeEmpty(t *testing.T) {
	assert.Empty(t, NewReadingOrderMerger().Merge(nil))
}

func TestAssembleOffsetsPages(t *testing.T) {
	const height = 3300
	pages := []PageTokens{
		{
			Page:   model.PageInfo{Index: 1, Width: 2550, Height: height},
			Tokens: []model.Token{makeToken(model.FieldLabel, "Age:", 100, 0, 100, 30)},
		},
		{
			Page:   model.PageInfo{Index: 0, Width: 2550, Height: height},
			Tokens: []model.Token{makeToken(model.FormTitle, "Form", 100, 3000, 100, 30)},
		},
	}

	doc := Assemble(pages)

	require.Len(t, doc.Tokens, 2)
	assert.Equal(t, "Form", doc.Tokens[0].Value)
	assert.Equal(t, 3000, doc.Tokens[0].BBox.Y)
	assert.Equal(t, "Age:", doc.Tokens[1].Value)
	assert.GreaterOrEqual(t, doc.Tokens[1].BBox.Y, height)
	assert.Equal(t, []int{0, 1}, []int{doc.Pages[0].Index, doc.Pages[1].Index})

	// inputs keep page-local coordinates
	assert.Equal(t, 0, pages[0].Tokens[0].BBox.Y)
}

// formPage builds a realistic single-page form input
func formPage() PageInput {
	return PageInput{
		Page: model.PageInfo{Index: 0, Width: 1500, Height: 2000},
		Words: []model.Word{
			makeWord("Employment", 300, 100, 250, 40, 1),
			makeWord("Application", 560, 100, 260, 40, 1),
			{Text: "", Confidence: -1, BlockNum: 1, ParNum: 1, LineNum: 1},
			makeWord("Personal", 100, 400, 200, 30, 2),
			makeWord("Data", 310, 400, 100, 30, 2),
			makeWord("Name:", 100, 500, 120, 30, 3),
			makeWord("____", 250, 500, 300, 30, 3),
			makeWord("Please", 100, 700, 60, 20, 4),
			makeWord("print", 165, 700, 50, 20, 4),
			makeWord("in", 220, 700, 20, 20, 4),
			makeWord("ink", 245, 700, 30, 20, 4),
		},
		Contours: []model.Contour{
			{X: 250, Y: 505, W: 400, H: 8},
			{X: 0, Y: 0, W: 1500, H: 3},
			{X: 900, Y: 900, W: 50, H: 50},
		},
	}
}

func TestTokenizePage(t *testing.T) {
	result := NewTokenizer().TokenizePage(formPage())

	assert.Equal(t, []model.Kind{
		model.FormTitle,
		model.SectionTitle,
		model.FieldLabel,
		model.FieldSpace,
		model.Note,
	}, model.Kinds(result.Tokens))
	assert.Equal(t, []string{
		"Employment Application",
		"Personal Data",
		"Name:",
		model.FieldSpacePlaceholder,
		"Please print in ink",
	}, values(result.Tokens))

	assert.Equal(t, 11, result.Stats.Words.Input)
	assert.Equal(t, 9, result.Stats.Words.Kept)
	assert.Equal(t, 1, result.Stats.Spaces)
	assert.Equal(t, 1, result.Stats.FormTitles)
	assert.Equal(t, 1, result.Stats.Sections)
	assert.False(t, result.Stats.NoNoteTokens)
}

func TestTokenizeIsDeterministic(t *testing.T) {
	second := formPage()
	second.Page.Index = 1

	tokenizer := NewTokenizer()
	docA, _ := tokenizer.Tokenize([]PageInput{formPage(), second})
	docB, _ := tokenizer.Tokenize([]PageInput{formPage(), second})

	assert.Equal(t, docA, docB)
	require.Len(t, docA.Tokens, 10)
	for _, tok := range docA.Tokens[5:] {
		assert.Equal(t, 1, tok.Page)
		assert.GreaterOrEqual(t, tok.BBox.Y, 2000)
	}
}

func TestTokenizeFirstPageTitleOnly(t *testing.T) {
	config := DefaultTokenizerConfig()
	config.ClassifierConfig.FirstPageTitleOnly = true

	second, third := formPage(), formPage()
	second.Page.Index = 1
	third.Page.Index = 2

	_, results := NewTokenizerWithConfig(config).Tokenize([]PageInput{second, third})

	require.Len(t, results, 2)
	assert.Equal(t, 1, results[0].Stats.FormTitles)
	assert.Equal(t, model.FormTitle, results[0].Tokens[0].Kind)
	assert.Zero(t, results[1].Stats.FormTitles)
}

func TestTokenizePageWithoutWords(t *testing.T) {
	in := PageInput{
		Page:     model.PageInfo{Width: 1000, Height: 1000},
		Contours: []model.Contour{{X: 10, Y: 10, W: 300, H: 8}},
	}

	result := NewTokenizer().TokenizePage(in)

	assert.Equal(t, []model.Kind{model.FieldSpace}, model.Kinds(result.Tokens))
	assert.True(t, result.Stats.NoNoteTokens)
}

func values(tokens []model.Token) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Value
	}
	return out
}
