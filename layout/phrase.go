package layout

import (
	"sort"
	"strings"

	"github.com/kimodri/form-filler/model"
)

// PhraseConfig holds configuration for phrase segmentation
type PhraseConfig struct {
	// GapThreshold is the horizontal gap in pixels above which two words on
	// the same OCR line belong to different phrases (default: 27)
	GapThreshold int

	// LabelSuffix marks a phrase as a field label (default: ":")
	LabelSuffix string
}

// DefaultPhraseConfig returns sensible default configuration
func DefaultPhraseConfig() PhraseConfig {
	return PhraseConfig{
		GapThreshold: 27,
		LabelSuffix:  ":",
	}
}

// PhraseSegmenter merges OCR words into NOTE and FIELD_LABEL tokens
type PhraseSegmenter struct {
	config PhraseConfig
}

// NewPhraseSegmenter creates a phrase segmenter with default configuration
func NewPhraseSegmenter() *PhraseSegmenter {
	return &PhraseSegmenter{config: DefaultPhraseConfig()}
}

// NewPhraseSegmenterWithConfig creates a phrase segmenter with custom configuration
func NewPhraseSegmenterWithConfig(config PhraseConfig) *PhraseSegmenter {
	return &PhraseSegmenter{config: config}
}

// lineGroup holds the words of one (block, paragraph, line) group
type lineGroup struct {
	key   model.LineKey
	words []model.Word
}

// Segment groups words by OCR line and splits each line into phrases.
// Groups are emitted in order of first appearance; the merger fixes the
// final reading order.
func (s *PhraseSegmenter) Segment(words []model.Word, page int) []model.Token {
	groups := groupByLine(words)

	var tokens []model.Token
	for _, g := range groups {
		tokens = append(tokens, s.segmentLine(g.words, page)...)
	}
	return tokens
}

// groupByLine buckets words by line key, each bucket sorted by left edge
func groupByLine(words []model.Word) []lineGroup {
	index := make(map[model.LineKey]int)
	var groups []lineGroup

	for _, w := range words {
		key := w.LineKey()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, lineGroup{key: key})
		}
		groups[i].words = append(groups[i].words, w)
	}

	for i := range groups {
		sort.SliceStable(groups[i].words, func(a, b int) bool {
			return groups[i].words[a].Left < groups[i].words[b].Left
		})
	}
	return groups
}

// phrase accumulates adjacent words
type phrase struct {
	parts  []string
	left   int
	top    int
	right  int
	height int
}

func newPhrase(w model.Word) phrase {
	return phrase{
		parts:  []string{w.Text},
		left:   w.Left,
		top:    w.Top,
		right:  w.Right(),
		height: w.Height,
	}
}

func (p *phrase) add(w model.Word) {
	p.parts = append(p.parts, w.Text)
	p.left = min(p.left, w.Left)
	p.top = min(p.top, w.Top)
	p.right = max(p.right, w.Right())
	p.height = max(p.height, w.Height)
}

func (p phrase) text() string {
	return strings.TrimSpace(strings.Join(p.parts, " "))
}

func (p phrase) bbox() model.BBox {
	return model.NewBBox(p.left, p.top, p.right-p.left, p.height)
}

// segmentLine walks one sorted line group left to right
func (s *PhraseSegmenter) segmentLine(words []model.Word, page int) []model.Token {
	if len(words) == 0 {
		return nil
	}

	var tokens []model.Token
	current := newPhrase(words[0])
	lastRight := words[0].Right()

	for _, w := range words[1:] {
		gap := w.Left - lastRight
		if gap > s.config.GapThreshold {
			tokens = append(tokens, s.flush(current, page))
			current = newPhrase(w)
		} else {
			current.add(w)
		}
		lastRight = w.Right()
	}

	return append(tokens, s.flush(current, page))
}

// flush turns an accumulated phrase into a token
func (s *PhraseSegmenter) flush(p phrase, page int) model.Token {
	text := p.text()
	kind := model.Note
	if s.config.LabelSuffix != "" && strings.HasSuffix(text, s.config.LabelSuffix) {
		kind = model.FieldLabel
	}
	return model.Token{Kind: kind, Value: text, BBox: p.bbox(), Page: page}
}
