package layout

import (
	"sort"

	"github.com/kimodri/form-filler/model"
)

// AnchorPolicy decides how a row's reference y moves as tokens join it
type AnchorPolicy int

const (
	// AnchorFirst keeps the row anchored at its first token's top edge
	AnchorFirst AnchorPolicy = iota
	// AnchorRunningMean moves the anchor halfway toward each joining token
	AnchorRunningMean
)

// String returns a string representation of the anchor policy
func (p AnchorPolicy) String() string {
	switch p {
	case AnchorRunningMean:
		return "running-mean"
	default:
		return "first"
	}
}

// ReadingOrderConfig holds configuration for the reading-order merge
type ReadingOrderConfig struct {
	// RowTolerance is the maximum distance in pixels between a token's top
	// edge and the row anchor for the token to join the row (default: 40)
	RowTolerance int

	// Anchor is the row anchor policy (default: AnchorFirst)
	Anchor AnchorPolicy
}

// DefaultReadingOrderConfig returns sensible default configuration
func DefaultReadingOrderConfig() ReadingOrderConfig {
	return ReadingOrderConfig{
		RowTolerance: 40,
		Anchor:       AnchorFirst,
	}
}

// ReadingOrderMerger orders a page's tokens top to bottom, left to right
type ReadingOrderMerger struct {
	config ReadingOrderConfig
}

// NewReadingOrderMerger creates a merger with default configuration
func NewReadingOrderMerger() *ReadingOrderMerger {
	return &ReadingOrderMerger{config: DefaultReadingOrderConfig()}
}

// NewReadingOrderMergerWithConfig creates a merger with custom configuration
func NewReadingOrderMergerWithConfig(config ReadingOrderConfig) *ReadingOrderMerger {
	return &ReadingOrderMerger{config: config}
}

// Merge clusters tokens into rows and returns them in reading order.
// Tokens with a zero-area box are dropped.
func (m *ReadingOrderMerger) Merge(tokens []model.Token) []model.Token {
	sorted := make([]model.Token, 0, len(tokens))
	for _, t := range tokens {
		if t.BBox.IsValid() {
			sorted = append(sorted, t)
		}
	}
	if len(sorted) == 0 {
		return sorted
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BBox.Y < sorted[j].BBox.Y
	})

	out := make([]model.Token, 0, len(sorted))
	row := []model.Token{sorted[0]}
	anchor := float64(sorted[0].BBox.Y)

	for _, t := range sorted[1:] {
		top := float64(t.BBox.Y)
		if absFloat(top-anchor) <= float64(m.config.RowTolerance) {
			row = append(row, t)
			if m.config.Anchor == AnchorRunningMean {
				anchor = (anchor + top) / 2
			}
			continue
		}
		out = appendRow(out, row)
		row = []model.Token{t}
		anchor = top
	}

	return appendRow(out, row)
}

// appendRow sorts a closed row by left edge and appends it
func appendRow(out, row []model.Token) []model.Token {
	sort.SliceStable(row, func(i, j int) bool {
		return row[i].BBox.X < row[j].BBox.X
	})
	return append(out, row...)
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// PageTokens is one page's merged token stream in page-local coordinates
type PageTokens struct {
	Page   model.PageInfo
	Tokens []model.Token
}

// Assemble concatenates pages into one document stream. Pages are ordered by
// index and each page's tokens are shifted down by the total height of the
// pages before it.
func Assemble(pages []PageTokens) *model.Document {
	ordered := make([]PageTokens, len(pages))
	copy(ordered, pages)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Page.Index < ordered[j].Page.Index
	})

	doc := model.NewDocument()
	offset := 0
	for _, p := range ordered {
		doc.Pages = append(doc.Pages, p.Page)
		for _, t := range p.Tokens {
			doc.Tokens = append(doc.Tokens, t.WithOffset(offset))
		}
		offset += p.Page.Height
	}
	return doc
}
