package model

import "fmt"

// Word is a single word reported by an OCR engine.
// Coordinates are raster pixels of the page image the word was read from.
type Word struct {
	Text       string
	Confidence float64 // 0-100, negative for structural rows without text
	Left       int
	Top        int
	Width      int
	Height     int
	BlockNum   int
	ParNum     int
	LineNum    int
}

// LineKey identifies the OCR line group a word belongs to
type LineKey struct {
	Block, Par, Line int
}

// String returns the key as block_par_line
func (k LineKey) String() string {
	return fmt.Sprintf("%d_%d_%d", k.Block, k.Par, k.Line)
}

// LineKey returns the (block, paragraph, line) group of the word
func (w Word) LineKey() LineKey {
	return LineKey{Block: w.BlockNum, Par: w.ParNum, Line: w.LineNum}
}

// Right returns the right edge of the word
func (w Word) Right() int {
	return w.Left + w.Width
}

// BBox returns the word's bounding box
func (w Word) BBox() BBox {
	return NewBBox(w.Left, w.Top, w.Width, w.Height)
}

// Contour is the bounding rectangle of a detected line segment
type Contour struct {
	X, Y, W, H int
}

// BBox returns the contour as a bounding box
func (c Contour) BBox() BBox {
	return NewBBox(c.X, c.Y, c.W, c.H)
}

// PageInfo holds the raster dimensions of one page
type PageInfo struct {
	Index  int `json:"index"`
	Width  int `json:"width"`
	Height int `json:"height"`
}
