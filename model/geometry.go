package model

import "fmt"

// BBox represents a bounding box in raster pixel space.
// The origin is the top-left corner of the page image and Y grows downward.
type BBox struct {
	X int `json:"x"` // Left
	Y int `json:"y"` // Top
	W int `json:"w"`
	H int `json:"h"`
}

// NewBBox creates a bounding box from coordinates
func NewBBox(x, y, w, h int) BBox {
	return BBox{X: x, Y: y, W: w, H: h}
}

// NewBBoxFromEdges creates a bounding box from its left, top, right and bottom edges
func NewBBoxFromEdges(left, top, right, bottom int) BBox {
	if right < left {
		left, right = right, left
	}
	if bottom < top {
		top, bottom = bottom, top
	}
	return BBox{X: left, Y: top, W: right - left, H: bottom - top}
}

// Left returns the left edge X coordinate
func (b BBox) Left() int {
	return b.X
}

// Right returns the right edge X coordinate
func (b BBox) Right() int {
	return b.X + b.W
}

// Top returns the top edge Y coordinate
func (b BBox) Top() int {
	return b.Y
}

// Bottom returns the bottom edge Y coordinate
func (b BBox) Bottom() int {
	return b.Y + b.H
}

// Area returns the area of the bounding box
func (b BBox) Area() int {
	return b.W * b.H
}

// IsValid returns true if the bounding box has positive dimensions
func (b BBox) IsValid() bool {
	return b.W > 0 && b.H > 0
}

// Union returns the smallest box containing both boxes
func (b BBox) Union(other BBox) BBox {
	return NewBBoxFromEdges(
		min(b.Left(), other.Left()),
		min(b.Top(), other.Top()),
		max(b.Right(), other.Right()),
		max(b.Bottom(), other.Bottom()),
	)
}

// Intersects checks if two bounding boxes overlap
func (b BBox) Intersects(other BBox) bool {
	return b.Left() < other.Right() && other.Left() < b.Right() &&
		b.Top() < other.Bottom() && other.Top() < b.Bottom()
}

// Translate returns the box shifted by dx, dy
func (b BBox) Translate(dx, dy int) BBox {
	return BBox{X: b.X + dx, Y: b.Y + dy, W: b.W, H: b.H}
}

// String returns the box as (x, y, w, h)
func (b BBox) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", b.X, b.Y, b.W, b.H)
}
