// Package lines isolates the ruled lines of a scanned form: underscores,
// blank underlines and box borders.
//
// The [Detector] binarizes the page, keeps horizontal and vertical runs of
// ink at least a kernel length long (a morphological opening with a 1×N and
// an N×1 line element), and returns the bounding rectangle of every outer
// 8-connected component of the result.
package lines

import (
	"image"
	"sort"

	"github.com/kimodri/form-filler/model"
	"github.com/kimodri/form-filler/raster"
)

// Config holds configuration for line detection
type Config struct {
	// Threshold is the gray level at or below which a pixel is ink (default: 200)
	Threshold uint8

	// HorizontalLength is the minimum length of a horizontal run (default: 40)
	HorizontalLength int

	// VerticalLength is the minimum length of a vertical run (default: 40)
	VerticalLength int

	// Vertical enables vertical line detection (default: true)
	Vertical bool

	// ExternalOnly drops components enclosed by another component's box (default: true)
	ExternalOnly bool
}

// DefaultConfig returns sensible default configuration for 300 DPI scans
func DefaultConfig() Config {
	return Config{
		Threshold:        200,
		HorizontalLength: 40,
		VerticalLength:   40,
		Vertical:         true,
		ExternalOnly:     true,
	}
}

// Detector finds line contours in page images
type Detector struct {
	config Config
}

// NewDetector creates a detector with default configuration
func NewDetector() *Detector {
	return &Detector{config: DefaultConfig()}
}

// NewDetectorWithConfig creates a detector with custom configuration
func NewDetectorWithConfig(config Config) *Detector {
	return &Detector{config: config}
}

// Detect returns the line contours of a page image, sorted by top then left
func (d *Detector) Detect(img image.Image) []model.Contour {
	gray := raster.ToGray(img)
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	if w == 0 || h == 0 {
		return nil
	}

	ink := raster.Threshold(gray, d.config.Threshold)
	lineMask := openHorizontal(ink, w, h, d.config.HorizontalLength)
	if d.config.Vertical {
		vertical := openVertical(ink, w, h, d.config.VerticalLength)
		for i, v := range vertical {
			lineMask[i] = lineMask[i] || v
		}
	}

	contours := components(lineMask, w, h)
	if d.config.ExternalOnly {
		contours = external(contours)
	}

	sort.SliceStable(contours, func(i, j int) bool {
		if contours[i].Y != contours[j].Y {
			return contours[i].Y < contours[j].Y
		}
		return contours[i].X < contours[j].X
	})
	return contours
}

// openHorizontal keeps horizontal runs of at least length set pixels.
// For a 1×N line element, erosion followed by dilation is exactly this.
func openHorizontal(mask []bool, w, h, length int) []bool {
	out := make([]bool, len(mask))
	for y := 0; y < h; y++ {
		row := y * w
		x := 0
		for x < w {
			if !mask[row+x] {
				x++
				continue
			}
			start := x
			for x < w && mask[row+x] {
				x++
			}
			if x-start >= length {
				for i := start; i < x; i++ {
					out[row+i] = true
				}
			}
		}
	}
	return out
}

// openVertical keeps vertical runs of at least length set pixels
func openVertical(mask []bool, w, h, length int) []bool {
	out := make([]bool, len(mask))
	for x := 0; x < w; x++ {
		y := 0
		for y < h {
			if !mask[y*w+x] {
				y++
				continue
			}
			start := y
			for y < h && mask[y*w+x] {
				y++
			}
			if y-start >= length {
				for i := start; i < y; i++ {
					out[i*w+x] = true
				}
			}
		}
	}
	return out
}

// components labels 8-connected regions and returns their bounding boxes
func components(mask []bool, w, h int) []model.Contour {
	seen := make([]bool, len(mask))
	var contours []model.Contour
	var stack []int

	for start, set := range mask {
		if !set || seen[start] {
			continue
		}

		minX, minY := w, h
		maxX, maxY := -1, -1
		seen[start] = true
		stack = append(stack[:0], start)

		for len(stack) > 0 {
			p := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			px, py := p%w, p/w
			minX, maxX = min(minX, px), max(maxX, px)
			minY, maxY = min(minY, py), max(maxY, py)

			for dy := -1; dy <= 1; dy++ {
				ny := py + dy
				if ny < 0 || ny >= h {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := px + dx
					if nx < 0 || nx >= w {
						continue
					}
					q := ny*w + nx
					if mask[q] && !seen[q] {
						seen[q] = true
						stack = append(stack, q)
					}
				}
			}
		}

		contours = append(contours, model.Contour{
			X: minX, Y: minY, W: maxX - minX + 1, H: maxY - minY + 1,
		})
	}
	return contours
}

// external drops contours lying entirely inside another contour's box
func external(contours []model.Contour) []model.Contour {
	out := make([]model.Contour, 0, len(contours))
	for i, c := range contours {
		enclosed := false
		for j, o := range contours {
			if i != j && encloses(o, c) {
				enclosed = true
				break
			}
		}
		if !enclosed {
			out = append(out, c)
		}
	}
	return out
}

// encloses reports whether c lies strictly inside outer
func encloses(outer, c model.Contour) bool {
	return c.X > outer.X && c.Y > outer.Y &&
		c.X+c.W < outer.X+outer.W && c.Y+c.H < outer.Y+outer.H
}
