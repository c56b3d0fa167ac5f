package render

import (
	"fmt"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/ridge/must/v2"
	"golang.org/x/image/font/gofont/goregular"
)

// goRegular is the built-in font
var goRegular = must.OK1(truetype.Parse(goregular.TTF))

// LoadFont parses a TrueType font file. An empty path returns Go Regular.
func LoadFont(path string) (*truetype.Font, error) {
	if path == "" {
		return goRegular, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font: %w", err)
	}

	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	return f, nil
}

// fitFontSize returns the largest size not above size at which text fits
// in maxWidth by maxHeight
func fitFontSize(dc *gg.Context, f *truetype.Font, text string, size, minSize, maxWidth, maxHeight float64) float64 {
	dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: size}))
	width, height := dc.MeasureString(text)
	if width <= maxWidth && height <= maxHeight {
		return size
	}

	low, high := minSize, size
	for high-low > 0.5 {
		mid := (low + high) / 2
		dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: mid}))
		width, height = dc.MeasureString(text)
		if width <= maxWidth && height <= maxHeight {
			low = mid
		} else {
			high = mid
		}
	}
	return low
}
