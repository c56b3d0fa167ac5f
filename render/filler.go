// Package render paints profile values into the fill targets of a parsed
// form and draws debug overlays of the token stream.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"

	"github.com/kimodri/form-filler/grammar"
	"github.com/kimodri/form-filler/model"
)

// ErrPageMismatch is returned when the page images do not match the document
var ErrPageMismatch = errors.New("render: page images do not match document pages")

// FillerConfig holds configuration for the form filler
type FillerConfig struct {
	// FontPath is a TrueType font file; empty uses Go Regular
	FontPath string

	// FontSize is the preferred text size in pixels (default: 30)
	FontSize float64

	// MinFontSize is the smallest size text is shrunk to (default: 8)
	MinFontSize float64

	// Inset is the horizontal offset from the left edge of the target (default: 25)
	Inset float64

	// Color is the text color (default: black)
	Color color.Color

	// AllowPartial fills the mappings of a rejected document
	AllowPartial bool
}

// DefaultFillerConfig returns sensible default configuration
func DefaultFillerConfig() FillerConfig {
	return FillerConfig{
		FontSize:    30,
		MinFontSize: 8,
		Inset:       25,
		Color:       color.Black,
	}
}

// MissingValue records a field the profile has no value for
type MissingValue struct {
	Section string
	Label   string
	Key     string
}

// Filled is the outcome of filling a form
type Filled struct {
	// Pages are copies of the input pages with values drawn in
	Pages []image.Image

	// Drawn counts the values written
	Drawn int

	// Missing lists fields left blank, in mapping order
	Missing []MissingValue
}

// Filler draws profile values into fill targets
type Filler struct {
	config FillerConfig
	font   *truetype.Font
}

// NewFiller creates a filler with default configuration
func NewFiller() (*Filler, error) {
	return NewFillerWithConfig(DefaultFillerConfig())
}

// NewFillerWithConfig creates a filler with custom configuration
func NewFillerWithConfig(config FillerConfig) (*Filler, error) {
	f, err := LoadFont(config.FontPath)
	if err != nil {
		return nil, err
	}
	if config.Color == nil {
		config.Color = color.Black
	}
	if config.MinFontSize <= 0 {
		config.MinFontSize = 1
	}
	return &Filler{config: config, font: f}, nil
}

// Fill draws the value of every mapping into its fill target. Mapping boxes
// are in document coordinates and are moved back onto their page. A missing
// value is recorded and skipped. Rejected documents are refused unless
// AllowPartial is set.
func (f *Filler) Fill(pages []image.Image, doc *model.Document, result *grammar.Result, profile *Profile) (*Filled, error) {
	if !result.Accepted && !f.config.AllowPartial {
		return nil, fmt.Errorf("refusing to fill: %w", result.Err())
	}
	if len(pages) != doc.PageCount() {
		return nil, fmt.Errorf("%w: %d images, %d pages", ErrPageMismatch, len(pages), doc.PageCount())
	}

	contexts := make(map[int]*gg.Context)
	filled := &Filled{}

	for _, m := range result.Mappings {
		value, ok := profile.Lookup(m)
		if !ok {
			filled.Missing = append(filled.Missing, MissingValue{
				Section: m.SectionTitle(),
				Label:   m.Label,
				Key:     m.Key(),
			})
			continue
		}

		index, offset, ok := doc.PageAt(m.FillTargetBox.Y)
		if !ok || index < 0 || index >= len(pages) {
			return nil, fmt.Errorf("%w: fill target %s is outside every page", ErrPageMismatch, m.FillTargetBox)
		}

		dc, ok := contexts[index]
		if !ok {
			dc = gg.NewContextForImage(pages[index])
			contexts[index] = dc
		}
		f.drawValue(dc, m.FillTargetBox.Translate(0, -offset), value)
		filled.Drawn++
	}

	filled.Pages = make([]image.Image, len(pages))
	for i, page := range pages {
		if dc, ok := contexts[i]; ok {
			filled.Pages[i] = dc.Image()
		} else {
			filled.Pages[i] = page
		}
	}
	return filled, nil
}

// drawValue writes text inside box. Targets taller than the text are
// centred; thin underlines get the text sitting on the line.
func (f *Filler) drawValue(dc *gg.Context, box model.BBox, text string) {
	maxWidth := float64(box.W) - f.config.Inset
	if maxWidth <= 0 {
		maxWidth = float64(box.W)
	}
	maxHeight := f.config.FontSize * 2
	tall := float64(box.H) >= f.config.FontSize
	if tall {
		maxHeight = float64(box.H)
	}

	size := fitFontSize(dc, f.font, text, f.config.FontSize, f.config.MinFontSize, maxWidth, maxHeight)
	dc.SetFontFace(truetype.NewFace(f.font, &truetype.Options{Size: size}))
	dc.SetColor(f.config.Color)

	x := float64(box.X) + f.config.Inset
	if tall {
		dc.DrawStringAnchored(text, x, float64(box.Y)+float64(box.H)/2, 0, 0.5)
		return
	}
	dc.DrawStringAnchored(text, x, float64(box.Y)-2, 0, 0)
}
