package render

import (
	"image"
	"image/color"
	"strconv"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"

	"github.com/kimodri/form-filler/model"
)

// kindColors are the overlay colors per token kind
var kindColors = map[model.Kind]color.RGBA{
	model.FormTitle:    {R: 220, G: 20, B: 60, A: 255},
	model.SectionTitle: {R: 30, G: 90, B: 220, A: 255},
	model.FieldLabel:   {R: 20, G: 150, B: 60, A: 255},
	model.FieldSpace:   {R: 255, G: 140, B: 0, A: 255},
	model.Note:         {R: 120, G: 120, B: 120, A: 255},
}

// KindColor returns the overlay color of a token kind
func KindColor(kind model.Kind) color.RGBA {
	if c, ok := kindColors[kind]; ok {
		return c
	}
	return color.RGBA{A: 255}
}

// Annotate draws each token's box and kind over a copy of a page image.
// Tokens must be in the page's own coordinates (see model.Document.PageTokens).
func Annotate(page image.Image, tokens []model.Token) image.Image {
	dc := gg.NewContextForImage(page)
	dc.SetFontFace(truetype.NewFace(goRegular, &truetype.Options{Size: 14}))
	dc.SetLineWidth(2)

	for i, t := range tokens {
		c := KindColor(t.Kind)
		dc.SetColor(c)
		dc.DrawRectangle(float64(t.BBox.X), float64(t.BBox.Y), float64(t.BBox.W), float64(t.BBox.H))
		dc.Stroke()

		label := t.Kind.String()
		dc.DrawStringAnchored(strconv.Itoa(i)+" "+label, float64(t.BBox.X), float64(t.BBox.Y)-2, 0, 0)
	}
	return dc.Image()
}
