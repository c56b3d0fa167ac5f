package ocr

import (
	"context"
	"fmt"
	"image"
	"math"
	"strings"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	gax "github.com/googleapis/gax-go/v2"

	"github.com/kimodri/form-filler/model"
)

// VisionClient is the subset of vision.ImageAnnotatorClient the engine uses.
// Ref: https://pkg.go.dev/cloud.google.com/go/vision/apiv1
type VisionClient interface {
	DetectDocumentText(ctx context.Context, image *visionpb.Image, imageContext *visionpb.ImageContext, opts ...gax.CallOption) (*visionpb.TextAnnotation, error)
}

// VisionConfig holds configuration for the Cloud Vision engine
type VisionConfig struct {
	// LanguageHints are BCP-47 codes passed to the API, e.g. "en", "fil"
	LanguageHints []string
}

// Vision recognizes words with Google Cloud Vision document text detection
type Vision struct {
	client VisionClient
	config VisionConfig
}

// NewVision creates a Vision engine over an annotator client
func NewVision(client VisionClient) *Vision {
	return &Vision{client: client}
}

// NewVisionWithConfig creates a Vision engine with custom configuration
func NewVisionWithConfig(client VisionClient, config VisionConfig) *Vision {
	return &Vision{client: client, config: config}
}

// Recognize sends the page image to Cloud Vision and converts the response.
// Blocks and paragraphs are numbered in response order; line numbers restart
// in every paragraph and advance after a word ending in a line break.
func (v *Vision) Recognize(ctx context.Context, img image.Image) ([]model.Word, error) {
	data, err := encodePNG(img)
	if err != nil {
		return nil, err
	}

	var imageContext *visionpb.ImageContext
	if len(v.config.LanguageHints) > 0 {
		imageContext = &visionpb.ImageContext{LanguageHints: v.config.LanguageHints}
	}

	annotation, err := v.client.DetectDocumentText(ctx, &visionpb.Image{Content: data}, imageContext)
	if err != nil {
		return nil, fmt.Errorf("vision document text detection failed: %w", err)
	}

	return wordsFromAnnotation(annotation), nil
}

// wordsFromAnnotation flattens a TextAnnotation into OCR words
func wordsFromAnnotation(annotation *visionpb.TextAnnotation) []model.Word {
	var words []model.Word
	blockNum := 0

	for _, page := range annotation.GetPages() {
		for _, block := range page.GetBlocks() {
			blockNum++
			for p, paragraph := range block.GetParagraphs() {
				line := 1
				for _, word := range paragraph.GetWords() {
					left, top, right, bottom := polyBounds(word.GetBoundingBox())
					words = append(words, model.Word{
						Text:       wordText(word),
						Confidence: float64(word.GetConfidence()) * 100,
						Left:       left,
						Top:        top,
						Width:      right - left,
						Height:     bottom - top,
						BlockNum:   blockNum,
						ParNum:     p + 1,
						LineNum:    line,
					})
					if endsLine(word) {
						line++
					}
				}
			}
		}
	}
	return words
}

func wordText(word *visionpb.Word) string {
	var sb strings.Builder
	for _, symbol := range word.GetSymbols() {
		sb.WriteString(symbol.GetText())
	}
	return sb.String()
}

// endsLine reports whether the word's last symbol carries a line break
func endsLine(word *visionpb.Word) bool {
	symbols := word.GetSymbols()
	if len(symbols) == 0 {
		return false
	}
	switch symbols[len(symbols)-1].GetProperty().GetDetectedBreak().GetType() {
	case visionpb.TextAnnotation_DetectedBreak_LINE_BREAK,
		visionpb.TextAnnotation_DetectedBreak_EOL_SURE_SPACE:
		return true
	default:
		return false
	}
}

// polyBounds returns the axis-aligned bounds of a bounding polygon
func polyBounds(poly *visionpb.BoundingPoly) (left, top, right, bottom int) {
	vertices := poly.GetVertices()
	if len(vertices) == 0 {
		return 0, 0, 0, 0
	}

	minX, minY := int32(math.MaxInt32), int32(math.MaxInt32)
	maxX, maxY := int32(0), int32(0)
	for _, vertex := range vertices {
		minX = min(minX, vertex.GetX())
		minY = min(minY, vertex.GetY())
		maxX = max(maxX, vertex.GetX())
		maxY = max(maxY, vertex.GetY())
	}
	return int(minX), int(minY), int(maxX), int(maxY)
}
