//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/kimodri/form-filler/model"
)

// Tesseract wraps a gosseract client. A single client is not safe for
// concurrent use, so calls are serialized.
type Tesseract struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// NewTesseract creates a Tesseract engine.
// The engine should be closed when no longer needed to release resources.
func NewTesseract(config TesseractConfig) (*Tesseract, error) {
	client := gosseract.NewClient()

	langs := strings.Split(config.Languages, "+")
	if err := client.SetLanguage(langs...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language %q: %w", config.Languages, err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(config.PageSegMode)); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	return &Tesseract{client: client}, nil
}

// Close releases OCR resources.
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client != nil {
		err := t.client.Close()
		t.client = nil
		return err
	}
	return nil
}

// Recognize runs Tesseract over the image and returns one Word per
// recognized word with its block, paragraph and line numbers
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) ([]model.Word, error) {
	data, err := encodePNG(img)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client == nil {
		return nil, fmt.Errorf("tesseract engine is closed")
	}
	if err := t.client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := t.client.GetBoundingBoxesVerbose()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	words := make([]model.Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, model.Word{
			Text:       b.Word,
			Confidence: b.Confidence,
			Left:       b.Box.Min.X,
			Top:        b.Box.Min.Y,
			Width:      b.Box.Dx(),
			Height:     b.Box.Dy(),
			BlockNum:   b.BlockNum,
			ParNum:     b.ParNum,
			LineNum:    b.LineNum,
		})
	}
	return words, nil
}
