//go:build !ocr

package ocr

import (
	"context"
	"image"

	"github.com/kimodri/form-filler/model"
)

// Tesseract is a stub engine that returns errors for all operations.
type Tesseract struct{}

// NewTesseract returns an error indicating OCR support is not enabled.
// To enable OCR, rebuild with: go build -tags ocr
func NewTesseract(config TesseractConfig) (*Tesseract, error) {
	return nil, ErrOCRNotEnabled
}

// Close is a no-op for the stub engine.
// It is safe to call on a nil engine.
func (t *Tesseract) Close() error {
	return nil
}

// Recognize returns an error indicating OCR support is not enabled.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) ([]model.Word, error) {
	return nil, ErrOCRNotEnabled
}
