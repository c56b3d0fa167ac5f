// Package ocr provides the OCR engines that turn page images into word
// boxes for layout reconstruction.
//
// Three engines implement [Engine]:
//
//   - [Tesseract] - local Tesseract via gosseract, compiled only with the
//     "ocr" build tag. Without it every call returns [ErrOCRNotEnabled].
//   - [Vision] - Google Cloud Vision document text detection
//   - [HOCRFiles] - pre-computed hOCR output, one file per page
//
// Tesseract requires the engine to be installed on the system. On macOS:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr libtesseract-dev
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/kimodri/form-filler/model"
)

// ErrNoImage is returned when an engine is asked to read a nil image
var ErrNoImage = errors.New("ocr: no image")

// Engine recognizes the words on one page image. Word coordinates are pixels
// of img with the origin at its top-left corner.
type Engine interface {
	Recognize(ctx context.Context, img image.Image) ([]model.Word, error)
}

// EngineFunc adapts a function to the Engine interface
type EngineFunc func(ctx context.Context, img image.Image) ([]model.Word, error)

// Recognize calls f(ctx, img)
func (f EngineFunc) Recognize(ctx context.Context, img image.Image) ([]model.Word, error) {
	return f(ctx, img)
}

// encodePNG serializes an image for engines that take encoded bytes
func encodePNG(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, ErrNoImage
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode page image: %w", err)
	}
	return buf.Bytes(), nil
}
