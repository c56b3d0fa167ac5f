// Package raster supplies page images of a form in source page order.
//
// [Open] picks a [Source] by file extension, falling back to magic bytes:
// scanned PDFs are read with pdfcpu, one embedded scan per page, and
// PNG, JPEG, TIFF and BMP files are single-page sources.
package raster

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/kimodri/form-filler/format"
)

var (
	// ErrUnsupportedFormat is returned for inputs that are not page images
	ErrUnsupportedFormat = errors.New("raster: unsupported input format")

	// ErrNoPages is returned when a source yields no usable page image
	ErrNoPages = errors.New("raster: no page images")
)

// Source yields the page images of one document
type Source interface {
	Pages(ctx context.Context) ([]image.Image, error)
}

// Open returns the source for a file path
func Open(path string) (Source, error) {
	f, err := detect(path)
	if err != nil {
		return nil, err
	}

	switch {
	case f == format.PDF:
		return NewPDF(path), nil
	case f.IsImage():
		return NewImageFile(path), nil
	default:
		return nil, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, path, f)
	}
}

// detect uses the extension and falls back to the file content
func detect(path string) (format.Format, error) {
	if f := format.Detect(path); f != format.Unknown {
		return f, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return format.Unknown, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return format.DetectFromReader(file)
}

// Images is an in-memory source
type Images []image.Image

// NewImages creates a source over already decoded pages
func NewImages(pages ...image.Image) Images {
	return Images(pages)
}

// Pages returns the images
func (s Images) Pages(ctx context.Context) ([]image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s) == 0 {
		return nil, ErrNoPages
	}
	for i, img := range s {
		if img == nil {
			return nil, fmt.Errorf("%w: page %d is missing", ErrNoPages, i+1)
		}
	}
	return []image.Image(s), nil
}
