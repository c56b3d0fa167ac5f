package raster

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// ImageFile is a single-page source backed by an image file
type ImageFile struct {
	path string
}

// NewImageFile creates a source for a PNG, JPEG, TIFF or BMP file
func NewImageFile(path string) *ImageFile {
	return &ImageFile{path: path}
}

// Pages decodes the file as the only page
func (s *ImageFile) Pages(ctx context.Context) ([]image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", s.path, err)
	}
	return []image.Image{img}, nil
}
