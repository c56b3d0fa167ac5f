package raster

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDF reads the scanned page images embedded in a PDF. Each page is expected
// to carry one scan; when a page has several images the largest is used.
// Vector-only pages are not rendered and yield ErrNoPages.
type PDF struct {
	path string
	conf *pdfmodel.Configuration
}

// NewPDF creates a source for a scanned PDF file
func NewPDF(path string) *PDF {
	return &PDF{path: path, conf: pdfmodel.NewDefaultConfiguration()}
}

// Pages extracts one image per page in page order
func (s *PDF) Pages(ctx context.Context) ([]image.Image, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	return s.read(ctx, f)
}

func (s *PDF) read(ctx context.Context, rs io.ReadSeeker) ([]image.Image, error) {
	pdfCtx, err := api.ReadContext(rs, s.conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF: %w", err)
	}
	if err := pdfCtx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to count PDF pages: %w", err)
	}
	pageCount := pdfCtx.PageCount
	if pageCount == 0 {
		return nil, ErrNoPages
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind PDF: %w", err)
	}
	extracted, err := api.ExtractImagesRaw(rs, nil, s.conf)
	if err != nil {
		return nil, fmt.Errorf("failed to extract page images: %w", err)
	}

	scans, err := pageScans(extracted, pageCount)
	if err != nil {
		return nil, err
	}

	pages := make([]image.Image, 0, pageCount)
	for i, raw := range scans {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, _, err := image.Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image on page %d (%s): %w", i+1, raw.FileType, err)
		}
		pages = append(pages, img)
	}
	return pages, nil
}

// pageScans picks the largest non-thumbnail image of every page, in page
// order. A page without one fails with ErrNoPages.
func pageScans(extracted []map[int]pdfmodel.Image, pageCount int) ([]pdfmodel.Image, error) {
	best := make(map[int]pdfmodel.Image)
	for _, images := range extracted {
		for _, img := range images {
			if img.Thumb || img.Reader == nil {
				continue
			}
			current, ok := best[img.PageNr]
			if !ok || img.Width*img.Height > current.Width*current.Height {
				best[img.PageNr] = img
			}
		}
	}

	scans := make([]pdfmodel.Image, 0, pageCount)
	for nr := 1; nr <= pageCount; nr++ {
		img, ok := best[nr]
		if !ok {
			return nil, fmt.Errorf("%w: page %d has no embedded scan", ErrNoPages, nr)
		}
		scans = append(scans, img)
	}
	return scans, nil
}
