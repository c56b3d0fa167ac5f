// integration.go provides one-call helpers around the Extractor
package formfiller

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/kimodri/form-filler/ocr"
	"github.com/kimodri/form-filler/render"
)

// ReadForm reads a form file and pairs its labels with their fill targets.
// Warnings are part of the report.
//
// Example:
//
//	report, err := formfiller.ReadForm(ctx, "form.pdf", engine)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, m := range report.Result.Mappings {
//	    fmt.Printf("%s -> %s\n", m.Key(), m.FillTargetBox)
//	}
func ReadForm(ctx context.Context, path string, engine ocr.Engine) (*Report, error) {
	report, _, err := Open(path).Engine(engine).Parse(ctx)
	return report, err
}

// FillForm fills a form file from a profile file
func FillForm(ctx context.Context, path, profilePath string, engine ocr.Engine) (*FillResult, error) {
	profile, err := render.LoadProfile(profilePath)
	if err != nil {
		return nil, err
	}
	filled, _, err := Open(path).Engine(engine).Fill(ctx, profile)
	return filled, err
}

// WritePages saves page images as PNG files named <base>-<n>.png in dir and
// returns their paths. Pages are numbered from 1.
func WritePages(dir, base string, pages []image.Image) ([]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("cannot create output directory %s: %w", dir, err)
	}

	base = strings.TrimSuffix(filepath.Base(base), filepath.Ext(base))
	paths := make([]string, 0, len(pages))
	for i, page := range pages {
		path := filepath.Join(dir, fmt.Sprintf("%s-%d.png", base, i+1))
		if err := writePNG(path, page); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return f.Close()
}
