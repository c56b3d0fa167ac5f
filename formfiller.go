// Package formfiller reads scanned paper forms and fills in their blanks.
//
// A form is OCR'd and its ruled lines detected page by page. The words and
// lines are rebuilt into a stream of classified tokens (form title, section
// titles, field labels, fill targets and notes), which is parsed against the
// form grammar to pair every label with the blank it belongs to.
//
// Basic usage:
//
//	report, warnings, err := formfiller.Open("form.pdf").
//	    Engine(engine).
//	    Parse(ctx)
//	if err != nil {
//	    // handle error
//	}
//	if len(warnings) > 0 {
//	    log.Println("Warnings:", formfiller.FormatWarnings(warnings))
//	}
//	for _, m := range report.Result.Mappings {
//	    fmt.Println(m.Key(), m.FillTargetBox)
//	}
//
// Filling from a profile:
//
//	profile, _ := render.LoadProfile("me.yaml")
//	filled, _, err := formfiller.Open("form.pdf").
//	    Engine(engine).
//	    RowTolerance(30).
//	    Fill(ctx, profile)
//
// The lower-level layout, grammar and render packages can be used directly.
package formfiller

import (
	"github.com/kimodri/form-filler/raster"
)

// Open returns an Extractor for a form file. The file is read when a
// terminal operation like Parse runs.
//
// Example:
//
//	report, warnings, err := formfiller.Open("form.pdf").Engine(engine).Parse(ctx)
func Open(filename string) *Extractor {
	return &Extractor{
		filename: filename,
		options:  defaultOptions(),
	}
}

// FromSource creates an Extractor over already available page images.
//
// Example:
//
//	src := raster.NewImages(page1, page2)
//	report, _, err := formfiller.FromSource(src).Engine(engine).Parse(ctx)
func FromSource(src raster.Source) *Extractor {
	return &Extractor{
		source:  src,
		options: defaultOptions(),
	}
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
//
// Example:
//
//	profile := formfiller.Must(render.LoadProfile("me.yaml"))
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}

// MustReport is like Must for the terminal operations that also return
// warnings. The warnings are discarded.
//
// Example:
//
//	report := formfiller.MustReport(formfiller.Open("form.png").Engine(engine).Parse(ctx))
func MustReport[T any](val T, _ []Warning, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
