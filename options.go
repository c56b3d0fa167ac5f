package formfiller

import (
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kimodri/form-filler/layout"
	"github.com/kimodri/form-filler/lines"
	"github.com/kimodri/form-filler/ocr"
	"github.com/kimodri/form-filler/render"
)

// ExtractOptions holds configuration for reading a form.
type ExtractOptions struct {
	// Page selection (1-indexed in API, stored as-is)
	pages []int

	// Collaborators
	engine ocr.Engine
	lines  lines.Config

	// Token reconstruction
	tokenizer layout.TokenizerConfig

	// Processing options
	concurrency int
	retries     int
	retryDelay  time.Duration

	// Output
	filler   render.FillerConfig
	overlays bool

	logger logrus.FieldLogger
}

// defaultOptions returns the default extraction options.
func defaultOptions() ExtractOptions {
	return ExtractOptions{
		pages:       nil, // nil means all pages
		lines:       lines.DefaultConfig(),
		tokenizer:   layout.DefaultTokenizerConfig(),
		concurrency: runtime.GOMAXPROCS(0),
		retries:     0,
		retryDelay:  time.Second,
		filler:      render.DefaultFillerConfig(),
		overlays:    false,
		logger:      logrus.StandardLogger(),
	}
}

// clone creates a deep copy of ExtractOptions.
func (o ExtractOptions) clone() ExtractOptions {
	newOpts := o

	// Deep copy pages slice
	if o.pages != nil {
		newOpts.pages = make([]int, len(o.pages))
		copy(newOpts.pages, o.pages)
	}

	return newOpts
}
