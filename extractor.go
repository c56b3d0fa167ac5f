package formfiller

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/kimodri/form-filler/grammar"
	"github.com/kimodri/form-filler/layout"
	"github.com/kimodri/form-filler/lines"
	"github.com/kimodri/form-filler/model"
	"github.com/kimodri/form-filler/ocr"
	"github.com/kimodri/form-filler/raster"
	"github.com/kimodri/form-filler/render"
)

// ErrNoEngine is returned by terminal operations when no OCR engine is set
var ErrNoEngine = errors.New("formfiller: no OCR engine configured")

// Extractor provides a fluent interface for reading and filling forms.
// Each configuration method returns a new Extractor instance, making it
// safe for concurrent use and allowing method chaining.
type Extractor struct {
	// Source
	filename string
	source   raster.Source

	// Configuration
	options ExtractOptions

	// Accumulated error (fail-fast)
	err error
}

// Report is the outcome of reading one form
type Report struct {
	ID       uuid.UUID       `json:"id"`
	Source   string          `json:"source,omitempty"`
	Document *model.Document `json:"document"`
	Result   *grammar.Result `json:"result"`
	Warnings []Warning       `json:"warnings"`

	// Overlays are the processed pages with their tokens drawn in, set
	// when the Extractor was configured with Overlays
	Overlays []image.Image `json:"-"`
}

// FillResult is a report together with the filled page images
type FillResult struct {
	*Report

	// Pages are the processed pages with values drawn in, in page order
	Pages []image.Image `json:"-"`

	// Drawn counts the values written
	Drawn int `json:"drawn"`
}

// pageOutput holds what the pipeline produced for one page
type pageOutput struct {
	image  image.Image
	result layout.PageResult
}

// readout is one pass of the pipeline over a document
type readout struct {
	pages    []pageOutput
	doc      *model.Document
	result   *grammar.Result
	warnings []Warning
}

// clone creates a shallow copy of the Extractor with a deep copy of options.
func (e *Extractor) clone() *Extractor {
	return &Extractor{
		filename: e.filename,
		source:   e.source,
		options:  e.options.clone(),
		err:      e.err,
	}
}

// ============================================================================
// Configuration Methods (return new Extractor instance)
// ============================================================================

// Pages specifies which pages to read (1-indexed).
// Multiple calls are cumulative.
//
// Example:
//
//	report, _, err := formfiller.Open("form.pdf").Engine(engine).Pages(1, 2).Parse(ctx)
func (e *Extractor) Pages(pages ...int) *Extractor {
	newExt := e.clone()
	newExt.options.pages = append(newExt.options.pages, pages...)
	return newExt
}

// PageRange specifies a range of pages to read (1-indexed, inclusive).
func (e *Extractor) PageRange(start, end int) *Extractor {
	newExt := e.clone()
	for i := start; i <= end; i++ {
		newExt.options.pages = append(newExt.options.pages, i)
	}
	return newExt
}

// Engine sets the OCR engine. Engines that implement ocr.PageRecognizer are
// told which page they are reading.
func (e *Extractor) Engine(engine ocr.Engine) *Extractor {
	newExt := e.clone()
	newExt.options.engine = engine
	return newExt
}

// LineDetection sets the ruled line detector configuration
func (e *Extractor) LineDetection(config lines.Config) *Extractor {
	newExt := e.clone()
	newExt.options.lines = config
	return newExt
}

// TokenizerConfig replaces the whole token reconstruction configuration
func (e *Extractor) TokenizerConfig(config layout.TokenizerConfig) *Extractor {
	newExt := e.clone()
	newExt.options.tokenizer = config
	return newExt
}

// RowTolerance sets the vertical distance in pixels within which tokens are
// read as one row
func (e *Extractor) RowTolerance(px int) *Extractor {
	newExt := e.clone()
	if px <= 0 {
		newExt.err = fmt.Errorf("row tolerance must be positive, got %d", px)
		return newExt
	}
	newExt.options.tokenizer.ReadingOrderConfig.RowTolerance = px
	return newExt
}

// AnchorPolicy sets how a row's reference height moves as tokens join it
func (e *Extractor) AnchorPolicy(policy layout.AnchorPolicy) *Extractor {
	newExt := e.clone()
	newExt.options.tokenizer.ReadingOrderConfig.Anchor = policy
	return newExt
}

// GapThreshold sets the horizontal gap in pixels that splits a line into
// separate phrases
func (e *Extractor) GapThreshold(px int) *Extractor {
	newExt := e.clone()
	if px <= 0 {
		newExt.err = fmt.Errorf("gap threshold must be positive, got %d", px)
		return newExt
	}
	newExt.options.tokenizer.PhraseConfig.GapThreshold = px
	return newExt
}

// MinSpaceWidth sets the minimum width of a fill target. Values outside
// [layout.MinSpaceWidthLower, layout.MinSpaceWidthUpper] are clamped.
func (e *Extractor) MinSpaceWidth(px int) *Extractor {
	newExt := e.clone()
	newExt.options.tokenizer.SpaceConfig.MinWidth = px
	return newExt
}

// FirstPageTitleOnly allows a form title only on the first page read
func (e *Extractor) FirstPageTitleOnly() *Extractor {
	newExt := e.clone()
	newExt.options.tokenizer.ClassifierConfig.FirstPageTitleOnly = true
	return newExt
}

// Concurrency sets how many pages are processed at once
func (e *Extractor) Concurrency(n int) *Extractor {
	newExt := e.clone()
	if n < 1 {
		newExt.err = fmt.Errorf("concurrency must be at least 1, got %d", n)
		return newExt
	}
	newExt.options.concurrency = n
	return newExt
}

// Retries sets how often a failed OCR call is retried and the pause
// between attempts
func (e *Extractor) Retries(n int, delay time.Duration) *Extractor {
	newExt := e.clone()
	if n < 0 {
		newExt.err = fmt.Errorf("retries cannot be negative, got %d", n)
		return newExt
	}
	newExt.options.retries = n
	newExt.options.retryDelay = delay
	return newExt
}

// Logger sets the logger used for pipeline progress
func (e *Extractor) Logger(logger logrus.FieldLogger) *Extractor {
	newExt := e.clone()
	if logger != nil {
		newExt.options.logger = logger
	}
	return newExt
}

// FillerConfig sets the configuration used by Fill
func (e *Extractor) FillerConfig(config render.FillerConfig) *Extractor {
	newExt := e.clone()
	newExt.options.filler = config
	return newExt
}

// Overlays adds annotated page images to every report
func (e *Extractor) Overlays() *Extractor {
	newExt := e.clone()
	newExt.options.overlays = true
	return newExt
}

// AllowPartial lets Fill write the fields of a form that did not parse
func (e *Extractor) AllowPartial() *Extractor {
	newExt := e.clone()
	newExt.options.filler.AllowPartial = true
	return newExt
}

// ============================================================================
// Terminal Operations
// ============================================================================

// PageCount returns the number of pages in the source
func (e *Extractor) PageCount(ctx context.Context) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	images, err := e.loadPages(ctx)
	if err != nil {
		return 0, err
	}
	return len(images), nil
}

// Tokenize returns the global token stream of the form.
// Warnings indicate non-fatal issues such as pages without words.
func (e *Extractor) Tokenize(ctx context.Context) (*model.Document, []Warning, error) {
	r, err := e.run(ctx)
	if err != nil {
		return nil, nil, err
	}
	return r.doc, r.warnings, nil
}

// Parse reads the form and pairs every field label with its fill target.
// A form that does not parse is not an error: the report's Result says
// why, and holds the mappings recovered around the errors.
//
// Example:
//
//	report, warnings, err := formfiller.Open("form.pdf").Engine(engine).Parse(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !report.Result.Accepted {
//	    log.Println(report.Result.Err())
//	}
func (e *Extractor) Parse(ctx context.Context) (*Report, []Warning, error) {
	r, err := e.run(ctx)
	if err != nil {
		return nil, nil, err
	}
	return e.report(r), r.warnings, nil
}

// Fill reads the form and draws the profile's values into its blanks.
// Fields without a profile value are reported as warnings. When the form
// was read but could not be filled, the result still carries its report.
//
// Example:
//
//	filled, warnings, err := formfiller.Open("form.pdf").Engine(engine).Fill(ctx, profile)
func (e *Extractor) Fill(ctx context.Context, profile *render.Profile) (*FillResult, []Warning, error) {
	if profile == nil {
		return nil, nil, errors.New("no profile given")
	}
	r, err := e.run(ctx)
	if err != nil {
		return nil, nil, err
	}

	filler, err := render.NewFillerWithConfig(e.options.filler)
	if err != nil {
		return nil, nil, err
	}
	filled, err := filler.Fill(r.images(), r.doc, r.result, profile)
	if err != nil {
		return &FillResult{Report: e.report(r)}, r.warnings, err
	}

	warnings := append([]Warning(nil), r.warnings...)
	for _, m := range filled.Missing {
		label := m.Key
		if m.Section != "" {
			label = m.Section + " / " + m.Key
		}
		warnings = append(warnings, Warning{
			Code:    WarnMissingValue,
			Message: fmt.Sprintf("no profile value for %q", label),
		})
	}

	e.options.logger.WithFields(logrus.Fields{
		"stage":   "fill",
		"drawn":   filled.Drawn,
		"missing": len(filled.Missing),
	}).Info("filled form")

	report := e.report(r)
	report.Warnings = warnings
	return &FillResult{Report: report, Pages: filled.Pages, Drawn: filled.Drawn}, warnings, nil
}

// Annotate reads the form and returns each processed page with its tokens
// drawn over it, for inspecting what was recognized.
func (e *Extractor) Annotate(ctx context.Context) ([]image.Image, []Warning, error) {
	r, err := e.run(ctx)
	if err != nil {
		return nil, nil, err
	}

	return r.overlays(), r.warnings, nil
}

// ============================================================================
// Internal helpers
// ============================================================================

// run executes the pipeline: page images, per-page OCR, line detection and
// token reconstruction in parallel, then assembly and parsing in page order.
func (e *Extractor) run(ctx context.Context) (*readout, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.options.engine == nil {
		return nil, ErrNoEngine
	}

	images, err := e.loadPages(ctx)
	if err != nil {
		return nil, err
	}
	indices, err := e.resolvePages(len(images))
	if err != nil {
		return nil, err
	}

	log := e.options.logger.WithFields(logrus.Fields{
		"source": e.name(),
		"pages":  len(indices),
	})
	log.Debug("reading form")

	outputs, err := e.processPages(ctx, images, indices)
	if err != nil {
		return nil, err
	}

	results := make([]layout.PageResult, len(outputs))
	for i, o := range outputs {
		results[i] = o.result
	}
	doc := layout.Assemble(layout.PageTokensOf(results))
	result := grammar.Parse(doc.Tokens)

	r := &readout{pages: outputs, doc: doc, result: result}
	for _, o := range outputs {
		r.warnings = append(r.warnings, pageWarnings(o.result)...)
	}
	if !result.Accepted && len(result.Errors) > 0 {
		r.warnings = append(r.warnings, Warning{
			Code:    WarnNotAccepted,
			Message: fmt.Sprintf("form did not parse (%d errors): %s", len(result.Errors), result.Errors[0].Error()),
		})
	}

	log.WithFields(logrus.Fields{
		"stage":    "parse",
		"tokens":   len(doc.Tokens),
		"mappings": len(result.Mappings),
		"accepted": result.Accepted,
	}).Info("parsed form")

	return r, nil
}

// processPages runs the per-page stages concurrently. Results are stored by
// position so the output order never depends on scheduling.
func (e *Extractor) processPages(ctx context.Context, images []image.Image, indices []int) ([]pageOutput, error) {
	tokenizer := layout.NewTokenizerWithConfig(e.options.tokenizer)
	detector := lines.NewDetectorWithConfig(e.options.lines)

	outputs := make([]pageOutput, len(indices))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.options.concurrency)

	for i, index := range indices {
		i, index := i, index
		g.Go(func() error {
			out, err := e.processPage(gctx, tokenizer, detector, index, i == 0, images[index])
			if err != nil {
				return fmt.Errorf("page %d: %w", index+1, err)
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}

// processPage turns one page image into its page-local tokens
func (e *Extractor) processPage(ctx context.Context, tokenizer *layout.Tokenizer, detector *lines.Detector, index int, first bool, img image.Image) (pageOutput, error) {
	log := e.options.logger.WithField("page", index+1)

	bounds := img.Bounds()
	info := model.PageInfo{Index: index, Width: bounds.Dx(), Height: bounds.Dy()}

	words, err := e.recognize(ctx, index, img)
	if err != nil {
		return pageOutput{}, err
	}
	log.WithFields(logrus.Fields{"stage": "ocr", "words": len(words)}).Debug("recognized page")

	contours := detector.Detect(img)
	log.WithFields(logrus.Fields{"stage": "lines", "contours": len(contours)}).Debug("detected lines")

	result := tokenizer.TokenizePage(layout.PageInput{Page: info, Words: words, Contours: contours, First: first})

	stats := result.Stats
	if dropped := stats.Words.Input - stats.Words.Kept; dropped > 0 {
		log.WithFields(logrus.Fields{
			"stage":          "filter",
			"low_confidence": stats.Words.LowConfidence,
			"empty":          stats.Words.Empty,
			"degenerate_box": stats.Words.DegenerateBox,
		}).Debug("dropped words")
	}
	if stats.Degenerate > 0 {
		log.WithFields(logrus.Fields{"stage": "merge", "dropped": stats.Degenerate}).Debug("dropped degenerate tokens")
	}
	if stats.NoNoteTokens {
		log.WithField("stage", "classify").Debug("no phrases to classify")
	}
	log.WithFields(logrus.Fields{"stage": "tokenize", "tokens": len(result.Tokens)}).Debug("tokenized page")

	return pageOutput{image: img, result: result}, nil
}

// recognize calls the OCR engine, retrying transient failures
func (e *Extractor) recognize(ctx context.Context, index int, img image.Image) ([]model.Word, error) {
	engine := e.options.engine

	operation := func() ([]model.Word, error) {
		var (
			words []model.Word
			err   error
		)
		if pr, ok := engine.(ocr.PageRecognizer); ok {
			words, err = pr.RecognizePage(ctx, index, img)
		} else {
			words, err = engine.Recognize(ctx, img)
		}
		if err != nil && (errors.Is(err, ocr.ErrOCRNotEnabled) || ctx.Err() != nil) {
			return nil, backoff.Permanent(err)
		}
		return words, err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(e.options.retryDelay), uint64(e.options.retries)),
		ctx,
	)
	notify := func(err error, wait time.Duration) {
		e.options.logger.WithFields(logrus.Fields{
			"page":  index + 1,
			"stage": "ocr",
			"retry": wait,
		}).WithError(err).Warn("OCR failed, retrying")
	}

	words, err := backoff.RetryNotifyWithData(operation, policy, notify)
	if err != nil {
		return nil, fmt.Errorf("ocr failed: %w", err)
	}
	return words, nil
}

// loadPages returns every page image of the source
func (e *Extractor) loadPages(ctx context.Context) ([]image.Image, error) {
	src := e.source
	if src == nil {
		if e.filename == "" {
			return nil, fmt.Errorf("no filename specified")
		}
		var err error
		src, err = raster.Open(e.filename)
		if err != nil {
			return nil, fmt.Errorf("failed to open form: %w", err)
		}
	}

	images, err := src.Pages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read pages: %w", err)
	}
	if len(images) == 0 {
		return nil, raster.ErrNoPages
	}
	return images, nil
}

// resolvePages converts 1-indexed page numbers to 0-indexed and validates them.
// If no pages specified, returns all pages.
func (e *Extractor) resolvePages(pageCount int) ([]int, error) {
	if len(e.options.pages) == 0 {
		indices := make([]int, pageCount)
		for i := range indices {
			indices[i] = i
		}
		return indices, nil
	}

	seen := make(map[int]bool)
	var indices []int
	for _, p := range e.options.pages {
		if p < 1 || p > pageCount {
			return nil, fmt.Errorf("page %d out of range (1-%d)", p, pageCount)
		}
		if !seen[p-1] {
			seen[p-1] = true
			indices = append(indices, p-1)
		}
	}

	sort.Ints(indices)
	return indices, nil
}

// report builds the report of a run
func (e *Extractor) report(r *readout) *Report {
	report := &Report{
		ID:       uuid.New(),
		Source:   e.filename,
		Document: r.doc,
		Result:   r.result,
		Warnings: nonNilWarnings(r.warnings),
	}
	if e.options.overlays {
		report.Overlays = r.overlays()
	}
	return report
}

// name identifies the source in log fields
func (e *Extractor) name() string {
	if e.filename != "" {
		return e.filename
	}
	return "memory"
}

// images returns the processed page images in page order
func (r *readout) images() []image.Image {
	out := make([]image.Image, len(r.pages))
	for i, p := range r.pages {
		out[i] = p.image
	}
	return out
}

// overlays draws each processed page's tokens over its image
func (r *readout) overlays() []image.Image {
	out := make([]image.Image, len(r.pages))
	for i, p := range r.pages {
		out[i] = render.Annotate(p.image, r.doc.PageTokens(p.result.Page.Index))
	}
	return out
}

// pageWarnings converts a page's reconstruction stats into warnings
func pageWarnings(result layout.PageResult) []Warning {
	page := result.Page.Index + 1
	stats := result.Stats

	var warnings []Warning
	if stats.Words.Kept == 0 {
		warnings = append(warnings, Warning{
			Code:    WarnNoWords,
			Page:    page,
			Message: fmt.Sprintf("no usable words (%d recognized)", stats.Words.Input),
		})
	}
	if stats.Spaces == 0 {
		warnings = append(warnings, Warning{
			Code:    WarnNoFieldSpaces,
			Page:    page,
			Message: "no fill targets detected",
		})
	}
	if stats.Degenerate > 0 {
		warnings = append(warnings, Warning{
			Code:    WarnDroppedTokens,
			Page:    page,
			Message: fmt.Sprintf("dropped %d degenerate tokens", stats.Degenerate),
		})
	}
	return warnings
}

func nonNilWarnings(warnings []Warning) []Warning {
	if warnings == nil {
		return []Warning{}
	}
	return warnings
}
