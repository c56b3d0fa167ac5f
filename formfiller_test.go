package formfiller

import (
	"context"
	"errors"
	"image"
	"image/draw"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimodri/form-filler/grammar"
	"github.com/kimodri/form-filler/model"
	"github.com/kimodri/form-filler/ocr"
	"github.com/kimodri/form-filler/raster"
	"github.com/kimodri/form-filler/render"
)

const (
	pageWidth  = 1500
	pageHeight = 2000
)

// underlinedPage returns a blank page with one printed underline at
// x 250-650, y 505-513
func underlinedPage() *image.Gray {
	page := raster.Blank(pageWidth, pageHeight)
	draw.Draw(page, image.Rect(250, 505, 650, 513), image.Black, image.Point{}, draw.Src)
	return page
}

func word(text string, left, top, w, h, line int) model.Word {
	return model.Word{
		Text: text, Confidence: 92,
		Left: left, Top: top, Width: w, Height: h,
		BlockNum: 1, ParNum: 1, LineNum: line,
	}
}

// firstPageWords is a titled form with one section and one field
func firstPageWords() []model.Word {
	return []model.Word{
		word("Barangay", 300, 100, 250, 40, 1),
		word("Clearance", 560, 100, 260, 40, 1),
		word("Personal", 100, 400, 200, 30, 2),
		word("Data", 310, 400, 100, 30, 2),
		word("Name:", 100, 490, 120, 30, 3),
		word("Please", 100, 700, 60, 20, 4),
		word("print", 165, 700, 50, 20, 4),
	}
}

// pagedEngine serves fixed words per page
type pagedEngine struct {
	pages map[int][]model.Word
	calls atomic.Int32
}

func (e *pagedEngine) Recognize(ctx context.Context, img image.Image) ([]model.Word, error) {
	return nil, errors.New("page index required")
}

func (e *pagedEngine) RecognizePage(ctx context.Context, page int, img image.Image) ([]model.Word, error) {
	e.calls.Add(1)
	return e.pages[page], nil
}

func twoPageEngine() *pagedEngine {
	return &pagedEngine{pages: map[int][]model.Word{
		0: firstPageWords(),
		1: {word("Age:", 100, 490, 80, 30, 1)},
	}}
}

func twoPageSource() raster.Source {
	return raster.NewImages(underlinedPage(), underlinedPage())
}

func quietLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func TestOpenNonexistentFile(t *testing.T) {
	engine := ocr.EngineFunc(func(context.Context, image.Image) ([]model.Word, error) { return nil, nil })
	_, _, err := Open("nonexistent.png").Engine(engine).Parse(context.Background())
	assert.Error(t, err)
}

func TestParseRequiresEngine(t *testing.T) {
	_, _, err := FromSource(twoPageSource()).Parse(context.Background())
	assert.ErrorIs(t, err, ErrNoEngine)
}

func TestParse(t *testing.T) {
	engine := twoPageEngine()

	report, warnings, err := FromSource(twoPageSource()).
		Engine(engine).
		Concurrency(2).
		Logger(quietLogger()).
		Parse(context.Background())
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, int32(2), engine.calls.Load())

	assert.NotEqual(t, uuid.Nil, report.ID)
	assert.Equal(t, []model.Kind{
		model.FormTitle,
		model.SectionTitle,
		model.FieldLabel,
		model.FieldSpace,
		model.Note,
		model.FieldLabel,
		model.FieldSpace,
	}, model.Kinds(report.Document.Tokens))

	result := report.Result
	require.True(t, result.Accepted, result.Err())
	require.Len(t, result.Mappings, 2)

	name, age := result.Mappings[0], result.Mappings[1]
	assert.Equal(t, "Name:", name.Label)
	assert.Equal(t, "Personal Data", name.SectionTitle())
	assert.Equal(t, model.NewBBox(250, 505, 400, 8), name.FillTargetBox)

	assert.Equal(t, "Age:", age.Label)
	assert.Equal(t, "Personal Data", age.SectionTitle())
	assert.Equal(t, model.NewBBox(250, 505+pageHeight, 400, 8), age.FillTargetBox)
}

func TestParseIsDeterministic(t *testing.T) {
	ctx := context.Background()
	base := FromSource(twoPageSource()).Logger(quietLogger())

	a, _, err := base.Engine(twoPageEngine()).Concurrency(1).Parse(ctx)
	require.NoError(t, err)
	b, _, err := base.Engine(twoPageEngine()).Concurrency(4).Parse(ctx)
	require.NoError(t, err)

	assert.Equal(t, a.Document, b.Document)
	assert.Equal(t, a.Result.Mappings, b.Result.Mappings)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestConfigurationIsImmutable(t *testing.T) {
	base := FromSource(twoPageSource())
	derived := base.Pages(2).RowTolerance(10)

	assert.Nil(t, base.options.pages)
	assert.Equal(t, 40, base.options.tokenizer.ReadingOrderConfig.RowTolerance)
	assert.Equal(t, []int{2}, derived.options.pages)
	assert.Equal(t, 10, derived.options.tokenizer.ReadingOrderConfig.RowTolerance)
}

func TestInvalidConfiguration(t *testing.T) {
	ctx := context.Background()
	engine := twoPageEngine()

	tests := []struct {
		name string
		ext  *Extractor
	}{
		{"row tolerance", FromSource(twoPageSource()).RowTolerance(0)},
		{"gap threshold", FromSource(twoPageSource()).GapThreshold(-1)},
		{"concurrency", FromSource(twoPageSource()).Concurrency(0)},
		{"retries", FromSource(twoPageSource()).Retries(-1, time.Millisecond)},
		{"page range", FromSource(twoPageSource()).Pages(3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.ext.Engine(engine).Logger(quietLogger()).Parse(ctx)
			assert.Error(t, err)
		})
	}
}

func TestParseSelectedPage(t *testing.T) {
	report, warnings, err := FromSource(twoPageSource()).
		Engine(twoPageEngine()).
		Pages(2).
		Logger(quietLogger()).
		Parse(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Document.Pages, 1)
	assert.Equal(t, 1, report.Document.Pages[0].Index)
	assert.Equal(t, 505, report.Document.Tokens[1].BBox.Y)

	// no form title on the second page
	assert.False(t, report.Result.Accepted)
	assert.True(t, HasWarning(warnings, WarnNotAccepted))
	require.Len(t, report.Result.Mappings, 1)
	assert.ErrorIs(t, report.Result.Err(), grammar.ErrRejected)
}

func TestFirstPageTitleOnlyWithSelectedPages(t *testing.T) {
	engine := &pagedEngine{pages: map[int][]model.Word{
		0: {word("Cover", 100, 100, 120, 30, 1)},
		1: firstPageWords(),
		2: firstPageWords(),
	}}
	src := raster.NewImages(underlinedPage(), underlinedPage(), underlinedPage())
	ext := FromSource(src).Engine(engine).Pages(2, 3).Logger(quietLogger())

	report, _, err := ext.FirstPageTitleOnly().Parse(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Result.Accepted)
	assert.Len(t, report.Document.TokensOfKind(model.FormTitle), 1)
	assert.Len(t, report.Result.Mappings, 2)

	// both selected pages carry a title without the option
	report, _, err = ext.Parse(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Result.Accepted)
}

func TestBlankPageWarnings(t *testing.T) {
	engine := &pagedEngine{pages: map[int][]model.Word{0: firstPageWords()}}
	src := raster.NewImages(underlinedPage(), raster.Blank(pageWidth, pageHeight))

	_, warnings, err := FromSource(src).Engine(engine).Logger(quietLogger()).Tokenize(context.Background())
	require.NoError(t, err)

	require.Len(t, warnings, 2)
	assert.Equal(t, Warning{Code: WarnNoWords, Page: 2, Message: "no usable words (0 recognized)"}, warnings[0])
	assert.Equal(t, WarnNoFieldSpaces, warnings[1].Code)
	assert.Equal(t, "page 2: no usable words (0 recognized)\npage 2: no fill targets detected", FormatWarnings(warnings))
}

func TestRetries(t *testing.T) {
	var calls atomic.Int32
	flaky := ocr.EngineFunc(func(ctx context.Context, img image.Image) ([]model.Word, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("temporarily unavailable")
		}
		return firstPageWords(), nil
	})
	src := raster.NewImages(underlinedPage())

	_, _, err := FromSource(src).Engine(flaky).Logger(quietLogger()).Parse(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 1")

	calls.Store(0)
	report, _, err := FromSource(src).
		Engine(flaky).
		Retries(2, time.Millisecond).
		Logger(quietLogger()).
		Parse(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Result.Accepted)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOCRNotEnabledIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	disabled := ocr.EngineFunc(func(ctx context.Context, img image.Image) ([]model.Word, error) {
		calls.Add(1)
		return nil, ocr.ErrOCRNotEnabled
	})

	_, _, err := FromSource(raster.NewImages(underlinedPage())).
		Engine(disabled).
		Retries(5, time.Millisecond).
		Logger(quietLogger()).
		Parse(context.Background())

	assert.ErrorIs(t, err, ocr.ErrOCRNotEnabled)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := FromSource(twoPageSource()).Engine(twoPageEngine()).Logger(quietLogger()).Parse(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFill(t *testing.T) {
	profile := render.NewProfile(map[string]string{"Name": "Juan dela Cruz"})

	filled, warnings, err := FromSource(twoPageSource()).
		Engine(twoPageEngine()).
		Logger(quietLogger()).
		Fill(context.Background(), profile)
	require.NoError(t, err)

	assert.Equal(t, 1, filled.Drawn)
	require.Len(t, filled.Pages, 2)
	assert.Equal(t, image.Rect(0, 0, pageWidth, pageHeight), filled.Pages[0].Bounds())

	require.Len(t, warnings, 1)
	assert.Equal(t, WarnMissingValue, warnings[0].Code)
	assert.Equal(t, `no profile value for "Personal Data / Age"`, warnings[0].Message)
	assert.Equal(t, warnings, filled.Warnings)
}

func TestFillRejectedForm(t *testing.T) {
	profile := render.NewProfile(map[string]string{"Age": "34"})
	ext := FromSource(twoPageSource()).Engine(twoPageEngine()).Pages(2).Logger(quietLogger())

	refused, _, err := ext.Fill(context.Background(), profile)
	assert.ErrorIs(t, err, grammar.ErrRejected)
	require.NotNil(t, refused)
	assert.False(t, refused.Result.Accepted)
	assert.Empty(t, refused.Pages)

	filled, _, err := ext.AllowPartial().Fill(context.Background(), profile)
	require.NoError(t, err)
	assert.Equal(t, 1, filled.Drawn)
	require.Len(t, filled.Pages, 1)
}

func TestAnnotate(t *testing.T) {
	overlays, _, err := FromSource(twoPageSource()).
		Engine(twoPageEngine()).
		Logger(quietLogger()).
		Annotate(context.Background())
	require.NoError(t, err)

	require.Len(t, overlays, 2)
	for _, o := range overlays {
		assert.Equal(t, image.Rect(0, 0, pageWidth, pageHeight), o.Bounds())
	}

	report, _, err := FromSource(twoPageSource()).
		Engine(twoPageEngine()).
		Overlays().
		Logger(quietLogger()).
		Parse(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.Overlays, 2)
}

func TestPageCount(t *testing.T) {
	n, err := FromSource(twoPageSource()).PageCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLogging(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	_, _, err := FromSource(twoPageSource()).Engine(twoPageEngine()).Logger(logger).Parse(context.Background())
	require.NoError(t, err)

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, "parsed form", last.Message)
	assert.Equal(t, "parse", last.Data["stage"])
	assert.Equal(t, 7, last.Data["tokens"])

	var pages []any
	for _, entry := range hook.AllEntries() {
		if entry.Message == "tokenized page" {
			pages = append(pages, entry.Data["page"])
		}
	}
	assert.ElementsMatch(t, []any{1, 2}, pages)
}

func TestWritePages(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := WritePages(dir, "forms/clearance.pdf", []image.Image{underlinedPage(), underlinedPage()})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "clearance-1.png"),
		filepath.Join(dir, "clearance-2.png"),
	}, paths)
	for _, p := range paths {
		f, err := os.Open(p)
		require.NoError(t, err)
		cfg, _, err := image.DecodeConfig(f)
		f.Close()
		require.NoError(t, err)
		assert.Equal(t, pageWidth, cfg.Width)
	}
}

func TestMust(t *testing.T) {
	assert.Equal(t, 3, Must(3, nil))
	assert.Panics(t, func() { Must(0, errors.New("boom")) })
	assert.Panics(t, func() { MustReport[*Report](nil, nil, errors.New("boom")) })
}
