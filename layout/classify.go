package layout

import (
	"sort"
	"strings"

	"github.com/kimodri/form-filler/model"
)

// ClassifierConfig holds configuration for title classification
type ClassifierConfig struct {
	// TopRegion is the band from the top of the page, in pixels, a form
	// title must start in (default: 350)
	TopRegion int

	// TopmostTolerance is how far below the topmost NOTE a form title may
	// start (default: 50)
	TopmostTolerance int

	// FormTitleHeightRatio is the minimum height relative to the median
	// NOTE height (default: 0.90)
	FormTitleHeightRatio float64

	// FormTitleWidthRatio is the minimum width relative to the page width (default: 0.20)
	FormTitleWidthRatio float64

	// FormTitleMinWords is the minimum word count of a form title (default: 2)
	FormTitleMinWords int

	// SectionHeightRatio is the minimum height relative to the median NOTE
	// height (default: 0.75)
	SectionHeightRatio float64

	// SectionWidthRatio is the minimum width relative to the page width (default: 0.20)
	SectionWidthRatio float64

	// SectionMaxWords is the maximum word count of a section title (default: 6)
	SectionMaxWords int

	// FirstPageTitleOnly restricts FORM_TITLE to the first page read, which
	// is not necessarily page index 0 when pages are selected
	FirstPageTitleOnly bool
}

// DefaultClassifierConfig returns sensible default configuration
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		TopRegion:            350,
		TopmostTolerance:     50,
		FormTitleHeightRatio: 0.90,
		FormTitleWidthRatio:  0.20,
		FormTitleMinWords:    2,
		SectionHeightRatio:   0.75,
		SectionWidthRatio:    0.20,
		SectionMaxWords:      6,
	}
}

// Classifier re-labels NOTE tokens as FORM_TITLE or SECTION_TITLE
type Classifier struct {
	config ClassifierConfig
}

// NewClassifier creates a classifier with default configuration
func NewClassifier() *Classifier {
	return &Classifier{config: DefaultClassifierConfig()}
}

// NewClassifierWithConfig creates a classifier with custom configuration
func NewClassifierWithConfig(config ClassifierConfig) *Classifier {
	return &Classifier{config: config}
}

// pageMetrics holds the per-page statistics the rules compare against
type pageMetrics struct {
	medianHeight float64
	topmost      int
	pageWidth    float64
}

// Classify returns a new slice with titles re-tagged. The input is not
// modified. A page without NOTE tokens is returned unchanged. first reports
// whether page is the first page of the document being read.
func (c *Classifier) Classify(tokens []model.Token, page model.PageInfo, first bool) []model.Token {
	out := make([]model.Token, len(tokens))
	copy(out, tokens)

	metrics, ok := c.measure(tokens, page)
	if !ok {
		return out
	}

	allowTitle := !c.config.FirstPageTitleOnly || first
	titled := false

	for i, t := range out {
		if t.Kind != model.Note {
			continue
		}
		switch {
		case allowTitle && !titled && c.isFormTitle(t, metrics):
			out[i] = t.WithKind(model.FormTitle)
			titled = true
		case c.isSectionTitle(t, metrics):
			out[i] = t.WithKind(model.SectionTitle)
		}
	}

	return out
}

// measure computes the median NOTE height and the topmost NOTE edge
func (c *Classifier) measure(tokens []model.Token, page model.PageInfo) (pageMetrics, bool) {
	var heights []int
	topmost := 0
	for _, t := range tokens {
		if t.Kind != model.Note {
			continue
		}
		if len(heights) == 0 || t.BBox.Top() < topmost {
			topmost = t.BBox.Top()
		}
		heights = append(heights, t.BBox.H)
	}

	if len(heights) == 0 {
		return pageMetrics{}, false
	}

	return pageMetrics{
		medianHeight: median(heights),
		topmost:      topmost,
		pageWidth:    float64(page.Width),
	}, true
}

func (c *Classifier) isFormTitle(t model.Token, m pageMetrics) bool {
	top := t.BBox.Top()
	if abs(top-m.topmost) >= c.config.TopmostTolerance {
		return false
	}
	if top >= c.config.TopRegion {
		return false
	}
	return float64(t.BBox.H) >= c.config.FormTitleHeightRatio*m.medianHeight &&
		float64(t.BBox.W) >= c.config.FormTitleWidthRatio*m.pageWidth &&
		t.WordCount() >= c.config.FormTitleMinWords
}

func (c *Classifier) isSectionTitle(t model.Token, m pageMetrics) bool {
	return float64(t.BBox.H) >= c.config.SectionHeightRatio*m.medianHeight &&
		float64(t.BBox.W) >= c.config.SectionWidthRatio*m.pageWidth &&
		t.WordCount() <= c.config.SectionMaxWords &&
		!strings.HasSuffix(strings.TrimSpace(t.Value), ":")
}

// median returns the median of values; even counts average the middle pair
func median(values []int) float64 {
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return float64(sorted[n/2])
	}
	return float64(sorted[n/2-1]+sorted[n/2]) / 2
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
