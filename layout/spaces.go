package layout

import (
	"sort"

	"github.com/kimodri/form-filler/model"
)

// Bounds accepted for SpaceConfig.MinWidth
const (
	MinSpaceWidthLower = 27
	MinSpaceWidthUpper = 100
)

// SpaceConfig holds configuration for visual field-space detection
type SpaceConfig struct {
	// MinWidth is the exclusive minimum contour width in pixels (default: 100).
	// Values are clamped to [MinSpaceWidthLower, MinSpaceWidthUpper].
	MinWidth int

	// MinHeight is the exclusive minimum contour height in pixels (default: 5)
	MinHeight int

	// RowBucket is the vertical bucket size used for the row pre-sort (default: 10)
	RowBucket int
}

// DefaultSpaceConfig returns sensible default configuration
func DefaultSpaceConfig() SpaceConfig {
	return SpaceConfig{
		MinWidth:  100,
		MinHeight: 5,
		RowBucket: 10,
	}
}

// SpaceDetector turns line contours into FIELD_SPACE tokens
type SpaceDetector struct {
	config SpaceConfig
}

// NewSpaceDetector creates a space detector with default configuration
func NewSpaceDetector() *SpaceDetector {
	return NewSpaceDetectorWithConfig(DefaultSpaceConfig())
}

// NewSpaceDetectorWithConfig creates a space detector with custom configuration
func NewSpaceDetectorWithConfig(config SpaceConfig) *SpaceDetector {
	config.MinWidth = min(max(config.MinWidth, MinSpaceWidthLower), MinSpaceWidthUpper)
	if config.RowBucket <= 0 {
		config.RowBucket = 1
	}
	return &SpaceDetector{config: config}
}

// Detect keeps contours wide and tall enough to be blanks and returns them
// as FIELD_SPACE tokens sorted by (top / RowBucket, left)
func (d *SpaceDetector) Detect(contours []model.Contour, page int) []model.Token {
	var tokens []model.Token
	for _, c := range contours {
		if c.W > d.config.MinWidth && c.H > d.config.MinHeight {
			tokens = append(tokens, model.NewFieldSpace(c.BBox(), page))
		}
	}

	bucket := d.config.RowBucket
	sort.SliceStable(tokens, func(i, j int) bool {
		ri, rj := tokens[i].BBox.Y/bucket, tokens[j].BBox.Y/bucket
		if ri != rj {
			return ri < rj
		}
		return tokens[i].BBox.X < tokens[j].BBox.X
	})

	return tokens
}
