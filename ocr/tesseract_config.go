package ocr

import "errors"

// ErrOCRNotEnabled is returned when Tesseract is used but support was not
// compiled in. Rebuild with -tags ocr to enable it.
var ErrOCRNotEnabled = errors.New("OCR support not enabled; rebuild with -tags ocr")

// PageSegMode represents page segmentation modes for Tesseract.
// These control how Tesseract analyzes the page layout.
type PageSegMode int

// Page segmentation modes (matching gosseract).
const (
	PSM_AUTO_OSD        PageSegMode = 1  // Automatic with OSD
	PSM_AUTO            PageSegMode = 3  // Fully automatic (default)
	PSM_SINGLE_COLUMN   PageSegMode = 4  // Single column of variable sizes
	PSM_SINGLE_BLOCK    PageSegMode = 6  // Single uniform block of text
	PSM_SPARSE_TEXT     PageSegMode = 11 // Find as much text as possible
	PSM_SPARSE_TEXT_OSD PageSegMode = 12 // Sparse text with OSD
)

// TesseractConfig holds configuration for the Tesseract engine
type TesseractConfig struct {
	// Languages is a "+" separated list such as "eng+fil" (default: "eng")
	Languages string

	// PageSegMode is the segmentation mode (default: PSM_AUTO)
	PageSegMode PageSegMode
}

// DefaultTesseractConfig returns sensible default configuration
func DefaultTesseractConfig() TesseractConfig {
	return TesseractConfig{
		Languages:   "eng",
		PageSegMode: PSM_AUTO,
	}
}
