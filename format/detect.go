// Package format provides input file format detection for form-filler.
package format

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
)

// Format represents a supported input format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// PDF indicates a (scanned) PDF document.
	PDF
	// PNG indicates a PNG page image.
	PNG
	// JPEG indicates a JPEG page image.
	JPEG
	// TIFF indicates a TIFF page image.
	TIFF
	// BMP indicates a BMP page image.
	BMP
	// HOCR indicates hOCR output from an OCR engine.
	HOCR
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case PDF:
		return "PDF"
	case PNG:
		return "PNG"
	case JPEG:
		return "JPEG"
	case TIFF:
		return "TIFF"
	case BMP:
		return "BMP"
	case HOCR:
		return "hOCR"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case PDF:
		return ".pdf"
	case PNG:
		return ".png"
	case JPEG:
		return ".jpg"
	case TIFF:
		return ".tiff"
	case BMP:
		return ".bmp"
	case HOCR:
		return ".hocr"
	default:
		return ""
	}
}

// IsImage reports whether the format is a single raster image.
func (f Format) IsImage() bool {
	switch f {
	case PNG, JPEG, TIFF, BMP:
		return true
	default:
		return false
	}
}

// Detect determines file format from filename extension.
func Detect(filename string) Format {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".pdf":
		return PDF
	case ".png":
		return PNG
	case ".jpg", ".jpeg":
		return JPEG
	case ".tif", ".tiff":
		return TIFF
	case ".bmp":
		return BMP
	case ".hocr":
		return HOCR
	default:
		return Unknown
	}
}

// DetectFromMagic checks file magic bytes to determine format.
// This provides more reliable detection than extension-based detection.
func DetectFromMagic(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return PDF
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return PNG
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return JPEG
	case bytes.HasPrefix(data, []byte("II*\x00")), bytes.HasPrefix(data, []byte("MM\x00*")):
		return TIFF
	case bytes.HasPrefix(data, []byte("BM")) && len(data) >= 14:
		return BMP
	case detectHOCRMagic(data):
		return HOCR
	default:
		return Unknown
	}
}

// detectHOCRMagic checks if the data looks like an hOCR document.
func detectHOCRMagic(data []byte) bool {
	data = bytes.TrimLeft(data, " \t\r\n")
	if len(data) == 0 {
		return false
	}

	upper := strings.ToUpper(string(data))
	if !strings.HasPrefix(upper, "<?XML") && !strings.HasPrefix(upper, "<!DOCTYPE HTML") && !strings.HasPrefix(upper, "<HTML") {
		return false
	}
	return strings.Contains(string(data), "ocr_page") || strings.Contains(string(data), "ocr-system")
}

// DetectFromReader inspects the leading bytes of the content.
func DetectFromReader(r io.ReaderAt) (Format, error) {
	magic := make([]byte, 4096)
	n, err := r.ReadAt(magic, 0)
	if err != nil && err != io.EOF {
		return Unknown, err
	}
	return DetectFromMagic(magic[:n]), nil
}
