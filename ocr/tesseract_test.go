//go:build ocr

package ocr

import (
	"context"
	"image"
	"image/color"
	"testing"
)

// createTestImage creates a white page with a black bar
func createTestImage(width, height int) image.Image {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.White)
		}
	}
	for x := 10; x < 50; x++ {
		for y := 10; y < 30; y++ {
			img.Set(x, y, color.Black)
		}
	}
	return img
}

func TestTesseractRecognize(t *testing.T) {
	engine, err := NewTesseract(DefaultTesseractConfig())
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	defer engine.Close()

	// The bar is not text; only check that recognition runs
	if _, err := engine.Recognize(context.Background(), createTestImage(100, 50)); err != nil {
		t.Errorf("Recognize failed: %v", err)
	}
}

func TestTesseractCloseTwice(t *testing.T) {
	engine, err := NewTesseract(DefaultTesseractConfig())
	if err != nil {
		t.Skipf("Tesseract not available: %v", err)
	}
	if err := engine.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := engine.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if _, err := engine.Recognize(context.Background(), createTestImage(10, 10)); err == nil {
		t.Error("expected error from closed engine")
	}
}
