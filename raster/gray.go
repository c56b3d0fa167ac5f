package raster

import (
	"image"
	"image/color"
	"image/draw"
)

// ToGray converts an image to 8-bit grayscale with its origin moved to (0, 0).
// Gray images that already start at the origin are returned as is.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}

	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}

// Threshold converts a gray image with its origin at (0, 0) into a row-major
// mask where pixels at or below level are set. Dark ink becomes true.
func Threshold(img *image.Gray, level uint8) []bool {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	mask := make([]bool, w*h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w]
		for x, v := range row {
			mask[y*w+x] = v <= level
		}
	}
	return mask
}

// Blank returns a white page of the given size
func Blank(width, height int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	return img
}
