package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// CropScaled extracts rect from img and scales it to exactly width×height
// using Lanczos resampling. rect is in img's coordinate space.
func CropScaled(img image.Image, rect image.Rectangle, width, height int) (*image.NRGBA, error) {
	bounds := img.Bounds()

	if !rect.In(bounds) {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			rect.Min.X, rect.Min.Y, rect.Max.X, rect.Max.Y, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if rect.Empty() {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid output size %dx%d", width, height)
	}

	cropped := imaging.Crop(img, rect)
	if cropped.Bounds().Dx() == width && cropped.Bounds().Dy() == height {
		return cropped, nil
	}
	return imaging.Resize(cropped, width, height, imaging.Lanczos), nil
}

// FitWithin scales img down so neither side exceeds maxDim, keeping its
// aspect ratio. It returns the scale factor that was applied (1 when img
// already fits).
func FitWithin(img image.Image, maxDim int) (*image.NRGBA, float64) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return imaging.Clone(img), 1
	}
	fitted := imaging.Fit(img, maxDim, maxDim, imaging.Lanczos)
	return fitted, float64(fitted.Bounds().Dx()) / float64(w)
}
