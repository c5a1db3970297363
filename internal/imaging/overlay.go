package imaging

import (
	"image"
	"image/color"
	"math"
)

// PreviewResult is a display-sized rendering of the editor canvas.
type PreviewResult struct {
	// Width and Height are the preview's pixel size.
	Width  int `json:"width"`
	Height int `json:"height"`

	// CanvasWidth and CanvasHeight are the size of the full-resolution canvas
	// the preview was scaled from.
	CanvasWidth  int `json:"canvas_width"`
	CanvasHeight int `json:"canvas_height"`

	// Scale maps canvas coordinates to preview coordinates.
	Scale float64 `json:"scale"`

	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// OverlayOptions controls what is drawn on top of a preview.
type OverlayOptions struct {
	// Crop, when non-empty, is highlighted: the area outside it is dimmed
	// and its border is drawn in GuideColor.
	Crop image.Rectangle

	// Guides adds rule-of-thirds lines inside the crop.
	Guides bool

	GuideColor color.NRGBA
}

// DefaultGuideColor is an opaque white.
var DefaultGuideColor = color.NRGBA{R: 255, G: 255, B: 255, A: 255}

// Preview scales canvas to fit within maxDim, draws the crop overlay and
// returns it as base64 PNG. canvas is not modified.
func Preview(canvas image.Image, maxDim int, opts OverlayOptions) (*PreviewResult, error) {
	cb := canvas.Bounds()
	fitted, scale := FitWithin(canvas, maxDim)

	if !opts.Crop.Empty() {
		crop := scaleRect(opts.Crop.Sub(cb.Min), scale).Intersect(fitted.Bounds())
		drawCropOverlay(fitted, crop, opts)
	}

	encoded, err := EncodeBase64PNG(fitted)
	if err != nil {
		return nil, err
	}

	return &PreviewResult{
		Width:        fitted.Bounds().Dx(),
		Height:       fitted.Bounds().Dy(),
		CanvasWidth:  cb.Dx(),
		CanvasHeight: cb.Dy(),
		Scale:        scale,
		ImageBase64:  encoded,
		MimeType:     FormatPNG.MimeType(),
	}, nil
}

func scaleRect(r image.Rectangle, scale float64) image.Rectangle {
	if scale == 1 {
		return r
	}
	return image.Rect(
		int(math.Round(float64(r.Min.X)*scale)),
		int(math.Round(float64(r.Min.Y)*scale)),
		int(math.Round(float64(r.Max.X)*scale)),
		int(math.Round(float64(r.Max.Y)*scale)),
	)
}

func drawCropOverlay(img *image.NRGBA, crop image.Rectangle, opts OverlayOptions) {
	if crop.Empty() {
		return
	}
	bounds := img.Bounds()
	guide := opts.GuideColor
	if guide.A == 0 {
		guide = DefaultGuideColor
	}

	// Dim everything outside the crop to half intensity.
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if image.Pt(x, y).In(crop) {
				continue
			}
			i := img.PixOffset(x, y)
			img.Pix[i+0] /= 2
			img.Pix[i+1] /= 2
			img.Pix[i+2] /= 2
		}
	}

	// Border
	for x := crop.Min.X; x < crop.Max.X; x++ {
		img.SetNRGBA(x, crop.Min.Y, guide)
		img.SetNRGBA(x, crop.Max.Y-1, guide)
	}
	for y := crop.Min.Y; y < crop.Max.Y; y++ {
		img.SetNRGBA(crop.Min.X, y, guide)
		img.SetNRGBA(crop.Max.X-1, y, guide)
	}

	if !opts.Guides {
		return
	}
	for i := 1; i < 3; i++ {
		gx := crop.Min.X + crop.Dx()*i/3
		gy := crop.Min.Y + crop.Dy()*i/3
		for y := crop.Min.Y; y < crop.Max.Y; y++ {
			img.SetNRGBA(gx, y, guide)
		}
		for x := crop.Min.X; x < crop.Max.X; x++ {
			img.SetNRGBA(x, gy, guide)
		}
	}
}
