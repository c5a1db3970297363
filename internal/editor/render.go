package editor

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// RenderResult is the rotated and filtered source, used both for the live
// preview and as the input of an export.
type RenderResult struct {
	Canvas *image.NRGBA
}

// Width returns the canvas width in pixels.
func (r RenderResult) Width() int {
	return r.Canvas.Bounds().Dx()
}

// Height returns the canvas height in pixels.
func (r RenderResult) Height() int {
	return r.Canvas.Bounds().Dy()
}

// Render draws src onto a fresh canvas sized to the rotated bounding box,
// rotated clockwise about its center by the state's rotation, with all six
// filters composited. It depends only on its two arguments and never reuses
// a previous canvas.
func Render(src image.Image, st TransformState) RenderResult {
	filtered := ApplyFilters(src, st.Filters)

	deg := NormalizeRotation(st.RotationDegrees)
	if deg == 0 {
		return RenderResult{Canvas: imaging.Clone(filtered)}
	}

	b := src.Bounds()
	cw, ch := RotatedSize(b.Dx(), b.Dy(), deg)

	// imaging rotates counter-clockwise.
	rotated := imaging.Rotate(filtered, float64(360-deg), color.Transparent)
	canvas := imaging.New(cw, ch, color.Transparent)
	return RenderResult{Canvas: imaging.PasteCenter(canvas, rotated)}
}

// cropPixels converts a canvas-space crop rectangle to whole pixels inside
// bounds.
func cropPixels(r Rect, bounds image.Rectangle) image.Rectangle {
	x0 := int(r.X + 0.5)
	y0 := int(r.Y + 0.5)
	x1 := int(r.X + r.Width + 0.5)
	y1 := int(r.Y + r.Height + 0.5)
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	rect := image.Rect(x0, y0, x1, y1).Add(bounds.Min).Intersect(bounds)
	if rect.Empty() {
		return bounds
	}
	return rect
}
