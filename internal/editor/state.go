package editor

import (
	"fmt"
	"math"
)

// Rect is a crop rectangle in rotated-canvas coordinates.
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// AspectRatio returns Width/Height, or 0 for a degenerate rectangle.
func (r Rect) AspectRatio() float64 {
	if r.Height <= 0 {
		return 0
	}
	return r.Width / r.Height
}

// Fits reports whether r lies fully inside a canvas of the given size.
func (r Rect) Fits(canvasW, canvasH int) bool {
	return r.X >= 0 && r.Y >= 0 &&
		r.Width > 0 && r.Height > 0 &&
		r.X+r.Width <= float64(canvasW) &&
		r.Y+r.Height <= float64(canvasH)
}

// Dimensions is a width/height pair in pixels.
type Dimensions struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// TransformState is the mutable part of an editing session.
type TransformState struct {
	// RotationDegrees is always normalized to [0, 360).
	RotationDegrees int `json:"rotation"`

	Filters Filters `json:"filters"`

	// CropArea is nil when no crop is applied.
	CropArea *Rect `json:"crop"`

	TargetDimensions    Dimensions `json:"target"`
	MaintainAspectRatio bool       `json:"maintain_aspect_ratio"`
}

// DefaultState returns the state a freshly loaded source of the given size
// starts from.
func DefaultState(sourceW, sourceH int) TransformState {
	return TransformState{
		RotationDegrees: 0,
		Filters:         NeutralFilters(),
		CropArea:        nil,
		TargetDimensions: Dimensions{
			Width:  atLeastOne(sourceW),
			Height: atLeastOne(sourceH),
		},
		MaintainAspectRatio: true,
	}
}

// Clone returns a deep copy of s.
func (s TransformState) Clone() TransformState {
	out := s
	if s.CropArea != nil {
		c := *s.CropArea
		out.CropArea = &c
	}
	return out
}

// String renders a compact description used in log lines.
func (s TransformState) String() string {
	crop := "none"
	if s.CropArea != nil {
		crop = fmt.Sprintf("%.0f,%.0f %.0fx%.0f", s.CropArea.X, s.CropArea.Y, s.CropArea.Width, s.CropArea.Height)
	}
	return fmt.Sprintf("rot=%d crop=%s target=%dx%d", s.RotationDegrees, crop,
		s.TargetDimensions.Width, s.TargetDimensions.Height)
}

// NormalizeRotation maps any integer onto [0, 360).
func NormalizeRotation(degrees int) int {
	return ((degrees % 360) + 360) % 360
}

// RotatedSize returns the axis-aligned bounding box of a w×h rectangle
// rotated by the given number of degrees, rounded to whole pixels.
func RotatedSize(w, h, degrees int) (int, int) {
	theta := float64(NormalizeRotation(degrees)) * math.Pi / 180
	sin, cos := math.Abs(math.Sin(theta)), math.Abs(math.Cos(theta))
	fw, fh := float64(w), float64(h)
	newW := int(math.Round(fw*cos + fh*sin))
	newH := int(math.Round(fw*sin + fh*cos))
	return newW, newH
}

// ClampRect returns r corrected so that it lies inside a canvas of the given
// size. Width and height are limited to [1, canvas]; x and y are then
// shifted so the far edges never pass the canvas edges.
func ClampRect(r Rect, canvasW, canvasH int) Rect {
	cw, ch := float64(canvasW), float64(canvasH)
	r.Width = clampFloat(r.Width, math.Min(minCropSize, cw), cw)
	r.Height = clampFloat(r.Height, math.Min(minCropSize, ch), ch)
	r.X = clampFloat(r.X, 0, cw-r.Width)
	r.Y = clampFloat(r.Y, 0, ch-r.Height)
	return r
}

// minCropSize is the smallest crop edge a clamp will produce.
const minCropSize = 1

// CenteredCrop computes the initial crop for an aspect-ratio preset: 80% of
// the canvas, shrunk to satisfy ratio and centered. A nil ratio means
// free-form.
func CenteredCrop(canvasW, canvasH int, ratio *float64) Rect {
	cw, ch := float64(canvasW), float64(canvasH)
	cropW := cw * 0.8
	cropH := ch * 0.8

	if ratio != nil && *ratio > 0 {
		if cropW/cropH > *ratio {
			cropW = cropH * *ratio
		} else {
			cropH = cropW / *ratio
		}
	}

	return Rect{
		X:      (cw - cropW) / 2,
		Y:      (ch - cropH) / 2,
		Width:  cropW,
		Height: cropH,
	}
}

// ScaledDimension derives the other side of a resize from the source aspect
// ratio: given one side of the target, it returns round(side × num / den).
func ScaledDimension(side, num, den int) int {
	if den <= 0 {
		return atLeastOne(side)
	}
	return atLeastOne(int(math.Round(float64(side) * float64(num) / float64(den))))
}

// FinalDimensions returns the output size an export of s produces. When a
// crop is active and its aspect ratio differs from the target's, the larger
// side of the target (relative to the crop ratio) is shrunk so the output
// keeps the crop's proportions.
func FinalDimensions(s TransformState) Dimensions {
	w := atLeastOne(s.TargetDimensions.Width)
	h := atLeastOne(s.TargetDimensions.Height)

	if s.CropArea == nil {
		return Dimensions{Width: w, Height: h}
	}
	cropRatio := s.CropArea.AspectRatio()
	if cropRatio <= 0 {
		return Dimensions{Width: w, Height: h}
	}

	targetRatio := float64(w) / float64(h)
	if math.Abs(targetRatio-cropRatio) <= aspectTolerance*cropRatio {
		return Dimensions{Width: w, Height: h}
	}

	if targetRatio > cropRatio {
		w = atLeastOne(int(math.Round(float64(h) * cropRatio)))
	} else {
		h = atLeastOne(int(math.Round(float64(w) / cropRatio)))
	}
	return Dimensions{Width: w, Height: h}
}

// aspectTolerance absorbs rounding in integer target sizes.
const aspectTolerance = 1e-6

func clampFloat(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func atLeastOne(v int) int {
	if v < 1 {
		return 1
	}
	return v
}
