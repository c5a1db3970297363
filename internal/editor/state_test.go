package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRotation(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, 0},
		{90, 90},
		{-90, 270},
		{450, 90},
		{360, 0},
		{-720, 0},
		{-1, 359},
		{1081, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeRotation(tt.in), "NormalizeRotation(%d)", tt.in)
	}
}

func TestRotatedSize(t *testing.T) {
	tests := []struct {
		name       string
		w, h, deg  int
		wantW      int
		wantH      int
	}{
		{"unrotated", 100, 50, 0, 100, 50},
		{"quarter turn", 100, 50, 90, 50, 100},
		{"half turn", 100, 50, 180, 100, 50},
		{"three quarters", 100, 50, 270, 50, 100},
		{"diagonal", 100, 50, 45, 106, 106},
		{"negative", 400, 300, -90, 300, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := RotatedSize(tt.w, tt.h, tt.deg)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestClampRect(t *testing.T) {
	tests := []struct {
		name string
		in   Rect
		want Rect
	}{
		{
			name: "inside",
			in:   Rect{X: 10, Y: 10, Width: 50, Height: 40},
			want: Rect{X: 10, Y: 10, Width: 50, Height: 40},
		},
		{
			name: "overhangs right edge",
			in:   Rect{X: 80, Y: 0, Width: 50, Height: 20},
			want: Rect{X: 50, Y: 0, Width: 50, Height: 20},
		},
		{
			name: "negative origin",
			in:   Rect{X: -10, Y: -5, Width: 30, Height: 30},
			want: Rect{X: 0, Y: 0, Width: 30, Height: 30},
		},
		{
			name: "larger than canvas",
			in:   Rect{X: 5, Y: 5, Width: 500, Height: 500},
			want: Rect{X: 0, Y: 0, Width: 100, Height: 80},
		},
		{
			name: "zero size",
			in:   Rect{X: 10, Y: 10, Width: 0, Height: -4},
			want: Rect{X: 10, Y: 10, Width: 1, Height: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampRect(tt.in, 100, 80)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Fits(100, 80), "clamped rect %+v should fit", got)
		})
	}
}

func TestClampRect_FarEdgeMatchesCanvas(t *testing.T) {
	got := ClampRect(Rect{X: 90, Y: 70, Width: 40, Height: 40}, 100, 80)
	assert.Equal(t, float64(100), got.X+got.Width)
	assert.Equal(t, float64(80), got.Y+got.Height)
}

func TestCenteredCrop(t *testing.T) {
	t.Run("free form", func(t *testing.T) {
		got := CenteredCrop(400, 300, nil)
		assert.Equal(t, Rect{X: 40, Y: 30, Width: 320, Height: 240}, got)
	})

	t.Run("square on landscape", func(t *testing.T) {
		r := 1.0
		got := CenteredCrop(400, 300, &r)
		assert.InDelta(t, 240, got.Width, 1e-9)
		assert.InDelta(t, 240, got.Height, 1e-9)
		assert.InDelta(t, 80, got.X, 1e-9)
		assert.InDelta(t, 30, got.Y, 1e-9)
	})

	t.Run("wide on portrait", func(t *testing.T) {
		r := 16.0 / 9.0
		got := CenteredCrop(300, 400, &r)
		assert.InDelta(t, 240, got.Width, 1e-9)
		assert.InDelta(t, 135, got.Height, 1e-9)
		assert.InDelta(t, r, got.AspectRatio(), 1e-9)
		assert.True(t, got.Fits(300, 400))
	})
}

func TestScaledDimension(t *testing.T) {
	assert.Equal(t, 150, ScaledDimension(200, 300, 400))
	assert.Equal(t, 113, ScaledDimension(150, 300, 400))
	assert.Equal(t, 1, ScaledDimension(1, 1, 1000))
	assert.Equal(t, 7, ScaledDimension(7, 3, 0))
}

func TestFinalDimensions(t *testing.T) {
	tests := []struct {
		name   string
		crop   *Rect
		target Dimensions
		want   Dimensions
	}{
		{
			name:   "no crop",
			target: Dimensions{Width: 300, Height: 300},
			want:   Dimensions{Width: 300, Height: 300},
		},
		{
			name:   "wide crop shrinks height",
			crop:   &Rect{Width: 200, Height: 100},
			target: Dimensions{Width: 300, Height: 300},
			want:   Dimensions{Width: 300, Height: 150},
		},
		{
			name:   "tall crop shrinks width",
			crop:   &Rect{Width: 300, Height: 400},
			target: Dimensions{Width: 267, Height: 200},
			want:   Dimensions{Width: 150, Height: 200},
		},
		{
			name:   "matching ratio",
			crop:   &Rect{Width: 300, Height: 400},
			target: Dimensions{Width: 150, Height: 200},
			want:   Dimensions{Width: 150, Height: 200},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := TransformState{CropArea: tt.crop, TargetDimensions: tt.target}
			assert.Equal(t, tt.want, FinalDimensions(st))
		})
	}
}

func TestTransformStateClone(t *testing.T) {
	st := DefaultState(10, 20)
	st.CropArea = &Rect{X: 1, Y: 2, Width: 3, Height: 4}

	c := st.Clone()
	c.CropArea.X = 99

	require.NotNil(t, st.CropArea)
	assert.Equal(t, float64(1), st.CropArea.X)
}

func TestDefaultState(t *testing.T) {
	st := DefaultState(640, 480)
	assert.Equal(t, 0, st.RotationDegrees)
	assert.Nil(t, st.CropArea)
	assert.True(t, st.Filters.IsNeutral())
	assert.True(t, st.MaintainAspectRatio)
	assert.Equal(t, Dimensions{Width: 640, Height: 480}, st.TargetDimensions)
}
