package editor

import (
	"bytes"
	"image"
	"image/color"
	_ "image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-editor-mcp/internal/imaging"
)

func TestExport_CropAspectWins(t *testing.T) {
	src := solidImage(400, 300, color.NRGBA{R: 80, G: 80, B: 80, A: 255})
	st := DefaultState(400, 300)
	st.CropArea = &Rect{X: 50, Y: 50, Width: 200, Height: 100}
	st.TargetDimensions = Dimensions{Width: 300, Height: 300}

	img, meta, err := Export(src, st, ExportOptions{Format: imaging.FormatPNG})
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(img.Data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.InDelta(t, 2.0, float64(cfg.Width)/float64(cfg.Height), 1e-9)
	assert.Equal(t, meta.Width, cfg.Width)
	assert.Equal(t, meta.Height, cfg.Height)
	assert.Equal(t, "image/png", img.MimeType)
}

func TestExport_NilSource(t *testing.T) {
	_, _, err := Export(nil, DefaultState(1, 1), DefaultExportOptions())
	var exportErr *ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, "render", exportErr.Op)
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestExport_UnsupportedFormat(t *testing.T) {
	src := solidImage(10, 10, color.White)
	_, _, err := Export(src, DefaultState(10, 10), ExportOptions{Format: "gif", Quality: 90})
	var exportErr *ExportError
	require.ErrorAs(t, err, &exportErr)
	assert.Equal(t, "encode", exportErr.Op)
}

func TestExport_WebP(t *testing.T) {
	src := solidImage(32, 16, color.NRGBA{R: 200, A: 255})
	st := DefaultState(32, 16)
	st.TargetDimensions = Dimensions{Width: 16, Height: 8}

	img, meta, err := Export(src, st, ExportOptions{Format: imaging.FormatWebP, Quality: 80})
	require.NoError(t, err)
	assert.Equal(t, "webp", meta.Format)
	assert.Equal(t, 80, meta.Quality)

	decoded, format, err := imaging.Decode(img.Data)
	require.NoError(t, err)
	assert.Equal(t, "webp", format)
	assert.Equal(t, 16, decoded.Bounds().Dx())
	assert.Equal(t, 8, decoded.Bounds().Dy())
}

func TestExportMetadata_StateReplays(t *testing.T) {
	src := quadrantImage(120, 80)
	st := DefaultState(120, 80)
	st.RotationDegrees = 270
	st.Filters.Sepia = 40
	st.CropArea = &Rect{X: 10, Y: 10, Width: 60, Height: 60}
	st.TargetDimensions = Dimensions{Width: 30, Height: 30}

	_, meta, err := Export(src, st, DefaultExportOptions())
	require.NoError(t, err)

	replayed := meta.State()
	assert.Equal(t, 270, replayed.RotationDegrees)
	assert.Equal(t, st.Filters, replayed.Filters)
	assert.Equal(t, *st.CropArea, *replayed.CropArea)
	assert.Equal(t, FinalDimensions(st), FinalDimensions(replayed))
	assert.Equal(t, Dimensions{Width: 120, Height: 80}, meta.Source)
}

func TestCropPixels(t *testing.T) {
	bounds := image.Rect(0, 0, 100, 50)

	assert.Equal(t, image.Rect(10, 5, 40, 25), cropPixels(Rect{X: 10.2, Y: 4.6, Width: 30, Height: 20}, bounds))
	assert.Equal(t, image.Rect(99, 49, 100, 50), cropPixels(Rect{X: 99, Y: 49, Width: 0.1, Height: 0.1}, bounds))
	assert.Equal(t, bounds, cropPixels(Rect{X: 500, Y: 500, Width: 10, Height: 10}, bounds))
}
