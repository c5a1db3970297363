package editor

import (
	"bytes"
	"fmt"
	"image"

	"github.com/ironsheep/image-editor-mcp/internal/imaging"
)

// ExportOptions selects the encoder used for the final blob.
type ExportOptions struct {
	Format  imaging.Format
	Quality int
}

// DefaultExportOptions encodes JPEG at quality 90.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{Format: imaging.FormatJPEG, Quality: imaging.DefaultQuality}
}

// EncodedImage is the blob handed to the host on save.
type EncodedImage struct {
	Data     []byte
	Format   imaging.Format
	MimeType string
	Width    int
	Height   int
}

// ExportMetadata is a complete, replayable record of an export.
type ExportMetadata struct {
	Width    int        `json:"width"`
	Height   int        `json:"height"`
	Rotation int        `json:"rotation"`
	Filters  Filters    `json:"filters"`
	Crop     *Rect      `json:"crop"`
	Format   string     `json:"format"`
	Quality  int        `json:"quality"`
	Source   Dimensions `json:"source"`
}

// State rebuilds the transform state that produced m. Target dimensions are
// the exported size, so replaying m yields an image of the same size.
func (m ExportMetadata) State() TransformState {
	st := TransformState{
		RotationDegrees:  NormalizeRotation(m.Rotation),
		Filters:          m.Filters.Clamped(),
		TargetDimensions: Dimensions{Width: atLeastOne(m.Width), Height: atLeastOne(m.Height)},
	}
	if m.Crop != nil {
		c := *m.Crop
		st.CropArea = &c
	}
	return st
}

// Export renders src with st, copies the crop (or the whole canvas), scales
// it to the final dimensions and encodes it.
func Export(src image.Image, st TransformState, opts ExportOptions) (*EncodedImage, ExportMetadata, error) {
	if src == nil {
		return nil, ExportMetadata{}, &ExportError{Op: "render", Err: ErrNoSource}
	}
	if opts.Format == "" {
		opts.Format = imaging.FormatJPEG
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = imaging.DefaultQuality
	}

	final := FinalDimensions(st)
	canvas := Render(src, st).Canvas

	region := canvas.Bounds()
	if st.CropArea != nil {
		region = cropPixels(*st.CropArea, canvas.Bounds())
	}

	out, err := imaging.CropScaled(canvas, region, final.Width, final.Height)
	if err != nil {
		return nil, ExportMetadata{}, &ExportError{Op: "crop", Err: err}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, opts.Format, opts.Quality); err != nil {
		return nil, ExportMetadata{}, &ExportError{Op: "encode", Err: fmt.Errorf("%s: %w", opts.Format, err)}
	}

	sb := src.Bounds()
	meta := ExportMetadata{
		Width:    final.Width,
		Height:   final.Height,
		Rotation: NormalizeRotation(st.RotationDegrees),
		Filters:  st.Filters.Clamped(),
		Format:   string(opts.Format),
		Quality:  opts.Quality,
		Source:   Dimensions{Width: sb.Dx(), Height: sb.Dy()},
	}
	if st.CropArea != nil {
		c := *st.CropArea
		meta.Crop = &c
	}

	return &EncodedImage{
		Data:     buf.Bytes(),
		Format:   opts.Format,
		MimeType: opts.Format.MimeType(),
		Width:    final.Width,
		Height:   final.Height,
	}, meta, nil
}
