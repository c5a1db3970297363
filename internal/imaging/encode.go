package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// Format is an output encoding.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatWebP Format = "webp"
	FormatPNG  Format = "png"
)

// DefaultQuality is the lossy quality factor used for exports (0.9).
const DefaultQuality = 90

// ParseFormat accepts "jpeg", "jpg", "webp" and "png" in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jpeg", "jpg", "":
		return FormatJPEG, nil
	case "webp":
		return FormatWebP, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", s)
	}
}

// MimeType returns the media type of f.
func (f Format) MimeType() string {
	switch f {
	case FormatWebP:
		return "image/webp"
	case FormatPNG:
		return "image/png"
	default:
		return "image/jpeg"
	}
}

// Extension returns the conventional file extension of f, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatWebP:
		return "webp"
	case FormatPNG:
		return "png"
	default:
		return "jpg"
	}
}

// Lossy reports whether f discards information.
func (f Format) Lossy() bool {
	return f != FormatPNG
}

// Encode writes img to w in the given format. quality (1-100) applies to the
// lossy formats; out-of-range values fall back to DefaultQuality.
func Encode(w io.Writer, img image.Image, format Format, quality int) error {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	switch format {
	case FormatJPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case FormatWebP:
		return webp.Encode(w, img, &webp.Options{Lossless: false, Quality: float32(quality)})
	case FormatPNG:
		return imaging.Encode(w, img, imaging.PNG)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// EncodeBase64PNG encodes img as PNG and returns it base64-encoded, the form
// previews are returned to hosts in.
func EncodeBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, FormatPNG, 0); err != nil {
		return "", fmt.Errorf("failed to encode image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
