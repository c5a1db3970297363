package imaging

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// Source is a decoded image together with the metadata gathered while
// loading it. The Image is never modified after loading.
type Source struct {
	Image image.Image
	Info  ImageInfo
}

// ImageInfo contains metadata about a loaded source image.
type ImageInfo struct {
	// Source is the URL or path the image was loaded from.
	Source string `json:"source"`

	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the decoder that recognised the payload: "png", "jpeg",
	// "gif", "webp", "bmp", "tiff" or "unknown".
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the image has an alpha (transparency) channel.
	HasAlpha bool `json:"has_alpha"`

	// SizeBytes is the size of the encoded payload.
	SizeBytes int64 `json:"size_bytes"`
}

// ImageCache provides thread-safe caching of loaded sources to avoid
// redundant fetches.
//
// Entries are keyed by the exact source string passed to Loader.Load. Cached
// sources remain in memory until explicitly removed via Evict() or Clear().
type ImageCache struct {
	mu      sync.RWMutex
	sources map[string]*Source
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		sources: make(map[string]*Source),
	}
}

// Get returns the cached source for key, if any.
func (c *ImageCache) Get(key string) (*Source, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	src, ok := c.sources[key]
	return src, ok
}

// Put stores src under key, replacing any previous entry.
func (c *ImageCache) Put(key string, src *Source) {
	c.mu.Lock()
	c.sources[key] = src
	c.mu.Unlock()
}

// Clear removes all sources from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.sources = make(map[string]*Source)
	c.mu.Unlock()
}

// Evict removes a specific source from the cache. Unknown keys are ignored.
func (c *ImageCache) Evict(key string) {
	c.mu.Lock()
	delete(c.sources, key)
	c.mu.Unlock()
}

// Len returns the number of cached sources.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sources)
}

// LoaderConfig controls how remote sources are fetched.
type LoaderConfig struct {
	// Timeout bounds a single HTTP fetch.
	Timeout time.Duration

	// MaxBytes rejects payloads larger than this many bytes. Zero disables
	// the limit.
	MaxBytes int64

	// UserAgent is sent with every HTTP request.
	UserAgent string
}

// DefaultLoaderConfig returns the loader defaults: 30s timeout, 50 MiB limit.
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		Timeout:   30 * time.Second,
		MaxBytes:  50 << 20,
		UserAgent: "image-editor/1.0",
	}
}

// Loader fetches and decodes source images from http(s) URLs, file:// URLs
// or plain filesystem paths.
type Loader struct {
	cfg    LoaderConfig
	client *http.Client
	cache  *ImageCache
}

// NewLoader creates a Loader. cache may be nil to disable caching.
func NewLoader(cfg LoaderConfig, cache *ImageCache) *Loader {
	return &Loader{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  cache,
	}
}

// Load returns the decoded image at source.
//
// # Errors
//
//   - the URL scheme is not http, https or file
//   - the request fails, returns a non-200 status or a non-image content type
//   - the payload exceeds MaxBytes
//   - the payload is not a decodable raster format
//   - ctx is cancelled before the fetch completes
func (l *Loader) Load(ctx context.Context, source string) (*Source, error) {
	if l.cache != nil {
		if src, ok := l.cache.Get(source); ok {
			return src, nil
		}
	}

	data, err := l.read(ctx, source)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, format, err := Decode(data)
	if err != nil {
		return nil, err
	}

	src := &Source{Image: img, Info: describe(source, img, format, int64(len(data)))}
	if l.cache != nil {
		l.cache.Put(source, src)
	}
	return src, nil
}

func (l *Loader) read(ctx context.Context, source string) ([]byte, error) {
	if source == "" {
		return nil, fmt.Errorf("empty image source")
	}

	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Plain paths, including Windows drive letters.
		return l.readFile(source)
	}

	switch u.Scheme {
	case "http", "https":
		return l.fetch(ctx, source)
	case "file":
		return l.readFile(u.Path)
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (only http, https and file are supported)", u.Scheme)
	}
}

func (l *Loader) fetch(ctx context.Context, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if l.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", l.cfg.UserAgent)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") &&
		!strings.HasPrefix(contentType, "application/octet-stream") {
		return nil, fmt.Errorf("URL does not point to an image (Content-Type: %s)", contentType)
	}

	return l.readLimited(resp.Body)
}

func (l *Loader) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	return l.readLimited(f)
}

func (l *Loader) readLimited(r io.Reader) ([]byte, error) {
	if l.cfg.MaxBytes > 0 {
		r = io.LimitReader(r, l.cfg.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if l.cfg.MaxBytes > 0 && int64(len(data)) > l.cfg.MaxBytes {
		return nil, fmt.Errorf("image exceeds maximum size of %d bytes", l.cfg.MaxBytes)
	}
	return data, nil
}

// Decode decodes an encoded raster, applying EXIF orientation. It returns
// the decoded image and the name of the format that recognised it.
func Decode(data []byte) (image.Image, string, error) {
	format := "unknown"
	if _, name, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		format = name
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err == nil {
		return img, format, nil
	}

	// Some lossless/animated WebP variants are only handled by libwebp.
	if wimg, werr := webp.Decode(bytes.NewReader(data)); werr == nil {
		return wimg, "webp", nil
	}

	return nil, "", fmt.Errorf("failed to decode image: %w", err)
}

func describe(source string, img image.Image, format string, size int64) ImageInfo {
	bounds := img.Bounds()

	hasAlpha := false
	colorDepth := "8-bit"
	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray16:
		colorDepth = "16-bit"
	}

	return ImageInfo{
		Source:     source,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Format:     format,
		ColorDepth: colorDepth,
		HasAlpha:   hasAlpha,
		SizeBytes:  size,
	}
}
