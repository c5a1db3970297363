package editor

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/ironsheep/image-editor-mcp/internal/imaging"
)

// Status is the position of a session in its lifecycle.
type Status int

const (
	StatusEmpty Status = iota
	StatusLoading
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Loader fetches and decodes a source image.
type Loader interface {
	Load(ctx context.Context, source string) (*imaging.Source, error)
}

// SaveHandler persists an exported blob on behalf of the host and returns
// an identifier for it. The pipeline itself never performs storage I/O.
type SaveHandler interface {
	Save(ctx context.Context, img *EncodedImage, meta ExportMetadata) (string, error)
}

// Options configures a Session. Zero values select the defaults.
type Options struct {
	Loader     Loader
	Export     ExportOptions
	GuideColor color.NRGBA
	Logger     *zap.Logger
}

// Session is one editing session: a source image plus the transform state
// built on top of it. A Session is safe for concurrent use, but sessions
// never share state with each other.
type Session struct {
	loader     Loader
	export     ExportOptions
	guideColor color.NRGBA
	log        *zap.Logger

	mu         sync.Mutex
	status     Status
	gen        uint64
	cancelLoad context.CancelFunc
	source     *imaging.Source
	state      TransformState
	exports    int
}

// NewSession returns an Empty session.
func NewSession(opts Options) *Session {
	if opts.Loader == nil {
		opts.Loader = imaging.NewLoader(imaging.DefaultLoaderConfig(), nil)
	}
	if opts.Export.Format == "" {
		opts.Export = DefaultExportOptions()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.GuideColor.A == 0 {
		opts.GuideColor = imaging.DefaultGuideColor
	}
	return &Session{
		loader:     opts.Loader,
		export:     opts.Export,
		guideColor: opts.GuideColor,
		log:        opts.Logger,
	}
}

// Status returns the current lifecycle status.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// State returns a copy of the current transform state.
func (s *Session) State() TransformState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Source returns the loaded source's metadata.
func (s *Session) Source() (imaging.ImageInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return imaging.ImageInfo{}, ErrNoSource
	}
	return s.source.Info, nil
}

// Exports returns how many exports completed in this session.
func (s *Session) Exports() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exports
}

// Load fetches and decodes the image at url and resets the transform state
// to defaults sized to it. Any load still in flight is cancelled and its
// result discarded. On failure the session is left Empty.
func (s *Session) Load(ctx context.Context, url string) (imaging.ImageInfo, error) {
	s.mu.Lock()
	if s.cancelLoad != nil {
		s.cancelLoad()
	}
	s.gen++
	gen := s.gen
	loadCtx, cancel := context.WithCancel(ctx)
	s.cancelLoad = cancel
	s.status = StatusLoading
	s.mu.Unlock()
	defer cancel()

	s.log.Debug("loading source", zap.String("url", url), zap.Uint64("generation", gen))
	src, err := s.loader.Load(loadCtx, url)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		s.log.Debug("discarding superseded load", zap.String("url", url), zap.Uint64("generation", gen))
		return imaging.ImageInfo{}, &LoadError{URL: url, Err: ErrSuperseded}
	}
	s.cancelLoad = nil

	if err == nil && (src == nil || src.Image == nil) {
		err = errors.New("loader returned no image")
	}
	if err != nil {
		s.source = nil
		s.state = TransformState{}
		s.status = StatusEmpty
		s.log.Warn("source load failed", zap.String("url", url), zap.Error(err))
		return imaging.ImageInfo{}, &LoadError{URL: url, Err: err}
	}

	b := src.Image.Bounds()
	s.source = src
	s.state = DefaultState(b.Dx(), b.Dy())
	s.status = StatusReady
	s.log.Info("source loaded",
		zap.String("url", url),
		zap.Int("width", b.Dx()),
		zap.Int("height", b.Dy()),
		zap.String("format", src.Info.Format))
	return src.Info, nil
}

// Cancel discards the session: any pending load or export is invalidated and
// the session returns to Empty.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelLoad != nil {
		s.cancelLoad()
		s.cancelLoad = nil
	}
	s.gen++
	s.source = nil
	s.state = TransformState{}
	s.status = StatusEmpty
}

// ready must be called with s.mu held.
func (s *Session) ready() error {
	if s.status != StatusReady || s.source == nil {
		return ErrNoSource
	}
	return nil
}

// canvasSize must be called with s.mu held.
func (s *Session) canvasSize() (int, int) {
	b := s.source.Image.Bounds()
	return RotatedSize(b.Dx(), b.Dy(), s.state.RotationDegrees)
}

// CanvasSize returns the size of the rotated canvas crops are expressed in.
func (s *Session) CanvasSize() (Dimensions, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return Dimensions{}, err
	}
	w, h := s.canvasSize()
	return Dimensions{Width: w, Height: h}, nil
}

// SetRotation stores the normalized rotation and returns it. A crop that no
// longer fits inside the new canvas is discarded.
func (s *Session) SetRotation(degrees int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return 0, err
	}

	s.rotate(degrees)
	return s.state.RotationDegrees, nil
}

// RotateBy adds delta to the current rotation and returns the normalized
// result. A crop that no longer fits is discarded as with SetRotation.
func (s *Session) RotateBy(delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return 0, err
	}
	s.rotate(s.state.RotationDegrees + delta)
	return s.state.RotationDegrees, nil
}

// rotate must be called with s.mu held.
func (s *Session) rotate(degrees int) {
	s.state.RotationDegrees = NormalizeRotation(degrees)
	cw, ch := s.canvasSize()
	if s.state.CropArea != nil && !s.state.CropArea.Fits(cw, ch) {
		s.log.Debug("rotation invalidated crop", zap.Int("rotation", s.state.RotationDegrees))
		s.state.CropArea = nil
	}
}

// SetFilter clamps value to the filter's range, stores it and returns the
// stored value. Unknown names return ErrUnknownFilter.
func (s *Session) SetFilter(name string, value float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return 0, err
	}

	filters, stored, err := s.state.Filters.With(FilterName(name), value)
	if err != nil {
		return 0, err
	}
	s.state.Filters = filters
	return stored, nil
}

// SetFilters replaces every filter at once, clamped.
func (s *Session) SetFilters(f Filters) (Filters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return Filters{}, err
	}
	s.state.Filters = f.Clamped()
	return s.state.Filters, nil
}

// MergeFilters applies values on top of the current filters, clamping each,
// and returns the stored result. Names are applied in sorted order and an
// unknown name leaves every filter unchanged.
func (s *Session) MergeFilters(values map[string]float64) (Filters, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return Filters{}, err
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	f := s.state.Filters
	for _, name := range names {
		var err error
		if f, _, err = f.With(FilterName(name), values[name]); err != nil {
			return Filters{}, err
		}
	}
	s.state.Filters = f
	return f, nil
}

// SetCropArea assigns the crop rectangle, clamped to the canvas, and
// returns what was stored. nil clears the crop.
func (s *Session) SetCropArea(r *Rect) (*Rect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return nil, err
	}

	if r == nil {
		s.state.CropArea = nil
		return nil, nil
	}
	cw, ch := s.canvasSize()
	clamped := ClampRect(*r, cw, ch)
	s.state.CropArea = &clamped
	out := clamped
	return &out, nil
}

// InitCropFromAspectRatio sets a centered crop covering 80% of the canvas,
// constrained to ratio (nil for free-form), and returns it.
func (s *Session) InitCropFromAspectRatio(ratio *float64) (Rect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return Rect{}, err
	}

	cw, ch := s.canvasSize()
	crop := CenteredCrop(cw, ch, ratio)
	s.state.CropArea = &crop
	return crop, nil
}

// SetMaintainAspectRatio toggles whether target edits follow the source
// aspect ratio.
func (s *Session) SetMaintainAspectRatio(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	s.state.MaintainAspectRatio = on
	return nil
}

// SetTargetWidth sets the output width. With the aspect lock on, the height
// follows the source's native aspect ratio.
func (s *Session) SetTargetWidth(width int) (Dimensions, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return Dimensions{}, err
	}
	s.setWidth(width)
	return s.state.TargetDimensions, nil
}

// SetTargetHeight sets the output height. With the aspect lock on, the width
// follows the source's native aspect ratio.
func (s *Session) SetTargetHeight(height int) (Dimensions, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return Dimensions{}, err
	}
	s.setHeight(height)
	return s.state.TargetDimensions, nil
}

// SetTargetDimensions stores the pair as given, whatever the aspect lock.
// Use SetTargetWidth or SetTargetHeight to have one side drive the other.
func (s *Session) SetTargetDimensions(width, height int) (Dimensions, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return Dimensions{}, err
	}
	s.state.TargetDimensions = Dimensions{Width: atLeastOne(width), Height: atLeastOne(height)}
	return s.state.TargetDimensions, nil
}

func (s *Session) setWidth(width int) {
	width = atLeastOne(width)
	s.state.TargetDimensions.Width = width
	if s.state.MaintainAspectRatio {
		b := s.source.Image.Bounds()
		s.state.TargetDimensions.Height = ScaledDimension(width, b.Dy(), b.Dx())
	}
}

func (s *Session) setHeight(height int) {
	height = atLeastOne(height)
	s.state.TargetDimensions.Height = height
	if s.state.MaintainAspectRatio {
		b := s.source.Image.Bounds()
		s.state.TargetDimensions.Width = ScaledDimension(height, b.Dx(), b.Dy())
	}
}

// FinalDimensions returns the size the next export will produce.
func (s *Session) FinalDimensions() (Dimensions, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return Dimensions{}, err
	}
	return FinalDimensions(s.state), nil
}

// Reset restores the default state for the loaded source without reloading it.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ready(); err != nil {
		return err
	}
	b := s.source.Image.Bounds()
	s.state = DefaultState(b.Dx(), b.Dy())
	return nil
}

// snapshot must be called with s.mu held.
func (s *Session) snapshot() (*imaging.Source, TransformState, uint64) {
	return s.source, s.state.Clone(), s.gen
}

// Render draws the current state on a fresh canvas.
func (s *Session) Render() (RenderResult, error) {
	s.mu.Lock()
	if err := s.ready(); err != nil {
		s.mu.Unlock()
		return RenderResult{}, err
	}
	src, st, _ := s.snapshot()
	s.mu.Unlock()

	return Render(src.Image, st), nil
}

// Preview renders the current state scaled to fit maxDim, with the crop
// highlighted and optional rule-of-thirds guides.
func (s *Session) Preview(maxDim int, guides bool) (*imaging.PreviewResult, error) {
	s.mu.Lock()
	if err := s.ready(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	src, st, _ := s.snapshot()
	s.mu.Unlock()

	canvas := Render(src.Image, st).Canvas
	opts := imaging.OverlayOptions{Guides: guides, GuideColor: s.guideColor}
	if st.CropArea != nil {
		opts.Crop = cropPixels(*st.CropArea, canvas.Bounds())
	}
	return imaging.Preview(canvas, maxDim, opts)
}

// SampleColors reads colors from the rendered canvas at canvas coordinates.
func (s *Session) SampleColors(points []imaging.LabeledPoint) (*imaging.MultiColorResult, error) {
	res, err := s.Render()
	if err != nil {
		return nil, err
	}
	return imaging.SampleColorsMulti(res.Canvas, points)
}

// Export produces the final encoded image and its metadata. If the source
// is replaced or the session cancelled while encoding, the result is
// discarded with ErrSourceReplaced. The session stays Ready on failure.
func (s *Session) Export(ctx context.Context) (*EncodedImage, ExportMetadata, error) {
	s.mu.Lock()
	if err := s.ready(); err != nil {
		s.mu.Unlock()
		return nil, ExportMetadata{}, &ExportError{Op: "render", Err: err}
	}
	src, st, gen := s.snapshot()
	opts := s.export
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, ExportMetadata{}, &ExportError{Op: "render", Err: err}
	}

	img, meta, err := Export(src.Image, st, opts)
	if err != nil {
		s.log.Warn("export failed", zap.Error(err))
		return nil, ExportMetadata{}, err
	}
	if err := ctx.Err(); err != nil {
		return nil, ExportMetadata{}, &ExportError{Op: "encode", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return nil, ExportMetadata{}, &ExportError{Op: "encode", Err: ErrSourceReplaced}
	}
	s.exports++
	s.log.Info("export complete",
		zap.Int("width", meta.Width),
		zap.Int("height", meta.Height),
		zap.String("format", meta.Format),
		zap.Int("bytes", len(img.Data)),
		zap.Stringer("state", st))
	return img, meta, nil
}

// Save exports and hands the result to h, returning h's identifier.
func (s *Session) Save(ctx context.Context, h SaveHandler) (string, ExportMetadata, error) {
	img, meta, err := s.Export(ctx)
	if err != nil {
		return "", ExportMetadata{}, err
	}
	id, err := h.Save(ctx, img, meta)
	if err != nil {
		return "", ExportMetadata{}, fmt.Errorf("save export: %w", err)
	}
	return id, meta, nil
}
