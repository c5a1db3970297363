// Package recipe replays a list of editor operations from a YAML or JSON
// document, for batch use outside an interactive host.
//
// A recipe names the source, the transform to apply and where to write the
// result:
//
//	source: https://example.com/photo.jpg
//	rotation: 90
//	filters:
//	  brightness: 110
//	  sepia: 30
//	crop: {x: 0, y: 0, width: 300, height: 400}
//	target: {width: 150, height: 200}
//	output:
//	  path: out.jpg
//	  format: jpeg
//	  quality: 85
//
// Operations are replayed in pipeline order: rotate, filters, crop, target.
package recipe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/image-editor-mcp/internal/editor"
	"github.com/ironsheep/image-editor-mcp/internal/imaging"
)

// Recipe is one batch edit.
type Recipe struct {
	Source   string             `yaml:"source" json:"source"`
	Rotation int                `yaml:"rotation,omitempty" json:"rotation,omitempty"`
	Filters  map[string]float64 `yaml:"filters,omitempty" json:"filters,omitempty"`

	// Crop and AspectRatio are mutually exclusive. AspectRatio seeds the
	// centered 80% crop.
	Crop        *editor.Rect `yaml:"crop,omitempty" json:"crop,omitempty"`
	AspectRatio string       `yaml:"aspect_ratio,omitempty" json:"aspect_ratio,omitempty"`

	Target              *editor.Dimensions `yaml:"target,omitempty" json:"target,omitempty"`
	MaintainAspectRatio *bool              `yaml:"maintain_aspect_ratio,omitempty" json:"maintain_aspect_ratio,omitempty"`

	Output Output `yaml:"output" json:"output"`
}

// Output says where and how the result is encoded.
type Output struct {
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
	Format  string `yaml:"format,omitempty" json:"format,omitempty"`
	Quality int    `yaml:"quality,omitempty" json:"quality,omitempty"`
}

// Parse decodes a recipe. JSON is accepted as YAML. Unknown keys are an
// error so typos do not pass silently.
func Parse(data []byte) (*Recipe, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var r Recipe
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("invalid recipe: %w", err)
	}
	if r.Source == "" {
		return nil, errors.New("invalid recipe: source is required")
	}
	return &r, nil
}

// Load reads and parses the recipe at path. A relative source is resolved
// against the recipe's directory.
func Load(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if isLocalPath(r.Source) && !filepath.IsAbs(r.Source) {
		r.Source = filepath.Join(filepath.Dir(path), r.Source)
	}
	return r, nil
}

func isLocalPath(source string) bool {
	for _, prefix := range []string{"http://", "https://", "file://"} {
		if strings.HasPrefix(source, prefix) {
			return false
		}
	}
	return true
}

// Validate reports every out-of-range or conflicting value. Apply clamps
// instead; Validate is for callers that want bad input rejected.
func (r *Recipe) Validate() error {
	var errs []error

	names := make([]string, 0, len(r.Filters))
	for name := range r.Filters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rng, err := editor.LookupFilter(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if v := r.Filters[name]; v < rng.Min || v > rng.Max {
			errs = append(errs, fmt.Errorf("filter %s=%g outside [%g, %g]", name, v, rng.Min, rng.Max))
		}
	}

	if r.Crop != nil && r.AspectRatio != "" {
		errs = append(errs, errors.New("crop and aspect_ratio are mutually exclusive"))
	}
	if r.Crop != nil {
		if r.Crop.Width <= 0 || r.Crop.Height <= 0 {
			errs = append(errs, fmt.Errorf("crop size %gx%g must be positive", r.Crop.Width, r.Crop.Height))
		}
		if r.Crop.X < 0 || r.Crop.Y < 0 {
			errs = append(errs, fmt.Errorf("crop origin (%g,%g) must not be negative", r.Crop.X, r.Crop.Y))
		}
	}
	if r.AspectRatio != "" {
		if _, err := editor.ParseAspectRatio(r.AspectRatio); err != nil {
			errs = append(errs, err)
		}
	}
	if r.Target != nil && (r.Target.Width < 0 || r.Target.Height < 0 ||
		(r.Target.Width == 0 && r.Target.Height == 0)) {
		errs = append(errs, fmt.Errorf("target %dx%d is invalid", r.Target.Width, r.Target.Height))
	}
	if _, err := imaging.ParseFormat(r.Output.Format); err != nil {
		errs = append(errs, err)
	}
	if r.Output.Quality < 0 || r.Output.Quality > 100 {
		errs = append(errs, fmt.Errorf("quality %d outside [1, 100]", r.Output.Quality))
	}

	return errors.Join(errs...)
}

// ExportOptions returns the encoder settings for the recipe's output.
func (r *Recipe) ExportOptions() (editor.ExportOptions, error) {
	format, err := imaging.ParseFormat(r.Output.Format)
	if err != nil {
		return editor.ExportOptions{}, err
	}
	opts := editor.ExportOptions{Format: format, Quality: r.Output.Quality}
	if opts.Quality <= 0 {
		opts.Quality = imaging.DefaultQuality
	}
	return opts, nil
}

// Apply replays the recipe's operations on a session that already holds
// the source. Out-of-range values are clamped by the session.
func (r *Recipe) Apply(ctx context.Context, s *editor.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := s.SetRotation(r.Rotation); err != nil {
		return fmt.Errorf("rotate: %w", err)
	}

	if len(r.Filters) > 0 {
		filters, err := editor.FiltersFromMap(r.Filters)
		if err != nil {
			return fmt.Errorf("filters: %w", err)
		}
		if _, err := s.SetFilters(filters); err != nil {
			return fmt.Errorf("filters: %w", err)
		}
	}

	switch {
	case r.Crop != nil:
		if _, err := s.SetCropArea(r.Crop); err != nil {
			return fmt.Errorf("crop: %w", err)
		}
	case r.AspectRatio != "":
		ratio, err := editor.ParseAspectRatio(r.AspectRatio)
		if err != nil {
			return fmt.Errorf("crop: %w", err)
		}
		if _, err := s.InitCropFromAspectRatio(ratio); err != nil {
			return fmt.Errorf("crop: %w", err)
		}
	}

	if r.MaintainAspectRatio != nil {
		if err := s.SetMaintainAspectRatio(*r.MaintainAspectRatio); err != nil {
			return fmt.Errorf("target: %w", err)
		}
	}
	if t := r.Target; t != nil {
		var err error
		switch {
		case t.Width > 0 && t.Height > 0:
			_, err = s.SetTargetDimensions(t.Width, t.Height)
		case t.Width > 0:
			_, err = s.SetTargetWidth(t.Width)
		case t.Height > 0:
			_, err = s.SetTargetHeight(t.Height)
		}
		if err != nil {
			return fmt.Errorf("target: %w", err)
		}
	}
	return nil
}

// Run loads the source into s, applies the recipe and exports.
func (r *Recipe) Run(ctx context.Context, s *editor.Session) (*editor.EncodedImage, editor.ExportMetadata, error) {
	if _, err := s.Load(ctx, r.Source); err != nil {
		return nil, editor.ExportMetadata{}, err
	}
	if err := r.Apply(ctx, s); err != nil {
		return nil, editor.ExportMetadata{}, err
	}
	return s.Export(ctx)
}

// FromMetadata rebuilds the recipe that produced an export. Running it
// against the same source yields an image of the same size.
func FromMetadata(source string, m editor.ExportMetadata) *Recipe {
	st := m.State()
	locked := false
	r := &Recipe{
		Source:              source,
		Rotation:            st.RotationDegrees,
		Filters:             st.Filters.Map(),
		Crop:                st.CropArea,
		Target:              &editor.Dimensions{Width: st.TargetDimensions.Width, Height: st.TargetDimensions.Height},
		MaintainAspectRatio: &locked,
		Output:              Output{Format: m.Format, Quality: m.Quality},
	}
	return r
}

// Marshal encodes r as YAML.
func (r *Recipe) Marshal() ([]byte, error) {
	return yaml.Marshal(r)
}
