package editor

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/blend"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
)

// FilterName identifies one of the six composited adjustments.
type FilterName string

const (
	Brightness FilterName = "brightness"
	Contrast   FilterName = "contrast"
	Saturation FilterName = "saturation"
	Blur       FilterName = "blur"
	Grayscale  FilterName = "grayscale"
	Sepia      FilterName = "sepia"
)

// FilterRange describes the accepted values of a filter.
type FilterRange struct {
	Name    FilterName `json:"name"`
	Min     float64    `json:"min"`
	Max     float64    `json:"max"`
	Neutral float64    `json:"neutral"`
	Unit    string     `json:"unit"`
}

// filterOrder is the fixed application order shared by preview and export.
var filterOrder = []FilterName{Brightness, Contrast, Saturation, Blur, Grayscale, Sepia}

var filterRanges = map[FilterName]FilterRange{
	Brightness: {Name: Brightness, Min: 0, Max: 200, Neutral: 100, Unit: "percent"},
	Contrast:   {Name: Contrast, Min: 0, Max: 200, Neutral: 100, Unit: "percent"},
	Saturation: {Name: Saturation, Min: 0, Max: 200, Neutral: 100, Unit: "percent"},
	Blur:       {Name: Blur, Min: 0, Max: 20, Neutral: 0, Unit: "px"},
	Grayscale:  {Name: Grayscale, Min: 0, Max: 100, Neutral: 0, Unit: "percent"},
	Sepia:      {Name: Sepia, Min: 0, Max: 100, Neutral: 0, Unit: "percent"},
}

// ErrUnknownFilter is returned for a filter name outside the six supported ones.
var ErrUnknownFilter = errors.New("unknown filter")

// FilterRanges lists every filter with its bounds, in application order.
func FilterRanges() []FilterRange {
	out := make([]FilterRange, 0, len(filterOrder))
	for _, name := range filterOrder {
		out = append(out, filterRanges[name])
	}
	return out
}

// LookupFilter returns the range for name.
func LookupFilter(name string) (FilterRange, error) {
	r, ok := filterRanges[FilterName(name)]
	if !ok {
		return FilterRange{}, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}
	return r, nil
}

// Clamp limits v to the filter's range.
func (r FilterRange) Clamp(v float64) float64 {
	return clampFloat(v, r.Min, r.Max)
}

// Filters holds the value of every adjustment.
type Filters struct {
	Brightness float64 `json:"brightness" yaml:"brightness"`
	Contrast   float64 `json:"contrast" yaml:"contrast"`
	Saturation float64 `json:"saturation" yaml:"saturation"`
	Blur       float64 `json:"blur" yaml:"blur"`
	Grayscale  float64 `json:"grayscale" yaml:"grayscale"`
	Sepia      float64 `json:"sepia" yaml:"sepia"`
}

// NeutralFilters returns filters that leave pixels untouched.
func NeutralFilters() Filters {
	return Filters{Brightness: 100, Contrast: 100, Saturation: 100}
}

// Get returns the value of the named filter.
func (f Filters) Get(name FilterName) (float64, error) {
	p, err := f.field(name)
	if err != nil {
		return 0, err
	}
	return *p, nil
}

// With returns a copy of f with the named filter set to the clamped value,
// along with the value that was stored.
func (f Filters) With(name FilterName, value float64) (Filters, float64, error) {
	r, ok := filterRanges[name]
	if !ok {
		return f, 0, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}
	p, _ := f.field(name)
	*p = r.Clamp(value)
	return f, *p, nil
}

// Clamped returns f with every value forced into its range.
func (f Filters) Clamped() Filters {
	for _, name := range filterOrder {
		p, _ := f.field(name)
		*p = filterRanges[name].Clamp(*p)
	}
	return f
}

// Validate reports every value outside its range. Interactive sessions clamp
// instead; batch callers use Validate to reject bad input.
func (f Filters) Validate() error {
	var errs []error
	for _, name := range filterOrder {
		p, _ := f.field(name)
		r := filterRanges[name]
		if *p < r.Min || *p > r.Max {
			errs = append(errs, fmt.Errorf("%s=%g outside [%g, %g]", name, *p, r.Min, r.Max))
		}
	}
	return errors.Join(errs...)
}

// IsNeutral reports whether applying f would leave the image unchanged.
func (f Filters) IsNeutral() bool {
	return f == NeutralFilters()
}

// Map returns the filters keyed by name.
func (f Filters) Map() map[string]float64 {
	out := make(map[string]float64, len(filterOrder))
	for _, name := range filterOrder {
		p, _ := f.field(name)
		out[string(name)] = *p
	}
	return out
}

// FiltersFromMap builds clamped filters from a name→value map, starting at
// neutral. Unknown names are an error; keys are checked in sorted order so
// the reported name is stable.
func FiltersFromMap(values map[string]float64) (Filters, error) {
	f := NeutralFilters()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var err error
		f, _, err = f.With(FilterName(k), values[k])
		if err != nil {
			return NeutralFilters(), err
		}
	}
	return f, nil
}

func (f *Filters) field(name FilterName) (*float64, error) {
	switch name {
	case Brightness:
		return &f.Brightness, nil
	case Contrast:
		return &f.Contrast, nil
	case Saturation:
		return &f.Saturation, nil
	case Blur:
		return &f.Blur, nil
	case Grayscale:
		return &f.Grayscale, nil
	case Sepia:
		return &f.Sepia, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
	}
}

// ApplyFilters composites f onto src in the fixed order brightness,
// contrast, saturation, blur, grayscale, sepia. Neutral steps are skipped.
// src is never modified; when every step is neutral src itself is returned.
func ApplyFilters(src image.Image, f Filters) image.Image {
	f = f.Clamped()
	img := src

	if f.Brightness != 100 {
		img = adjust.Brightness(img, (f.Brightness-100)/100)
	}
	if f.Contrast != 100 {
		img = adjust.Contrast(img, (f.Contrast-100)/100)
	}
	if f.Saturation != 100 {
		img = adjust.Saturation(img, (f.Saturation-100)/100)
	}
	if f.Blur > 0 {
		img = blur.Gaussian(img, f.Blur)
	}
	if f.Grayscale > 0 {
		img = blend.Opacity(img, effect.Grayscale(img), f.Grayscale/100)
	}
	if f.Sepia > 0 {
		img = blend.Opacity(img, effect.Sepia(img), f.Sepia/100)
	}
	return img
}
