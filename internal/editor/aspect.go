package editor

import (
	"fmt"
	"strconv"
	"strings"
)

// AspectRatio is a crop preset offered by the host UI. A nil Ratio means
// free-form.
type AspectRatio struct {
	Label string   `json:"label"`
	Ratio *float64 `json:"ratio"`
}

func ratio(w, h float64) *float64 {
	r := w / h
	return &r
}

// DefaultAspectRatios returns the presets offered when the host supplies none.
func DefaultAspectRatios() []AspectRatio {
	return []AspectRatio{
		{Label: "Free", Ratio: nil},
		{Label: "1:1", Ratio: ratio(1, 1)},
		{Label: "4:3", Ratio: ratio(4, 3)},
		{Label: "3:4", Ratio: ratio(3, 4)},
		{Label: "16:9", Ratio: ratio(16, 9)},
		{Label: "9:16", Ratio: ratio(9, 16)},
		{Label: "3:2", Ratio: ratio(3, 2)},
		{Label: "4:5", Ratio: ratio(4, 5)},
	}
}

// ParseAspectRatio accepts "free", "W:H", "W/H" or a decimal ratio.
func ParseAspectRatio(s string) (*float64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "free" || s == "none" {
		return nil, nil
	}

	for _, sep := range []string{":", "/"} {
		if w, h, ok := strings.Cut(s, sep); ok {
			fw, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid aspect ratio %q: %w", s, err)
			}
			fh, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid aspect ratio %q: %w", s, err)
			}
			if fw <= 0 || fh <= 0 {
				return nil, fmt.Errorf("invalid aspect ratio %q: sides must be positive", s)
			}
			return ratio(fw, fh), nil
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid aspect ratio %q: %w", s, err)
	}
	if v <= 0 {
		return nil, fmt.Errorf("invalid aspect ratio %q: must be positive", s)
	}
	return &v, nil
}
