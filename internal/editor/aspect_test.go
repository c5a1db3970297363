package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAspectRatio(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		free    bool
		wantErr bool
	}{
		{in: "", free: true},
		{in: "Free", free: true},
		{in: "none", free: true},
		{in: "16:9", want: 16.0 / 9.0},
		{in: " 4 / 3 ", want: 4.0 / 3.0},
		{in: "1.5", want: 1.5},
		{in: "0:1", wantErr: true},
		{in: "-2", wantErr: true},
		{in: "wide", wantErr: true},
		{in: "3:x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAspectRatio(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.free {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 1e-9)
		})
	}
}

func TestDefaultAspectRatios(t *testing.T) {
	presets := DefaultAspectRatios()
	require.NotEmpty(t, presets)
	assert.Equal(t, "Free", presets[0].Label)
	assert.Nil(t, presets[0].Ratio)

	for _, p := range presets[1:] {
		parsed, err := ParseAspectRatio(p.Label)
		require.NoError(t, err)
		assert.InDelta(t, *p.Ratio, *parsed, 1e-9, p.Label)
	}
}
