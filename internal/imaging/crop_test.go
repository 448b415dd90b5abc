package imaging

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRect_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rect    Rect
		wantErr bool
	}{
		{"full image", Rect{0, 0, 200, 100}, false},
		{"interior", Rect{50, 10, 100, 80}, false},
		{"touches far edges", Rect{199, 99, 1, 1}, false},
		{"negative x", Rect{-1, 0, 10, 10}, true},
		{"negative y", Rect{0, -1, 10, 10}, true},
		{"zero width", Rect{0, 0, 0, 10}, true},
		{"negative height", Rect{0, 0, 10, -5}, true},
		{"past right edge", Rect{150, 0, 100, 100}, true},
		{"past bottom edge", Rect{0, 1, 200, 100}, true},
		{"width overflows int", Rect{1, 0, math.MaxInt, 10}, true},
		{"height overflows int", Rect{0, 1, 10, math.MaxInt}, true},
		{"origin past image", Rect{math.MaxInt, 0, 1, 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rect.Validate(200, 100)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var ice *InvalidCropError
			require.ErrorAs(t, err, &ice)
			assert.Equal(t, tt.rect, ice.Rect)
			assert.Equal(t, 200, ice.Width)
			assert.Equal(t, 100, ice.Height)
		})
	}
}

func TestResolveCropFromAspectRatio(t *testing.T) {
	tests := []struct {
		name  string
		ratio float64
		w, h  int
		want  Rect
	}{
		{"square in landscape", 1, 200, 100, Rect{50, 0, 100, 100}},
		{"square in portrait", 1, 100, 200, Rect{0, 50, 100, 100}},
		{"wide in portrait", 16.0 / 9.0, 100, 200, Rect{0, 72, 100, 56}},
		{"same ratio", 2, 200, 100, Rect{0, 0, 200, 100}},
		{"16:9 in 4000x3000", 16.0 / 9.0, 4000, 3000, Rect{0, 375, 4000, 2250}},
		{"4:5 in 1920x1080", 4.0 / 5.0, 1920, 1080, Rect{528, 0, 864, 1080}},
		{"extreme ratio keeps a pixel", 1000, 10, 10, Rect{0, 4, 10, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveCropFromAspectRatio(tt.ratio, tt.w, tt.h)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCropFromAspectRatio_AlwaysInBounds(t *testing.T) {
	ratios := []float64{0.01, 0.2, 9.0 / 16.0, 0.75, 1, 4.0 / 3.0, 1.5, 16.0 / 9.0, 3, 50}
	for w := 1; w <= 61; w += 5 {
		for h := 1; h <= 61; h += 4 {
			for _, ratio := range ratios {
				r, err := ResolveCropFromAspectRatio(ratio, w, h)
				require.NoError(t, err)
				require.NoError(t, r.Validate(w, h), "ratio %v in %dx%d gave %+v", ratio, w, h, r)
			}
		}
	}
}

func TestResolveCropFromAspectRatio_Invalid(t *testing.T) {
	for _, ratio := range []float64{0, -1.5, math.NaN(), math.Inf(1)} {
		_, err := ResolveCropFromAspectRatio(ratio, 100, 100)
		var ice *InvalidCropError
		assert.ErrorAs(t, err, &ice, "ratio %v", ratio)
	}

	_, err := ResolveCropFromAspectRatio(1, 0, 100)
	var ice *InvalidCropError
	assert.ErrorAs(t, err, &ice)
}

func TestResolveCropFromNormalized(t *testing.T) {
	tests := []struct {
		name    string
		n       NormalizedRect
		w, h    int
		want    Rect
		wantErr bool
	}{
		{
			name: "scales to natural size",
			n:    NormalizedRect{X: 10, Y: 20, Width: 50, Height: 50},
			w:    200, h: 100,
			want: Rect{20, 20, 100, 50},
		},
		{
			name: "rounds to nearest pixel",
			n:    NormalizedRect{X: 33.3, Y: 0, Width: 33.3, Height: 100},
			w:    1000, h: 10,
			want: Rect{333, 0, 333, 10},
		},
		{
			name: "clamps overflowing width",
			n:    NormalizedRect{X: 90, Y: 0, Width: 50, Height: 100},
			w:    100, h: 100,
			want: Rect{90, 0, 10, 100},
		},
		{
			name: "clamps negative origin",
			n:    NormalizedRect{X: -10, Y: -10, Width: 50, Height: 50},
			w:    100, h: 100,
			want: Rect{0, 0, 50, 50},
		},
		{
			name:    "empty after clamping",
			n:       NormalizedRect{X: 100, Y: 0, Width: 10, Height: 10},
			w:       100,
			h:       100,
			wantErr: true,
		},
		{
			name:    "zero size",
			n:       NormalizedRect{X: 10, Y: 10, Width: 0, Height: 10},
			w:       100,
			h:       100,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveCropFromNormalized(tt.n, tt.w, tt.h)
			if tt.wantErr {
				var ice *InvalidCropError
				assert.ErrorAs(t, err, &ice)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveCropFromNormalized_PreviewSizeIndependent(t *testing.T) {
	// The same percentages drawn on any preview resolve to the same source rect.
	n := NormalizedRect{X: 25, Y: 25, Width: 50, Height: 50}
	got, err := ResolveCropFromNormalized(n, 4000, 3000)
	require.NoError(t, err)
	assert.Equal(t, Rect{1000, 750, 2000, 1500}, got)
}

func TestParseAspectRatio(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantNil bool
		wantErr bool
	}{
		{in: "16:9", want: 16.0 / 9.0},
		{in: " 4 : 5 ", want: 0.8},
		{in: "1.5", want: 1.5},
		{in: "", wantNil: true},
		{in: "Original", wantNil: true},
		{in: "free", wantNil: true},
		{in: "16:0", wantErr: true},
		{in: "0", wantErr: true},
		{in: "-1:2", wantErr: true},
		{in: "wide", wantErr: true},
		{in: "a:b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAspectRatio(tt.in)
			switch {
			case tt.wantErr:
				assert.Error(t, err)
			case tt.wantNil:
				require.NoError(t, err)
				assert.Nil(t, got)
			default:
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.InDelta(t, tt.want, *got, 1e-12)
			}
		})
	}
}

func TestAspectPresetsAreValid(t *testing.T) {
	for _, p := range AspectPresets {
		ratio, err := ParseAspectRatio(p.Name)
		require.NoError(t, err)
		assert.InDelta(t, p.Ratio, *ratio, 1e-12, p.Name)
	}
}
