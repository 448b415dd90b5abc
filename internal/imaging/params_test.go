package imaging

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParameters_IsIdentity(t *testing.T) {
	assert.True(t, Parameters{}.IsIdentity())
	assert.False(t, Parameters{Brightness: 1}.IsIdentity())
	assert.False(t, Parameters{NoiseReduction: 1}.IsIdentity())
	assert.False(t, Parameters{AspectRatio: Ratio(1)}.IsIdentity())
	assert.False(t, Parameters{CropRect: &Rect{Width: 1, Height: 1}}.IsIdentity())
	// Negative magnitudes are treated as off.
	assert.True(t, Parameters{Sharpness: -5}.IsIdentity())
}

func TestParameters_Sanitized(t *testing.T) {
	p := Parameters{
		Brightness:     math.NaN(),
		Contrast:       math.Inf(-1),
		Clarity:        -20,
		NoiseReduction: 400,
	}.sanitized()

	assert.Equal(t, 0.0, p.Brightness)
	assert.Equal(t, -maxControl, p.Contrast)
	assert.Equal(t, 0.0, p.Clarity)
	assert.Equal(t, 100.0, p.NoiseReduction)
}

func TestParameters_EffectiveCrop(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		crop, err := Parameters{}.EffectiveCrop(100, 100)
		require.NoError(t, err)
		assert.Nil(t, crop)
	})

	t.Run("aspect ratio", func(t *testing.T) {
		crop, err := Parameters{AspectRatio: Ratio(1)}.EffectiveCrop(300, 100)
		require.NoError(t, err)
		assert.Equal(t, Rect{100, 0, 100, 100}, *crop)
	})

	t.Run("explicit rect is validated", func(t *testing.T) {
		_, err := Parameters{CropRect: &Rect{X: 90, Width: 20, Height: 10}}.EffectiveCrop(100, 100)
		var ice *InvalidCropError
		assert.ErrorAs(t, err, &ice)
	})

	t.Run("result does not alias the parameters", func(t *testing.T) {
		p := Parameters{CropRect: &Rect{Width: 10, Height: 10}}
		crop, err := p.EffectiveCrop(100, 100)
		require.NoError(t, err)
		crop.Width = 99
		assert.Equal(t, 10, p.CropRect.Width)
	})
}

func TestParameters_JSON(t *testing.T) {
	var p Parameters
	err := json.Unmarshal([]byte(`{"brightness": 12.5, "noise_reduction": 30, "crop_rect": {"x": 1, "y": 2, "width": 3, "height": 4}}`), &p)
	require.NoError(t, err)
	assert.Equal(t, 12.5, p.Brightness)
	assert.Equal(t, 30.0, p.NoiseReduction)
	assert.Equal(t, &Rect{1, 2, 3, 4}, p.CropRect)
	assert.Nil(t, p.AspectRatio)
}
