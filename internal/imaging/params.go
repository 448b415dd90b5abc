package imaging

import "math"

// Parameters is the full set of manual adjustments applied by a single pipeline run.
//
// Signed tone and color controls range over [-100, 100]; Clarity, Sharpness and
// NoiseReduction are magnitudes in [0, 100]. Zero is the no-op value for every
// control. Values outside these ranges are accepted and saturate visually; they
// never cause an error.
//
// Parameters is passed by value into the pipeline and never modified by it.
type Parameters struct {
	Brightness float64 `json:"brightness" yaml:"brightness"`
	Contrast   float64 `json:"contrast" yaml:"contrast"`
	Saturation float64 `json:"saturation" yaml:"saturation"`
	Vibrance   float64 `json:"vibrance" yaml:"vibrance"`
	Shadows    float64 `json:"shadows" yaml:"shadows"`
	Highlights float64 `json:"highlights" yaml:"highlights"`

	Clarity        float64 `json:"clarity" yaml:"clarity"`
	Sharpness      float64 `json:"sharpness" yaml:"sharpness"`
	NoiseReduction float64 `json:"noise_reduction" yaml:"noise_reduction"`

	// CropRect is an explicit crop in source pixel coordinates. It takes
	// precedence over AspectRatio.
	CropRect *Rect `json:"crop_rect,omitempty" yaml:"crop_rect,omitempty"`

	// AspectRatio (width/height) derives a centered crop when CropRect is nil.
	// Nil keeps the source aspect ratio and applies no crop.
	AspectRatio *float64 `json:"aspect_ratio,omitempty" yaml:"aspect_ratio,omitempty"`
}

// IsIdentity reports whether every adjustment is at its no-op value and no
// crop is requested.
func (p Parameters) IsIdentity() bool {
	return !p.hasToneAdjustments() && !p.hasDetailAdjustments() &&
		p.CropRect == nil && p.AspectRatio == nil
}

func (p Parameters) hasToneAdjustments() bool {
	return p.Brightness != 0 || p.Contrast != 0 || p.Saturation != 0 ||
		p.Vibrance != 0 || p.Shadows != 0 || p.Highlights != 0
}

func (p Parameters) hasDetailAdjustments() bool {
	return p.NoiseReduction > 0 || p.Sharpness > 0 || p.Clarity > 0
}

// sanitized maps NaN to the no-op value and bounds every control to a finite
// range. Noise reduction is capped at 100 since blur cost grows with it.
func (p Parameters) sanitized() Parameters {
	for _, v := range []*float64{
		&p.Brightness, &p.Contrast, &p.Saturation, &p.Vibrance, &p.Shadows, &p.Highlights,
	} {
		*v = bound(*v, -maxControl, maxControl)
	}
	p.Clarity = bound(p.Clarity, 0, maxControl)
	p.Sharpness = bound(p.Sharpness, 0, maxControl)
	p.NoiseReduction = bound(p.NoiseReduction, 0, 100)
	return p
}

const maxControl = 1e4

func bound(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}

// EffectiveCrop resolves the crop to apply against a source of the given
// natural dimensions. An explicit CropRect is validated as-is; otherwise an
// AspectRatio is turned into a centered crop. A nil result means no crop.
func (p Parameters) EffectiveCrop(naturalWidth, naturalHeight int) (*Rect, error) {
	if p.CropRect != nil {
		r := *p.CropRect
		if err := r.Validate(naturalWidth, naturalHeight); err != nil {
			return nil, err
		}
		return &r, nil
	}
	if p.AspectRatio != nil {
		r, err := ResolveCropFromAspectRatio(*p.AspectRatio, naturalWidth, naturalHeight)
		if err != nil {
			return nil, err
		}
		return &r, nil
	}
	return nil, nil
}

// Ratio returns a pointer to v, for filling Parameters.AspectRatio.
func Ratio(v float64) *float64 {
	return &v
}
