package imaging

import (
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"
)

// Rect is a crop rectangle in source pixel coordinates.
//
// (X, Y) is the top-left corner (inclusive); the rectangle spans Width
// columns and Height rows.
type Rect struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Bounds converts r to an image.Rectangle.
func (r Rect) Bounds() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// checkShape validates the parts of r that do not depend on the image size.
func (r Rect) checkShape() error {
	switch {
	case r.X < 0 || r.Y < 0:
		return &InvalidCropError{Rect: r, Reason: "origin must be non-negative"}
	case r.Width <= 0 || r.Height <= 0:
		return &InvalidCropError{Rect: r, Reason: "width and height must be positive"}
	}
	return nil
}

// Validate checks that r lies entirely inside a width x height image.
func (r Rect) Validate(width, height int) error {
	if err := r.checkShape(); err != nil {
		ice := err.(*InvalidCropError)
		ice.Width, ice.Height = width, height
		return ice
	}
	// Compare against the remaining span so huge sizes cannot overflow.
	if r.X > width || r.Y > height || r.Width > width-r.X || r.Height > height-r.Y {
		return &InvalidCropError{Rect: r, Width: width, Height: height, Reason: "rectangle exceeds image bounds"}
	}
	return nil
}

// NormalizedRect is a rectangle in percentages (0-100) of the displayed image,
// as drawn by the user on a preview of any size.
type NormalizedRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ResolveCropFromNormalized maps a percentage rectangle onto the natural
// (original, not preview-scaled) image dimensions.
//
// Each coordinate is computed as round(v/100 * natural). Coordinates that fall
// outside the image are clamped into it; a rectangle that ends up empty is
// rejected with InvalidCropError.
func ResolveCropFromNormalized(n NormalizedRect, naturalWidth, naturalHeight int) (Rect, error) {
	if naturalWidth <= 0 || naturalHeight <= 0 {
		return Rect{}, &InvalidCropError{Width: naturalWidth, Height: naturalHeight, Reason: "image has no area"}
	}

	x := clamp(toPixels(n.X, naturalWidth), 0, naturalWidth)
	y := clamp(toPixels(n.Y, naturalHeight), 0, naturalHeight)
	w := clamp(toPixels(n.Width, naturalWidth), 0, naturalWidth-x)
	h := clamp(toPixels(n.Height, naturalHeight), 0, naturalHeight-y)

	r := Rect{X: x, Y: y, Width: w, Height: h}
	if err := r.Validate(naturalWidth, naturalHeight); err != nil {
		return Rect{}, err
	}
	return r, nil
}

func toPixels(percent float64, natural int) int {
	if math.IsNaN(percent) {
		return 0
	}
	return int(math.Round(percent / 100 * float64(natural)))
}

// ResolveCropFromAspectRatio returns the largest centered rectangle with the
// given width/height ratio that fits inside the natural image dimensions.
//
//	height = min(naturalHeight, naturalWidth/ratio)
//	width  = height * ratio
//
// The result always satisfies 0 <= x, 0 <= y, x+width <= naturalWidth and
// y+height <= naturalHeight.
func ResolveCropFromAspectRatio(ratio float64, naturalWidth, naturalHeight int) (Rect, error) {
	if naturalWidth <= 0 || naturalHeight <= 0 {
		return Rect{}, &InvalidCropError{Width: naturalWidth, Height: naturalHeight, Reason: "image has no area"}
	}
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) || ratio <= 0 {
		return Rect{}, &InvalidCropError{Width: naturalWidth, Height: naturalHeight,
			Reason: fmt.Sprintf("aspect ratio %v must be a positive number", ratio)}
	}

	hf := math.Min(float64(naturalHeight), float64(naturalWidth)/ratio)
	wf := hf * ratio

	w := clamp(int(math.Round(wf)), 1, naturalWidth)
	h := clamp(int(math.Round(hf)), 1, naturalHeight)

	return Rect{
		X:      (naturalWidth - w) / 2,
		Y:      (naturalHeight - h) / 2,
		Width:  w,
		Height: h,
	}, nil
}

// AspectPreset is a named crop ratio offered by the crop tool.
type AspectPreset struct {
	Name  string  `json:"name"`
	Ratio float64 `json:"ratio"`
}

// AspectPresets lists the crop ratios offered alongside free-form cropping.
var AspectPresets = []AspectPreset{
	{Name: "1:1", Ratio: 1},
	{Name: "4:3", Ratio: 4.0 / 3.0},
	{Name: "3:2", Ratio: 3.0 / 2.0},
	{Name: "16:9", Ratio: 16.0 / 9.0},
	{Name: "9:16", Ratio: 9.0 / 16.0},
	{Name: "4:5", Ratio: 4.0 / 5.0},
}

// ParseAspectRatio parses "W:H" (e.g. "16:9"), a plain ratio ("1.5"), or
// "original"/"" which yields nil (keep the source aspect ratio).
func ParseAspectRatio(s string) (*float64, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" || s == "original" || s == "free" {
		return nil, nil
	}

	var ratio float64
	if w, h, ok := strings.Cut(s, ":"); ok {
		wf, err := strconv.ParseFloat(strings.TrimSpace(w), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid aspect ratio %q: %w", s, err)
		}
		hf, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid aspect ratio %q: %w", s, err)
		}
		if hf == 0 {
			return nil, fmt.Errorf("invalid aspect ratio %q: zero height", s)
		}
		ratio = wf / hf
	} else {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid aspect ratio %q: %w", s, err)
		}
		ratio = f
	}

	if math.IsNaN(ratio) || math.IsInf(ratio, 0) || ratio <= 0 {
		return nil, fmt.Errorf("invalid aspect ratio %q: must be positive", s)
	}
	return &ratio, nil
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
