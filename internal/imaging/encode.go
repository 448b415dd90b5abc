package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
)

// Format is an export file format.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// DefaultJPEGQuality is used when ExportOptions.Quality is zero.
const DefaultJPEGQuality = 92

// DefaultMaxOutputPixels is used when ExportOptions.MaxPixels is zero.
const DefaultMaxOutputPixels = 100_000_000

// ParseFormat accepts "jpeg", "jpg" and "png" in any case.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jpeg", "jpg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", &EncodeError{Format: s, Err: fmt.Errorf("unsupported format")}
	}
}

// MIMEType returns the content type of encoded output.
func (f Format) MIMEType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	default:
		return "application/octet-stream"
	}
}

// ExportOptions controls serialization of the adjusted buffer.
type ExportOptions struct {
	Format Format `json:"format" yaml:"format"`

	// Quality is the JPEG quality, 1 (smallest) to 100 (best). Zero selects
	// DefaultJPEGQuality; values outside the range are clamped. Ignored for PNG.
	Quality int `json:"quality,omitempty" yaml:"quality,omitempty"`

	// Scale resamples the output to round(w*Scale) x round(h*Scale). Zero
	// means 1.
	Scale float64 `json:"scale,omitempty" yaml:"scale,omitempty"`

	// MaxPixels caps the width x height of the scaled output. Zero selects
	// DefaultMaxOutputPixels.
	MaxPixels int `json:"-" yaml:"-"`
}

// Validate checks the format and scale. It does not need a buffer, so the
// pipeline calls it before decoding.
func (o ExportOptions) Validate() error {
	if _, err := ParseFormat(string(o.Format)); err != nil {
		return err
	}
	if math.IsNaN(o.Scale) || math.IsInf(o.Scale, 0) || o.Scale < 0 {
		return &EncodeError{Format: string(o.Format), Err: fmt.Errorf("scale %v must be positive", o.Scale)}
	}
	return nil
}

func (o ExportOptions) scale() float64 {
	if o.Scale == 0 {
		return 1
	}
	return o.Scale
}

func (o ExportOptions) maxPixels() int {
	if o.MaxPixels <= 0 {
		return DefaultMaxOutputPixels
	}
	return o.MaxPixels
}

func (o ExportOptions) quality() int {
	if o.Quality == 0 {
		return DefaultJPEGQuality
	}
	return clamp(o.Quality, 1, 100)
}

// Blob is an encoded image ready to hand back to the display layer.
type Blob struct {
	Data     []byte `json:"-"`
	MIMEType string `json:"mime_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Encode resamples img by opts.Scale and serializes it.
//
// JPEG output drops alpha by flattening over opaque white. PNG output is
// lossless and keeps alpha. Errors are always *EncodeError; no partial output
// is returned.
func Encode(img image.Image, opts ExportOptions) (*Blob, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	format, _ := ParseFormat(string(opts.Format))

	b := img.Bounds()
	if b.Empty() {
		return nil, &EncodeError{Format: string(format), Err: fmt.Errorf("image has no area")}
	}

	if s := opts.scale(); s != 1 {
		fw := math.Round(float64(b.Dx()) * s)
		fh := math.Round(float64(b.Dy()) * s)
		if fw < 1 || fh < 1 {
			return nil, &EncodeError{Format: string(format),
				Err: fmt.Errorf("scale %v leaves %dx%d image with no area", s, b.Dx(), b.Dy())}
		}
		// Checked in float64 so the product cannot overflow.
		if limit := opts.maxPixels(); fw*fh > float64(limit) {
			return nil, &EncodeError{Format: string(format),
				Err: fmt.Errorf("scale %v gives %.0fx%.0f output, over the %d pixel limit", s, fw, fh, limit)}
		}
		img = imaging.Resize(img, int(fw), int(fh), imaging.Linear)
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case FormatJPEG:
		err = imaging.Encode(&buf, flatten(img), imaging.JPEG, imaging.JPEGQuality(opts.quality()))
	case FormatPNG:
		err = imaging.Encode(&buf, img, imaging.PNG)
	}
	if err != nil {
		return nil, &EncodeError{Format: string(format), Err: err}
	}

	out := img.Bounds()
	return &Blob{
		Data:     buf.Bytes(),
		MIMEType: format.MIMEType(),
		Width:    out.Dx(),
		Height:   out.Dy(),
	}, nil
}

// flatten composites img over an opaque white background.
func flatten(img image.Image) image.Image {
	if opaque, ok := img.(interface{ Opaque() bool }); ok && opaque.Opaque() {
		return img
	}
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}
