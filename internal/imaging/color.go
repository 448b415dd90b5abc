package imaging

import (
	"fmt"
	"image"
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// RGBAColor is an 8-bit, non-premultiplied color.
type RGBAColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// HSLColor holds hue in degrees (0-360), saturation and lightness in percent.
type HSLColor struct {
	H int `json:"h"`
	S int `json:"s"`
	L int `json:"l"`
}

// ColorResult is one sampled pixel in several representations.
type ColorResult struct {
	Hex  string    `json:"hex"` // "#RRGGBB", alpha excluded
	RGBA RGBAColor `json:"rgba"`
	HSL  HSLColor  `json:"hsl"`
}

// SampleColor reads the pixel at (x, y), relative to the top-left corner of img.
//
// Used to inspect rendered exports and previews; an adjusted gray patch, for
// instance, can be checked against the expected brightness offset.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	b := img.Bounds()
	if x < 0 || y < 0 || x >= b.Dx() || y >= b.Dy() {
		return nil, fmt.Errorf("coordinates (%d,%d) outside %dx%d image", x, y, b.Dx(), b.Dy())
	}

	c := toNRGBA(img, b.Min.X+x, b.Min.Y+y)

	cf := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	h, s, l := cf.Hsl()
	if math.IsNaN(h) {
		h = 0
	}

	return &ColorResult{
		Hex:  strings.ToUpper(cf.Hex()),
		RGBA: c,
		HSL: HSLColor{
			H: int(math.Round(h)) % 360,
			S: int(math.Round(s * 100)),
			L: int(math.Round(l * 100)),
		},
	}, nil
}

func toNRGBA(img image.Image, x, y int) RGBAColor {
	if n, ok := img.(*image.NRGBA); ok {
		i := n.PixOffset(x, y)
		return RGBAColor{R: n.Pix[i], G: n.Pix[i+1], B: n.Pix[i+2], A: n.Pix[i+3]}
	}
	r, g, b, a := img.At(x, y).RGBA()
	if a == 0 {
		return RGBAColor{}
	}
	// Undo premultiplication before narrowing to 8 bits.
	r, g, b = r*0xffff/a, g*0xffff/a, b*0xffff/a
	return RGBAColor{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
}
