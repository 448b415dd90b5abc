package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// solidImage creates a width x height NRGBA image filled with c.
func solidImage(width, height int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

// gradientImage creates an image whose channels vary with position.
func gradientImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(width-1, 1)),
				G: uint8(y * 255 / max(height-1, 1)),
				B: uint8((x + y) * 7 % 256),
				A: 255,
			})
		}
	}
	return img
}

// pngSource encodes img as PNG into an in-memory source.
func pngSource(t *testing.T, img image.Image) *BytesSource {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &BytesSource{Name: "test.png", Data: buf.Bytes()}
}

// writePNG encodes img into a temp file and returns its path.
func writePNG(t *testing.T, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "source.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func pixel(img *image.NRGBA, x, y int) color.NRGBA {
	return img.NRGBAAt(img.Rect.Min.X+x, img.Rect.Min.Y+y)
}

var (
	red   = color.NRGBA{R: 255, A: 255}
	gray  = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)
