package imaging

import (
	"context"
	"image"
	"math"
	"runtime"
	"sync"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/disintegration/imaging"
)

// Adjust applies p to buf and returns the adjusted buffer.
//
// The per-pixel tone and color stages modify buf in place; noise reduction and
// sharpening produce new buffers. Callers must use the returned image and must
// not share buf with another pipeline run.
//
// # Stage Order
//
// Each stage reads the output of the previous one. A stage whose parameter is
// at its no-op value is skipped, so a zero Parameters is the identity.
//
//  1. Brightness: in + value*2.55
//  2. Contrast: 128 + (100+value)/100 * (in-128)
//  3. Highlights then shadows, gated by the luminance of the pixel entering
//     this stage (0.299R + 0.587G + 0.114B):
//     highlights: in + h/100 * L/255 * (255-in)
//     shadows:    in + s/100 * (1-L/255) * in
//  4. Vibrance: boost = v/100 * (1 - (max-avg)/128); when boost > 0 every
//     channel moves toward max by boost. Negative vibrance has no effect.
//  5. Saturation: gray + (in-gray) * (100+value)/100, gray = 0.3R+0.59G+0.11B
//  6. Clamp to [0,255] and round to 8 bits
//  7. Noise reduction: Gaussian blur with sigma = value/50
//  8. Sharpness and clarity: the 3x3 Laplacian sharpen kernel blended with the
//     unsharpened pixel by sharpness/100 + clarity/150
//
// Channels are clamped to [0,255] at every stage boundary. Alpha is never
// changed.
func Adjust(ctx context.Context, buf *image.NRGBA, p Parameters) (*image.NRGBA, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p = p.sanitized()

	if p.hasToneAdjustments() {
		adjustTone(buf, p)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if p.NoiseReduction > 0 {
		buf = reduceNoise(buf, p.NoiseReduction)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	if p.Sharpness > 0 || p.Clarity > 0 {
		buf = sharpen(buf, sharpenStrength(p))
	}

	return buf, nil
}

// toneStage is one per-pixel transform over float RGB values.
type toneStage func(r, g, b float64) (float64, float64, float64)

// adjustTone runs stages 1-6 over every pixel.
func adjustTone(buf *image.NRGBA, p Parameters) {
	stages := toneStages(p)
	if len(stages) == 0 {
		return
	}

	w := buf.Rect.Dx()
	parallelRows(buf.Rect.Dy(), func(start, stop int) {
		for y := start; y < stop; y++ {
			row := buf.Pix[y*buf.Stride : y*buf.Stride+w*4]
			for i := 0; i < len(row); i += 4 {
				r, g, b := float64(row[i]), float64(row[i+1]), float64(row[i+2])
				for _, stage := range stages {
					r, g, b = stage(r, g, b)
					r, g, b = clampChannel(r), clampChannel(g), clampChannel(b)
				}
				row[i] = toUint8(r)
				row[i+1] = toUint8(g)
				row[i+2] = toUint8(b)
			}
		}
	})
}

func toneStages(p Parameters) []toneStage {
	var stages []toneStage
	if p.Brightness != 0 {
		stages = append(stages, brightness(p.Brightness))
	}
	if p.Contrast != 0 {
		stages = append(stages, contrast(p.Contrast))
	}
	if p.Highlights != 0 || p.Shadows != 0 {
		stages = append(stages, shadowsHighlights(p.Shadows, p.Highlights))
	}
	if p.Vibrance != 0 {
		stages = append(stages, vibrance(p.Vibrance))
	}
	if p.Saturation != 0 {
		stages = append(stages, saturation(p.Saturation))
	}
	return stages
}

func brightness(value float64) toneStage {
	offset := value * 2.55
	return func(r, g, b float64) (float64, float64, float64) {
		return r + offset, g + offset, b + offset
	}
}

func contrast(value float64) toneStage {
	factor := (100 + value) / 100
	return func(r, g, b float64) (float64, float64, float64) {
		return 128 + factor*(r-128), 128 + factor*(g-128), 128 + factor*(b-128)
	}
}

func shadowsHighlights(shadows, highlights float64) toneStage {
	sf := shadows / 100
	hf := highlights / 100
	return func(r, g, b float64) (float64, float64, float64) {
		l := luminance(r, g, b) / 255

		if hf != 0 {
			amt := hf * l
			r, g, b = r+amt*(255-r), g+amt*(255-g), b+amt*(255-b)
		}
		if sf != 0 {
			amt := sf * (1 - l)
			r, g, b = r+amt*r, g+amt*g, b+amt*b
		}
		return r, g, b
	}
}

func vibrance(value float64) toneStage {
	vf := value / 100
	return func(r, g, b float64) (float64, float64, float64) {
		max := math.Max(r, math.Max(g, b))
		avg := (r + g + b) / 3
		sat := (max - avg) / 128
		boost := vf * (1 - sat)
		if boost <= 0 {
			return r, g, b
		}
		return r + (max-r)*boost, g + (max-g)*boost, b + (max-b)*boost
	}
}

func saturation(value float64) toneStage {
	factor := (100 + value) / 100
	return func(r, g, b float64) (float64, float64, float64) {
		gray := 0.3*r + 0.59*g + 0.11*b
		return gray + (r-gray)*factor, gray + (g-gray)*factor, gray + (b-gray)*factor
	}
}

// luminance uses ITU-R BT.601 weights.
func luminance(r, g, b float64) float64 {
	return 0.299*r + 0.587*g + 0.114*b
}

// reduceNoise smooths buf with a Gaussian blur whose sigma grows with value
// (100 -> 2px).
func reduceNoise(buf *image.NRGBA, value float64) *image.NRGBA {
	return imaging.Blur(buf, value/50)
}

// sharpenStrength combines sharpness and clarity; clarity is the broader,
// weaker of the two.
func sharpenStrength(p Parameters) float64 {
	return math.Max(p.Sharpness, 0)/100 + math.Max(p.Clarity, 0)/150
}

// sharpenKernel returns the Laplacian sharpen kernel
//
//	 0 -1  0
//	-1  5 -1
//	 0 -1  0
//
// already blended with the identity by strength s:
// out = (1-s)*in + s*(kernel*in), i.e. center 1+4s and edge neighbours -s.
func sharpenKernel(s float64) *convolution.Kernel {
	k := convolution.NewKernel(3, 3)
	k.Matrix = []float64{
		0, -s, 0,
		-s, 1 + 4*s, -s,
		0, -s, 0,
	}
	return k
}

// sharpen convolves buf with the blended sharpen kernel. Pixels outside the
// image are replicated from the nearest edge (clamp-to-edge), so border
// pixels are sharpened like interior ones. Results are clamped to [0,255].
func sharpen(buf *image.NRGBA, strength float64) *image.NRGBA {
	// bild works on *image.RGBA; viewing the NRGBA samples through that type
	// makes it convolve the raw channel values without premultiplying.
	view := &image.RGBA{Pix: buf.Pix, Stride: buf.Stride, Rect: buf.Rect}
	out := convolution.Convolve(view, sharpenKernel(strength), &convolution.Options{
		Bias:      0,
		Wrap:      false,
		KeepAlpha: true,
	})
	return &image.NRGBA{Pix: out.Pix, Stride: out.Stride, Rect: out.Rect}
}

func clampChannel(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func toUint8(v float64) uint8 {
	return uint8(math.Round(clampChannel(v)))
}

// parallelRows splits [0, rows) into contiguous bands processed concurrently.
// Each band touches disjoint rows, so results do not depend on the split.
func parallelRows(rows int, fn func(start, stop int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers > rows {
		workers = rows
	}
	if workers <= 1 {
		fn(0, rows)
		return
	}

	band := (rows + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < rows; start += band {
		stop := start + band
		if stop > rows {
			stop = rows
		}
		wg.Add(1)
		go func(start, stop int) {
			defer wg.Done()
			fn(start, stop)
		}(start, stop)
	}
	wg.Wait()
}
