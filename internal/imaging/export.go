package imaging

import (
	"context"
	"image"

	"github.com/disintegration/imaging"
)

// ApplyEditsAndExport runs the full pipeline: decode src (cropped as p
// requests), apply p, and encode with opts.
//
// The export options are validated before any I/O. The crop is resolved
// against the oriented source dimensions and rejected with *InvalidCropError
// before a working buffer exists. On any error no blob is returned.
func ApplyEditsAndExport(ctx context.Context, src Source, p Parameters, opts ExportOptions) (*Blob, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	buf, err := decodeForEdit(ctx, src, p, 0)
	if err != nil {
		return nil, err
	}

	adjusted, err := Adjust(ctx, buf, p)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Encode(adjusted, opts)
}

// PreviewOptions controls the reduced-fidelity interactive render.
type PreviewOptions struct {
	// MaxDimension bounds the longer side of the working buffer. Zero keeps
	// the full resolution.
	MaxDimension int
	// Quality is the JPEG quality of the preview.
	Quality int
}

// RenderPreview runs the same pipeline as ApplyEditsAndExport on a buffer
// downscaled to fit PreviewOptions.MaxDimension, and encodes it as JPEG.
func RenderPreview(ctx context.Context, src Source, p Parameters, opts PreviewOptions) (*Blob, error) {
	buf, err := decodeForEdit(ctx, src, p, opts.MaxDimension)
	if err != nil {
		return nil, err
	}

	adjusted, err := Adjust(ctx, buf, p)
	if err != nil {
		return nil, err
	}

	// A superseded preview skips encoding.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Encode(adjusted, ExportOptions{Format: FormatJPEG, Quality: opts.Quality})
}

// decodeForEdit decodes src, applies the crop implied by p and, when
// maxDimension is positive, shrinks the result to fit it.
func decodeForEdit(ctx context.Context, src Source, p Parameters, maxDimension int) (*image.NRGBA, error) {
	if p.CropRect != nil {
		if err := p.CropRect.checkShape(); err != nil {
			return nil, err
		}
	}

	img, err := decodeSource(ctx, src)
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	crop, err := p.EffectiveCrop(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}

	var buf *image.NRGBA
	if crop != nil {
		buf = imaging.Crop(img, crop.Bounds().Add(b.Min))
	} else {
		buf = imaging.Clone(img)
	}

	if maxDimension > 0 && (buf.Rect.Dx() > maxDimension || buf.Rect.Dy() > maxDimension) {
		buf = imaging.Fit(buf, maxDimension, maxDimension, imaging.Linear)
	}
	return buf, nil
}
