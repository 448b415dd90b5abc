package imaging

import (
	"bytes"
	"context"
	"image"

	"github.com/disintegration/imaging"
)

// Decode loads src into a fresh pixel buffer, optionally cropped.
//
// With a nil crop the buffer has the full source dimensions. With a crop the
// buffer is crop.Width x crop.Height and its origin (0,0) is source pixel
// (crop.X, crop.Y). EXIF orientation is applied before cropping, so crop
// coordinates refer to the image as displayed.
//
// Errors:
//   - *InvalidCropError if the rectangle is malformed or exceeds the source;
//     no pixel buffer is allocated in that case
//   - *DecodeError if the source cannot be read or decoded
//   - ctx.Err() if the context is done
func Decode(ctx context.Context, src Source, crop *Rect) (*image.NRGBA, error) {
	if crop != nil {
		if err := crop.checkShape(); err != nil {
			return nil, err
		}
	}

	img, err := decodeSource(ctx, src)
	if err != nil {
		return nil, err
	}

	if crop == nil {
		return imaging.Clone(img), nil
	}

	b := img.Bounds()
	if err := crop.Validate(b.Dx(), b.Dy()); err != nil {
		return nil, err
	}
	return imaging.Crop(img, crop.Bounds().Add(b.Min)), nil
}

// decodeSource reads and decodes src without building a working buffer.
func decodeSource(ctx context.Context, src Source) (image.Image, error) {
	data, err := readSource(ctx, src, 0)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &DecodeError{Source: src.String(), Err: err}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{Source: src.String(), Err: err}
	}
	return img, nil
}
