package imaging

import "fmt"

// DecodeError reports that a source image could not be read or decoded.
// It is terminal for the pipeline run; retrying needs a different source.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode image %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// InvalidCropError reports a crop rectangle that does not fit inside the
// source image. It is raised before any pixel buffer is allocated.
type InvalidCropError struct {
	Rect   Rect
	Width  int
	Height int
	Reason string
}

func (e *InvalidCropError) Error() string {
	return fmt.Sprintf("invalid crop (%d,%d %dx%d) for %dx%d image: %s",
		e.Rect.X, e.Rect.Y, e.Rect.Width, e.Rect.Height, e.Width, e.Height, e.Reason)
}

// EncodeError reports that the adjusted buffer could not be serialized.
type EncodeError struct {
	Format string
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("failed to encode %s image: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }
