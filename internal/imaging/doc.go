// Package imaging implements the manual edit and export pipeline.
//
// A pipeline run flows one way:
//
//	Source -> Decode (+ crop) -> Adjust -> Encode -> Blob
//
// ApplyEditsAndExport runs it at full resolution for a final export;
// RenderPreview runs the identical stages on a downscaled buffer for the
// interactive preview. Crop geometry helpers (ResolveCropFromNormalized,
// ResolveCropFromAspectRatio) turn user selections into pixel rectangles on
// the original image.
//
// # Pixel Buffers
//
// Every run decodes into its own *image.NRGBA (8-bit, non-premultiplied RGBA)
// and discards it after encoding. Nothing pixel-level is retained between
// calls, so runs may execute concurrently without locking. SourceCache only
// holds encoded source bytes.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with the origin at the top-left of the image
// as displayed (after EXIF orientation). Crop rectangles are given as origin
// plus size.
//
// # Error Handling
//
// Failures are reported as *DecodeError, *InvalidCropError or *EncodeError,
// matched with errors.As. Out-of-range adjustment values are not errors: every
// stage clamps, so extreme settings saturate instead of failing.
package imaging
