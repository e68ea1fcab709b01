// Package imaging moves rasters in and out of files and reports on their
// contents.
//
// It covers the edges of the development pipeline: decoding scans
// (JPEG, PNG, GIF, TIFF, BMP) with EXIF orientation applied, caching
// decoded sources, encoding results (JPEG, PNG, Deflate TIFF) at 8 bits per
// channel, fitting previews into a viewport, per-channel histograms and
// pixel color sampling. Region and GridOverlay help inspect a frame: the
// first cuts out (and optionally magnifies) part of it, the second draws a
// labeled coordinate grid so a crop can be read off a preview.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner,
// X increasing rightward and Y increasing downward.
//
// # Channels
//
// Grayscale files decode to single-channel rasters and are written back as
// grayscale. Every other file decodes to RGB; alpha is dropped.
//
// # Color Representation
//
// Sampled colors are reported as:
//   - Hex: "#RRGGBB"
//   - RGB: 8-bit components (0-255)
//   - HSL: Hue (0-360), Saturation (0-100), Lightness (0-100)
//   - Lab: CIE L*a*b*, whose a*/b* components measure a color cast
//
// # Errors
//
// Decoding failures wrap ErrDecode or ErrUnsupportedFormat, and encoding
// failures wrap ErrEncode, so callers can tell I/O problems apart from bad
// input with errors.Is.
//
// # Thread Safety
//
// SourceCache is safe for concurrent use. All other functions are stateless.
package imaging
