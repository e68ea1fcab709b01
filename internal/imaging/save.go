package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/disintegration/imaging"
	"golang.org/x/image/tiff"

	"github.com/ironsheep/filmdev-mcp/internal/raster"
)

// DefaultJPEGQuality is used when SaveOptions.JPEGQuality is unset.
const DefaultJPEGQuality = 95

// SaveOptions tunes the encoders.
type SaveOptions struct {
	// JPEGQuality is 1-100. Zero selects DefaultJPEGQuality.
	JPEGQuality int
}

func (o SaveOptions) jpegQuality() int {
	if o.JPEGQuality <= 0 || o.JPEGQuality > 100 {
		return DefaultJPEGQuality
	}
	return o.JPEGQuality
}

// FormatFor returns the encoder format for a file name, chosen by extension.
// JPEG, PNG and TIFF are supported.
func FormatFor(path string) (imaging.Format, error) {
	f, err := imaging.FormatFromFilename(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
	switch f {
	case imaging.JPEG, imaging.PNG, imaging.TIFF:
		return f, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
}

// Encode writes r to w in the given format at 8 bits per channel.
// Single-channel rasters are written as grayscale.
//
// TIFF output uses Deflate compression with the horizontal predictor.
func Encode(w io.Writer, r *raster.Raster, format imaging.Format, opts SaveOptions) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}

	var err error
	switch format {
	case imaging.TIFF:
		err = tiff.Encode(w, r.Image(), &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case imaging.JPEG:
		err = imaging.Encode(w, r.Image(), format, imaging.JPEGQuality(opts.jpegQuality()))
	case imaging.PNG:
		err = imaging.Encode(w, r.Image(), format)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return nil
}

// Save writes r to path, choosing the format from the extension. A partially
// written file is removed on failure.
func Save(r *raster.Raster, path string, opts SaveOptions) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	if err := Encode(f, r, format, opts); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("%w: %w", ErrEncode, err)
	}
	return nil
}

// EncodedImage is an in-memory encoded raster for returning over the wire.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodeBase64 encodes r as PNG, or as JPEG when jpeg is set, and returns
// the bytes base64-encoded.
func EncodeBase64(r *raster.Raster, jpeg bool, opts SaveOptions) (*EncodedImage, error) {
	format, mime := imaging.PNG, "image/png"
	if jpeg {
		format, mime = imaging.JPEG, "image/jpeg"
	}

	var buf bytes.Buffer
	if err := Encode(&buf, r, format, opts); err != nil {
		return nil, err
	}
	return &EncodedImage{
		Width:       r.Width,
		Height:      r.Height,
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    mime,
	}, nil
}
