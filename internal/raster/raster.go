package raster

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Validation errors. Callers test for them with errors.Is.
var (
	// ErrInvalidChannels is returned when a raster has a channel count other than 1 or 3.
	ErrInvalidChannels = errors.New("raster must have 1 or 3 channels")

	// ErrEmptyRaster is returned for rasters with zero width or height.
	ErrEmptyRaster = errors.New("raster has zero area")

	// ErrChannelMismatch is returned when the pixel buffer length does not
	// agree with width*height*channels.
	ErrChannelMismatch = errors.New("pixel buffer does not match dimensions and channel count")
)

// Raster is an 8-bit image with interleaved samples.
//
// Channels is 1 (luma) or 3 (RGB). Samples are stored row-major, so the
// sample for channel c of pixel (x, y) lives at Pix[(y*Width+x)*Channels+c].
type Raster struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// New allocates a zeroed raster.
func New(width, height, channels int) (*Raster, error) {
	if err := checkShape(width, height, channels); err != nil {
		return nil, err
	}
	return &Raster{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]uint8, width*height*channels),
	}, nil
}

// Validate reports whether the raster can enter the pipeline.
func (r *Raster) Validate() error {
	if r == nil {
		return ErrEmptyRaster
	}
	if err := checkShape(r.Width, r.Height, r.Channels); err != nil {
		return err
	}
	if len(r.Pix) != r.Width*r.Height*r.Channels {
		return fmt.Errorf("%w: have %d samples, want %d", ErrChannelMismatch,
			len(r.Pix), r.Width*r.Height*r.Channels)
	}
	return nil
}

func checkShape(width, height, channels int) error {
	if channels != 1 && channels != 3 {
		return fmt.Errorf("%w: got %d", ErrInvalidChannels, channels)
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrEmptyRaster, width, height)
	}
	return nil
}

// PixelCount returns width*height.
func (r *Raster) PixelCount() int {
	return r.Width * r.Height
}

// Clone returns a deep copy.
func (r *Raster) Clone() *Raster {
	pix := make([]uint8, len(r.Pix))
	copy(pix, r.Pix)
	return &Raster{Width: r.Width, Height: r.Height, Channels: r.Channels, Pix: pix}
}

// Equal reports whether both rasters have the same shape and samples.
func (r *Raster) Equal(o *Raster) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.Width != o.Width || r.Height != o.Height || r.Channels != o.Channels {
		return false
	}
	for i := range r.Pix {
		if r.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

// At returns the samples of pixel (x, y). The slice aliases Pix.
func (r *Raster) At(x, y int) []uint8 {
	i := (y*r.Width + x) * r.Channels
	return r.Pix[i : i+r.Channels]
}

// FromImage converts a decoded image into a raster.
//
// Grayscale images (*image.Gray, *image.Gray16) become single-channel rasters;
// everything else is flattened to RGB, dropping alpha.
func FromImage(img image.Image) (*Raster, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	switch img.(type) {
	case *image.Gray, *image.Gray16:
		r, err := New(w, h, 1)
		if err != nil {
			return nil, err
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
				r.Pix[y*w+x] = g.Y
			}
		}
		return r, nil
	}

	r, err := New(w, h, 3)
	if err != nil {
		return nil, err
	}
	// Non-premultiplied, so dropping alpha keeps the stored color.
	nrgba := imaging.Clone(img)
	for y := 0; y < h; y++ {
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+w*4]
		dst := r.Pix[y*w*3 : (y+1)*w*3]
		for x := 0; x < w; x++ {
			dst[x*3+0] = src[x*4+0]
			dst[x*3+1] = src[x*4+1]
			dst[x*3+2] = src[x*4+2]
		}
	}
	return r, nil
}

// Image returns the raster as a standard library image: *image.Gray for one
// channel, opaque *image.NRGBA for three.
func (r *Raster) Image() image.Image {
	rect := image.Rect(0, 0, r.Width, r.Height)
	if r.Channels == 1 {
		g := image.NewGray(rect)
		for y := 0; y < r.Height; y++ {
			copy(g.Pix[y*g.Stride:y*g.Stride+r.Width], r.Pix[y*r.Width:(y+1)*r.Width])
		}
		return g
	}

	n := image.NewNRGBA(rect)
	for y := 0; y < r.Height; y++ {
		src := r.Pix[y*r.Width*3 : (y+1)*r.Width*3]
		dst := n.Pix[y*n.Stride : y*n.Stride+r.Width*4]
		for x := 0; x < r.Width; x++ {
			dst[x*4+0] = src[x*3+0]
			dst[x*4+1] = src[x*3+1]
			dst[x*4+2] = src[x*3+2]
			dst[x*4+3] = 0xff
		}
	}
	return n
}

// FromNRGBA converts the output of an imaging operation back into a raster
// with the given channel count. For one channel the red sample is kept, which
// is exact for images that started out gray.
func FromNRGBA(img *image.NRGBA, channels int) (*Raster, error) {
	b := img.Bounds()
	r, err := New(b.Dx(), b.Dy(), channels)
	if err != nil {
		return nil, err
	}
	for y := 0; y < r.Height; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+r.Width*4]
		for x := 0; x < r.Width; x++ {
			i := (y*r.Width + x) * channels
			r.Pix[i] = src[x*4]
			if channels == 3 {
				r.Pix[i+1] = src[x*4+1]
				r.Pix[i+2] = src[x*4+2]
			}
		}
	}
	return r, nil
}
