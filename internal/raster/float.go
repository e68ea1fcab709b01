package raster

import "math"

// Float is the normalized working form of a raster. Samples nominally lie in
// [0,1] but intermediate stages may leave them outside that range.
type Float struct {
	Width    int
	Height   int
	Channels int
	Pix      []float32
}

// NewFloat allocates a zeroed float raster.
func NewFloat(width, height, channels int) *Float {
	return &Float{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]float32, width*height*channels),
	}
}

// Float converts 8-bit samples to [0,1].
func (r *Raster) Float() *Float {
	f := NewFloat(r.Width, r.Height, r.Channels)
	for i, v := range r.Pix {
		f.Pix[i] = float32(v) / 255
	}
	return f
}

// Clone returns a deep copy.
func (f *Float) Clone() *Float {
	out := NewFloat(f.Width, f.Height, f.Channels)
	copy(out.Pix, f.Pix)
	return out
}

// Like allocates a zeroed float raster with the same shape as f.
func (f *Float) Like() *Float {
	return NewFloat(f.Width, f.Height, f.Channels)
}

// PixelCount returns width*height.
func (f *Float) PixelCount() int {
	return f.Width * f.Height
}

// Channel copies out every sample of channel c.
func (f *Float) Channel(c int) []float32 {
	n := f.PixelCount()
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = f.Pix[i*f.Channels+c]
	}
	return out
}

// Quantize clips to [0,1] and converts to 8-bit using round(x*255).
func (f *Float) Quantize() *Raster {
	r := &Raster{
		Width:    f.Width,
		Height:   f.Height,
		Channels: f.Channels,
		Pix:      make([]uint8, len(f.Pix)),
	}
	for i, v := range f.Pix {
		r.Pix[i] = quantize(v)
	}
	return r
}

func quantize(v float32) uint8 {
	if v != v || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(float64(v) * 255))
}
