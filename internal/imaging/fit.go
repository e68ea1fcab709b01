package imaging

import (
	"fmt"

	"github.com/nfnt/resize"

	"github.com/ironsheep/filmdev-mcp/internal/raster"
)

// Fit scales r down with Lanczos-3 so that it fits inside width×height,
// keeping the aspect ratio. A raster that already fits is returned as is.
// A non-positive bound leaves that dimension unconstrained.
func Fit(r *raster.Raster, width, height int) (*raster.Raster, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if width <= 0 {
		width = r.Width
	}
	if height <= 0 {
		height = r.Height
	}
	if r.Width <= width && r.Height <= height {
		return r, nil
	}

	img := resize.Thumbnail(uint(width), uint(height), r.Image(), resize.Lanczos3)
	out, err := raster.FromImage(img)
	if err != nil {
		return nil, fmt.Errorf("failed to fit image: %w", err)
	}
	if out.Channels != r.Channels {
		// Thumbnail promotes some inputs to RGBA; a gray source stays gray.
		return toChannels(out, r.Channels)
	}
	return out, nil
}

func toChannels(r *raster.Raster, channels int) (*raster.Raster, error) {
	out, err := raster.New(r.Width, r.Height, channels)
	if err != nil {
		return nil, err
	}
	for i := 0; i < r.PixelCount(); i++ {
		out.Pix[i*channels] = r.Pix[i*r.Channels]
		if channels == 3 {
			out.Pix[i*3+1] = r.Pix[i*r.Channels]
			out.Pix[i*3+2] = r.Pix[i*r.Channels]
		}
	}
	return out, nil
}
