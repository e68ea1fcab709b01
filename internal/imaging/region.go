package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/filmdev-mcp/internal/raster"
)

// Region extracts the rectangle (x1,y1)-(x2,y2), exclusive of x2 and y2, and
// scales it by scale with Lanczos resampling. A scale of 0 or 1 returns the
// pixels unscaled.
func Region(r *raster.Raster, x1, y1, x2, y2 int, scale float64) (*raster.Raster, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	// Validate coordinates
	if x1 < 0 || y1 < 0 || x2 > r.Width || y2 > r.Height {
		return nil, fmt.Errorf("region (%d,%d)-(%d,%d) outside image bounds (0,0)-(%d,%d)",
			x1, y1, x2, y2, r.Width, r.Height)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid region: x1 must be < x2, y1 must be < y2")
	}
	if scale < 0 {
		return nil, fmt.Errorf("invalid scale %v", scale)
	}

	cropped := imaging.Crop(r.Image(), image.Rect(x1, y1, x2, y2))

	if scale != 1.0 && scale > 0 {
		newWidth := max(1, int(float64(cropped.Bounds().Dx())*scale))
		newHeight := max(1, int(float64(cropped.Bounds().Dy())*scale))
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	return raster.FromNRGBA(cropped, r.Channels)
}

// NamedRegion extracts a named part of the frame: a quadrant ("top-left",
// "top-right", "bottom-left", "bottom-right"), a half ("top-half",
// "bottom-half", "left-half", "right-half") or "center", the middle 50%.
func NamedRegion(r *raster.Raster, region string, scale float64) (*raster.Raster, error) {
	w := r.Width
	h := r.Height
	midX := w / 2
	midY := h / 2

	var x1, y1, x2, y2 int

	switch region {
	case "top-left":
		x1, y1, x2, y2 = 0, 0, midX, midY
	case "top-right":
		x1, y1, x2, y2 = midX, 0, w, midY
	case "bottom-left":
		x1, y1, x2, y2 = 0, midY, midX, h
	case "bottom-right":
		x1, y1, x2, y2 = midX, midY, w, h
	case "top-half":
		x1, y1, x2, y2 = 0, 0, w, midY
	case "bottom-half":
		x1, y1, x2, y2 = 0, midY, w, h
	case "left-half":
		x1, y1, x2, y2 = 0, 0, midX, h
	case "right-half":
		x1, y1, x2, y2 = midX, 0, w, h
	case "center":
		qW := w / 4
		qH := h / 4
		x1, y1, x2, y2 = qW, qH, w-qW, h-qH
	default:
		return nil, fmt.Errorf("unknown region: %s", region)
	}

	return Region(r, x1, y1, x2, y2, scale)
}

// RegionNames lists the names accepted by NamedRegion.
var RegionNames = []string{
	"top-left", "top-right", "bottom-left", "bottom-right",
	"top-half", "bottom-half", "left-half", "right-half", "center",
}
