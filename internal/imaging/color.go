package imaging

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/filmdev-mcp/internal/raster"
)

// RGBColor represents an RGB color with 8-bit components.
type RGBColor struct {
	R uint8 `json:"r"` // Red component (0-255)
	G uint8 `json:"g"` // Green component (0-255)
	B uint8 `json:"b"` // Blue component (0-255)
}

// HSLColor represents a color in HSL (Hue, Saturation, Lightness) color space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent (0=gray, 100=vivid)
	L int `json:"l"` // Lightness: 0-100 percent (0=black, 50=normal, 100=white)
}

// LabColor is a CIE L*a*b* color (D65 white).
//
// A* is the green (negative) to magenta (positive) axis and B* the blue
// (negative) to yellow (positive) axis; both are zero for a neutral gray, so
// together they measure a color cast.
type LabColor struct {
	L float64 `json:"l"`
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// ColorSample is one pixel of a raster in several representations.
//
// R, G and B hold the normalized [0,1] components for numeric use; they are
// not serialized.
type ColorSample struct {
	X   int      `json:"x"`
	Y   int      `json:"y"`
	Hex string   `json:"hex"` // "#RRGGBB"
	RGB RGBColor `json:"rgb"`
	HSL HSLColor `json:"hsl"`
	Lab LabColor `json:"lab"`

	R float64 `json:"-"`
	G float64 `json:"-"`
	B float64 `json:"-"`
}

// Sample reads the pixel at (x, y). Single-channel rasters report a gray
// with equal components.
//
// # Errors
//
// Returns an error if (x, y) is outside the raster.
func Sample(r *raster.Raster, x, y int) (ColorSample, error) {
	if x < 0 || x >= r.Width || y < 0 || y >= r.Height {
		return ColorSample{}, fmt.Errorf("coordinates (%d,%d) outside image bounds %dx%d", x, y, r.Width, r.Height)
	}

	px := r.At(x, y)
	r8, g8, b8 := px[0], px[0], px[0]
	if r.Channels == 3 {
		g8, b8 = px[1], px[2]
	}

	c := colorful.Color{R: float64(r8) / 255, G: float64(g8) / 255, B: float64(b8) / 255}
	h, s, l := c.Hsl()
	if math.IsNaN(h) {
		h = 0
	}
	ll, la, lb := c.Lab()

	return ColorSample{
		X:   x,
		Y:   y,
		Hex: fmt.Sprintf("#%02X%02X%02X", r8, g8, b8),
		RGB: RGBColor{R: r8, G: g8, B: b8},
		HSL: HSLColor{H: int(h), S: int(s * 100), L: int(l * 100)},
		Lab: LabColor{L: round2(ll * 100), A: round2(la * 100), B: round2(lb * 100)},
		R:   c.R,
		G:   c.G,
		B:   c.B,
	}, nil
}

// LabeledPoint is a pixel coordinate with an optional label.
type LabeledPoint struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Label string `json:"label,omitempty"`
}

// LabeledSample is a ColorSample tagged with the label of its point.
type LabeledSample struct {
	Label string `json:"label,omitempty"`
	ColorSample
}

// SampleMulti samples every point in order. On error no partial result is
// returned.
func SampleMulti(r *raster.Raster, points []LabeledPoint) ([]LabeledSample, error) {
	out := make([]LabeledSample, 0, len(points))
	for _, p := range points {
		s, err := Sample(r, p.X, p.Y)
		if err != nil {
			return nil, fmt.Errorf("failed to sample point (%d,%d): %w", p.X, p.Y, err)
		}
		out = append(out, LabeledSample{Label: p.Label, ColorSample: s})
	}
	return out, nil
}

// CastStrength is the chroma of a sample in Lab units: its distance from the
// neutral axis.
func (s ColorSample) CastStrength() float64 {
	return round2(math.Hypot(s.Lab.A, s.Lab.B))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
