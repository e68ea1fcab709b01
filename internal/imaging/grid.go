package imaging

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/filmdev-mcp/internal/raster"
)

// DefaultGridColor is used when GridOptions.Color is empty or invalid.
const DefaultGridColor = "#ff0000"

// GridOptions configures GridOverlay.
type GridOptions struct {
	// Spacing is the distance between grid lines in pixels. Defaults to 50.
	Spacing int

	// Labels draws the coordinates of every grid intersection.
	Labels bool

	// Color is the line color as "#rrggbb".
	Color string

	// LabelScale multiplies the printed coordinates so that a grid drawn on
	// a downscaled preview can be labeled in working image pixels. Zero
	// means 1.
	LabelScale float64
}

// GridOverlay returns a copy of r with a coordinate grid drawn over it. The
// copy always has three channels so the grid color survives on gray images.
func GridOverlay(r *raster.Raster, opts GridOptions) (*raster.Raster, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	spacing := opts.Spacing
	if spacing <= 0 {
		spacing = 50
	}
	scale := opts.LabelScale
	if scale <= 0 {
		scale = 1
	}

	// Parse grid color
	c, err := colorful.Hex(opts.Color)
	if err != nil {
		c, _ = colorful.Hex(DefaultGridColor)
	}
	lr, lg, lb := c.RGB255()
	line := [3]uint8{lr, lg, lb}

	var out *raster.Raster
	if r.Channels == 3 {
		out = r.Clone()
	} else if out, err = toChannels(r, 3); err != nil {
		return nil, err
	}

	// Draw vertical lines
	for x := spacing; x < out.Width; x += spacing {
		for y := 0; y < out.Height; y++ {
			setRGB(out, x, y, line)
		}
	}

	// Draw horizontal lines
	for y := spacing; y < out.Height; y += spacing {
		for x := 0; x < out.Width; x++ {
			setRGB(out, x, y, line)
		}
	}

	if opts.Labels {
		fg := [3]uint8{255, 255, 255}
		bg := [3]uint8{0, 0, 0}
		for y := spacing; y < out.Height; y += spacing {
			for x := spacing; x < out.Width; x += spacing {
				label := fmt.Sprintf("%d,%d", int(math.Round(float64(x)*scale)), int(math.Round(float64(y)*scale)))
				drawLabel(out, x+2, y+2, label, fg, bg)
			}
		}
	}
	return out, nil
}

func setRGB(r *raster.Raster, x, y int, c [3]uint8) {
	if x < 0 || y < 0 || x >= r.Width || y >= r.Height {
		return
	}
	copy(r.Pix[(y*r.Width+x)*3:], c[:])
}

// drawLabel draws text in a 3x5 pixel digit font on an opaque box.
func drawLabel(r *raster.Raster, x, y int, text string, fg, bg [3]uint8) {
	glyphs := map[rune][]string{
		'0': {"111", "101", "101", "101", "111"},
		'1': {"010", "110", "010", "010", "111"},
		'2': {"111", "001", "111", "100", "111"},
		'3': {"111", "001", "111", "001", "111"},
		'4': {"101", "101", "111", "001", "001"},
		'5': {"111", "100", "111", "001", "111"},
		'6': {"111", "100", "111", "101", "111"},
		'7': {"111", "001", "001", "001", "001"},
		'8': {"111", "101", "111", "101", "111"},
		'9': {"111", "101", "111", "001", "111"},
		',': {"000", "000", "000", "010", "010"},
	}

	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	// Draw background
	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			setRGB(r, x+dx, y+dy, bg)
		}
	}

	// Draw text
	cx := x
	for _, ch := range text {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					setRGB(r, cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}
