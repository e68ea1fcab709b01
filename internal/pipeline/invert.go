package pipeline

import (
	"github.com/ironsheep/filmdev-mcp/internal/params"
	"github.com/ironsheep/filmdev-mcp/internal/raster"
)

// Film base is estimated from the brightest 5% of the negative, where the
// scan sees unexposed film.
const (
	filmBasePercentile = 95
	rescaleLow         = 0.1
	rescaleHigh        = 99.9
)

func invert(f *raster.Float, kind params.ImageKind) *raster.Float {
	switch kind {
	case params.ColorNegative:
		return invertColorNegative(f)
	case params.BWNegative:
		return invertBWNegative(f)
	default:
		return f
	}
}

// invertColorNegative computes (1-x) - (1-base) per channel, which removes
// the orange mask, then stretches the pooled 0.1/99.9 percentile range back
// to [0,1]. A flat result is left unstretched.
func invertColorNegative(f *raster.Float) *raster.Float {
	base := make([]float32, f.Channels)
	for c := range base {
		base[c] = float32(Percentile(f.Channel(c), filmBasePercentile))
	}

	inv := f.Like()
	for i, v := range f.Pix {
		inv.Pix[i] = (1 - v) - (1 - base[i%f.Channels])
	}

	s := sortedCopy(inv.Pix)
	lo := float32(percentileSorted(s, rescaleLow))
	hi := float32(percentileSorted(s, rescaleHigh))
	if hi > lo {
		return mapSamples(inv, func(v float32, _ int) float32 {
			return (v - lo) / (hi - lo)
		})
	}
	return mapSamples(inv, func(v float32, _ int) float32 { return v })
}

// invertBWNegative collapses to luma and inverts. The result always has one
// channel.
func invertBWNegative(f *raster.Float) *raster.Float {
	out := raster.NewFloat(f.Width, f.Height, 1)
	ch := f.Channels
	mapRows(f, func(y0, y1 int) {
		for i := y0 * f.Width; i < y1*f.Width; i++ {
			out.Pix[i] = clip01(1 - float32(luma(f.Pix[i*ch:(i+1)*ch])))
		}
	})
	return out
}
