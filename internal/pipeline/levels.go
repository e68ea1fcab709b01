package pipeline

import (
	"math"

	"github.com/ironsheep/filmdev-mcp/internal/params"
	"github.com/ironsheep/filmdev-mcp/internal/raster"
)

// centerHistogram shifts every sample so the chosen central statistic lands
// on the target midpoint.
func centerHistogram(f *raster.Float, p *params.EditParameters) *raster.Float {
	var central float64
	if p.MidDetection == params.Mean {
		central = Mean(f.Pix)
	} else {
		central = Median(f.Pix)
	}
	shift := float32(p.TargetMidpoint - central)
	return mapSamples(f, func(v float32, _ int) float32 { return v + shift })
}

// BlackWhitePoints computes the per-channel black and white points stage 3
// would use on f: low/high percentiles plus bias, with the black point
// clamped to [0, clip] and the white point to [1-clip, 1].
func BlackWhitePoints(f *raster.Float, p params.EditParameters) (black, white []float64) {
	black = make([]float64, f.Channels)
	white = make([]float64, f.Channels)
	for c := 0; c < f.Channels; c++ {
		s := sortedCopy(f.Channel(c))
		b := percentileSorted(s, p.BlackPointPercentile) + p.ShadowBias
		w := percentileSorted(s, p.WhitePointPercentile) + p.HighlightBias
		black[c] = clamp(b, 0, p.ClipProtection)
		white[c] = clamp(w, 1-p.ClipProtection, 1)
	}
	return black, white
}

// applyBlackWhitePoint rescales (x-black)/(white-black) per channel. A channel
// whose white point does not exceed its black point passes through.
func applyBlackWhitePoint(f *raster.Float, p *params.EditParameters) *raster.Float {
	black, white := BlackWhitePoints(f, *p)
	lo := make([]float32, f.Channels)
	scale := make([]float32, f.Channels)
	for c := range lo {
		if white[c] > black[c] {
			lo[c] = float32(black[c])
			scale[c] = float32(1 / (white[c] - black[c]))
		} else {
			scale[c] = 1
		}
	}
	return mapSamples(f, func(v float32, c int) float32 {
		return (v - lo[c]) * scale[c]
	})
}

// correctMidtones applies x^(1/gamma), then optionally pulls the median toward
// the midtone target by restoreStrength of the distance.
func correctMidtones(f *raster.Float, p *params.EditParameters) *raster.Float {
	out := f
	if p.Gamma != 1 {
		inv := 1 / p.Gamma
		out = mapSamples(f, func(v float32, _ int) float32 {
			if v <= 0 {
				return 0
			}
			return float32(math.Pow(float64(v), inv))
		})
	}
	if p.MidtoneRestoreStrength > 0 {
		adj := float32((p.MidtoneTarget - Median(out.Pix)) * p.MidtoneRestoreStrength)
		out = mapSamples(out, func(v float32, _ int) float32 { return v + adj })
	}
	if out == f {
		return f.Clone()
	}
	return out
}
