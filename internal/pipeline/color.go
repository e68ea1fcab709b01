package pipeline

import (
	"github.com/ironsheep/filmdev-mcp/internal/params"
	"github.com/ironsheep/filmdev-mcp/internal/raster"
)

const (
	// whiteBalanceRange maps ±100 temperature/tint to a ±30% channel gain.
	whiteBalanceRange = 0.3
	grayEpsilon       = 1e-6
)

// WhiteBalanceGains returns the RGB multipliers for a temperature and tint in
// [-100,100]. Positive temperature warms (red up, blue down); positive tint
// moves toward magenta (green down).
func WhiteBalanceGains(temperature, tint float64) [3]float64 {
	t := temperature / 100 * whiteBalanceRange
	g := tint / 100 * whiteBalanceRange
	return [3]float64{1 + t, 1 - g, 1 - t}
}

// NeutralizingWhiteBalance returns the temperature and tint change that would
// bring a rendered color (r, g, b in [0,1]) to gray under the gain model of
// WhiteBalanceGains. Downstream stages are not linear, so the result is a
// first-order estimate.
func NeutralizingWhiteBalance(r, g, b float64) (temperature, tint float64) {
	if r+b > grayEpsilon {
		temperature = (b - r) / (b + r) / whiteBalanceRange * 100
	}
	if g > grayEpsilon {
		tint = (1 - (r+b)/(2*g)) / whiteBalanceRange * 100
	}
	return temperature, tint
}

// balanceColor runs white balance, neutral gray balance and the film profile
// shift, each on the output of the previous.
func balanceColor(f *raster.Float, p *params.EditParameters) *raster.Float {
	out := f
	if p.WhiteBalance && (p.Temperature != 0 || p.Tint != 0) {
		out = scaleChannels(out, WhiteBalanceGains(p.Temperature, p.Tint))
	}

	if p.NeutralBalanceStrength > 0 {
		var means [3]float64
		for c := 0; c < 3; c++ {
			means[c] = Mean(out.Channel(c))
		}
		gray := (means[0] + means[1] + means[2]) / 3

		var gains [3]float64
		for c := range gains {
			corr := gray / (means[c] + grayEpsilon)
			gains[c] = 1 + (corr-1)*p.NeutralBalanceStrength
		}
		out = scaleChannels(out, gains)
	}

	return scaleChannels(out, p.FilmProfile.Shift())
}

func scaleChannels(f *raster.Float, gains [3]float64) *raster.Float {
	g := [3]float32{float32(gains[0]), float32(gains[1]), float32(gains[2])}
	return mapSamples(f, func(v float32, c int) float32 { return v * g[c] })
}

// adjustSaturation scales each channel's distance from luma by
// base·(1 + density·(L-0.5) + boost·clip(1-L, 0, 1)).
func adjustSaturation(f *raster.Float, p *params.EditParameters) *raster.Float {
	base, density, boost := p.BaseSaturation, p.DensityModulationStrength, p.ShadowColorBoost
	if base == 1 && density == 0 && boost == 0 {
		return f.Clone()
	}
	return mapPixels(f, func(in, out []float32) {
		l := luma(in)
		factor := base * (1 + density*(l-0.5) + boost*clamp(1-l, 0, 1))
		for c := range in {
			out[c] = float32(l + (float64(in[c])-l)*factor)
		}
	})
}
