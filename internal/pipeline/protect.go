package pipeline

import (
	"github.com/ironsheep/filmdev-mcp/internal/params"
	"github.com/ironsheep/filmdev-mcp/internal/raster"
)

const (
	highlightKnee   = 0.8
	shadowKnee      = 0.2
	highlightTarget = 0.95
	maxShadowLift   = 0.05
)

// protectHighlightsShadows pulls pixels brighter than the highlight knee
// toward near-white and lifts pixels darker than the shadow knee by at most
// maxShadowLift. Both masks are squared ramps over luma.
func protectHighlightsShadows(f *raster.Float, p *params.EditParameters) *raster.Float {
	hs, sr := p.HighlightProtectionStrength, p.ShadowRecoveryStrength
	return mapPixels(f, func(in, out []float32) {
		l := luma(in)
		for c := range in {
			out[c] = in[c]
		}
		if hs > 0 {
			m := clamp((l-highlightKnee)/(1-highlightKnee), 0, 1)
			comp := 1 - hs*m*m
			for c := range out {
				out[c] = float32(float64(out[c])*comp + (1-comp)*highlightTarget)
			}
		}
		if sr > 0 {
			m := clamp((shadowKnee-l)/shadowKnee, 0, 1)
			lift := float32(sr * m * m * maxShadowLift)
			for c := range out {
				out[c] += lift
			}
		}
	})
}
