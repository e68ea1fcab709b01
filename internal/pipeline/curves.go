package pipeline

import (
	"github.com/ironsheep/filmdev-mcp/internal/params"
	"github.com/ironsheep/filmdev-mcp/internal/raster"
	"github.com/ironsheep/filmdev-mcp/internal/tone"
)

// expandDynamicRange applies toe, then shoulder, then midtone contrast.
// Zero strengths and unit contrast are skipped.
func expandDynamicRange(f *raster.Float, p *params.EditParameters) *raster.Float {
	toe, shoulder, contrast := p.ToeStrength, p.ShoulderStrength, p.MidtoneContrast
	return mapSamples(f, func(v float32, _ int) float32 {
		x := float64(v)
		if toe != 0 {
			x = tone.Toe(x, toe)
		}
		if shoulder != 0 {
			x = tone.Shoulder(x, shoulder)
		}
		if contrast != 1 {
			x = tone.Contrast(x, contrast)
		}
		return float32(x)
	})
}

func applyFinalCurve(f *raster.Float, p *params.EditParameters) *raster.Float {
	curve := p.FinalCurveProfile
	return mapSamples(f, func(v float32, _ int) float32 {
		return float32(curve.Apply(float64(v)))
	})
}
