// Package pipeline turns an 8-bit scan into a finished image by running a
// fixed sequence of tone and color stages.
//
// The engine is a pure function of (raster, parameters). It never mutates its
// input and keeps no state between calls, so two runs with the same inputs
// produce byte-identical output. Each stage reads an immutable float raster
// and returns a new one.
//
// Stage order:
//
//  1. Inversion (decided by the image kind, not toggleable)
//  2. Histogram centering
//  3. Black/white point
//  4. Midtone correction
//  5. Dynamic range expansion
//  6. Color balance (color images only)
//  7. Local contrast smoothing
//  8. Saturation (color images only)
//  9. Highlight/shadow protection
//  10. Final tone curve
//
// The result is clipped to [0,1] and quantized with round(x·255).
package pipeline

import (
	"fmt"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/filmdev-mcp/internal/params"
	"github.com/ironsheep/filmdev-mcp/internal/raster"
)

// Stage identifies one optional pipeline stage.
type Stage int

const (
	HistogramCentering Stage = iota
	BlackWhitePoint
	MidtoneCorrection
	DynamicRange
	ColorBalance
	Smoothing
	Saturation
	Protection
	FinalCurve

	numStages
)

var stageNames = [numStages]string{
	HistogramCentering: "histogram-centering",
	BlackWhitePoint:    "black-white-point",
	MidtoneCorrection:  "midtone",
	DynamicRange:       "dynamic-range",
	ColorBalance:       "color-balance",
	Smoothing:          "smoothing",
	Saturation:         "saturation",
	Protection:         "protection",
	FinalCurve:         "final-curve",
}

func (s Stage) String() string {
	if s < 0 || s >= numStages {
		return "unknown"
	}
	return stageNames[s]
}

type stageFunc func(f *raster.Float, p *params.EditParameters) *raster.Float

type stageEntry struct {
	enabled func(p *params.EditParameters) bool
	apply   stageFunc
	// colorOnly stages are skipped for single-channel rasters and BW negatives.
	colorOnly bool
}

var stageTable = [numStages]stageEntry{
	HistogramCentering: {enabled: func(p *params.EditParameters) bool { return p.HistogramCentering }, apply: centerHistogram},
	BlackWhitePoint:    {enabled: func(p *params.EditParameters) bool { return p.BlackWhitePoint }, apply: applyBlackWhitePoint},
	MidtoneCorrection:  {enabled: func(p *params.EditParameters) bool { return p.Midtone }, apply: correctMidtones},
	DynamicRange:       {enabled: func(p *params.EditParameters) bool { return p.DynamicRange }, apply: expandDynamicRange},
	ColorBalance:       {enabled: func(p *params.EditParameters) bool { return p.ColorBalance }, apply: balanceColor, colorOnly: true},
	Smoothing:          {enabled: func(p *params.EditParameters) bool { return p.Smoothing }, apply: smoothLocalContrast},
	Saturation:         {enabled: func(p *params.EditParameters) bool { return p.Saturation }, apply: adjustSaturation, colorOnly: true},
	Protection:         {enabled: func(p *params.EditParameters) bool { return p.Protection }, apply: protectHighlightsShadows},
	FinalCurve:         {enabled: func(p *params.EditParameters) bool { return p.FinalCurve }, apply: applyFinalCurve},
}

// ActiveStages lists the stages that will run for parameters p on a raster
// whose working form has the given channel count. BW negatives always work
// on one channel after inversion.
func ActiveStages(p params.EditParameters, channels int) []Stage {
	if p.Kind == params.BWNegative {
		channels = 1
	}
	var out []Stage
	for s := Stage(0); s < numStages; s++ {
		e := stageTable[s]
		if !e.enabled(&p) {
			continue
		}
		if e.colorOnly && (channels != 3 || !p.Kind.IsColor()) {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Engine runs the pipeline. The zero value is ready to use.
type Engine struct{}

// New returns an engine.
func New() *Engine {
	return &Engine{}
}

// Process runs the full pipeline on src with parameters p.
//
// src and p are validated before any stage runs; on error no raster is
// returned. The output has the same dimensions as src. Its channel count
// matches src, except for BW negatives, which always come out single-channel.
func (e *Engine) Process(src *raster.Raster, p params.EditParameters) (*raster.Raster, error) {
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("invalid input raster: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	f := src.Float()
	f = invert(f, p.Kind)
	for _, s := range ActiveStages(p, f.Channels) {
		f = stageTable[s].apply(f, &p)
	}
	return f.Quantize(), nil
}

// mapRows runs fn over row bands of an output raster shaped like src.
func mapRows(src *raster.Float, fn func(y0, y1 int)) {
	parallel.Line(src.Height, fn)
}

// mapSamples returns a new raster with fn applied to every sample and the
// result clipped to [0,1]. c is the channel index of the sample.
func mapSamples(src *raster.Float, fn func(v float32, c int) float32) *raster.Float {
	dst := src.Like()
	ch := src.Channels
	mapRows(src, func(y0, y1 int) {
		for i := y0 * src.Width * ch; i < y1*src.Width*ch; i++ {
			dst.Pix[i] = clip01(fn(src.Pix[i], i%ch))
		}
	})
	return dst
}

// mapPixels is like mapSamples but hands fn a whole pixel at a time.
// fn writes the new samples into out.
func mapPixels(src *raster.Float, fn func(in, out []float32)) *raster.Float {
	dst := src.Like()
	ch := src.Channels
	mapRows(src, func(y0, y1 int) {
		for i := y0 * src.Width; i < y1*src.Width; i++ {
			in := src.Pix[i*ch : (i+1)*ch]
			out := dst.Pix[i*ch : (i+1)*ch]
			fn(in, out)
			for c := range out {
				out[c] = clip01(out[c])
			}
		}
	})
	return dst
}

// luma is the Rec. 601 weighted sum used by every luminosity-dependent stage.
func luma(px []float32) float64 {
	if len(px) == 1 {
		return float64(px[0])
	}
	return 0.299*float64(px[0]) + 0.587*float64(px[1]) + 0.114*float64(px[2])
}
