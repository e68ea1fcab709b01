package pipeline

import (
	"image"
	"math"

	"github.com/ironsheep/filmdev-mcp/internal/params"
	"github.com/ironsheep/filmdev-mcp/internal/raster"
)

const maxSmoothingRadius = 7

// smoothingKernel derives the spatial sigma, window radius and range sigma
// from the smoothing knobs.
func smoothingKernel(p *params.EditParameters) (sigma float64, radius int, sigmaColor float64) {
	sigma = math.Max(0.5, 3*p.SmoothingStrength)
	radius = int(math.Ceil(2 * sigma))
	if radius > maxSmoothingRadius {
		radius = maxSmoothingRadius
	}
	sigmaColor = 0.02 + 0.3*(1-p.PreserveEdges)
	return sigma, radius, sigmaColor
}

// smoothLocalContrast blurs the image (bilateral by default, Gaussian when
// FastSmoothing is set) and blends the blur back in by a luminosity mask that
// is zero at mid-gray and grows toward the shadows and highlights.
func smoothLocalContrast(f *raster.Float, p *params.EditParameters) *raster.Float {
	if p.SmoothingStrength == 0 {
		return f.Clone()
	}
	sigma, radius, sigmaColor := smoothingKernel(p)

	var smoothed *raster.Float
	if p.FastSmoothing {
		smoothed = gaussianBlur(f, sigma, radius)
	} else {
		smoothed = bilateralFilter(f, sigma, radius, sigmaColor)
	}

	ss, hs := p.ShadowSmoothing, p.HighlightSmoothing
	out := f.Like()
	ch := f.Channels
	mapRows(f, func(y0, y1 int) {
		for i := y0 * f.Width; i < y1*f.Width; i++ {
			px := f.Pix[i*ch : (i+1)*ch]
			var sum float64
			for _, v := range px {
				sum += float64(v)
			}
			l := sum / float64(ch)
			mask := math.Max(clamp(1-2*l, 0, 1)*ss, clamp(2*l-1, 0, 1)*hs)
			for c := 0; c < ch; c++ {
				j := i*ch + c
				out.Pix[j] = clip01(float32(float64(f.Pix[j])*(1-mask) + float64(smoothed.Pix[j])*mask))
			}
		}
	})
	return out
}

func gaussianWeights(sigma float64, radius int) []float64 {
	w := make([]float64, 2*radius+1)
	var sum float64
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		w[i+radius] = v
		sum += v
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// goGaussianBlur is a separable blur with edge replication.
func goGaussianBlur(f *raster.Float, sigma float64, radius int) *raster.Float {
	w := gaussianWeights(sigma, radius)
	ch := f.Channels
	tmp := f.Like()
	mapRows(f, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < f.Width; x++ {
				for c := 0; c < ch; c++ {
					var acc float64
					for k := -radius; k <= radius; k++ {
						xx := clampIndex(x+k, f.Width)
						acc += w[k+radius] * float64(f.Pix[(y*f.Width+xx)*ch+c])
					}
					tmp.Pix[(y*f.Width+x)*ch+c] = float32(acc)
				}
			}
		}
	})

	out := f.Like()
	mapRows(f, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < f.Width; x++ {
				for c := 0; c < ch; c++ {
					var acc float64
					for k := -radius; k <= radius; k++ {
						yy := clampIndex(y+k, f.Height)
						acc += w[k+radius] * float64(tmp.Pix[(yy*f.Width+x)*ch+c])
					}
					out.Pix[(y*f.Width+x)*ch+c] = float32(acc)
				}
			}
		}
	})
	return out
}

// bilateralOffsets lists the window offsets of a bilateral filter of the
// given radius: a disc, not a square.
func bilateralOffsets(radius int) []image.Point {
	var pts []image.Point
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				pts = append(pts, image.Point{X: dx, Y: dy})
			}
		}
	}
	return pts
}

// colorDistance is the range distance between two pixels: the sum of the
// absolute channel differences.
func colorDistance(a, b []float32) float64 {
	var d float64
	for c := range a {
		d += math.Abs(float64(a[c] - b[c]))
	}
	return d
}

// goBilateralFilter weights each neighbor in a disc by its spatial distance
// and by the color distance to the center pixel, so strong edges keep their
// contrast.
func goBilateralFilter(f *raster.Float, sigma float64, radius int, sigmaColor float64) *raster.Float {
	offsets := bilateralOffsets(radius)
	spatial := make([]float64, len(offsets))
	for i, o := range offsets {
		spatial[i] = math.Exp(-float64(o.X*o.X+o.Y*o.Y) / (2 * sigma * sigma))
	}
	rangeDen := 2 * sigmaColor * sigmaColor
	ch := f.Channels

	out := f.Like()
	mapRows(f, func(y0, y1 int) {
		acc := make([]float64, ch)
		for y := y0; y < y1; y++ {
			for x := 0; x < f.Width; x++ {
				center := f.Pix[(y*f.Width+x)*ch : (y*f.Width+x+1)*ch]
				for c := range acc {
					acc[c] = 0
				}
				var norm float64
				for i, o := range offsets {
					yy := clampIndex(y+o.Y, f.Height)
					xx := clampIndex(x+o.X, f.Width)
					nb := f.Pix[(yy*f.Width+xx)*ch : (yy*f.Width+xx+1)*ch]
					d := colorDistance(nb, center)
					w := spatial[i] * math.Exp(-d*d/rangeDen)
					norm += w
					for c := 0; c < ch; c++ {
						acc[c] += w * float64(nb[c])
					}
				}
				for c := 0; c < ch; c++ {
					out.Pix[(y*f.Width+x)*ch+c] = float32(acc[c] / norm)
				}
			}
		}
	})
	return out
}
