//go:build !cgo || !linux

package pipeline

import "github.com/ironsheep/filmdev-mcp/internal/raster"

func gaussianBlur(f *raster.Float, sigma float64, radius int) *raster.Float {
	return goGaussianBlur(f, sigma, radius)
}

func bilateralFilter(f *raster.Float, sigma float64, radius int, sigmaColor float64) *raster.Float {
	return goBilateralFilter(f, sigma, radius, sigmaColor)
}
