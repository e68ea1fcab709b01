//go:build cgo && linux

package pipeline

import (
	"fmt"
	"image"
	"unsafe"

	"gocv.io/x/gocv"

	"github.com/ironsheep/filmdev-mcp/internal/raster"
)

// With cgo on Linux the blurs run in OpenCV. A filter that fails falls back
// to the Go implementation so the stage never aborts a render.

func gaussianBlur(f *raster.Float, sigma float64, radius int) *raster.Float {
	src, err := toMat(f)
	if err != nil {
		return goGaussianBlur(f, sigma, radius)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	ksize := image.Point{X: 2*radius + 1, Y: 2*radius + 1}
	if err := gocv.GaussianBlur(src, &dst, ksize, sigma, sigma, gocv.BorderReplicate); err != nil {
		return goGaussianBlur(f, sigma, radius)
	}
	out, err := fromMat(dst, f)
	if err != nil {
		return goGaussianBlur(f, sigma, radius)
	}
	return out
}

func bilateralFilter(f *raster.Float, sigma float64, radius int, sigmaColor float64) *raster.Float {
	src, err := toMat(f)
	if err != nil {
		return goBilateralFilter(f, sigma, radius, sigmaColor)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	if err := gocv.BilateralFilter(src, &dst, 2*radius+1, sigmaColor, sigma); err != nil {
		return goBilateralFilter(f, sigma, radius, sigmaColor)
	}
	out, err := fromMat(dst, f)
	if err != nil {
		return goBilateralFilter(f, sigma, radius, sigmaColor)
	}
	return out
}

// toMat copies f into a CV_32FC1 or CV_32FC3 Mat owned by OpenCV.
func toMat(f *raster.Float) (gocv.Mat, error) {
	mt := gocv.MatTypeCV32FC3
	if f.Channels == 1 {
		mt = gocv.MatTypeCV32FC1
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&f.Pix[0])), len(f.Pix)*4)
	view, err := gocv.NewMatFromBytes(f.Height, f.Width, mt, buf)
	if err != nil {
		return gocv.Mat{}, err
	}
	defer view.Close()
	return view.Clone(), nil
}

// fromMat copies a filtered Mat into a new raster shaped like like.
func fromMat(m gocv.Mat, like *raster.Float) (*raster.Float, error) {
	data, err := m.DataPtrFloat32()
	if err != nil {
		return nil, err
	}
	out := like.Like()
	if len(data) != len(out.Pix) {
		return nil, fmt.Errorf("filtered mat has %d samples, want %d", len(data), len(out.Pix))
	}
	copy(out.Pix, data)
	return out, nil
}
