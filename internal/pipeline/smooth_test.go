package pipeline

import (
	"math"
	"testing"

	"github.com/ironsheep/filmdev-mcp/internal/raster"
)

func TestColorDistance_SumsAbsoluteDifferences(t *testing.T) {
	tests := []struct {
		a, b []float32
		want float64
	}{
		{[]float32{0.5}, []float32{0.25}, 0.25},
		{[]float32{0.1, 0.2, 0.3}, []float32{0.1, 0.2, 0.3}, 0},
		// Euclidean would give 0.5; the channel sum is 0.7.
		{[]float32{0.3, 0.4, 0}, []float32{0, 0, 0}, 0.7},
		{[]float32{0, 1, 0}, []float32{0.5, 0.5, 0.5}, 1.5},
	}
	for _, tt := range tests {
		if got := colorDistance(tt.a, tt.b); math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("colorDistance(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestBilateralOffsets_Disc(t *testing.T) {
	tests := []struct {
		radius int
		want   int
	}{
		{0, 1},
		{1, 5},
		{2, 13},
		{3, 29},
	}
	for _, tt := range tests {
		pts := bilateralOffsets(tt.radius)
		if len(pts) != tt.want {
			t.Errorf("radius %d: %d offsets, want %d", tt.radius, len(pts), tt.want)
		}
		for _, p := range pts {
			if p.X*p.X+p.Y*p.Y > tt.radius*tt.radius {
				t.Errorf("radius %d: offset %v outside the disc", tt.radius, p)
			}
		}
	}
}

func TestGoBilateralFilter(t *testing.T) {
	// A hard vertical edge survives, a flat field stays flat.
	f := raster.NewFloat(8, 4, 3)
	for y := 0; y < 4; y++ {
		for x := 4; x < 8; x++ {
			copy(f.Pix[(y*8+x)*3:], []float32{1, 1, 1})
		}
	}
	out := goBilateralFilter(f, 3, 3, 0.02)
	for i, v := range out.Pix {
		if math.Abs(float64(v-f.Pix[i])) > 1e-3 {
			t.Fatalf("sample %d: got %v, want %v", i, v, f.Pix[i])
		}
	}

	blurred := goGaussianBlur(f, 3, 3)
	if v := blurred.Pix[(0*8+3)*3]; v <= 0.05 {
		t.Errorf("gaussian blur should bleed across the edge, got %v", v)
	}
}

func TestBlurs_PreserveShape(t *testing.T) {
	for _, channels := range []int{1, 3} {
		f := raster.NewFloat(5, 3, channels)
		for i := range f.Pix {
			f.Pix[i] = float32(i%7) / 7
		}
		for name, out := range map[string]*raster.Float{
			"gaussian":  gaussianBlur(f, 1, 2),
			"bilateral": bilateralFilter(f, 1, 2, 0.1),
		} {
			if out.Width != 5 || out.Height != 3 || out.Channels != channels || len(out.Pix) != len(f.Pix) {
				t.Errorf("%s, %d channels: shape %dx%dx%d", name, channels, out.Width, out.Height, out.Channels)
			}
			for i, v := range out.Pix {
				if v < -1e-4 || v > 1+1e-4 {
					t.Errorf("%s: sample %d = %v outside the input range", name, i, v)
					break
				}
			}
		}
	}
}
