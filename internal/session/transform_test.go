package session

import (
	"errors"
	"testing"

	"github.com/ironsheep/filmdev-mcp/internal/raster"
)

// patternRaster returns a raster whose samples encode their own position.
func patternRaster(t *testing.T, w, h, channels int) *raster.Raster {
	t.Helper()
	r, err := raster.New(w, h, channels)
	if err != nil {
		t.Fatal(err)
	}
	for i := range r.Pix {
		r.Pix[i] = uint8((i*37 + i/3) % 256)
	}
	return r
}

func TestRotatedSize(t *testing.T) {
	tests := []struct {
		w, h   int
		angle  float64
		nw, nh int
	}{
		{100, 50, 0, 100, 50},
		{100, 50, 90, 50, 100},
		{100, 50, 180, 100, 50},
		{100, 50, 270, 50, 100},
		{100, 50, 45, 106, 106},
		{100, 50, -45, 106, 106},
	}
	for _, tt := range tests {
		nw, nh := RotatedSize(tt.w, tt.h, tt.angle)
		if nw != tt.nw || nh != tt.nh {
			t.Errorf("RotatedSize(%d,%d,%v) = %dx%d, want %dx%d", tt.w, tt.h, tt.angle, nw, nh, tt.nw, tt.nh)
		}
	}
}

func TestClampRect(t *testing.T) {
	tests := []struct {
		name string
		in   Rect
		want Rect
	}{
		{"inside", Rect{1, 2, 3, 4}, Rect{1, 2, 3, 4}},
		{"negative origin", Rect{-5, -1, 4, 4}, Rect{0, 0, 4, 4}},
		{"overflowing size", Rect{6, 5, 100, 100}, Rect{6, 5, 4, 3}},
		{"origin past edge", Rect{50, 50, 5, 5}, Rect{9, 7, 1, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampRect(tt.in, 10, 8); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTransformStack_NetZeroRotationRestoresSource(t *testing.T) {
	src := patternRaster(t, 20, 12, 3)
	var ts TransformStack

	rotated, err := ts.Rotate(src, 10)
	if err != nil {
		t.Fatalf("Rotate(10) failed: %v", err)
	}
	if rotated.Width == src.Width && rotated.Height == src.Height {
		t.Error("a 10 degree rotation should expand the canvas")
	}
	back, err := ts.Rotate(rotated, -10)
	if err != nil {
		t.Fatalf("Rotate(-10) failed: %v", err)
	}
	if !back.Equal(src) {
		t.Error("rotate(10), rotate(-10) did not restore the pre-transform raster")
	}
	if ts.Angle() != 0 || !ts.Touched() {
		t.Errorf("angle %v touched %v, want 0 and true", ts.Angle(), ts.Touched())
	}
}

func TestTransformStack_RepeatedFineRotationsDoNotDrift(t *testing.T) {
	src := patternRaster(t, 16, 16, 1)
	var ts TransformStack

	cur := src
	var err error
	for i := 0; i < 6; i++ {
		if cur, err = ts.Rotate(cur, 0.5); err != nil {
			t.Fatal(err)
		}
	}
	direct, err := replay(src, 3, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !cur.Equal(direct) {
		t.Error("six 0.5 degree steps differ from a single 3 degree rotation of the source")
	}
	if cur.Channels != 1 {
		t.Errorf("gray raster became %d channels", cur.Channels)
	}
}

func TestTransformStack_QuarterTurn(t *testing.T) {
	src, _ := raster.New(4, 2, 3)
	copy(src.At(3, 0), []uint8{255, 0, 0})

	var ts TransformStack
	out, err := ts.SetRotation(src, 90)
	if err != nil {
		t.Fatal(err)
	}
	if out.Width != 2 || out.Height != 4 {
		t.Fatalf("got %dx%d, want 2x4", out.Width, out.Height)
	}
	// Counter-clockwise: the top-right corner moves to the top-left.
	if px := out.At(0, 0); px[0] != 255 || px[1] != 0 {
		t.Errorf("top-left after rotation: got %v, want red", px)
	}
}

func TestTransformStack_NormalizesAngle(t *testing.T) {
	src := patternRaster(t, 8, 8, 3)
	var ts TransformStack
	if _, err := ts.SetRotation(src, -90); err != nil {
		t.Fatal(err)
	}
	if ts.Angle() != 270 {
		t.Errorf("Angle: got %v, want 270", ts.Angle())
	}
	if _, err := ts.Rotate(src, 450); err != nil {
		t.Fatal(err)
	}
	if ts.Angle() != 0 {
		t.Errorf("Angle: got %v, want 0", ts.Angle())
	}
}

func TestNormalizeAngle_HalfOpenRange(t *testing.T) {
	for _, a := range []float64{-1e-14, -360, 360, 720.5, -0.5, 359.999} {
		if got := normalizeAngle(a); got < 0 || got >= 360 {
			t.Errorf("normalizeAngle(%v) = %v, outside [0,360)", a, got)
		}
	}

	src := patternRaster(t, 8, 8, 3)
	var ts TransformStack
	for i := 0; i < 10; i++ {
		if _, err := ts.Rotate(src, 0.1); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := ts.Rotate(src, -1); err != nil {
		t.Fatal(err)
	}
	if a := ts.Angle(); a < 0 || a >= 360 {
		t.Errorf("Angle after net-zero fine rotations: got %v", a)
	}
}

func TestTransformStack_Crop(t *testing.T) {
	src := patternRaster(t, 10, 8, 3)
	var ts TransformStack

	out, err := ts.SetCrop(src, Rect{X: -5, Y: 2, Width: 100, Height: 3})
	if err != nil {
		t.Fatalf("SetCrop failed: %v", err)
	}
	if out.Width != 10 || out.Height != 3 {
		t.Fatalf("got %dx%d, want 10x3", out.Width, out.Height)
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 10; x++ {
			a, b := out.At(x, y), src.At(x, y+2)
			if a[0] != b[0] || a[1] != b[1] || a[2] != b[2] {
				t.Fatalf("pixel (%d,%d) does not match source row %d", x, y, y+2)
			}
		}
	}
	r, ok := ts.Crop()
	if !ok || r.X != -5 {
		t.Errorf("stored crop should be the request, got %+v %v", r, ok)
	}
}

func TestTransformStack_DegenerateCrop(t *testing.T) {
	src := patternRaster(t, 10, 8, 3)
	var ts TransformStack

	for _, r := range []Rect{{0, 0, 0, 5}, {0, 0, 5, -1}} {
		out, err := ts.SetCrop(src, r)
		if !errors.Is(err, ErrDegenerateCrop) {
			t.Errorf("SetCrop(%+v): got %v, want ErrDegenerateCrop", r, err)
		}
		if out != nil {
			t.Error("a rejected crop must not produce a raster")
		}
	}
	if ts.Touched() {
		t.Error("a rejected crop must leave the stack untouched")
	}
}

func TestTransformStack_CropAppliesAfterRotation(t *testing.T) {
	src := patternRaster(t, 10, 4, 3)
	var ts TransformStack

	if _, err := ts.SetCrop(src, Rect{X: 0, Y: 0, Width: 3, Height: 8}); err != nil {
		t.Fatal(err)
	}
	out, err := ts.Rotate(src, 90)
	if err != nil {
		t.Fatal(err)
	}
	// The rotated image is 4x10; the crop is clamped against that.
	if out.Width != 3 || out.Height != 8 {
		t.Errorf("got %dx%d, want 3x8", out.Width, out.Height)
	}
}

func TestTransformStack_ClearCropKeepsRotation(t *testing.T) {
	src := patternRaster(t, 10, 6, 3)
	var ts TransformStack

	if _, err := ts.SetRotation(src, 90); err != nil {
		t.Fatal(err)
	}
	if _, err := ts.SetCrop(src, Rect{1, 1, 2, 2}); err != nil {
		t.Fatal(err)
	}
	out, err := ts.ClearCrop(src)
	if err != nil {
		t.Fatal(err)
	}
	if out.Width != 6 || out.Height != 10 {
		t.Errorf("got %dx%d, want the rotated 6x10", out.Width, out.Height)
	}
	if _, ok := ts.Crop(); ok {
		t.Error("crop should be cleared")
	}
	if ts.Angle() != 90 {
		t.Errorf("Angle: got %v, want 90", ts.Angle())
	}
}

func TestTransformStack_Reset(t *testing.T) {
	src := patternRaster(t, 10, 6, 3)
	var ts TransformStack

	if got := ts.Reset(src); got != src {
		t.Error("Reset on an untouched stack should return the current raster")
	}

	cur, err := ts.Rotate(src, 33)
	if err != nil {
		t.Fatal(err)
	}
	if cur, err = ts.SetCrop(cur, Rect{0, 0, 4, 4}); err != nil {
		t.Fatal(err)
	}
	if got := ts.Reset(cur); got != src {
		t.Error("Reset should return the pre-transform raster")
	}
	if ts.Touched() || ts.Angle() != 0 {
		t.Error("Reset should return the stack to untouched")
	}
	if _, ok := ts.Crop(); ok {
		t.Error("Reset should drop the crop")
	}
}
