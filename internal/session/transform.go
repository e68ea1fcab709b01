package session

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/filmdev-mcp/internal/raster"
)

// ErrDegenerateCrop is returned when a crop rectangle has no area.
var ErrDegenerateCrop = errors.New("crop rectangle has zero or negative size")

// borderColor fills the canvas outside the rotated source.
var borderColor = color.White

// Rect is a crop rectangle in the coordinates of the rotated image.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// TransformStack applies rotation and crop non-destructively.
//
// The first Rotate, SetRotation or SetCrop snapshots the current working
// raster. Every later change replays rotation then crop from that snapshot,
// so repeated small rotations never accumulate resampling error.
//
// The zero value is an untouched stack. Methods commit their new state only
// when they succeed.
type TransformStack struct {
	pre   *raster.Raster
	angle float64
	crop  *Rect
}

// Touched reports whether a pre-transform snapshot is held.
func (t *TransformStack) Touched() bool {
	return t.pre != nil
}

// Angle returns the accumulated rotation in degrees, in [0,360).
func (t *TransformStack) Angle() float64 {
	return t.angle
}

// Crop returns the requested crop rectangle, if any.
func (t *TransformStack) Crop() (Rect, bool) {
	if t.crop == nil {
		return Rect{}, false
	}
	return *t.crop, true
}

// Source returns the pre-transform raster, or nil when untouched.
func (t *TransformStack) Source() *raster.Raster {
	return t.pre
}

// Rotate adds delta degrees (counter-clockwise) to the rotation.
func (t *TransformStack) Rotate(current *raster.Raster, delta float64) (*raster.Raster, error) {
	return t.SetRotation(current, t.angle+delta)
}

// SetRotation sets the absolute rotation in degrees.
func (t *TransformStack) SetRotation(current *raster.Raster, angle float64) (*raster.Raster, error) {
	pre := t.source(current)
	angle = normalizeAngle(angle)
	out, err := replay(pre, angle, t.crop)
	if err != nil {
		return nil, err
	}
	t.pre, t.angle = pre, angle
	return out, nil
}

// SetCrop sets the crop rectangle. It is clamped to the rotated image on
// every replay; a rectangle with non-positive width or height is rejected.
func (t *TransformStack) SetCrop(current *raster.Raster, r Rect) (*raster.Raster, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrDegenerateCrop, r.Width, r.Height)
	}
	pre := t.source(current)
	out, err := replay(pre, t.angle, &r)
	if err != nil {
		return nil, err
	}
	t.pre, t.crop = pre, &r
	return out, nil
}

// ClearCrop drops the crop but keeps the rotation. An untouched stack
// returns current unchanged.
func (t *TransformStack) ClearCrop(current *raster.Raster) (*raster.Raster, error) {
	if t.pre == nil {
		return current, nil
	}
	out, err := replay(t.pre, t.angle, nil)
	if err != nil {
		return nil, err
	}
	t.crop = nil
	return out, nil
}

// Reset discards rotation and crop and returns the pre-transform raster.
// An untouched stack returns current.
func (t *TransformStack) Reset(current *raster.Raster) *raster.Raster {
	if t.pre == nil {
		return current
	}
	pre := t.pre
	*t = TransformStack{}
	return pre
}

func (t *TransformStack) source(current *raster.Raster) *raster.Raster {
	if t.pre != nil {
		return t.pre
	}
	return current
}

func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	// A tiny negative remainder rounds up to exactly 360.
	if a >= 360 {
		a -= 360
	}
	return a
}

// replay rebuilds the working raster from pre.
func replay(pre *raster.Raster, angle float64, crop *Rect) (*raster.Raster, error) {
	if err := pre.Validate(); err != nil {
		return nil, err
	}
	if angle == 0 && crop == nil {
		return pre.Clone(), nil
	}

	var img *image.NRGBA
	if angle != 0 {
		img = rotateExpand(pre.Image(), angle)
	} else {
		img = imaging.Clone(pre.Image())
	}

	if crop != nil {
		b := img.Bounds()
		r := ClampRect(*crop, b.Dx(), b.Dy())
		img = imaging.Crop(img, image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height))
	}
	return raster.FromNRGBA(img, pre.Channels)
}

// RotatedSize returns the canvas size for rotating a w×h image by angle
// degrees: h·|sin θ| + w·|cos θ| by h·|cos θ| + w·|sin θ|.
func RotatedSize(w, h int, angle float64) (int, int) {
	rad := angle * math.Pi / 180
	sin, cos := math.Abs(math.Sin(rad)), math.Abs(math.Cos(rad))
	// 1e-9 keeps exact quarter turns from truncating to one pixel short.
	nw := int(float64(h)*sin + float64(w)*cos + 1e-9)
	nh := int(float64(h)*cos + float64(w)*sin + 1e-9)
	return max(nw, 1), max(nh, 1)
}

func rotateExpand(img image.Image, angle float64) *image.NRGBA {
	b := img.Bounds()
	nw, nh := RotatedSize(b.Dx(), b.Dy(), angle)
	rotated := imaging.Rotate(img, angle, borderColor)
	return imaging.PasteCenter(imaging.New(nw, nh, borderColor), rotated)
}

// ClampRect fits r inside a w×h image. The origin is clamped to the image
// and the size is clamped to at least one pixel and at most the remaining
// extent.
func ClampRect(r Rect, w, h int) Rect {
	r.X = clampInt(r.X, 0, w-1)
	r.Y = clampInt(r.Y, 0, h-1)
	r.Width = clampInt(r.Width, 1, w-r.X)
	r.Height = clampInt(r.Height, 1, h-r.Y)
	return r
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
