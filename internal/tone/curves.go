// Package tone holds the film-style response curves used by the pipeline.
//
// Every curve maps a normalized sample x to y with no clipping, so curves can
// be chained. Callers clip to [0,1] once they are done composing.
package tone

import "fmt"

// Toe lifts shadows: y = x + s·x·(1-x)².
func Toe(x, s float64) float64 {
	return x + s*x*(1-x)*(1-x)
}

// Shoulder compresses highlights: y = x - s·x²·(1-x).
func Shoulder(x, s float64) float64 {
	return x - s*x*x*(1-x)
}

// Contrast scales the distance from mid-gray: y = 0.5 + (x-0.5)·c.
func Contrast(x, c float64) float64 {
	return 0.5 + (x-0.5)*c
}

// Curve identifies one of the named final-look curves.
type Curve int

const (
	Neutral Curve = iota
	Frontier
	Noritsu
	PortraLike
	Soft

	numCurves
)

// Curves lists every named curve in declaration order.
var Curves = [...]Curve{Neutral, Frontier, Noritsu, PortraLike, Soft}

var curveNames = [numCurves]string{
	Neutral:    "neutral",
	Frontier:   "frontier",
	Noritsu:    "noritsu",
	PortraLike: "portra-like",
	Soft:       "soft",
}

// Valid reports whether c names a known curve.
func (c Curve) Valid() bool {
	return c >= 0 && c < numCurves
}

func (c Curve) String() string {
	if !c.Valid() {
		return "unknown"
	}
	return curveNames[c]
}

// ParseCurve looks up a curve by its String form.
func ParseCurve(name string) (Curve, bool) {
	for i, n := range curveNames {
		if n == name {
			return Curve(i), true
		}
	}
	return Neutral, false
}

var curveFuncs = [numCurves]func(float64) float64{
	Neutral: func(x float64) float64 { return x },
	// Frontier scanner look: slightly lifted mids.
	Frontier: func(x float64) float64 { return x + 0.05*x*(1-x) },
	// Noritsu scanner look: gently compressed highlights.
	Noritsu: func(x float64) float64 { return x - 0.03*x*x*(1-x) },
	PortraLike: func(x float64) float64 {
		return 0.05 + 0.9*(x+0.1*x*(1-x)-0.05*x*x*(1-x))
	},
	Soft: func(x float64) float64 { return 0.1 + 0.8*x },
}

// Apply evaluates curve c at x. Unknown curves behave as Neutral.
func (c Curve) Apply(x float64) float64 {
	if !c.Valid() {
		return x
	}
	return curveFuncs[c](x)
}

// MarshalText implements encoding.TextMarshaler.
func (c Curve) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("unknown tone curve %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Curve) UnmarshalText(b []byte) error {
	v, ok := ParseCurve(string(b))
	if !ok {
		return fmt.Errorf("unknown tone curve %q", b)
	}
	*c = v
	return nil
}
