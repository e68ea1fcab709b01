package params

import "fmt"

// ImageKind says what the scan holds, which decides the inversion step and
// whether the color-only stages run.
type ImageKind int

const (
	ColorNegative ImageKind = iota
	BWNegative
	Positive
)

var kindNames = map[ImageKind]string{
	ColorNegative: "color-negative",
	BWNegative:    "bw-negative",
	Positive:      "positive",
}

// Kinds lists every image kind.
var Kinds = []ImageKind{ColorNegative, BWNegative, Positive}

func (k ImageKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Valid reports whether k is a known kind.
func (k ImageKind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// IsColor reports whether the color balance and saturation stages apply.
func (k ImageKind) IsColor() bool {
	return k != BWNegative
}

// ParseKind looks up a kind by name.
func ParseKind(name string) (ImageKind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return ColorNegative, fmt.Errorf("%w: unknown image kind %q", ErrInvalidValue, name)
}

// MarshalText implements encoding.TextMarshaler.
func (k ImageKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: image kind %d", ErrInvalidValue, int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *ImageKind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// CentralTendency selects the statistic used by histogram centering.
type CentralTendency int

const (
	Median CentralTendency = iota
	Mean
)

func (c CentralTendency) String() string {
	switch c {
	case Median:
		return "median"
	case Mean:
		return "mean"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (c CentralTendency) MarshalText() ([]byte, error) {
	if c != Median && c != Mean {
		return nil, fmt.Errorf("%w: central tendency %d", ErrInvalidValue, int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *CentralTendency) UnmarshalText(b []byte) error {
	switch string(b) {
	case "median":
		*c = Median
	case "mean":
		*c = Mean
	default:
		return fmt.Errorf("%w: unknown central tendency %q", ErrInvalidValue, b)
	}
	return nil
}
