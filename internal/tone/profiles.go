package tone

import "fmt"

// Film identifies a film-stock color rendition applied as a fixed per-channel
// multiplier after neutral balancing.
type Film int

const (
	NeutralFilm Film = iota
	KodakPortra
	KodakEktar
	FujiPro
	FujiSuperia

	numFilms
)

// Films lists every film profile in declaration order.
var Films = [...]Film{NeutralFilm, KodakPortra, KodakEktar, FujiPro, FujiSuperia}

var filmNames = [numFilms]string{
	NeutralFilm: "neutral",
	KodakPortra: "kodak-portra",
	KodakEktar:  "kodak-ektar",
	FujiPro:     "fuji-pro",
	FujiSuperia: "fuji-superia",
}

// RGB multipliers per film.
var filmShifts = [numFilms][3]float64{
	NeutralFilm: {1, 1, 1},
	KodakPortra: {1.02, 1.01, 0.98}, // warm
	KodakEktar:  {1.03, 1, 0.97},
	FujiPro:     {0.99, 1, 1.02}, // cool
	FujiSuperia: {1, 1.01, 1},
}

// Valid reports whether f names a known profile.
func (f Film) Valid() bool {
	return f >= 0 && f < numFilms
}

func (f Film) String() string {
	if !f.Valid() {
		return "unknown"
	}
	return filmNames[f]
}

// ParseFilm looks up a film profile by its String form.
func ParseFilm(name string) (Film, bool) {
	for i, n := range filmNames {
		if n == name {
			return Film(i), true
		}
	}
	return NeutralFilm, false
}

// Shift returns the RGB multipliers of f. Unknown profiles are neutral.
func (f Film) Shift() [3]float64 {
	if !f.Valid() {
		return filmShifts[NeutralFilm]
	}
	return filmShifts[f]
}

// MarshalText implements encoding.TextMarshaler.
func (f Film) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("unknown film profile %d", int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Film) UnmarshalText(b []byte) error {
	v, ok := ParseFilm(string(b))
	if !ok {
		return fmt.Errorf("unknown film profile %q", b)
	}
	*f = v
	return nil
}
