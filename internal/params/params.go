// Package params defines the edit parameter record that drives one pipeline
// run, its three factory presets and field-by-field overrides.
//
// EditParameters is a plain value. Copying it yields an independent snapshot,
// which is how a pipeline run captures its parameters at dispatch time.
package params

import (
	"errors"
	"fmt"

	"github.com/ironsheep/filmdev-mcp/internal/tone"
)

var (
	// ErrUnknownField is returned when an override names no parameter.
	ErrUnknownField = errors.New("unknown parameter")

	// ErrInvalidValue is returned for out-of-range or unparsable values.
	ErrInvalidValue = errors.New("invalid parameter value")
)

// EditParameters configures every stage of the pipeline.
//
// Each stage has an enable flag followed by its knobs. JSON names double as
// the override keys accepted by Set and Apply.
type EditParameters struct {
	Kind ImageKind `json:"kind"`

	// Histogram centering.
	HistogramCentering bool            `json:"histogram_centering"`
	TargetMidpoint     float64         `json:"target_midpoint"`
	MidDetection       CentralTendency `json:"mid_detection"`

	// Black and white point.
	BlackWhitePoint      bool    `json:"bw_point"`
	BlackPointPercentile float64 `json:"black_point_percentile"`
	WhitePointPercentile float64 `json:"white_point_percentile"`
	ShadowBias           float64 `json:"shadow_bias"`
	HighlightBias        float64 `json:"highlight_bias"`
	ClipProtection       float64 `json:"clip_protection"`

	// Midtone correction.
	Midtone                bool    `json:"midtone"`
	Gamma                  float64 `json:"gamma"`
	MidtoneTarget          float64 `json:"midtone_target"`
	MidtoneRestoreStrength float64 `json:"midtone_restore_strength"`

	// Dynamic range expansion.
	DynamicRange     bool    `json:"dynamic_range"`
	ToeStrength      float64 `json:"toe_strength"`
	ShoulderStrength float64 `json:"shoulder_strength"`
	MidtoneContrast  float64 `json:"midtone_contrast"`

	// Color balance. Temperature and tint run from -100 to 100.
	ColorBalance           bool      `json:"color_balance"`
	NeutralBalanceStrength float64   `json:"neutral_balance_strength"`
	FilmProfile            tone.Film `json:"film_profile"`
	WhiteBalance           bool      `json:"white_balance"`
	Temperature            float64   `json:"temperature"`
	Tint                   float64   `json:"tint"`

	// Local contrast smoothing.
	Smoothing          bool    `json:"smoothing"`
	SmoothingStrength  float64 `json:"smoothing_strength"`
	ShadowSmoothing    float64 `json:"shadow_smoothing"`
	HighlightSmoothing float64 `json:"highlight_smoothing"`
	PreserveEdges      float64 `json:"preserve_edges"`
	FastSmoothing      bool    `json:"fast_smoothing"`

	// Saturation.
	Saturation                bool    `json:"saturation"`
	BaseSaturation            float64 `json:"base_saturation"`
	DensityModulationStrength float64 `json:"density_modulation_strength"`
	ShadowColorBoost          float64 `json:"shadow_color_boost"`

	// Highlight and shadow protection.
	Protection                  bool    `json:"protection"`
	HighlightProtectionStrength float64 `json:"highlight_protection_strength"`
	ShadowRecoveryStrength      float64 `json:"shadow_recovery_strength"`

	// Final tone curve.
	FinalCurve        bool       `json:"final_curve"`
	FinalCurveProfile tone.Curve `json:"final_curve_profile"`
}

// Defaults returns the base record every preset starts from.
func Defaults() EditParameters {
	return EditParameters{
		Kind: ColorNegative,

		HistogramCentering: true,
		TargetMidpoint:     0.5,
		MidDetection:       Median,

		BlackWhitePoint:      true,
		BlackPointPercentile: 0.5,
		WhitePointPercentile: 99.5,
		ClipProtection:       0.02,

		Midtone:       true,
		Gamma:         1.0,
		MidtoneTarget: 0.5,

		DynamicRange:     true,
		ToeStrength:      0.3,
		ShoulderStrength: 0.3,
		MidtoneContrast:  1.1,

		ColorBalance:           true,
		NeutralBalanceStrength: 0.5,
		FilmProfile:            tone.NeutralFilm,

		SmoothingStrength:  0.3,
		ShadowSmoothing:    0.5,
		HighlightSmoothing: 0.5,
		PreserveEdges:      0.7,

		Saturation:                true,
		BaseSaturation:            1.0,
		DensityModulationStrength: 0.3,
		ShadowColorBoost:          0.1,

		Protection:                  true,
		HighlightProtectionStrength: 0.3,
		ShadowRecoveryStrength:      0.2,

		FinalCurve:        true,
		FinalCurveProfile: tone.Neutral,
	}
}

// ForColorNegative returns the color negative preset.
func ForColorNegative() EditParameters {
	p := Defaults()
	p.Kind = ColorNegative
	p.BlackPointPercentile = 1.0
	p.WhitePointPercentile = 99.0
	p.Gamma = 1.1
	p.ToeStrength = 0.4
	p.ShoulderStrength = 0.35
	p.MidtoneContrast = 1.15
	p.NeutralBalanceStrength = 0.6
	p.FilmProfile = tone.KodakPortra
	p.BaseSaturation = 1.1
	p.DensityModulationStrength = 0.25
	p.FinalCurveProfile = tone.PortraLike
	return p
}

// ForBWNegative returns the black and white negative preset. Color balance
// and saturation are off; light smoothing is on.
func ForBWNegative() EditParameters {
	p := Defaults()
	p.Kind = BWNegative
	p.Gamma = 1.05
	p.ColorBalance = false
	p.Saturation = false
	p.Smoothing = true
	p.SmoothingStrength = 0.2
	return p
}

// ForPositive returns the preset for slides and prints.
func ForPositive() EditParameters {
	p := Defaults()
	p.Kind = Positive
	p.HistogramCentering = false
	p.BlackPointPercentile = 0.1
	p.WhitePointPercentile = 99.9
	p.DynamicRange = false
	p.NeutralBalanceStrength = 0.3
	p.BaseSaturation = 1.05
	return p
}

// ForKind returns the preset for k.
func ForKind(k ImageKind) EditParameters {
	switch k {
	case BWNegative:
		return ForBWNegative()
	case Positive:
		return ForPositive()
	default:
		return ForColorNegative()
	}
}

// Preset returns a preset by kind name ("color-negative", "bw-negative",
// "positive").
func Preset(name string) (EditParameters, error) {
	k, err := ParseKind(name)
	if err != nil {
		return EditParameters{}, err
	}
	return ForKind(k), nil
}

// SetWhiteBalance sets temperature and tint and enables the white balance
// sub-stage only when either is non-zero.
func (p *EditParameters) SetWhiteBalance(temperature, tint float64) {
	p.Temperature = temperature
	p.Tint = tint
	p.WhiteBalance = temperature != 0 || tint != 0
}

// DisableAll turns every optional stage off. Inversion still follows Kind.
func (p *EditParameters) DisableAll() {
	p.HistogramCentering = false
	p.BlackWhitePoint = false
	p.Midtone = false
	p.DynamicRange = false
	p.ColorBalance = false
	p.Smoothing = false
	p.Saturation = false
	p.Protection = false
	p.FinalCurve = false
}

// Validate checks every knob against its accepted range.
func (p EditParameters) Validate() error {
	if !p.Kind.Valid() {
		return fmt.Errorf("%w: kind %d", ErrInvalidValue, int(p.Kind))
	}
	if p.MidDetection != Median && p.MidDetection != Mean {
		return fmt.Errorf("%w: mid_detection %d", ErrInvalidValue, int(p.MidDetection))
	}
	if !p.FilmProfile.Valid() {
		return fmt.Errorf("%w: film_profile %d", ErrInvalidValue, int(p.FilmProfile))
	}
	if !p.FinalCurveProfile.Valid() {
		return fmt.Errorf("%w: final_curve_profile %d", ErrInvalidValue, int(p.FinalCurveProfile))
	}

	checks := []struct {
		name     string
		v        float64
		min, max float64
	}{
		{"target_midpoint", p.TargetMidpoint, 0, 1},
		{"black_point_percentile", p.BlackPointPercentile, 0, 100},
		{"white_point_percentile", p.WhitePointPercentile, 0, 100},
		{"clip_protection", p.ClipProtection, 0, 1},
		{"midtone_target", p.MidtoneTarget, 0, 1},
		{"midtone_restore_strength", p.MidtoneRestoreStrength, 0, 1},
		{"toe_strength", p.ToeStrength, 0, 10},
		{"shoulder_strength", p.ShoulderStrength, 0, 10},
		{"neutral_balance_strength", p.NeutralBalanceStrength, 0, 1},
		{"temperature", p.Temperature, -100, 100},
		{"tint", p.Tint, -100, 100},
		{"smoothing_strength", p.SmoothingStrength, 0, 1},
		{"shadow_smoothing", p.ShadowSmoothing, 0, 1},
		{"highlight_smoothing", p.HighlightSmoothing, 0, 1},
		{"preserve_edges", p.PreserveEdges, 0, 1},
		{"highlight_protection_strength", p.HighlightProtectionStrength, 0, 1},
		{"shadow_recovery_strength", p.ShadowRecoveryStrength, 0, 1},
	}
	for _, c := range checks {
		if c.v != c.v || c.v < c.min || c.v > c.max {
			return fmt.Errorf("%w: %s=%v outside [%v,%v]", ErrInvalidValue, c.name, c.v, c.min, c.max)
		}
	}
	if !(p.Gamma > 0) {
		return fmt.Errorf("%w: gamma must be positive, got %v", ErrInvalidValue, p.Gamma)
	}
	if p.MidtoneContrast != p.MidtoneContrast || p.MidtoneContrast < 0 {
		return fmt.Errorf("%w: midtone_contrast %v", ErrInvalidValue, p.MidtoneContrast)
	}
	if p.BaseSaturation != p.BaseSaturation || p.BaseSaturation < 0 {
		return fmt.Errorf("%w: base_saturation %v", ErrInvalidValue, p.BaseSaturation)
	}
	return nil
}
