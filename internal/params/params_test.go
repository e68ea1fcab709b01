package params

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ironsheep/filmdev-mcp/internal/tone"
)

func TestPresets(t *testing.T) {
	tests := []struct {
		name         string
		p            EditParameters
		kind         ImageKind
		centering    bool
		dynamicRange bool
		colorBalance bool
		saturation   bool
		smoothing    bool
		curve        tone.Curve
	}{
		{"color-negative", ForColorNegative(), ColorNegative, true, true, true, true, false, tone.PortraLike},
		{"bw-negative", ForBWNegative(), BWNegative, true, true, false, false, true, tone.Neutral},
		{"positive", ForPositive(), Positive, false, false, true, true, false, tone.Neutral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.p
			if p.Kind != tt.kind {
				t.Errorf("Kind: got %v, want %v", p.Kind, tt.kind)
			}
			if p.HistogramCentering != tt.centering {
				t.Errorf("HistogramCentering: got %v", p.HistogramCentering)
			}
			if p.DynamicRange != tt.dynamicRange {
				t.Errorf("DynamicRange: got %v", p.DynamicRange)
			}
			if p.ColorBalance != tt.colorBalance {
				t.Errorf("ColorBalance: got %v", p.ColorBalance)
			}
			if p.Saturation != tt.saturation {
				t.Errorf("Saturation: got %v", p.Saturation)
			}
			if p.Smoothing != tt.smoothing {
				t.Errorf("Smoothing: got %v", p.Smoothing)
			}
			if p.FinalCurveProfile != tt.curve {
				t.Errorf("FinalCurveProfile: got %v", p.FinalCurveProfile)
			}
			if err := p.Validate(); err != nil {
				t.Errorf("preset does not validate: %v", err)
			}

			byName, err := Preset(tt.name)
			if err != nil {
				t.Fatalf("Preset(%q): %v", tt.name, err)
			}
			if byName != p {
				t.Errorf("Preset(%q) differs from constructor", tt.name)
			}
		})
	}
}

func TestColorNegativePresetValues(t *testing.T) {
	p := ForColorNegative()
	if p.Gamma != 1.1 || p.ToeStrength != 0.4 || p.ShoulderStrength != 0.35 {
		t.Errorf("unexpected tone knobs: gamma=%v toe=%v shoulder=%v", p.Gamma, p.ToeStrength, p.ShoulderStrength)
	}
	if p.FilmProfile != tone.KodakPortra {
		t.Errorf("FilmProfile: got %v", p.FilmProfile)
	}
	if p.MidDetection != Median {
		t.Errorf("MidDetection: got %v", p.MidDetection)
	}
}

func TestPresetUnknown(t *testing.T) {
	if _, err := Preset("slide"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
}

func TestSet(t *testing.T) {
	p := ForColorNegative()

	if err := p.Set("gamma", "1.4"); err != nil {
		t.Fatalf("Set gamma: %v", err)
	}
	if p.Gamma != 1.4 {
		t.Errorf("Gamma: got %v", p.Gamma)
	}

	if err := p.Set("film_profile", "fuji-pro"); err != nil {
		t.Fatalf("Set film_profile: %v", err)
	}
	if p.FilmProfile != tone.FujiPro {
		t.Errorf("FilmProfile: got %v", p.FilmProfile)
	}

	if err := p.Set("mid_detection", "mean"); err != nil {
		t.Fatalf("Set mid_detection: %v", err)
	}
	if p.MidDetection != Mean {
		t.Errorf("MidDetection: got %v", p.MidDetection)
	}

	if err := p.Set("smoothing", "true"); err != nil {
		t.Fatalf("Set smoothing: %v", err)
	}
	if !p.Smoothing {
		t.Error("Smoothing not enabled")
	}
}

func TestSetErrorsLeaveParamsUnchanged(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr error
	}{
		{"unknown key", "sharpness", "1", ErrUnknownField},
		{"bad enum", "film_profile", "agfa", ErrInvalidValue},
		{"wrong type", "gamma", "bright", ErrInvalidValue},
		{"out of range", "neutral_balance_strength", "1.5", ErrInvalidValue},
		{"zero gamma", "gamma", "0", ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ForColorNegative()
			before := p
			err := p.Set(tt.key, tt.value)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("got %v, want %v", err, tt.wantErr)
			}
			if p != before {
				t.Error("failed Set mutated parameters")
			}
		})
	}
}

func TestApplyWhiteBalanceToggle(t *testing.T) {
	p := ForPositive()
	if err := p.Apply(map[string]string{"temperature": "25"}); err != nil {
		t.Fatal(err)
	}
	if !p.WhiteBalance {
		t.Error("non-zero temperature should enable white balance")
	}

	if err := p.Apply(map[string]string{"temperature": "0", "tint": "0"}); err != nil {
		t.Fatal(err)
	}
	if p.WhiteBalance {
		t.Error("zero temperature and tint should disable white balance")
	}

	if err := p.Apply(map[string]string{"tint": "10", "white_balance": "false"}); err != nil {
		t.Fatal(err)
	}
	if p.WhiteBalance {
		t.Error("explicit white_balance=false should win")
	}
}

func TestMerge(t *testing.T) {
	p := ForBWNegative()
	if err := p.Merge(json.RawMessage(`{"toe_strength": 0.5, "final_curve_profile": "soft"}`)); err != nil {
		t.Fatal(err)
	}
	if p.ToeStrength != 0.5 || p.FinalCurveProfile != tone.Soft {
		t.Errorf("merge not applied: toe=%v curve=%v", p.ToeStrength, p.FinalCurveProfile)
	}
	if err := p.Merge(json.RawMessage(`{"contrast": 2}`)); !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	p := ForColorNegative()
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	var back EditParameters
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back != p {
		t.Error("round trip changed parameters")
	}
}

func TestFields(t *testing.T) {
	fields := Fields()
	if len(fields) < 35 {
		t.Errorf("expected the full record, got %d fields", len(fields))
	}
	if fields[0] != "kind" {
		t.Errorf("first field: got %q", fields[0])
	}
}

func TestDisableAll(t *testing.T) {
	p := ForColorNegative()
	p.DisableAll()
	if p.HistogramCentering || p.BlackWhitePoint || p.Midtone || p.DynamicRange ||
		p.ColorBalance || p.Smoothing || p.Saturation || p.Protection || p.FinalCurve {
		t.Error("a stage is still enabled")
	}
}
