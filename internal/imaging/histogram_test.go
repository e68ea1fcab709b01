package imaging

import "testing"

func TestHistogram_RGB(t *testing.T) {
	r := solidRaster(t, 4, 4, 0, 128, 255)

	rep := Histogram(r, true)
	if rep.Width != 4 || rep.Height != 4 {
		t.Errorf("dimensions: got %dx%d", rep.Width, rep.Height)
	}
	if len(rep.Channels) != 3 {
		t.Fatalf("got %d channels, want 3", len(rep.Channels))
	}

	tests := []struct {
		name         string
		level        int
		black, white float64
	}{
		{"r", 0, 1, 0},
		{"g", 128, 0, 0},
		{"b", 255, 0, 1},
	}
	for i, tt := range tests {
		ch := rep.Channels[i]
		if ch.Name != tt.name {
			t.Errorf("channel %d: name %q, want %q", i, ch.Name, tt.name)
		}
		if ch.Min != tt.level || ch.Max != tt.level || ch.Mean != float64(tt.level) {
			t.Errorf("%s: min/max/mean %d/%d/%v, want %d", tt.name, ch.Min, ch.Max, ch.Mean, tt.level)
		}
		if ch.ClippedBlack != tt.black || ch.ClippedWhite != tt.white {
			t.Errorf("%s: clipped %v/%v, want %v/%v", tt.name, ch.ClippedBlack, ch.ClippedWhite, tt.black, tt.white)
		}
		if len(ch.Bins) != 256 || ch.Bins[tt.level] != 16 {
			t.Errorf("%s: bins not populated as expected", tt.name)
		}
	}
}

func TestHistogram_Gray(t *testing.T) {
	r := solidRaster(t, 2, 2, 0)
	r.Pix[3] = 200

	rep := Histogram(r, false)
	if len(rep.Channels) != 1 || rep.Channels[0].Name != "l" {
		t.Fatalf("gray raster should report one luminance channel, got %+v", rep.Channels)
	}
	ch := rep.Channels[0]
	if ch.Min != 0 || ch.Max != 200 || ch.Mean != 50 {
		t.Errorf("min/max/mean: got %d/%d/%v, want 0/200/50", ch.Min, ch.Max, ch.Mean)
	}
	if ch.ClippedBlack != 0.75 {
		t.Errorf("ClippedBlack: got %v, want 0.75", ch.ClippedBlack)
	}
	if ch.Bins != nil {
		t.Error("bins should be omitted")
	}
}
