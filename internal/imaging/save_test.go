package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/ironsheep/filmdev-mcp/internal/raster"
)

func gradientRaster(t *testing.T, w, h, channels int) *raster.Raster {
	t.Helper()
	r, err := raster.New(w, h, channels)
	if err != nil {
		t.Fatal(err)
	}
	for i := range r.Pix {
		r.Pix[i] = uint8(i * 7 % 256)
	}
	return r
}

func TestSave_LosslessRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		channels int
	}{
		{"png rgb", "out.png", 3},
		{"png gray", "out.png", 1},
		{"tiff rgb", "out.tif", 3},
		{"tiff gray", "out.tiff", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := gradientRaster(t, 13, 9, tt.channels)
			path := filepath.Join(t.TempDir(), tt.file)

			if err := Save(src, path, SaveOptions{}); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if !got.Equal(src) {
				t.Errorf("round trip changed the raster: got %dx%dx%d", got.Width, got.Height, got.Channels)
			}
		})
	}
}

func TestSave_JPEG(t *testing.T) {
	src, _ := raster.New(16, 16, 3)
	for i := 0; i < src.PixelCount(); i++ {
		src.Pix[i*3], src.Pix[i*3+1], src.Pix[i*3+2] = 200, 120, 40
	}
	path := filepath.Join(t.TempDir(), "out.jpg")

	if err := Save(src, path, SaveOptions{JPEGQuality: 95}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Width != 16 || got.Height != 16 || got.Channels != 3 {
		t.Fatalf("got %dx%dx%d, want 16x16x3", got.Width, got.Height, got.Channels)
	}
	want := []int{200, 120, 40}
	for c, v := range got.At(8, 8) {
		if d := int(v) - want[c]; d < -6 || d > 6 {
			t.Errorf("channel %d: got %d, want about %d", c, v, want[c])
		}
	}
}

func TestSave_Errors(t *testing.T) {
	dir := t.TempDir()
	good := gradientRaster(t, 4, 4, 3)

	tests := []struct {
		name string
		r    *raster.Raster
		path string
		want error
	}{
		{"unknown extension", good, filepath.Join(dir, "out.xyz"), ErrUnsupportedFormat},
		{"no extension", good, filepath.Join(dir, "out"), ErrUnsupportedFormat},
		{"gif not offered", good, filepath.Join(dir, "out.gif"), ErrUnsupportedFormat},
		{"missing directory", good, filepath.Join(dir, "nope", "out.png"), ErrEncode},
		{"invalid raster", &raster.Raster{Width: 2, Height: 2, Channels: 4}, filepath.Join(dir, "bad.png"), ErrEncode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Save(tt.r, tt.path, SaveOptions{})
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEncodeBase64(t *testing.T) {
	src := gradientRaster(t, 6, 5, 3)

	enc, err := EncodeBase64(src, false, SaveOptions{})
	if err != nil {
		t.Fatalf("EncodeBase64 failed: %v", err)
	}
	if enc.MimeType != "image/png" || enc.Width != 6 || enc.Height != 5 {
		t.Errorf("unexpected header: %+v", enc)
	}

	data, err := base64.StdEncoding.DecodeString(enc.ImageBase64)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("invalid PNG: %v", err)
	}
	got, err := raster.FromImage(img)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(src) {
		t.Error("decoded PNG differs from source")
	}

	jpg, err := EncodeBase64(src, true, SaveOptions{})
	if err != nil {
		t.Fatalf("EncodeBase64 jpeg failed: %v", err)
	}
	if jpg.MimeType != "image/jpeg" {
		t.Errorf("MimeType: got %s, want image/jpeg", jpg.MimeType)
	}
}
