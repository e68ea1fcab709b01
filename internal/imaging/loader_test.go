package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// createTestImage writes a solid-color PNG into the test's temp dir and
// returns its path.
func createTestImage(t *testing.T, width, height int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return writePNG(t, "test-image.png", img)
}

// createGrayTestImage writes a horizontal gray ramp as an 8-bit gray PNG.
func createGrayTestImage(t *testing.T, width, height int) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 255 / max(width-1, 1))})
		}
	}
	return writePNG(t, "test-gray.png", img)
}

func writePNG(t *testing.T, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestLoad_RGB(t *testing.T) {
	path := createTestImage(t, 40, 30, color.RGBA{255, 128, 64, 255})

	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if r.Width != 40 || r.Height != 30 || r.Channels != 3 {
		t.Fatalf("got %dx%dx%d, want 40x30x3", r.Width, r.Height, r.Channels)
	}
	px := r.At(10, 10)
	if px[0] != 255 || px[1] != 128 || px[2] != 64 {
		t.Errorf("pixel: got %v, want [255 128 64]", px)
	}
}

func TestLoad_Gray(t *testing.T) {
	path := createGrayTestImage(t, 16, 4)

	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if r.Channels != 1 {
		t.Fatalf("Channels: got %d, want 1", r.Channels)
	}
	if r.At(0, 0)[0] != 0 || r.At(15, 3)[0] != 255 {
		t.Errorf("ramp endpoints: got %d and %d", r.At(0, 0)[0], r.At(15, 3)[0])
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.png")
	if err := os.WriteFile(garbage, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want error
	}{
		{"missing file", filepath.Join(dir, "missing.png"), ErrDecode},
		{"not an image", garbage, ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSourceCache_Load(t *testing.T) {
	cache := NewSourceCache()
	path := createTestImage(t, 20, 20, color.RGBA{255, 0, 0, 255})

	r1, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	r2, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if r1 != r2 {
		t.Error("second Load did not return cached raster")
	}
	if cache.Len() != 1 {
		t.Errorf("Len: got %d, want 1", cache.Len())
	}
}

func TestSourceCache_LoadError(t *testing.T) {
	cache := NewSourceCache()
	if _, err := cache.Load("/nonexistent/path/to/image.png"); err == nil {
		t.Error("Load should fail for non-existent file")
	}
	if cache.Len() != 0 {
		t.Error("failed load should not be cached")
	}
}

func TestSourceCache_EvictClear(t *testing.T) {
	cache := NewSourceCache()
	a := createTestImage(t, 8, 8, color.RGBA{0, 255, 0, 255})
	b := createGrayTestImage(t, 8, 8)
	for _, p := range []string{a, b} {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load(%s) failed: %v", p, err)
		}
	}

	cache.Evict(a)
	cache.Evict("/nonexistent/path")
	if cache.Len() != 1 {
		t.Errorf("after Evict: Len = %d, want 1", cache.Len())
	}

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("after Clear: Len = %d, want 0", cache.Len())
	}
}

func TestSourceCache_Limit(t *testing.T) {
	cache := NewSourceCache()
	cache.SetLimit(2)

	var paths []string
	for i := 0; i < 5; i++ {
		paths = append(paths, createTestImage(t, 4+i, 4, color.RGBA{uint8(i * 40), 0, 0, 255}))
	}
	first, err := cache.Load(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range paths[1:] {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load(%s) failed: %v", p, err)
		}
		// Keep the first image in use so it is never the oldest.
		if _, err := cache.Load(paths[0]); err != nil {
			t.Fatal(err)
		}
		if cache.Len() > 2 {
			t.Fatalf("Len = %d, want at most 2", cache.Len())
		}
	}

	again, err := cache.Load(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	if again != first {
		t.Error("recently used entry was evicted")
	}
	if r, _ := cache.Load(paths[4]); r == nil || r.Width != 8 {
		t.Error("newest entry should still be cached")
	}

	cache.SetLimit(1)
	if cache.Len() != 1 {
		t.Errorf("after SetLimit(1): Len = %d, want 1", cache.Len())
	}
	cache.SetLimit(0)
	for _, p := range paths {
		if _, err := cache.Load(p); err != nil {
			t.Fatal(err)
		}
	}
	if cache.Len() != len(paths) {
		t.Errorf("unbounded: Len = %d, want %d", cache.Len(), len(paths))
	}
}

// withOrientation inserts an EXIF APP1 segment carrying the given
// orientation tag right after the JPEG start-of-image marker.
func withOrientation(jpg []byte, orientation byte) []byte {
	app1 := []byte{
		0xFF, 0xE1, 0x00, 0x22,
		'E', 'x', 'i', 'f', 0, 0,
		'M', 'M', 0x00, 0x2A, 0, 0, 0, 8,
		0, 1,
		0x01, 0x12, 0, 3, 0, 0, 0, 1, 0, orientation, 0, 0,
		0, 0, 0, 0,
	}
	out := append([]byte{}, jpg[:2]...)
	out = append(out, app1...)
	return append(out, jpg[2:]...)
}

func TestLoad_OrientedGrayStaysGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 6, 2))
	for x := 0; x < 6; x++ {
		img.SetGray(x, 0, color.Gray{Y: 200})
		img.SetGray(x, 1, color.Gray{Y: 200})
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 100}); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "rotated.jpg")
	if err := os.WriteFile(path, withOrientation(buf.Bytes(), 6), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if r.Width != 2 || r.Height != 6 {
		t.Errorf("orientation not applied: got %dx%d, want 2x6", r.Width, r.Height)
	}
	if r.Channels != 1 {
		t.Errorf("channels: got %d, want 1", r.Channels)
	}
	if v := r.At(1, 3)[0]; v < 195 || v > 205 {
		t.Errorf("sample: got %d, want about 200", v)
	}
}

func TestSourceCache_ConcurrentAccess(t *testing.T) {
	cache := NewSourceCache()
	path := createTestImage(t, 50, 50, color.RGBA{128, 128, 128, 255})

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
}

func TestLoadImageInfo(t *testing.T) {
	cache := NewSourceCache()
	path := createTestImage(t, 200, 150, color.RGBA{255, 128, 64, 255})

	info, err := LoadImageInfo(cache, path)
	if err != nil {
		t.Fatalf("LoadImageInfo failed: %v", err)
	}
	if info.Width != 200 || info.Height != 150 {
		t.Errorf("dimensions: got %dx%d, want 200x150", info.Width, info.Height)
	}
	if info.Channels != 3 {
		t.Errorf("Channels: got %d, want 3", info.Channels)
	}
	if info.Format != "png" {
		t.Errorf("Format: got %s, want png", info.Format)
	}
	if info.FileSizeBytes <= 0 {
		t.Error("FileSizeBytes should be positive")
	}
}

func TestLoadImageInfo_FormatDetection(t *testing.T) {
	tests := []struct {
		ext    string
		format string
	}{
		{".png", "png"},
		{".jpg", "jpeg"},
		{".tif", "tiff"},
		{".gif", "gif"},
		{".xyz", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			// A PNG under every extension; decoding sniffs the content.
			path := writePNG(t, "test-format"+tt.ext, image.NewRGBA(image.Rect(0, 0, 10, 10)))

			info, err := LoadImageInfo(NewSourceCache(), path)
			if err != nil {
				t.Fatalf("LoadImageInfo failed: %v", err)
			}
			if info.Format != tt.format {
				t.Errorf("Format for %s: got %s, want %s", tt.ext, info.Format, tt.format)
			}
		})
	}
}
