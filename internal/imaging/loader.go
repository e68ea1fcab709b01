package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/filmdev-mcp/internal/raster"
)

// Codec errors. Callers test for them with errors.Is.
var (
	// ErrDecode is returned when a file cannot be read or decoded.
	ErrDecode = errors.New("failed to decode image")

	// ErrEncode is returned when a raster cannot be encoded or written.
	ErrEncode = errors.New("failed to encode image")

	// ErrUnsupportedFormat is returned for file formats with no codec.
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// Load decodes the image file at path into a raster.
//
// The EXIF orientation tag, if present, is applied so the raster is upright.
// Grayscale files become single-channel rasters; everything else becomes RGB
// with alpha dropped.
//
// # Errors
//
//   - ErrUnsupportedFormat if no registered decoder recognizes the file
//   - ErrDecode if the file cannot be opened or its data is corrupt
func Load(path string) (*raster.Raster, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
		}
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	// Orienting returns RGB even for gray sources; fold those back to one
	// channel.
	if n, ok := img.(*image.NRGBA); ok && grayFile(path) {
		r, err := raster.FromNRGBA(n, 1)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
		return r, nil
	}

	r, err := raster.FromImage(img)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return r, nil
}

// grayFile reports whether the file at path decodes to a grayscale color
// model, reading only its header.
func grayFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return false
	}
	return cfg.ColorModel == color.GrayModel || cfg.ColorModel == color.Gray16Model
}

// SourceCache provides thread-safe caching of decoded source images so that
// reloading a file, or developing it again with other settings, skips the
// decode.
//
// Cached rasters are shared and must not be modified. Without a limit they
// stay in memory until removed with Evict or Clear; with SetLimit the least
// recently used entries are dropped first.
type SourceCache struct {
	mu     sync.Mutex
	images map[string]*raster.Raster
	order  []string // least recently used first
	limit  int
}

// NewSourceCache creates an empty, unbounded cache.
func NewSourceCache() *SourceCache {
	return &SourceCache{
		images: make(map[string]*raster.Raster),
	}
}

// SetLimit bounds the cache to n entries, evicting the least recently used
// ones if it already holds more. n <= 0 removes the bound.
func (c *SourceCache) SetLimit(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.limit = n
	c.trimLocked()
}

// Load returns the cached raster for path, decoding the file on a miss.
//
// Entries are keyed by the exact path string, so relative and absolute
// spellings of the same file are cached separately.
func (c *SourceCache) Load(path string) (*raster.Raster, error) {
	c.mu.Lock()
	if r, ok := c.images[path]; ok {
		c.touchLocked(path)
		c.mu.Unlock()
		return r, nil
	}
	c.mu.Unlock()

	r, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.images[path]; ok {
		// Another caller decoded it first.
		c.touchLocked(path)
		return cached, nil
	}
	c.images[path] = r
	c.order = append(c.order, path)
	c.trimLocked()
	return r, nil
}

func (c *SourceCache) touchLocked(path string) {
	c.removeOrderLocked(path)
	c.order = append(c.order, path)
}

func (c *SourceCache) removeOrderLocked(path string) {
	for i, p := range c.order {
		if p == path {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

func (c *SourceCache) trimLocked() {
	for c.limit > 0 && len(c.order) > c.limit {
		delete(c.images, c.order[0])
		c.order = c.order[1:]
	}
}

// Clear removes every entry.
func (c *SourceCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*raster.Raster)
	c.order = nil
	c.mu.Unlock()
}

// Evict removes the entry for path, if any.
func (c *SourceCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.removeOrderLocked(path)
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *SourceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.images)
}

// ImageInfo describes an image file and the raster decoded from it.
type ImageInfo struct {
	// Width is the upright image width in pixels.
	Width int `json:"width"`

	// Height is the upright image height in pixels.
	Height int `json:"height"`

	// Channels is 1 for grayscale files and 3 otherwise.
	Channels int `json:"channels"`

	// Format is the lower-case extension-derived format name, or "unknown".
	Format string `json:"format"`

	// FileSizeBytes is the size of the file on disk.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads path through cache and reports its metadata.
func LoadImageInfo(cache *SourceCache, path string) (*ImageInfo, error) {
	r, err := cache.Load(path)
	if err != nil {
		return nil, err
	}
	return Describe(r, path)
}

// Describe reports the metadata of a raster that was decoded from path.
func Describe(r *raster.Raster, path string) (*ImageInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	if f, err := imaging.FormatFromFilename(path); err == nil {
		format = strings.ToLower(f.String())
	}

	return &ImageInfo{
		Width:         r.Width,
		Height:        r.Height,
		Channels:      r.Channels,
		Format:        format,
		FileSizeBytes: stat.Size(),
	}, nil
}
