package session

import (
	"github.com/disintegration/imaging"

	"github.com/ironsheep/filmdev-mcp/internal/raster"
)

const (
	// DefaultProxyMaxDimension bounds the longer side of the preview proxy.
	DefaultProxyMaxDimension = 960

	// DefaultFullResThreshold is the pixel count below which full resolution
	// output is rendered alongside every preview.
	DefaultFullResThreshold = 5_000_000
)

// DeriveProxy downscales full so that its longer side is at most maxDim,
// using Lanczos resampling. A raster already within the bound is returned as
// an exact copy.
func DeriveProxy(full *raster.Raster, maxDim int) (*raster.Raster, error) {
	if err := full.Validate(); err != nil {
		return nil, err
	}
	longest := max(full.Width, full.Height)
	if maxDim <= 0 || longest <= maxDim {
		return full.Clone(), nil
	}

	scale := float64(maxDim) / float64(longest)
	w := max(1, int(float64(full.Width)*scale))
	h := max(1, int(float64(full.Height)*scale))
	return raster.FromNRGBA(imaging.Resize(full.Image(), w, h, imaging.Lanczos), full.Channels)
}

// ProxyCoordinator keeps the working raster and its proxy in step and
// decides when full resolution output is rendered.
type ProxyCoordinator struct {
	maxDim    int
	threshold int

	full  *raster.Raster
	proxy *raster.Raster
}

// NewProxyCoordinator returns a coordinator. Non-positive arguments select
// the defaults.
func NewProxyCoordinator(maxDim, threshold int) *ProxyCoordinator {
	if maxDim <= 0 {
		maxDim = DefaultProxyMaxDimension
	}
	if threshold <= 0 {
		threshold = DefaultFullResThreshold
	}
	return &ProxyCoordinator{maxDim: maxDim, threshold: threshold}
}

// SetFull replaces the working raster and rebuilds the proxy. On error the
// coordinator is unchanged.
func (c *ProxyCoordinator) SetFull(full *raster.Raster) error {
	proxy, err := DeriveProxy(full, c.maxDim)
	if err != nil {
		return err
	}
	c.full, c.proxy = full, proxy
	return nil
}

// Full returns the working raster.
func (c *ProxyCoordinator) Full() *raster.Raster { return c.full }

// Proxy returns the preview proxy.
func (c *ProxyCoordinator) Proxy() *raster.Raster { return c.proxy }

// Loaded reports whether a working raster is held.
func (c *ProxyCoordinator) Loaded() bool { return c.full != nil }

// RenderFullEagerly reports whether the working raster is small enough to
// render at full resolution on every preview run.
func (c *ProxyCoordinator) RenderFullEagerly() bool {
	return c.full != nil && c.full.PixelCount() < c.threshold
}

// MaxDimension returns the proxy bound.
func (c *ProxyCoordinator) MaxDimension() int { return c.maxDim }
