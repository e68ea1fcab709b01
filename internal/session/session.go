// Package session holds the mutable editing state for one image: the edit
// parameters, the rotate/crop stack, the preview proxy and the rendered
// outputs. Rendering runs on a debounced single-flight scheduler so that a
// burst of parameter edits costs one pipeline run.
package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	filmimg "github.com/ironsheep/filmdev-mcp/internal/imaging"
	"github.com/ironsheep/filmdev-mcp/internal/params"
	"github.com/ironsheep/filmdev-mcp/internal/pipeline"
	"github.com/ironsheep/filmdev-mcp/internal/raster"
)

var (
	// ErrNoImage is returned by operations that need a loaded image.
	ErrNoImage = errors.New("no image loaded")

	// ErrClosed is returned when rendering is requested after Close.
	ErrClosed = errors.New("session closed")
)

// Processor renders a raster with a parameter set. *pipeline.Engine
// satisfies it.
type Processor interface {
	Process(src *raster.Raster, p params.EditParameters) (*raster.Raster, error)
}

// Options configures a Session. Zero fields select defaults.
type Options struct {
	ProxyMaxDimension int
	FullResThreshold  int
	Debounce          time.Duration
	JPEGQuality       int

	Processor Processor
	Logger    logrus.FieldLogger
	// Open decodes an image file. Defaults to imaging.Load.
	Open func(path string) (*raster.Raster, error)
}

type renderJob struct {
	params params.EditParameters
	proxy  *raster.Raster
	// full is nil when full resolution output is not wanted this run.
	full *raster.Raster
}

type renderResult struct {
	preview *raster.Raster
	full    *raster.Raster
	elapsed time.Duration
}

// Session is the editing context for one image. All methods are safe for
// concurrent use.
//
// Rasters returned by Session are shared with its internal state and must
// not be modified.
type Session struct {
	log         logrus.FieldLogger
	engine      Processor
	open        func(string) (*raster.Raster, error)
	jpegQuality int
	maxDim      int
	threshold   int
	sched       *Scheduler[renderJob, renderResult]

	mu         sync.Mutex
	source     string
	params     params.EditParameters
	transforms TransformStack
	proxy      *ProxyCoordinator
	generation uint64

	preview    *raster.Raster
	full       *raster.Raster
	fullStale  bool
	fullWanted bool
	renderErr  error
}

// New returns an empty session with color negative parameters.
func New(opts Options) *Session {
	proxy := NewProxyCoordinator(opts.ProxyMaxDimension, opts.FullResThreshold)
	s := &Session{
		log:         opts.Logger,
		engine:      opts.Processor,
		open:        opts.Open,
		jpegQuality: opts.JPEGQuality,
		maxDim:      proxy.maxDim,
		threshold:   proxy.threshold,
		params:      params.ForColorNegative(),
		proxy:       proxy,
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.engine == nil {
		s.engine = pipeline.New()
	}
	if s.open == nil {
		s.open = filmimg.Load
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	s.sched = NewScheduler(Task[renderJob, renderResult]{
		Prepare: s.prepareRender,
		Run:     s.runRender,
		Commit:  s.commitRender,
	}, debounce, s.log)
	return s
}

// Close stops background rendering.
func (s *Session) Close() {
	s.sched.Close()
}

// Load decodes the file at path and makes it the working image. Parameters
// are kept. On error the session is unchanged.
func (s *Session) Load(path string) error {
	r, err := s.open(path)
	if err != nil {
		return err
	}
	return s.load(r, path)
}

// LoadRaster makes r the working image, dropping any rotation and crop.
func (s *Session) LoadRaster(r *raster.Raster) error {
	return s.load(r, "")
}

func (s *Session) load(r *raster.Raster, source string) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid image: %w", err)
	}
	proxy := NewProxyCoordinator(s.maxDim, s.threshold)
	if err := proxy.SetFull(r); err != nil {
		return err
	}

	s.mu.Lock()
	s.source = source
	s.proxy = proxy
	s.transforms = TransformStack{}
	s.preview, s.full = nil, nil
	s.invalidateLocked()
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"width":    r.Width,
		"height":   r.Height,
		"channels": r.Channels,
		"source":   filepath.Base(source),
	}).Info("Loaded image")
	s.sched.Now()
	return nil
}

// Params returns a copy of the current parameters.
func (s *Session) Params() params.EditParameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// SetParams replaces the parameter set after validating it.
func (s *Session) SetParams(p params.EditParameters) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.commitParams(p)
	return nil
}

// Update applies field overrides (see params.EditParameters.Apply). Either
// every override is applied or none is.
func (s *Session) Update(overrides map[string]string) error {
	p := s.Params()
	if err := p.Apply(overrides); err != nil {
		return err
	}
	s.commitParams(p)
	return nil
}

// UpdateJSON merges a JSON object of parameter fields.
func (s *Session) UpdateJSON(raw []byte) error {
	p := s.Params()
	if err := p.Merge(raw); err != nil {
		return err
	}
	s.commitParams(p)
	return nil
}

// SetKind switches the image kind and loads that kind's preset.
func (s *Session) SetKind(k params.ImageKind) error {
	if !k.Valid() {
		return fmt.Errorf("%w: image kind %d", params.ErrInvalidValue, int(k))
	}
	s.commitParams(params.ForKind(k))
	return nil
}

// ApplyPreset replaces the parameters with a named preset.
func (s *Session) ApplyPreset(name string) error {
	p, err := params.Preset(name)
	if err != nil {
		return err
	}
	s.commitParams(p)
	return nil
}

// ResetParameters restores the preset for the current image kind.
func (s *Session) ResetParameters() {
	s.commitParams(params.ForKind(s.Params().Kind))
}

func (s *Session) commitParams(p params.EditParameters) {
	s.mu.Lock()
	s.params = p
	s.invalidateLocked()
	loaded := s.proxy.Loaded()
	s.mu.Unlock()
	if loaded {
		s.sched.Trigger()
	}
}

// Rotate adds delta degrees counter-clockwise to the rotation.
func (s *Session) Rotate(delta float64) error {
	return s.transform("rotate", func(t *TransformStack, cur *raster.Raster) (*raster.Raster, error) {
		return t.Rotate(cur, delta)
	})
}

// SetRotation sets the absolute rotation in degrees.
func (s *Session) SetRotation(angle float64) error {
	return s.transform("set_rotation", func(t *TransformStack, cur *raster.Raster) (*raster.Raster, error) {
		return t.SetRotation(cur, angle)
	})
}

// Crop sets the crop rectangle, in rotated image coordinates.
func (s *Session) Crop(r Rect) error {
	return s.transform("crop", func(t *TransformStack, cur *raster.Raster) (*raster.Raster, error) {
		return t.SetCrop(cur, r)
	})
}

// ClearCrop removes the crop and keeps the rotation.
func (s *Session) ClearCrop() error {
	return s.transform("clear_crop", func(t *TransformStack, cur *raster.Raster) (*raster.Raster, error) {
		return t.ClearCrop(cur)
	})
}

// ResetTransforms restores the image as loaded.
func (s *Session) ResetTransforms() error {
	return s.transform("reset", func(t *TransformStack, cur *raster.Raster) (*raster.Raster, error) {
		return t.Reset(cur), nil
	})
}

// transform runs op on a copy of the transform stack and commits the stack,
// the new working raster and its proxy only if everything succeeds.
func (s *Session) transform(name string, op func(*TransformStack, *raster.Raster) (*raster.Raster, error)) error {
	s.mu.Lock()
	if !s.proxy.Loaded() {
		s.mu.Unlock()
		return ErrNoImage
	}
	stack := s.transforms
	current := s.proxy.Full()
	coord := *s.proxy
	s.mu.Unlock()

	// Resampling runs outside the lock; the mutation is committed only if no
	// other transform or load landed in the meantime.
	working, err := op(&stack, current)
	if err != nil {
		return err
	}
	if err := coord.SetFull(working); err != nil {
		return err
	}

	s.mu.Lock()
	if s.proxy.Full() != current {
		s.mu.Unlock()
		return fmt.Errorf("%s: image changed concurrently", name)
	}
	s.transforms = stack
	s.proxy = &coord
	s.invalidateLocked()
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{
		"op":     name,
		"angle":  stack.Angle(),
		"width":  working.Width,
		"height": working.Height,
	}).Debug("Transformed image")
	s.sched.Now()
	return nil
}

// invalidateLocked bumps the generation so in-flight results are discarded
// and marks full resolution output stale.
func (s *Session) invalidateLocked() {
	s.generation++
	s.fullStale = true
	s.renderErr = nil
}

func (s *Session) prepareRender() (renderJob, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job := renderJob{params: s.params, proxy: s.proxy.Proxy()}
	if s.proxy.RenderFullEagerly() || s.fullWanted {
		job.full = s.proxy.Full()
	}
	return job, s.generation
}

func (s *Session) runRender(job renderJob) (renderResult, error) {
	if job.proxy == nil {
		return renderResult{}, ErrNoImage
	}
	start := time.Now()
	var res renderResult
	var err error
	if res.preview, err = s.engine.Process(job.proxy, job.params); err != nil {
		return res, err
	}
	if job.full != nil {
		if job.full.Equal(job.proxy) {
			res.full = res.preview
		} else if res.full, err = s.engine.Process(job.full, job.params); err != nil {
			return res, err
		}
	}
	res.elapsed = time.Since(start)
	return res, nil
}

func (s *Session) commitRender(gen uint64, res renderResult, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	if err != nil {
		s.renderErr = err
		s.log.WithError(err).WithField("generation", gen).Error("Render failed")
		return true
	}
	s.preview = res.preview
	if res.full != nil {
		s.full = res.full
		s.fullStale = false
		s.fullWanted = false
	}
	s.log.WithFields(logrus.Fields{
		"generation": gen,
		"full":       res.full != nil,
		"elapsed":    res.elapsed,
	}).Debug("Rendered")
	return true
}

// Preview waits for pending renders and returns the processed proxy.
func (s *Session) Preview(ctx context.Context) (*raster.Raster, error) {
	if err := s.sched.Wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.proxy.Loaded() {
		return nil, ErrNoImage
	}
	if s.renderErr != nil {
		return nil, s.renderErr
	}
	if s.preview == nil {
		return nil, errors.New("preview not rendered")
	}
	return s.preview, nil
}

// PreviewFit returns the processed proxy scaled to fit within width×height.
func (s *Session) PreviewFit(ctx context.Context, width, height int) (*raster.Raster, error) {
	p, err := s.Preview(ctx)
	if err != nil {
		return nil, err
	}
	return filmimg.Fit(p, width, height)
}

// FullResolution returns the processed working raster at full resolution,
// rendering it first if it is stale.
func (s *Session) FullResolution(ctx context.Context) (*raster.Raster, error) {
	for {
		if err := s.sched.Wait(ctx); err != nil {
			return nil, err
		}

		s.mu.Lock()
		if !s.proxy.Loaded() {
			s.mu.Unlock()
			return nil, ErrNoImage
		}
		if !s.fullStale && s.full != nil {
			full := s.full
			s.mu.Unlock()
			return full, nil
		}
		if s.renderErr != nil {
			err := s.renderErr
			s.mu.Unlock()
			return nil, err
		}
		s.fullWanted = true
		s.mu.Unlock()

		if !s.sched.Now() {
			return nil, ErrClosed
		}
	}
}

// Export renders at full resolution if needed and writes the result to
// path. The format follows the file extension.
func (s *Session) Export(ctx context.Context, path string) error {
	full, err := s.FullResolution(ctx)
	if err != nil {
		return err
	}
	if err := filmimg.Save(full, path, filmimg.SaveOptions{JPEGQuality: s.jpegQuality}); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{
		"path":   filepath.Base(path),
		"width":  full.Width,
		"height": full.Height,
	}).Info("Exported image")
	return nil
}

// Status describes the session state.
type Status struct {
	Loaded       bool                  `json:"loaded"`
	Source       string                `json:"source,omitempty"`
	Kind         params.ImageKind      `json:"kind"`
	Width        int                   `json:"width,omitempty"`
	Height       int                   `json:"height,omitempty"`
	Channels     int                   `json:"channels,omitempty"`
	ProxyWidth   int                   `json:"proxy_width,omitempty"`
	ProxyHeight  int                   `json:"proxy_height,omitempty"`
	Rotation     float64               `json:"rotation"`
	Crop         *Rect                 `json:"crop,omitempty"`
	Transformed  bool                  `json:"transformed"`
	FullStale    bool                  `json:"full_stale"`
	Rendering    bool                  `json:"rendering"`
	Generation   uint64                `json:"generation"`
	ActiveStages []pipeline.Stage      `json:"-"`
	Stages       []string              `json:"active_stages"`
	Params       params.EditParameters `json:"-"`
}

// Status returns a snapshot of the session state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Loaded:      s.proxy.Loaded(),
		Source:      s.source,
		Kind:        s.params.Kind,
		Rotation:    s.transforms.Angle(),
		Transformed: s.transforms.Touched(),
		FullStale:   s.fullStale,
		Rendering:   s.sched.Busy(),
		Generation:  s.generation,
		Params:      s.params,
	}
	if r, ok := s.transforms.Crop(); ok {
		st.Crop = &r
	}
	if full := s.proxy.Full(); full != nil {
		st.Width, st.Height, st.Channels = full.Width, full.Height, full.Channels
		st.ActiveStages = pipeline.ActiveStages(s.params, full.Channels)
		for _, stage := range st.ActiveStages {
			st.Stages = append(st.Stages, stage.String())
		}
	}
	if proxy := s.proxy.Proxy(); proxy != nil {
		st.ProxyWidth, st.ProxyHeight = proxy.Width, proxy.Height
	}
	return st
}

// Source returns the loaded image before rotation and crop.
func (s *Session) Source() (*raster.Raster, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.proxy.Loaded() {
		return nil, ErrNoImage
	}
	if pre := s.transforms.Source(); pre != nil {
		return pre, nil
	}
	return s.proxy.Full(), nil
}

// PickNeutral samples the processed preview at (x, y) and adjusts
// temperature and tint so that the sampled color renders as gray. It returns
// the sample taken and the new temperature and tint.
func (s *Session) PickNeutral(ctx context.Context, x, y int) (filmimg.ColorSample, float64, float64, error) {
	preview, err := s.Preview(ctx)
	if err != nil {
		return filmimg.ColorSample{}, 0, 0, err
	}
	sample, err := filmimg.Sample(preview, x, y)
	if err != nil {
		return filmimg.ColorSample{}, 0, 0, err
	}

	p := s.Params()
	if !p.Kind.IsColor() {
		return sample, 0, 0, fmt.Errorf("%w: neutral picking needs a color image", params.ErrInvalidValue)
	}
	dt, dg := pipeline.NeutralizingWhiteBalance(sample.R, sample.G, sample.B)
	temperature := clampFloat(p.Temperature+dt, -100, 100)
	tint := clampFloat(p.Tint+dg, -100, 100)
	p.SetWhiteBalance(temperature, tint)
	if err := s.SetParams(p); err != nil {
		return sample, 0, 0, err
	}
	return sample, temperature, tint, nil
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
