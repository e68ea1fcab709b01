package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	filmimg "github.com/ironsheep/filmdev-mcp/internal/imaging"
	"github.com/ironsheep/filmdev-mcp/internal/params"
	"github.com/ironsheep/filmdev-mcp/internal/pipeline"
	"github.com/ironsheep/filmdev-mcp/internal/session"
)

type developOptions struct {
	kind       string
	paramsFile string
	sets       []string
	rotate     float64
	crop       string
	outDir     string
	format     string
	suffix     string
	quality    int
	jobs       int
	overwrite  bool
}

func newDevelopCmd(a *app) *cobra.Command {
	o := &developOptions{}

	cmd := &cobra.Command{
		Use:   "develop [flags] FILE...",
		Short: "Invert and tone one or more scans",
		Long: "Develop scans with one parameter set. Parameters start from the preset " +
			"for --kind, then --params (a JSON object, e.g. from 'filmdev presets'), " +
			"then each --set key=value. Rotation and crop are applied before processing.",
		Example: "  filmdev develop --kind color-negative --set gamma=1.1 -o out/ scans/*.tif\n" +
			"  filmdev develop --kind bw-negative --rotate 90 --crop 40,40,3000,2000 frame.png",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("quality") {
				o.quality = a.cfg.JPEGQuality
			}
			d, err := o.developer(a.log)
			if err != nil {
				return err
			}
			jobs, err := o.plan(args)
			if err != nil {
				return err
			}
			if o.outDir != "" {
				if err := os.MkdirAll(o.outDir, 0o755); err != nil {
					return err
				}
			}
			return runBatch(cmd.Context(), d, jobs, o.jobs, a.log)
		},
	}

	o.bindFlags(cmd.Flags())
	return cmd
}

func (o *developOptions) bindFlags(f *pflag.FlagSet) {
	f.StringVarP(&o.kind, "kind", "k", params.ColorNegative.String(), "image kind and starting preset ("+kindList()+")")
	f.StringVar(&o.paramsFile, "params", "", "JSON file of parameter fields to merge over the preset")
	f.StringArrayVar(&o.sets, "set", nil, "override one parameter, key=value (repeatable)")
	f.Float64Var(&o.rotate, "rotate", 0, "rotate counter-clockwise by this many degrees")
	f.StringVar(&o.crop, "crop", "", "crop x,y,width,height in rotated image pixels")
	f.StringVarP(&o.outDir, "out-dir", "o", "", "output directory (default: next to each input)")
	f.StringVarP(&o.format, "format", "f", "jpg", "output format: jpg, png or tif")
	f.StringVar(&o.suffix, "suffix", "", "appended to output file names (default \"_developed\" without --out-dir)")
	f.IntVarP(&o.quality, "quality", "q", filmimg.DefaultJPEGQuality, "JPEG quality 1-100")
	f.IntVarP(&o.jobs, "jobs", "j", runtime.NumCPU(), "files developed concurrently")
	f.BoolVar(&o.overwrite, "overwrite", false, "replace existing output files")
	f.SortFlags = false
}

// developer turns one input file into one output file.
type developer struct {
	log    logrus.FieldLogger
	engine *pipeline.Engine
	params params.EditParameters
	rotate float64
	crop   *session.Rect
	save   filmimg.SaveOptions
}

func (o *developOptions) developer(log logrus.FieldLogger) (*developer, error) {
	if o.quality < 1 || o.quality > 100 {
		return nil, fmt.Errorf("quality %d outside [1, 100]", o.quality)
	}
	var raw []byte
	if o.paramsFile != "" {
		b, err := os.ReadFile(o.paramsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read parameters: %w", err)
		}
		raw = b
	}
	p, err := buildParams(o.kind, raw, o.sets)
	if err != nil {
		return nil, err
	}

	d := &developer{
		log:    log,
		engine: pipeline.New(),
		params: p,
		rotate: o.rotate,
		save:   filmimg.SaveOptions{JPEGQuality: o.quality},
	}
	if o.crop != "" {
		r, err := parseCrop(o.crop)
		if err != nil {
			return nil, err
		}
		d.crop = &r
	}
	return d, nil
}

// buildParams starts from the preset for kind, merges the JSON object raw
// and applies key=value overrides.
func buildParams(kind string, raw []byte, sets []string) (params.EditParameters, error) {
	p, err := params.Preset(kind)
	if err != nil {
		return params.EditParameters{}, err
	}
	if len(raw) > 0 {
		if err := p.Merge(raw); err != nil {
			return params.EditParameters{}, err
		}
	}
	overrides, err := parseSets(sets)
	if err != nil {
		return params.EditParameters{}, err
	}
	if err := p.Apply(overrides); err != nil {
		return params.EditParameters{}, err
	}
	return p, nil
}

func parseSets(sets []string) (map[string]string, error) {
	out := make(map[string]string, len(sets))
	for _, s := range sets {
		k, v, ok := strings.Cut(s, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --set %q: want key=value", s)
		}
		out[k] = v
	}
	return out, nil
}

func parseCrop(s string) (session.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return session.Rect{}, fmt.Errorf("invalid --crop %q: want x,y,width,height", s)
	}
	var v [4]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return session.Rect{}, fmt.Errorf("invalid --crop %q: %w", s, err)
		}
		v[i] = n
	}
	r := session.Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}
	if r.Width <= 0 || r.Height <= 0 {
		return session.Rect{}, fmt.Errorf("%w: %dx%d", session.ErrDegenerateCrop, r.Width, r.Height)
	}
	return r, nil
}

type job struct {
	in, out string
}

// plan maps every input to its output path and rejects collisions before
// any work starts.
func (o *developOptions) plan(inputs []string) ([]job, error) {
	ext := strings.ToLower(strings.TrimPrefix(o.format, "."))
	if _, err := filmimg.FormatFor("out." + ext); err != nil {
		return nil, err
	}
	suffix := o.suffix
	if suffix == "" && o.outDir == "" {
		suffix = "_developed"
	}

	seen := make(map[string]string, len(inputs))
	jobs := make([]job, 0, len(inputs))
	for _, in := range inputs {
		out := outputPath(in, o.outDir, suffix, ext)
		if prev, ok := seen[out]; ok {
			return nil, fmt.Errorf("%s and %s would both be written to %s", prev, in, out)
		}
		if filepath.Clean(out) == filepath.Clean(in) {
			return nil, fmt.Errorf("output for %s would replace the input", in)
		}
		if !o.overwrite {
			if _, err := os.Stat(out); err == nil {
				return nil, fmt.Errorf("%s exists (use --overwrite)", out)
			}
		}
		seen[out] = in
		jobs = append(jobs, job{in: in, out: out})
	}
	return jobs, nil
}

func outputPath(in, outDir, suffix, ext string) string {
	base := filepath.Base(in)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + suffix + "." + ext
	if outDir == "" {
		return filepath.Join(filepath.Dir(in), name)
	}
	return filepath.Join(outDir, name)
}

func (d *developer) develop(j job) error {
	start := time.Now()
	src, err := filmimg.Load(j.in)
	if err != nil {
		return err
	}

	var stack session.TransformStack
	working := src
	if d.rotate != 0 {
		if working, err = stack.SetRotation(working, d.rotate); err != nil {
			return err
		}
	}
	if d.crop != nil {
		if working, err = stack.SetCrop(working, *d.crop); err != nil {
			return err
		}
	}

	out, err := d.engine.Process(working, d.params)
	if err != nil {
		return err
	}
	if err := filmimg.Save(out, j.out, d.save); err != nil {
		return err
	}

	d.log.WithFields(logrus.Fields{
		"input":   filepath.Base(j.in),
		"output":  j.out,
		"width":   out.Width,
		"height":  out.Height,
		"kind":    d.params.Kind.String(),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("Developed")
	return nil
}

// runBatch develops jobs on up to workers goroutines. A failed file does not
// stop the others; cancelling ctx stops handing out new files.
func runBatch(ctx context.Context, d *developer, jobs []job, workers int, log logrus.FieldLogger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var (
		g      errgroup.Group
		mu     sync.Mutex
		failed []error
	)
	g.SetLimit(max(1, min(workers, len(jobs))))

	for _, j := range jobs {
		if ctx.Err() != nil {
			break
		}
		// Go blocks while all workers are busy.
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			if err := d.develop(j); err != nil {
				log.WithError(err).WithField("input", j.in).Error("Failed to develop")
				mu.Lock()
				failed = append(failed, fmt.Errorf("%s: %w", j.in, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d files failed: %w", len(failed), len(jobs), errors.Join(failed...))
	}
	return nil
}
