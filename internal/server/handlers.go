package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ironsheep/filmdev-mcp/internal/imaging"
	"github.com/ironsheep/filmdev-mcp/internal/params"
	"github.com/ironsheep/filmdev-mcp/internal/raster"
	"github.com/ironsheep/filmdev-mcp/internal/session"
)

// renderTimeout bounds how long a tool call waits for pending renders.
const renderTimeout = 2 * time.Minute

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "film_load", "film_preview").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var call ToolCallParams
	if err := json.Unmarshal(req.Params, &call); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(ctx, call.Name, call.Arguments)
	log := s.log.WithField("tool", call.Name).WithField("elapsed", time.Since(start))
	if err != nil {
		log.WithError(err).Warn("Tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	log.Debug("Tool succeeded")

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
//
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Calls the session or an imaging helper
//  4. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image
	case "film_load":
		return s.handleLoad(args)
	case "film_image_info":
		return s.handleImageInfo(args)
	case "film_status":
		return s.handleStatus()

	// Parameters
	case "film_presets":
		return s.handlePresets()
	case "film_get_params":
		return s.handleGetParams()
	case "film_set_params":
		return s.handleSetParams(args)
	case "film_set_kind":
		return s.handleSetKind(args)
	case "film_reset_params":
		return s.handleResetParams()

	// Geometry
	case "film_rotate":
		return s.handleRotate(args)
	case "film_crop":
		return s.handleCrop(args)
	case "film_clear_crop":
		return s.transformResult(s.session.ClearCrop())
	case "film_reset_transforms":
		return s.transformResult(s.session.ResetTransforms())

	// Output
	case "film_preview":
		return s.handlePreview(ctx, args)
	case "film_export":
		return s.handleExport(ctx, args)
	case "film_inspect_region":
		return s.handleInspectRegion(ctx, args)

	// Analysis
	case "film_histogram":
		return s.handleHistogram(ctx, args)
	case "film_sample_color":
		return s.handleSampleColor(ctx, args)
	case "film_sample_colors_multi":
		return s.handleSampleColorsMulti(ctx, args)
	case "film_pick_neutral":
		return s.handlePickNeutral(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments, treating absent arguments as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func withRenderTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, renderTimeout)
}

// === Image Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (a pathArgs) validate() error {
	if strings.TrimSpace(a.Path) == "" {
		return errors.New("path is required")
	}
	return nil
}

type loadResult struct {
	Info   *imaging.ImageInfo `json:"info"`
	Status session.Status     `json:"status"`
}

func (s *Server) handleLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	// Reloading a path picks up changes on disk.
	s.cache.Evict(a.Path)
	prev := s.session.Status().Source
	if err := s.session.Load(a.Path); err != nil {
		return nil, err
	}
	if prev != "" && prev != a.Path {
		s.cache.Evict(prev)
	}
	info, err := imaging.LoadImageInfo(s.cache, a.Path)
	if err != nil {
		return nil, err
	}
	return &loadResult{Info: info, Status: s.session.Status()}, nil
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleStatus() (interface{}, error) {
	return s.session.Status(), nil
}

// === Parameter Handlers ===

type paramsResult struct {
	Kind   params.ImageKind      `json:"kind"`
	Params params.EditParameters `json:"params"`
}

func (s *Server) currentParams() *paramsResult {
	p := s.session.Params()
	return &paramsResult{Kind: p.Kind, Params: p}
}

type presetsResult struct {
	Presets map[string]params.EditParameters `json:"presets"`
	Fields  []string                         `json:"fields"`
}

func (s *Server) handlePresets() (interface{}, error) {
	out := &presetsResult{
		Presets: make(map[string]params.EditParameters, len(params.Kinds)),
		Fields:  params.Fields(),
	}
	for _, k := range params.Kinds {
		out.Presets[k.String()] = params.ForKind(k)
	}
	return out, nil
}

func (s *Server) handleGetParams() (interface{}, error) {
	return s.currentParams(), nil
}

type setParamsArgs struct {
	Preset string            `json:"preset"`
	Params json.RawMessage   `json:"params"`
	Set    map[string]string `json:"set"`
}

// handleSetParams builds the new parameter set from an optional preset, a
// JSON object of fields and key=value overrides, in that order. Nothing is
// committed unless every step succeeds.
func (s *Server) handleSetParams(args json.RawMessage) (interface{}, error) {
	var a setParamsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Preset == "" && len(a.Params) == 0 && len(a.Set) == 0 {
		return nil, errors.New("one of preset, params or set is required")
	}

	p := s.session.Params()
	if a.Preset != "" {
		preset, err := params.Preset(a.Preset)
		if err != nil {
			return nil, err
		}
		p = preset
	}
	if len(a.Params) > 0 && string(a.Params) != "null" {
		if err := p.Merge(a.Params); err != nil {
			return nil, err
		}
	}
	if err := p.Apply(a.Set); err != nil {
		return nil, err
	}
	if err := s.session.SetParams(p); err != nil {
		return nil, err
	}
	return s.currentParams(), nil
}

type setKindArgs struct {
	Kind string `json:"kind"`
}

func (s *Server) handleSetKind(args json.RawMessage) (interface{}, error) {
	var a setKindArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	k, err := params.ParseKind(a.Kind)
	if err != nil {
		return nil, err
	}
	if err := s.session.SetKind(k); err != nil {
		return nil, err
	}
	return s.currentParams(), nil
}

func (s *Server) handleResetParams() (interface{}, error) {
	s.session.ResetParameters()
	return s.currentParams(), nil
}

// === Geometry Handlers ===

type rotateArgs struct {
	Delta *float64 `json:"delta"`
	Angle *float64 `json:"angle"`
}

func (s *Server) handleRotate(args json.RawMessage) (interface{}, error) {
	var a rotateArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	switch {
	case a.Delta != nil && a.Angle != nil:
		return nil, errors.New("delta and angle are mutually exclusive")
	case a.Delta != nil:
		return s.transformResult(s.session.Rotate(*a.Delta))
	case a.Angle != nil:
		return s.transformResult(s.session.SetRotation(*a.Angle))
	default:
		return nil, errors.New("one of delta or angle is required")
	}
}

func (s *Server) handleCrop(args json.RawMessage) (interface{}, error) {
	var a session.Rect
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return s.transformResult(s.session.Crop(a))
}

func (s *Server) transformResult(err error) (interface{}, error) {
	if err != nil {
		return nil, err
	}
	return s.session.Status(), nil
}

// === Output Handlers ===

type previewArgs struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`

	Grid        bool   `json:"grid"`
	GridSpacing int    `json:"grid_spacing"`
	GridLabels  bool   `json:"grid_labels"`
	GridColor   string `json:"grid_color"`
}

// encodingFor maps a format argument to the EncodeBase64 switch.
func encodingFor(format string) (jpeg bool, err error) {
	switch strings.ToLower(format) {
	case "", "jpeg", "jpg":
		return true, nil
	case "png":
		return false, nil
	default:
		return false, fmt.Errorf("%w: image format %q", imaging.ErrUnsupportedFormat, format)
	}
}

func (s *Server) handlePreview(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a previewArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	jpeg, err := encodingFor(a.Format)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withRenderTimeout(ctx)
	defer cancel()
	img, err := s.session.PreviewFit(ctx, a.Width, a.Height)
	if err != nil {
		return nil, err
	}
	if a.Grid {
		// Label intersections in working image pixels so they can be passed
		// straight to film_crop.
		scale := float64(s.session.Status().Width) / float64(img.Width)
		img, err = imaging.GridOverlay(img, imaging.GridOptions{
			Spacing:    a.GridSpacing,
			Labels:     a.GridLabels,
			Color:      a.GridColor,
			LabelScale: scale,
		})
		if err != nil {
			return nil, err
		}
	}
	return imaging.EncodeBase64(img, jpeg, imaging.SaveOptions{})
}

type inspectArgs struct {
	// Source is "full" (default, the processed full resolution output) or
	// "source" (the loaded image before rotation, crop and processing).
	Source string  `json:"source"`
	Region string  `json:"region"`
	X1     int     `json:"x1"`
	Y1     int     `json:"y1"`
	X2     int     `json:"x2"`
	Y2     int     `json:"y2"`
	Scale  float64 `json:"scale"`
	Format string  `json:"format"`
}

// handleInspectRegion returns a region of a full resolution image, the way a
// loupe is used to judge grain and sharpness.
func (s *Server) handleInspectRegion(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a inspectArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	jpeg, err := encodingFor(a.Format)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withRenderTimeout(ctx)
	defer cancel()

	var img *raster.Raster
	switch a.Source {
	case "", "full":
		img, err = s.session.FullResolution(ctx)
	case "source":
		img, err = s.session.Source()
	default:
		return nil, fmt.Errorf("unknown source %q (want full or source)", a.Source)
	}
	if err != nil {
		return nil, err
	}

	var region *raster.Raster
	if a.Region != "" {
		region, err = imaging.NamedRegion(img, a.Region, a.Scale)
	} else {
		region, err = imaging.Region(img, a.X1, a.Y1, a.X2, a.Y2, a.Scale)
	}
	if err != nil {
		return nil, err
	}
	return imaging.EncodeBase64(region, jpeg, imaging.SaveOptions{})
}

type exportResult struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (s *Server) handleExport(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	if _, err := imaging.FormatFor(a.Path); err != nil {
		return nil, err
	}

	ctx, cancel := withRenderTimeout(ctx)
	defer cancel()
	if err := s.session.Export(ctx, a.Path); err != nil {
		return nil, err
	}
	st := s.session.Status()
	return &exportResult{Path: a.Path, Width: st.Width, Height: st.Height}, nil
}

// === Analysis Handlers ===

type histogramArgs struct {
	// Source is "preview" (default), "full" or "source".
	Source string `json:"source"`
	Bins   bool   `json:"bins"`
}

type histogramResult struct {
	Source string `json:"source"`
	*imaging.HistogramReport
}

func (s *Server) handleHistogram(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a histogramArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Source == "" {
		a.Source = "preview"
	}

	ctx, cancel := withRenderTimeout(ctx)
	defer cancel()

	var (
		img *raster.Raster
		err error
	)
	switch a.Source {
	case "preview":
		img, err = s.session.Preview(ctx)
	case "full":
		img, err = s.session.FullResolution(ctx)
	case "source":
		img, err = s.session.Source()
	default:
		return nil, fmt.Errorf("unknown histogram source %q (want preview, full or source)", a.Source)
	}
	if err != nil {
		return nil, err
	}
	return &histogramResult{Source: a.Source, HistogramReport: imaging.Histogram(img, a.Bins)}, nil
}

type pointArgs struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type sampleResult struct {
	imaging.ColorSample
	CastStrength float64 `json:"cast_strength"`
}

func (s *Server) handleSampleColor(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pointArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	ctx, cancel := withRenderTimeout(ctx)
	defer cancel()
	img, err := s.session.Preview(ctx)
	if err != nil {
		return nil, err
	}
	sample, err := imaging.Sample(img, a.X, a.Y)
	if err != nil {
		return nil, err
	}
	return &sampleResult{ColorSample: sample, CastStrength: sample.CastStrength()}, nil
}

type sampleMultiArgs struct {
	Points []imaging.LabeledPoint `json:"points"`
}

func (s *Server) handleSampleColorsMulti(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sampleMultiArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Points) == 0 {
		return nil, errors.New("points must not be empty")
	}
	ctx, cancel := withRenderTimeout(ctx)
	defer cancel()
	img, err := s.session.Preview(ctx)
	if err != nil {
		return nil, err
	}
	samples, err := imaging.SampleMulti(img, a.Points)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"samples": samples}, nil
}

type pickNeutralResult struct {
	Sample      imaging.ColorSample `json:"sample"`
	Temperature float64             `json:"temperature"`
	Tint        float64             `json:"tint"`
}

func (s *Server) handlePickNeutral(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a pointArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	ctx, cancel := withRenderTimeout(ctx)
	defer cancel()
	sample, temperature, tint, err := s.session.PickNeutral(ctx, a.X, a.Y)
	if err != nil {
		return nil, err
	}
	return &pickNeutralResult{Sample: sample, Temperature: temperature, Tint: tint}, nil
}
