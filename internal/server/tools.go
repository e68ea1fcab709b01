package server

import "github.com/ironsheep/filmdev-mcp/internal/imaging"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func objectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        typ,
		"description": description,
	}
}

var kindEnum = []string{"color-negative", "bw-negative", "positive"}

var formatProp = map[string]interface{}{
	"type":        "string",
	"enum":        []string{"jpeg", "png"},
	"description": "Encoding of the returned image. Default jpeg",
	"default":     "jpeg",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image
		{
			Name:        "film_load",
			Description: "Load a scanned film frame (JPEG, PNG, TIFF, BMP or GIF) as the working image. Resets rotation and crop, keeps the current parameters and starts rendering the preview.",
			InputSchema: objectSchema(map[string]interface{}{
				"path": prop("string", "Absolute path to the image file"),
			}, "path"),
		},
		{
			Name:        "film_image_info",
			Description: "Report width, height, channel count, format and file size of an image file without making it the working image.",
			InputSchema: objectSchema(map[string]interface{}{
				"path": prop("string", "Absolute path to the image file"),
			}, "path"),
		},
		{
			Name:        "film_status",
			Description: "Describe the session: source, full and proxy dimensions, rotation, crop, image kind, active pipeline stages and whether a render is pending.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},

		// Parameters
		{
			Name:        "film_presets",
			Description: "List the factory presets (color-negative, bw-negative, positive) and every parameter key accepted by film_set_params.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},
		{
			Name:        "film_get_params",
			Description: "Return the current edit parameters.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},
		{
			Name:        "film_set_params",
			Description: "Change edit parameters. An optional preset is applied first, then the params object, then the set overrides. Invalid input changes nothing. Rendering is debounced so several calls in a row cost one render.",
			InputSchema: objectSchema(map[string]interface{}{
				"preset": map[string]interface{}{
					"type":        "string",
					"enum":        kindEnum,
					"description": "Start from this factory preset instead of the current parameters",
				},
				"params": prop("object", "Parameter fields to merge, e.g. {\"gamma\": 1.1, \"film_profile\": \"kodak-portra\"}"),
				"set": map[string]interface{}{
					"type":                 "object",
					"description":          "key=value overrides with values as strings, e.g. {\"base_saturation\": \"1.2\"}",
					"additionalProperties": map[string]interface{}{"type": "string"},
				},
			}),
		},
		{
			Name:        "film_set_kind",
			Description: "Switch the image kind. Loads that kind's preset.",
			InputSchema: objectSchema(map[string]interface{}{
				"kind": map[string]interface{}{
					"type":        "string",
					"enum":        kindEnum,
					"description": "Image kind",
				},
			}, "kind"),
		},
		{
			Name:        "film_reset_params",
			Description: "Restore the factory preset of the current image kind.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},

		// Geometry
		{
			Name:        "film_rotate",
			Description: "Rotate the working image counter-clockwise. Pass delta to add to the current angle or angle to set it. The canvas grows to hold the rotated frame and the border is white. Rotation is always replayed from the unrotated image.",
			InputSchema: objectSchema(map[string]interface{}{
				"delta": prop("number", "Degrees to add to the current rotation"),
				"angle": prop("number", "Absolute rotation in degrees"),
			}),
		},
		{
			Name:        "film_crop",
			Description: "Crop the rotated image. The rectangle is clamped to the image bounds; a non-positive width or height is rejected.",
			InputSchema: objectSchema(map[string]interface{}{
				"x":      prop("integer", "Left edge in rotated image pixels"),
				"y":      prop("integer", "Top edge in rotated image pixels"),
				"width":  prop("integer", "Crop width in pixels"),
				"height": prop("integer", "Crop height in pixels"),
			}, "x", "y", "width", "height"),
		},
		{
			Name:        "film_clear_crop",
			Description: "Remove the crop and keep the rotation.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},
		{
			Name:        "film_reset_transforms",
			Description: "Remove rotation and crop, restoring the image as loaded.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},

		// Output
		{
			Name:        "film_preview",
			Description: "Return the processed preview as a base64 image. The preview is rendered from a reduced-size proxy; width and height fit it into a viewport.",
			InputSchema: objectSchema(map[string]interface{}{
				"width":  prop("integer", "Optional maximum width in pixels"),
				"height": prop("integer", "Optional maximum height in pixels"),
				"format":       formatProp,
				"grid":         prop("boolean", "Draw a coordinate grid over the preview"),
				"grid_spacing": prop("integer", "Grid spacing in preview pixels. Default 50"),
				"grid_labels":  prop("boolean", "Label grid intersections with working image coordinates, usable with film_crop"),
				"grid_color":   prop("string", "Grid line color as #rrggbb. Default #ff0000"),
			}),
		},
		{
			Name:        "film_inspect_region",
			Description: "Return part of the full resolution output (or of the unprocessed source) as a base64 image, optionally magnified, to check grain, dust and sharpness. Give either a named region or x1,y1,x2,y2.",
			InputSchema: objectSchema(map[string]interface{}{
				"source": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"full", "source"},
					"description": "Processed full resolution output or the image as loaded. Default full",
					"default":     "full",
				},
				"region": map[string]interface{}{
					"type":        "string",
					"enum":        imaging.RegionNames,
					"description": "Named region to extract instead of coordinates",
				},
				"x1":     prop("integer", "Left edge X coordinate (0-based)"),
				"y1":     prop("integer", "Top edge Y coordinate (0-based)"),
				"x2":     prop("integer", "Right edge X coordinate (exclusive)"),
				"y2":     prop("integer", "Bottom edge Y coordinate (exclusive)"),
				"scale":  map[string]interface{}{"type": "number", "description": "Scale factor, e.g. 2.0 to double size. Default 1.0", "default": 1.0},
				"format": formatProp,
			}),
		},
		{
			Name:        "film_export",
			Description: "Render at full resolution and write the result. The format follows the extension: .jpg/.jpeg, .png or .tif/.tiff.",
			InputSchema: objectSchema(map[string]interface{}{
				"path": prop("string", "Absolute destination path"),
			}, "path"),
		},

		// Analysis
		{
			Name:        "film_histogram",
			Description: "Per-channel histogram statistics (min, max, mean, clipped fractions) of the processed preview, the full resolution output or the unprocessed source.",
			InputSchema: objectSchema(map[string]interface{}{
				"source": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"preview", "full", "source"},
					"description": "Which image to measure. Default preview",
					"default":     "preview",
				},
				"bins": map[string]interface{}{
					"type":        "boolean",
					"description": "Include the 256 bin counts per channel",
					"default":     false,
				},
			}),
		},
		{
			Name:        "film_sample_color",
			Description: "Get the processed color at a preview pixel as RGB, hex, HSL and Lab, with the strength of any color cast.",
			InputSchema: objectSchema(map[string]interface{}{
				"x": prop("integer", "X coordinate in preview pixels"),
				"y": prop("integer", "Y coordinate in preview pixels"),
			}, "x", "y"),
		},
		{
			Name:        "film_sample_colors_multi",
			Description: "Sample several preview pixels at once.",
			InputSchema: objectSchema(map[string]interface{}{
				"points": map[string]interface{}{
					"type":        "array",
					"description": "Points to sample",
					"items": objectSchema(map[string]interface{}{
						"x":     prop("integer", "X coordinate"),
						"y":     prop("integer", "Y coordinate"),
						"label": prop("string", "Optional label for this point"),
					}, "x", "y"),
				},
			}, "points"),
		},
		{
			Name:        "film_pick_neutral",
			Description: "Treat a preview pixel as neutral gray and adjust temperature and tint so it renders without a cast. Color images only.",
			InputSchema: objectSchema(map[string]interface{}{
				"x": prop("integer", "X coordinate in preview pixels"),
				"y": prop("integer", "Y coordinate in preview pixels"),
			}, "x", "y"),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
