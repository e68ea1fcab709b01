// Package server implements the MCP (Model Context Protocol) server for film
// scan development.
//
// The server owns one editing session and exposes it as tools: load a scanned
// negative or slide, adjust the edit parameters, rotate and crop, inspect the
// processed preview and export the full resolution result.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image:
//   - film_load: Make an image file the working image
//   - film_image_info: Dimensions and format of any image file
//   - film_status: Session state
//
// Parameters:
//   - film_presets: Factory presets and parameter keys
//   - film_get_params / film_set_params: Read and change parameters
//   - film_set_kind: Switch between color negative, B&W negative and positive
//   - film_reset_params: Back to the preset of the current kind
//
// Geometry:
//   - film_rotate, film_crop, film_clear_crop, film_reset_transforms
//
// Output:
//   - film_preview: Processed proxy as base64 JPEG or PNG, optionally gridded
//   - film_inspect_region: Full resolution loupe
//   - film_export: Full resolution JPEG, PNG or TIFF
//
// Analysis:
//   - film_histogram: Channel statistics
//   - film_sample_color / film_sample_colors_multi: Color at preview pixels
//   - film_pick_neutral: White balance from a gray reference
//
// # Rendering
//
// Parameter changes do not render synchronously. The session debounces them
// and renders the preview proxy once the edits settle; tools that return
// pixels wait for that render. Full resolution output is rendered eagerly for
// small images and on demand (export, full histogram) for large ones.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New(server.Options{Logger: logger})
//	defer srv.Close()
//	if err := srv.Run(ctx); err != nil {
//	    logger.Fatal(err)
//	}
package server
