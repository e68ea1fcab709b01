package server

import (
	"context"
	"encoding/json"
	"testing"
)

func toolMap() map[string]Tool {
	m := make(map[string]Tool)
	for _, tool := range GetToolDefinitions() {
		m[tool.Name] = tool
	}
	return m
}

func TestGetToolDefinitions(t *testing.T) {
	expectedTools := []string{
		"film_load",
		"film_image_info",
		"film_status",
		"film_presets",
		"film_get_params",
		"film_set_params",
		"film_set_kind",
		"film_reset_params",
		"film_rotate",
		"film_crop",
		"film_clear_crop",
		"film_reset_transforms",
		"film_preview",
		"film_inspect_region",
		"film_export",
		"film_histogram",
		"film_sample_color",
		"film_sample_colors_multi",
		"film_pick_neutral",
	}

	tools := toolMap()
	if len(tools) != len(GetToolDefinitions()) {
		t.Error("tool names are not unique")
	}
	for _, name := range expectedTools {
		if _, ok := tools[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
	if len(tools) != len(expectedTools) {
		t.Errorf("got %d tools, want %d", len(tools), len(expectedTools))
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want 'object'", tool.InputSchema["type"])
			}
			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema properties should be a map")
			}

			// Every required key must be a declared property.
			if req, ok := tool.InputSchema["required"]; ok {
				for _, r := range req.([]string) {
					if _, ok := props[r]; !ok {
						t.Errorf("required %q is not a property", r)
					}
				}
			}

			if _, err := json.Marshal(tool); err != nil {
				t.Errorf("tool does not marshal: %v", err)
			}
		})
	}
}

func TestToolDefinitions_RequiredPath(t *testing.T) {
	tools := toolMap()
	for _, name := range []string{"film_load", "film_image_info", "film_export"} {
		t.Run(name, func(t *testing.T) {
			required, ok := tools[name].InputSchema["required"].([]string)
			if !ok || len(required) != 1 || required[0] != "path" {
				t.Errorf("required: got %v, want [path]", required)
			}
		})
	}
}

func TestToolDefinitions_CropRequiresRectangle(t *testing.T) {
	required, ok := toolMap()["film_crop"].InputSchema["required"].([]string)
	if !ok {
		t.Fatal("required should be a string slice")
	}
	want := map[string]bool{"x": true, "y": true, "width": true, "height": true}
	for _, r := range required {
		delete(want, r)
	}
	for missing := range want {
		t.Errorf("film_crop should require '%s' parameter", missing)
	}
}

// Every listed tool must be dispatched by executeTool.
func TestToolDefinitions_AllDispatched(t *testing.T) {
	s := newTestServer(t)
	for _, tool := range GetToolDefinitions() {
		_, err := s.executeTool(context.Background(), tool.Name, json.RawMessage(`{"bogus-argument": [`))
		if err != nil && err.Error() == "unknown tool: "+tool.Name {
			t.Errorf("%s is listed but not dispatched", tool.Name)
		}
	}
}

func TestHandleToolsList(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleToolsList(&MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/list"})

	if resp.Error != nil {
		t.Fatalf("Unexpected error: %v", resp.Error)
	}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}
	var decoded struct {
		Result struct {
			Tools []struct {
				Name        string                 `json:"name"`
				InputSchema map[string]interface{} `json:"inputSchema"`
			} `json:"tools"`
		} `json:"result"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}
	if len(decoded.Result.Tools) != len(GetToolDefinitions()) {
		t.Errorf("got %d tools on the wire, want %d", len(decoded.Result.Tools), len(GetToolDefinitions()))
	}
}
