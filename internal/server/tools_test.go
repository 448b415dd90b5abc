package server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	var names []string
	for _, tool := range tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"photo_info",
		"photo_export",
		"photo_resolve_crop",
		"photo_aspect_presets",
		"photo_preview_schedule",
		"photo_preview_latest",
		"photo_sample_color",
	}, names)
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			assert.NotEmpty(t, tool.Description)
			assert.Equal(t, "object", tool.InputSchema["type"])

			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			require.True(t, ok, "properties should be a map")

			required, _ := tool.InputSchema["required"].([]string)
			for _, name := range required {
				assert.Contains(t, props, name, "required property %q is not declared", name)
			}
		})
	}
}

func TestToolDefinitions_EveryToolDispatches(t *testing.T) {
	s := newTestServer(t)
	for _, tool := range GetToolDefinitions() {
		_, err := s.executeTool(context.Background(), toolName(tool.Name), json.RawMessage(`{}`))
		if err != nil {
			assert.NotContains(t, err.Error(), "unknown tool", tool.Name)
		}
	}
}

func TestToolDefinitions_ParamsSchema(t *testing.T) {
	props := paramsProperty()["properties"].(map[string]interface{})
	for _, name := range []string{
		"brightness", "contrast", "saturation", "vibrance", "shadows", "highlights",
		"clarity", "sharpness", "noise_reduction", "crop_rect", "aspect_ratio",
	} {
		assert.Contains(t, props, name)
	}

	brightness := props["brightness"].(map[string]interface{})
	assert.Equal(t, -100, brightness["minimum"])
	sharpness := props["sharpness"].(map[string]interface{})
	assert.Equal(t, 0, sharpness["minimum"])
}

func TestHandleToolsList(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "tools/list"})

	require.NotNil(t, resp)
	require.Nil(t, resp.Error)
	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	tools, ok := result["tools"].([]Tool)
	require.True(t, ok)
	assert.Len(t, tools, 7)

	// The list must serialize for the wire.
	_, err := json.Marshal(resp)
	assert.NoError(t, err)
}
