package server

// toolName identifies one of the closed set of tools this server exposes.
type toolName string

const (
	toolInfo            toolName = "photo_info"
	toolExport          toolName = "photo_export"
	toolResolveCrop     toolName = "photo_resolve_crop"
	toolAspectPresets   toolName = "photo_aspect_presets"
	toolPreviewSchedule toolName = "photo_preview_schedule"
	toolPreviewLatest   toolName = "photo_preview_latest"
	toolSampleColor     toolName = "photo_sample_color"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func sourceProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Image reference: file path, http(s) URL, or data:<mime>;base64,<payload> URL",
	}
}

func signedControl(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"minimum":     -100,
		"maximum":     100,
		"description": description + " (-100 to 100, 0 = unchanged)",
	}
}

func magnitudeControl(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"minimum":     0,
		"maximum":     100,
		"description": description + " (0 to 100, 0 = off)",
	}
}

func rectProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": description,
		"properties": map[string]interface{}{
			"x":      map[string]interface{}{"type": "integer"},
			"y":      map[string]interface{}{"type": "integer"},
			"width":  map[string]interface{}{"type": "integer"},
			"height": map[string]interface{}{"type": "integer"},
		},
		"required": []string{"x", "y", "width", "height"},
	}
}

// paramsProperty describes imaging.Parameters.
func paramsProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "object",
		"description": "Manual adjustments. Omitted fields are unchanged.",
		"properties": map[string]interface{}{
			"brightness":      signedControl("Additive brightness"),
			"contrast":        signedControl("Contrast around mid-gray"),
			"saturation":      signedControl("Uniform saturation"),
			"vibrance":        signedControl("Saturation boost for muted colors; negative values have no effect"),
			"shadows":         signedControl("Lift or deepen dark areas"),
			"highlights":      signedControl("Brighten or recover bright areas"),
			"clarity":         magnitudeControl("Broad local contrast"),
			"sharpness":       magnitudeControl("Fine detail sharpening"),
			"noise_reduction": magnitudeControl("Smoothing; 100 blurs with a 2px sigma"),
			"crop_rect":       rectProperty("Crop in source pixel coordinates"),
			"aspect_ratio": map[string]interface{}{
				"type":        "number",
				"description": "Width/height ratio for a centered crop, used when crop_rect is absent",
			},
		},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        string(toolInfo),
			Description: "Read an image header and return its dimensions, format, bit depth and alpha.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source": sourceProperty(),
				},
				"required": []string{"source"},
			},
		},
		{
			Name:        string(toolExport),
			Description: "Apply manual adjustments and crop to an image and encode it as JPEG or PNG at full resolution. Returns base64 data unless output_path is given.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source": sourceProperty(),
					"params": paramsProperty(),
					"preset_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional YAML preset with adjustments, crop and export settings. Explicit arguments override it.",
					},
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"jpeg", "png"},
						"description": "Output format. Default png",
					},
					"quality": map[string]interface{}{
						"type":        "integer",
						"minimum":     1,
						"maximum":     100,
						"description": "JPEG quality. Ignored for png",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Output scale factor (e.g. 0.5). Default 1.0",
						"default":     1.0,
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional file to write the encoded image to",
					},
				},
				"required": []string{"source"},
			},
		},
		{
			Name:        string(toolResolveCrop),
			Description: "Convert a percentage rectangle drawn on a preview, or an aspect ratio, into a crop rectangle in original image pixels.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"normalized", "aspect"},
						"description": "normalized: use x/y/width/height percentages; aspect: center the largest rectangle of the ratio",
					},
					"source": sourceProperty(),
					"natural_width": map[string]interface{}{
						"type":        "integer",
						"description": "Original image width. Read from source when omitted",
					},
					"natural_height": map[string]interface{}{
						"type":        "integer",
						"description": "Original image height. Read from source when omitted",
					},
					"x":      map[string]interface{}{"type": "number", "description": "Left edge, percent of width"},
					"y":      map[string]interface{}{"type": "number", "description": "Top edge, percent of height"},
					"width":  map[string]interface{}{"type": "number", "description": "Width, percent of width"},
					"height": map[string]interface{}{"type": "number", "description": "Height, percent of height"},
					"ratio": map[string]interface{}{
						"type":        "string",
						"description": "Aspect ratio such as \"16:9\" or \"1.5\"",
					},
				},
				"required": []string{"mode"},
			},
		},
		{
			Name:        string(toolAspectPresets),
			Description: "List the named crop aspect ratios.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        string(toolPreviewSchedule),
			Description: "Request a live preview for an image. Rapid requests are debounced; only the last parameters are rendered.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source": sourceProperty(),
					"params": paramsProperty(),
				},
				"required": []string{"source"},
			},
		},
		{
			Name:        string(toolPreviewLatest),
			Description: "Return the most recent successfully rendered preview for an image, with the error of the last attempt if it failed.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source": sourceProperty(),
				},
				"required": []string{"source"},
			},
		},
		{
			Name:        string(toolSampleColor),
			Description: "Get the color at a pixel, optionally after applying adjustments.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"source": sourceProperty(),
					"x": map[string]interface{}{
						"type":        "integer",
						"description": "X coordinate (0-based, from left)",
					},
					"y": map[string]interface{}{
						"type":        "integer",
						"description": "Y coordinate (0-based, from top)",
					},
					"params": paramsProperty(),
				},
				"required": []string{"source", "x", "y"},
			},
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
