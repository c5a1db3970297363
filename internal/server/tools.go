package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session id returned by editor_open",
	}
}

// sessionOnlySchema is the schema of tools that take nothing but a session.
func sessionOnlySchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"session_id": sessionIDProperty(),
		},
		"required": []string{"session_id"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Session lifecycle
		{
			Name:        "editor_open",
			Description: "Load an image from a URL or local path into an editing session. Without session_id a new session is created; with it, the session's source is replaced and its edits reset. A load still in flight for that session is cancelled.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"url": map[string]interface{}{
						"type":        "string",
						"description": "http(s) URL, file:// URL or absolute path of the source image",
					},
					"session_id": map[string]interface{}{
						"type":        "string",
						"description": "Optional existing session to load into",
					},
				},
				"required": []string{"url"},
			},
		},
		{
			Name:        "editor_close",
			Description: "Cancel any pending load and discard the session.",
			InputSchema: sessionOnlySchema(),
		},
		{
			Name:        "editor_state",
			Description: "Get the session status, source info, current transform state, rotated canvas size and final output size.",
			InputSchema: sessionOnlySchema(),
		},

		// Transform operations
		{
			Name:        "editor_rotate",
			Description: "Set the rotation in degrees clockwise. Values are normalized to [0, 360). A crop that no longer fits the rotated canvas is dropped.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
					"degrees": map[string]interface{}{
						"type":        "integer",
						"description": "Rotation in degrees, clockwise. Negative values rotate counter-clockwise.",
					},
					"relative": map[string]interface{}{
						"type":        "boolean",
						"description": "Add degrees to the current rotation instead of replacing it. Default false",
						"default":     false,
					},
				},
				"required": []string{"session_id", "degrees"},
			},
		},
		{
			Name:        "editor_set_filter",
			Description: "Set one filter (name + value) or several at once (filters). Values are clamped to the filter's range; filters not named keep their value. Ranges: brightness/contrast/saturation 0-200 (neutral 100), blur 0-20 px, grayscale/sepia 0-100.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
					"name": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"brightness", "contrast", "saturation", "blur", "grayscale", "sepia"},
						"description": "Filter to set",
					},
					"value": map[string]interface{}{
						"type":        "number",
						"description": "Value for name",
					},
					"filters": map[string]interface{}{
						"type":                 "object",
						"description":          "Map of filter name to value",
						"additionalProperties": map[string]interface{}{"type": "number"},
					},
				},
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "editor_set_crop",
			Description: "Set the crop rectangle in rotated-canvas pixel coordinates. The rectangle is clamped to the canvas. Pass clear=true to remove the crop.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
					"x": map[string]interface{}{
						"type":        "number",
						"description": "Left edge (0-based)",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Top edge (0-based)",
					},
					"width": map[string]interface{}{
						"type":        "number",
						"description": "Crop width in pixels",
					},
					"height": map[string]interface{}{
						"type":        "number",
						"description": "Crop height in pixels",
					},
					"clear": map[string]interface{}{
						"type":        "boolean",
						"description": "Remove the crop. Default false",
						"default":     false,
					},
				},
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "editor_crop_aspect",
			Description: "Replace the crop with a centered rectangle covering 80% of the canvas at the given aspect ratio. \"free\" covers 80% of each side.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
					"ratio": map[string]interface{}{
						"type":        "string",
						"description": "Aspect ratio as \"W:H\", \"W/H\", a decimal, or \"free\"",
					},
				},
				"required": []string{"session_id", "ratio"},
			},
		},
		{
			Name:        "editor_resize",
			Description: "Set the target output size. With the aspect lock on, giving one side recomputes the other from the source aspect ratio; giving both stores them as given. The output never exceeds the crop (or canvas) size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Target width in pixels (minimum 1)",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Target height in pixels (minimum 1)",
					},
					"maintain_aspect_ratio": map[string]interface{}{
						"type":        "boolean",
						"description": "Turn the aspect lock on or off",
					},
				},
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "editor_reset",
			Description: "Restore the default transform state for the loaded source.",
			InputSchema: sessionOnlySchema(),
		},

		// Rendering
		{
			Name:        "editor_preview",
			Description: "Render the rotated and filtered canvas scaled to fit max_dimension, with the crop highlighted, as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
					"max_dimension": map[string]interface{}{
						"type":        "integer",
						"description": "Longest side of the preview in pixels. Defaults to the server limit",
					},
					"guides": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw rule-of-thirds guides inside the crop. Default false",
						"default":     false,
					},
				},
				"required": []string{"session_id"},
			},
		},
		{
			Name:        "editor_sample_color",
			Description: "Sample colors of the rendered canvas at one or more points. Returns hex, RGB, RGBA and HSL for each.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": sessionIDProperty(),
					"points": map[string]interface{}{
						"type":        "array",
						"description": "Points in rotated-canvas coordinates",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x":     map[string]interface{}{"type": "integer"},
								"y":     map[string]interface{}{"type": "integer"},
								"label": map[string]interface{}{"type": "string"},
							},
							"required": []string{"x", "y"},
						},
					},
				},
				"required": []string{"session_id", "points"},
			},
		},
		{
			Name:        "editor_export",
			Description: "Render, crop and scale the image to its final size and return it as a base64 blob with replayable metadata.",
			InputSchema: sessionOnlySchema(),
		},
		{
			Name:        "editor_save",
			Description: "Export the image and store it in the media library. Returns the stored item.",
			InputSchema: sessionOnlySchema(),
		},
		{
			Name:        "editor_aspect_ratios",
			Description: "List the crop aspect ratio presets and the range of every filter.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},

		// Media library
		{
			Name:        "media_list",
			Description: "List saved images, newest first.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of items. Default 20",
						"default":     20,
					},
				},
			},
		},
		{
			Name:        "media_get",
			Description: "Get a saved image's record, optionally with its data as base64.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Media id returned by editor_save",
					},
					"include_data": map[string]interface{}{
						"type":        "boolean",
						"description": "Include the encoded image. Default false",
						"default":     false,
					},
				},
				"required": []string{"id"},
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
