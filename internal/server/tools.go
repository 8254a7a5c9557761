package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Scanning
		{
			Name:        "document_scan",
			Description: "Find the document in a photo, correct its perspective and return the enhanced top-down scan as base64-encoded PNG, along with the corners and homography used. Falls back to the whole frame (status \"degraded\") when no document outline is found.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"enhance_mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"adaptive", "sharpen", "none"},
						"description": "Post-processing of the rectified page. adaptive produces black and white, sharpen and none produce grayscale. Default adaptive",
						"default":     "adaptive",
					},
					"max_dimension": map[string]interface{}{
						"type":        "integer",
						"description": "Longest side the photo is reduced to before detection. Default from server configuration",
					},
					"include_warped": map[string]interface{}{
						"type":        "boolean",
						"description": "Also return the rectified color page before enhancement. Default false",
						"default":     false,
					},
					"save": map[string]interface{}{
						"type":        "boolean",
						"description": "Record the scan in the history database when one is configured. Default true",
						"default":     true,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "document_detect",
			Description: "Locate the document outline in a photo without rectifying it. Returns the four corners (top-left, top-right, bottom-right, bottom-left) and the contours considered.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "document_scan_batch",
			Description: "Scan several photos concurrently. Returns a status per photo and a summary; one failing photo does not stop the others.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths to the image files",
					},
					"enhance_mode": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"adaptive", "sharpen", "none"},
						"description": "Post-processing of each rectified page. Default adaptive",
						"default":     "adaptive",
					},
					"save": map[string]interface{}{
						"type":        "boolean",
						"description": "Record each scan in the history database when one is configured. Default true",
						"default":     true,
					},
				},
				"required": []string{"paths"},
			},
		},

		// Diagnostics
		{
			Name:        "document_edge_map",
			Description: "Return the dilated edge map the detector traces contours on, as base64-encoded PNG. Useful to see why a document was or was not found.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "document_overlay",
			Description: "Draw the detected document outline and numbered corners on the photo and return it as base64-encoded PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Outline color as hex (e.g. \"#FF0000\"). Default #00FF00",
						"default":     "#00FF00",
					},
				},
				"required": []string{"path"},
			},
		},

		// History
		{
			Name:        "document_history",
			Description: "List recent scans recorded by this server, newest first. Requires the server to be started with a history database.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"limit": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of records. Default 20",
						"default":     defaultHistoryLimit,
					},
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Return only the record with this id",
					},
				},
			},
		},
		{
			Name:        "document_history_delete",
			Description: "Remove one scan record from the history database.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"id": map[string]interface{}{
						"type":        "string",
						"description": "Record id as returned by document_scan or document_history",
					},
				},
				"required": []string{"id"},
			},
		},

		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The decoded image is cached for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
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
