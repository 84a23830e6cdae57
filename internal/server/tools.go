package server

import "github.com/ironsheep/menuscan-mcp/internal/dish"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	languages := make([]string, len(dish.Languages))
	for i, l := range dish.Languages {
		languages[i] = string(l)
	}

	return []Tool{
		// Scanning
		{
			Name: "menu_scan",
			Description: "Scan a photo of a menu or of prepared food and return structured dishes: translated name, " +
				"original on-image name, description, flavour tags, allergens, spice level, category, a bounding box " +
				"in 0-1000 normalized coordinates and a display image. Menu scans locate dish names with OCR and link " +
				"thumbnail images; dish scans embed the photo itself. Supports progress notifications.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path, http(s) URL or base64 data URI of the image",
					},
					"scan_type": map[string]interface{}{
						"type":        "string",
						"enum":        []string{string(dish.ScanTypeMenu), string(dish.ScanTypeDish)},
						"description": "menu for a text menu, dish for a photo of food",
					},
					"target_language": map[string]interface{}{
						"type":        "string",
						"enum":        languages,
						"description": "Language for names and descriptions. Default English",
						"default":     string(dish.English),
					},
				},
				"required": []string{"path", "scan_type"},
			},
		},

		// OCR
		{
			Name:        "ocr_lines",
			Description: "Recognize text lines in an image and return each line with its pixel bounds and its box in 0-1000 normalized coordinates [yMin, xMin, yMax, xMax].",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path, http(s) URL or base64 data URI of the image",
					},
					"languages": map[string]interface{}{
						"type":        "string",
						"description": "Optional '+'-joined Tesseract languages (e.g., 'jpn+eng'). Default chi_sim+eng",
					},
				},
				"required": []string{"path"},
			},
		},

		// Diagnostics
		{
			Name:        "scan_config",
			Description: "Report the active model, OCR engine and matching/preload tuning values.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
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
