package server

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ironsheep/menuscan-mcp/internal/dish"
	"github.com/ironsheep/menuscan-mcp/internal/imaging"
	"github.com/ironsheep/menuscan-mcp/internal/inference"
	"github.com/ironsheep/menuscan-mcp/internal/ocr"
	"github.com/ironsheep/menuscan-mcp/internal/progress"
	"github.com/ironsheep/menuscan-mcp/internal/scan"
)

// JSON-RPC error codes used by tool calls.
const (
	codeInvalidParams = -32602
	codeToolFailed    = -32000
	codeQuotaExceeded = -32001
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "menu_scan", "ocr_lines").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`

	// Meta carries the optional progress token.
	Meta *struct {
		ProgressToken interface{} `json:"progressToken,omitempty"`
	} `json:"_meta,omitempty"`
}

func (p ToolCallParams) progressToken() interface{} {
	if p.Meta == nil {
		return nil
	}
	return p.Meta.ProgressToken
}

// handleToolsCall processes a tools/call request.
//
// menu_scan runs on its own goroutine and writes its response when done,
// so this returns nil for it. Other tools answer synchronously.
//
// Results are wrapped in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	switch params.Name {
	case "menu_scan":
		return s.startMenuScan(ctx, req, params)
	case "ocr_lines":
		result, err := s.handleOCRLines(ctx, params.Arguments)
		return s.toolResponse(req.ID, result, err)
	case "scan_config":
		return s.toolResponse(req.ID, s.handleScanConfig(), nil)
	default:
		return s.errorResponse(req.ID, codeInvalidParams, "Unknown tool", params.Name)
	}
}

// toolResponse wraps a tool result or error.
func (s *Server) toolResponse(id interface{}, result interface{}, err error) *MCPResponse {
	if err != nil {
		if errors.Is(err, inference.ErrQuotaExceeded) {
			return s.errorResponse(id, codeQuotaExceeded, scan.StatusQuotaExceeded, err.Error())
		}
		return s.errorResponse(id, codeToolFailed, "Tool execution failed", err.Error())
	}
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
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
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === menu_scan ===

type menuScanArgs struct {
	Path           string `json:"path"`
	ScanType       string `json:"scan_type"`
	TargetLanguage string `json:"target_language"`
}

type menuScanResult struct {
	Dishes   []dish.Dish `json:"dishes"`
	IsMenu   bool        `json:"is_menu"`
	Refined  int         `json:"ocr_refined"`
	OCRLines int         `json:"ocr_lines"`
}

func (a menuScanArgs) request() (scan.Request, error) {
	if a.Path == "" {
		return scan.Request{}, errors.New("path is required")
	}
	lang := dish.Language(a.TargetLanguage)
	if lang == "" {
		lang = dish.English
	}
	req := scan.Request{
		Source:   imaging.ParseSource(a.Path, nil),
		ScanType: dish.ScanType(a.ScanType),
		Language: lang,
	}
	return req, req.Validate()
}

// startMenuScan validates the call and runs it in the background. A
// canceled scan never gets a response.
func (s *Server) startMenuScan(ctx context.Context, req *MCPRequest, params ToolCallParams) *MCPResponse {
	var args menuScanArgs
	if err := json.Unmarshal(params.Arguments, &args); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}
	scanReq, err := args.request()
	if err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	ctx, cancel := context.WithCancel(ctx)
	untrack := s.track(req.ID, cancel)
	token := params.progressToken()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer untrack()

		var cb scan.Callbacks
		if token != nil {
			cb.OnProgress = func(u progress.Update) {
				s.notify("notifications/progress", map[string]interface{}{
					"progressToken": token,
					"progress":      u.Progress,
					"total":         100,
					"message":       u.Status,
				})
			}
		}

		res, err := s.session.Run(ctx, scanReq, cb)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			s.write(s.toolResponse(req.ID, nil, err))
			return
		}
		s.write(s.toolResponse(req.ID, menuScanResult{
			Dishes:   res.Dishes,
			IsMenu:   res.IsMenu,
			Refined:  res.Refined,
			OCRLines: res.OCRLines,
		}, nil))
	}()
	return nil
}

// === ocr_lines ===

type ocrLinesArgs struct {
	Path      string `json:"path"`
	Languages string `json:"languages"`
}

type ocrLineResult struct {
	ocr.Line
	Box dish.BoundingBox `json:"box"`
}

type ocrLinesResult struct {
	Engine    string          `json:"engine"`
	Languages []string        `json:"languages"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Lines     []ocrLineResult `json:"lines"`
}

func (s *Server) handleOCRLines(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var args ocrLinesArgs
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	if args.Path == "" {
		return nil, errors.New("path is required")
	}

	payload, err := imaging.Encode(ctx, imaging.ParseSource(args.Path, nil))
	if err != nil {
		return nil, err
	}

	adapter := s.session.Pipeline().OCR()
	if args.Languages != "" {
		adapter = adapter.With(ocr.WithLanguages(ocr.ParseLanguages(args.Languages)...))
	}

	lines := adapter.Lines(ctx, payload)
	out := ocrLinesResult{
		Engine:    adapter.EngineName(),
		Languages: adapter.Languages(),
		Width:     payload.Width,
		Height:    payload.Height,
		Lines:     make([]ocrLineResult, 0, len(lines)),
	}
	for _, l := range lines {
		b := l.Bounds
		out.Lines = append(out.Lines, ocrLineResult{
			Line: l,
			Box:  dish.FromPixels(b.X0, b.Y0, b.X1, b.Y1, payload.Width, payload.Height),
		})
	}
	return out, nil
}

// === scan_config ===

type scanConfigResult struct {
	Model          string   `json:"model"`
	OCREngine      string   `json:"ocr_engine"`
	OCRLanguages   []string `json:"ocr_languages"`
	MatchThreshold float64  `json:"match_threshold"`
	WholeLineBonus float64  `json:"whole_line_bonus"`
	WholeLineSlack int      `json:"whole_line_slack"`
	PreloadTimeout string   `json:"preload_timeout"`
	ProgressTick   string   `json:"progress_tick"`
	ThumbnailURL   string   `json:"thumbnail_url"`
	Languages      []string `json:"target_languages"`
	ScanTypes      []string `json:"scan_types"`
}

func (s *Server) handleScanConfig() scanConfigResult {
	adapter := s.session.Pipeline().OCR()
	langs := make([]string, len(dish.Languages))
	for i, l := range dish.Languages {
		langs[i] = string(l)
	}
	return scanConfigResult{
		Model:          s.cfg.Model,
		OCREngine:      adapter.EngineName(),
		OCRLanguages:   adapter.Languages(),
		MatchThreshold: s.cfg.MatchThreshold,
		WholeLineBonus: s.cfg.WholeLineBonus,
		WholeLineSlack: s.cfg.WholeLineSlack,
		PreloadTimeout: s.cfg.PreloadTimeout.String(),
		ProgressTick:   s.cfg.ProgressTick.String(),
		ThumbnailURL:   s.cfg.ThumbnailURL,
		Languages:      langs,
		ScanTypes:      []string{string(dish.ScanTypeDish), string(dish.ScanTypeMenu)},
	}
}
