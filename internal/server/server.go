package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/ironsheep/menuscan-mcp/internal/config"
	"github.com/ironsheep/menuscan-mcp/internal/scan"
)

// Server handles MCP protocol communication
type Server struct {
	session *scan.Session
	cfg     config.Config
	version string
	logger  *log.Logger

	out   io.Writer
	outMu sync.Mutex
	enc   *json.Encoder

	mu       sync.Mutex
	inflight map[string]context.CancelFunc
	wg       sync.WaitGroup
}

// MCPRequest represents an incoming JSON-RPC request or notification
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// Options configures a Server.
type Options struct {
	Config  config.Config // reported by scan_config
	Version string
	Logger  *log.Logger // nil means log.Default()
}

// New creates a new MCP server that runs scans on session.
func New(session *scan.Session, opts Options) *Server {
	s := &Server{
		session:  session,
		cfg:      opts.Config,
		version:  opts.Version,
		logger:   opts.Logger,
		inflight: make(map[string]context.CancelFunc),
	}
	if s.version == "" {
		s.version = "dev"
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	return s
}

// Run serves requests read from in, one per line, writing responses and
// notifications to out. It returns when in is exhausted and every
// in-flight scan has finished, or when ctx is canceled.
func (s *Server) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	s.out = out
	s.enc = json.NewEncoder(out)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer s.wg.Wait()

	scanner := bufio.NewScanner(in)
	// Requests may carry inline images
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 32*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Printf("Failed to parse request: %v", err)
			s.write(s.errorResponse(nil, -32700, "Parse error", err.Error()))
			continue
		}

		if resp := s.handleRequest(ctx, &req); resp != nil {
			s.write(resp)
		}

		if ctx.Err() != nil {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}
	return nil
}

// write encodes v as one line. Scans finish on their own goroutines, so
// writes are serialized.
func (s *Server) write(v interface{}) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	if err := s.enc.Encode(v); err != nil {
		s.logger.Printf("Failed to encode response: %v", err)
	}
}

// notify sends a notification.
func (s *Server) notify(method string, params interface{}) {
	s.write(&MCPNotification{JSONRPC: "2.0", Method: method, Params: params})
}

// handleRequest routes requests to appropriate handlers. A nil response
// means nothing is written now.
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "notifications/cancelled":
		s.handleCancelled(req)
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		if req.ID == nil {
			// Unknown notifications are ignored
			return nil
		}
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "menuscan-mcp",
				"version": s.version,
			},
		},
	}
}

type cancelledParams struct {
	RequestID interface{} `json:"requestId"`
	Reason    string      `json:"reason,omitempty"`
}

// handleCancelled cancels the in-flight request named by the notification.
func (s *Server) handleCancelled(req *MCPRequest) {
	var p cancelledParams
	if err := json.Unmarshal(req.Params, &p); err != nil {
		s.logger.Printf("Invalid cancel notification: %v", err)
		return
	}

	s.mu.Lock()
	cancel, ok := s.inflight[requestKey(p.RequestID)]
	s.mu.Unlock()
	if ok {
		s.logger.Printf("Cancelling request %v: %s", p.RequestID, p.Reason)
		cancel()
	}
}

// track registers an in-flight request; the returned func unregisters it.
func (s *Server) track(id interface{}, cancel context.CancelFunc) func() {
	key := requestKey(id)
	s.mu.Lock()
	s.inflight[key] = cancel
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.inflight, key)
		s.mu.Unlock()
		cancel()
	}
}

func requestKey(id interface{}) string {
	return fmt.Sprintf("%T:%v", id, id)
}
