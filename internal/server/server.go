package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/ironsheep/image-editor-mcp/internal/editor"
	"github.com/ironsheep/image-editor-mcp/internal/imaging"
	"github.com/ironsheep/image-editor-mcp/internal/media"
)

// ServerName is reported in the initialize handshake.
const ServerName = "image-editor-mcp"

// Server handles MCP protocol communication
type Server struct {
	cache    *imaging.ImageCache
	loader   editor.Loader
	sessions *sessionRegistry
	media    *media.Store
	log      *zap.Logger

	previewMax int
	version    string
}

// Options configures a Server. Zero values select the defaults.
type Options struct {
	// Loader fetches sources for every session. Defaults to an imaging
	// loader built from LoaderConfig and backed by the server's cache.
	Loader       editor.Loader
	LoaderConfig imaging.LoaderConfig

	Export     editor.ExportOptions
	GuideColor color.NRGBA

	// PreviewMaxDimension bounds editor_preview output. Defaults to 1024.
	PreviewMaxDimension int

	// Media receives editor_save output. nil disables saving and the
	// media_* tools.
	Media *media.Store

	Logger  *zap.Logger
	Version string
}

// MCPRequest represents an incoming JSON-RPC request
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

// JSON-RPC error codes
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeToolFailed     = -32000
)

// New creates a new MCP server instance
func New(opts Options) *Server {
	cache := imaging.NewImageCache()
	if opts.Loader == nil {
		lc := opts.LoaderConfig
		if lc == (imaging.LoaderConfig{}) {
			lc = imaging.DefaultLoaderConfig()
		}
		opts.Loader = imaging.NewLoader(lc, cache)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.PreviewMaxDimension <= 0 {
		opts.PreviewMaxDimension = 1024
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}

	sessionOpts := editor.Options{
		Loader:     opts.Loader,
		Export:     opts.Export,
		GuideColor: opts.GuideColor,
		Logger:     opts.Logger.Named("editor"),
	}

	return &Server{
		cache:      cache,
		loader:     opts.Loader,
		sessions:   newSessionRegistry(sessionOpts),
		media:      opts.Media,
		log:        opts.Logger,
		previewMax: opts.PreviewMaxDimension,
		version:    opts.Version,
	}
}

// Cache returns the decoded-source cache shared by the server's default loader.
func (s *Server) Cache() *imaging.ImageCache {
	return s.cache
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve processes one JSON-RPC request per line from r until r is exhausted
// or ctx is done. Every open session is cancelled and the source cache
// dropped on return.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	defer s.cache.Clear()
	defer s.sessions.closeAll()

	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.Warn("failed to parse request", zap.Error(err))
			if err := encoder.Encode(s.errorResponse(nil, codeParseError, "Parse error", err.Error())); err != nil {
				s.log.Error("failed to encode response", zap.Error(err))
			}
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.log.Error("failed to encode response", zap.Error(err))
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.log.Debug("request", zap.String("method", req.Method), zap.Any("id", req.ID))

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
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
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    codeMethodNotFound,
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
				"name":    ServerName,
				"version": s.version,
			},
		},
	}
}
