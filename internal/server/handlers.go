package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ironsheep/image-editor-mcp/internal/editor"
	"github.com/ironsheep/image-editor-mcp/internal/imaging"
	"github.com/ironsheep/image-editor-mcp/internal/media"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "editor_open", "editor_export").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// errMediaDisabled is returned by the media tools when no store is configured.
var errMediaDisabled = errors.New("media library is not configured")

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}
	if len(params.Arguments) == 0 {
		params.Arguments = json.RawMessage("{}")
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Info("tool failed", zap.String("tool", params.Name), zap.Error(err))
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
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

// executeTool dispatches tool execution to the appropriate handler function.
//
// Session tools look the session up by session_id; editor_open is the only
// one that creates sessions.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Session lifecycle
	case "editor_open":
		return s.handleEditorOpen(ctx, args)
	case "editor_close":
		return s.handleEditorClose(args)
	case "editor_state":
		return s.handleEditorState(args)

	// Transform operations
	case "editor_rotate":
		return s.handleEditorRotate(args)
	case "editor_set_filter":
		return s.handleEditorSetFilter(args)
	case "editor_set_crop":
		return s.handleEditorSetCrop(args)
	case "editor_crop_aspect":
		return s.handleEditorCropAspect(args)
	case "editor_resize":
		return s.handleEditorResize(args)
	case "editor_reset":
		return s.handleEditorReset(args)

	// Rendering
	case "editor_preview":
		return s.handleEditorPreview(args)
	case "editor_sample_color":
		return s.handleEditorSampleColor(args)
	case "editor_export":
		return s.handleEditorExport(ctx, args)
	case "editor_save":
		return s.handleEditorSave(ctx, args)
	case "editor_aspect_ratios":
		return s.handleEditorAspectRatios()

	// Media library
	case "media_list":
		return s.handleMediaList(ctx, args)
	case "media_get":
		return s.handleMediaGet(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// stateResult is what every state-changing tool returns, so the client can
// redraw its controls without a second call.
type stateResult struct {
	SessionID string                 `json:"session_id"`
	Status    string                 `json:"status"`
	Source    *imaging.ImageInfo     `json:"source,omitempty"`
	State     *editor.TransformState `json:"state,omitempty"`
	Canvas    *editor.Dimensions     `json:"canvas,omitempty"`
	Final     *editor.Dimensions     `json:"final,omitempty"`
	Exports   int                    `json:"exports"`
}

func describeSession(id string, sess *editor.Session) *stateResult {
	res := &stateResult{
		SessionID: id,
		Status:    sess.Status().String(),
		Exports:   sess.Exports(),
	}
	info, err := sess.Source()
	if err != nil {
		return res
	}
	st := sess.State()
	res.Source = &info
	res.State = &st
	if canvas, err := sess.CanvasSize(); err == nil {
		res.Canvas = &canvas
	}
	if final, err := sess.FinalDimensions(); err == nil {
		res.Final = &final
	}
	return res
}

type sessionArgs struct {
	SessionID string `json:"session_id"`
}

// session decodes args into a and resolves its session.
func (s *Server) session(args json.RawMessage, a interface{ sessionID() string }) (*editor.Session, error) {
	if err := json.Unmarshal(args, a); err != nil {
		return nil, err
	}
	return s.sessions.get(a.sessionID())
}

func (a *sessionArgs) sessionID() string { return a.SessionID }

// === Session Lifecycle Handlers ===

type editorOpenArgs struct {
	sessionArgs
	URL string `json:"url"`
}

func (s *Server) handleEditorOpen(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a editorOpenArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.URL == "" {
		return nil, fmt.Errorf("url is required")
	}

	id := a.SessionID
	var sess *editor.Session
	created := false
	if id == "" {
		id, sess = s.sessions.open()
		created = true
	} else {
		var err error
		if sess, err = s.sessions.get(id); err != nil {
			return nil, err
		}
	}

	var previous string
	if info, err := sess.Source(); err == nil {
		previous = info.Source
	}

	_, err := sess.Load(ctx, a.URL)
	if previous != "" && previous != a.URL {
		s.release(previous)
	}
	if err != nil {
		if created {
			_, _ = s.sessions.close(id)
		}
		return nil, err
	}
	return describeSession(id, sess), nil
}

func (s *Server) handleEditorClose(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	source, err := s.sessions.close(a.SessionID)
	if err != nil {
		return nil, err
	}
	if source != "" {
		s.release(source)
	}
	return map[string]interface{}{"session_id": a.SessionID, "closed": true}, nil
}

// release drops source from the cache once no open session has it loaded.
func (s *Server) release(source string) {
	if !s.sessions.uses(source) {
		s.cache.Evict(source)
	}
}

func (s *Server) handleEditorState(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	sess, err := s.session(args, &a)
	if err != nil {
		return nil, err
	}
	return describeSession(a.SessionID, sess), nil
}

// === Transform Handlers ===

type editorRotateArgs struct {
	sessionArgs
	Degrees  int  `json:"degrees"`
	Relative bool `json:"relative"`
}

func (s *Server) handleEditorRotate(args json.RawMessage) (interface{}, error) {
	var a editorRotateArgs
	sess, err := s.session(args, &a)
	if err != nil {
		return nil, err
	}
	if a.Relative {
		_, err = sess.RotateBy(a.Degrees)
	} else {
		_, err = sess.SetRotation(a.Degrees)
	}
	if err != nil {
		return nil, err
	}
	return describeSession(a.SessionID, sess), nil
}

type editorSetFilterArgs struct {
	sessionArgs
	Name    string             `json:"name"`
	Value   *float64           `json:"value"`
	Filters map[string]float64 `json:"filters"`
}

func (s *Server) handleEditorSetFilter(args json.RawMessage) (interface{}, error) {
	var a editorSetFilterArgs
	sess, err := s.session(args, &a)
	if err != nil {
		return nil, err
	}

	values := make(map[string]float64, len(a.Filters)+1)
	for k, v := range a.Filters {
		values[k] = v
	}
	if a.Name != "" {
		if a.Value == nil {
			return nil, fmt.Errorf("value is required with name")
		}
		values[a.Name] = *a.Value
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("name/value or filters is required")
	}

	// A partial map keeps the other filters.
	if _, err := sess.MergeFilters(values); err != nil {
		return nil, err
	}
	return describeSession(a.SessionID, sess), nil
}

type editorSetCropArgs struct {
	sessionArgs
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Clear  bool    `json:"clear"`
}

func (s *Server) handleEditorSetCrop(args json.RawMessage) (interface{}, error) {
	var a editorSetCropArgs
	sess, err := s.session(args, &a)
	if err != nil {
		return nil, err
	}

	var r *editor.Rect
	if !a.Clear {
		r = &editor.Rect{X: a.X, Y: a.Y, Width: a.Width, Height: a.Height}
	}
	if _, err := sess.SetCropArea(r); err != nil {
		return nil, err
	}
	return describeSession(a.SessionID, sess), nil
}

type editorCropAspectArgs struct {
	sessionArgs
	Ratio string `json:"ratio"`
}

func (s *Server) handleEditorCropAspect(args json.RawMessage) (interface{}, error) {
	var a editorCropAspectArgs
	sess, err := s.session(args, &a)
	if err != nil {
		return nil, err
	}
	ratio, err := editor.ParseAspectRatio(a.Ratio)
	if err != nil {
		return nil, err
	}
	if _, err := sess.InitCropFromAspectRatio(ratio); err != nil {
		return nil, err
	}
	return describeSession(a.SessionID, sess), nil
}

type editorResizeArgs struct {
	sessionArgs
	Width               *int  `json:"width"`
	Height              *int  `json:"height"`
	MaintainAspectRatio *bool `json:"maintain_aspect_ratio"`
}

func (s *Server) handleEditorResize(args json.RawMessage) (interface{}, error) {
	var a editorResizeArgs
	sess, err := s.session(args, &a)
	if err != nil {
		return nil, err
	}

	if a.MaintainAspectRatio != nil {
		if err := sess.SetMaintainAspectRatio(*a.MaintainAspectRatio); err != nil {
			return nil, err
		}
	}
	switch {
	case a.Width != nil && a.Height != nil:
		_, err = sess.SetTargetDimensions(*a.Width, *a.Height)
	case a.Width != nil:
		_, err = sess.SetTargetWidth(*a.Width)
	case a.Height != nil:
		_, err = sess.SetTargetHeight(*a.Height)
	case a.MaintainAspectRatio == nil:
		err = fmt.Errorf("width, height or maintain_aspect_ratio is required")
	}
	if err != nil {
		return nil, err
	}
	return describeSession(a.SessionID, sess), nil
}

func (s *Server) handleEditorReset(args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	sess, err := s.session(args, &a)
	if err != nil {
		return nil, err
	}
	if err := sess.Reset(); err != nil {
		return nil, err
	}
	return describeSession(a.SessionID, sess), nil
}

// === Rendering Handlers ===

type editorPreviewArgs struct {
	sessionArgs
	MaxDimension int  `json:"max_dimension"`
	Guides       bool `json:"guides"`
}

func (s *Server) handleEditorPreview(args json.RawMessage) (interface{}, error) {
	var a editorPreviewArgs
	sess, err := s.session(args, &a)
	if err != nil {
		return nil, err
	}
	if a.MaxDimension <= 0 || a.MaxDimension > s.previewMax {
		a.MaxDimension = s.previewMax
	}
	return sess.Preview(a.MaxDimension, a.Guides)
}

type editorSampleColorArgs struct {
	sessionArgs
	Points []imaging.LabeledPoint `json:"points"`
}

func (s *Server) handleEditorSampleColor(args json.RawMessage) (interface{}, error) {
	var a editorSampleColorArgs
	sess, err := s.session(args, &a)
	if err != nil {
		return nil, err
	}
	if len(a.Points) == 0 {
		return nil, fmt.Errorf("points is required")
	}
	return sess.SampleColors(a.Points)
}

// exportResult carries the encoded blob back to the host.
type exportResult struct {
	MimeType    string                `json:"mime_type"`
	Width       int                   `json:"width"`
	Height      int                   `json:"height"`
	SizeBytes   int                   `json:"size_bytes"`
	ImageBase64 string                `json:"image_base64"`
	Metadata    editor.ExportMetadata `json:"metadata"`
}

func (s *Server) handleEditorExport(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sessionArgs
	sess, err := s.session(args, &a)
	if err != nil {
		return nil, err
	}
	img, meta, err := sess.Export(ctx)
	if err != nil {
		return nil, err
	}
	return &exportResult{
		MimeType:    img.MimeType,
		Width:       img.Width,
		Height:      img.Height,
		SizeBytes:   len(img.Data),
		ImageBase64: base64.StdEncoding.EncodeToString(img.Data),
		Metadata:    meta,
	}, nil
}

func (s *Server) handleEditorSave(ctx context.Context, args json.RawMessage) (interface{}, error) {
	if s.media == nil {
		return nil, errMediaDisabled
	}
	var a sessionArgs
	sess, err := s.session(args, &a)
	if err != nil {
		return nil, err
	}
	id, _, err := sess.Save(ctx, s.media)
	if err != nil {
		return nil, err
	}
	return s.media.Get(ctx, id)
}

func (s *Server) handleEditorAspectRatios() (interface{}, error) {
	return map[string]interface{}{
		"aspect_ratios": editor.DefaultAspectRatios(),
		"filters":       editor.FilterRanges(),
	}, nil
}

// === Media Library Handlers ===

type mediaListArgs struct {
	Limit int `json:"limit"`
}

func (s *Server) handleMediaList(ctx context.Context, args json.RawMessage) (interface{}, error) {
	if s.media == nil {
		return nil, errMediaDisabled
	}
	var a mediaListArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Limit <= 0 {
		a.Limit = 20
	}
	items, err := s.media.List(ctx, a.Limit)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []media.Item{}
	}
	return map[string]interface{}{"items": items}, nil
}

type mediaGetArgs struct {
	ID          string `json:"id"`
	IncludeData bool   `json:"include_data"`
}

type mediaGetResult struct {
	*media.Item
	ImageBase64 string `json:"image_base64,omitempty"`
}

func (s *Server) handleMediaGet(ctx context.Context, args json.RawMessage) (interface{}, error) {
	if s.media == nil {
		return nil, errMediaDisabled
	}
	var a mediaGetArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.ID == "" {
		return nil, fmt.Errorf("id is required")
	}

	if !a.IncludeData {
		item, err := s.media.Get(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		return &mediaGetResult{Item: item}, nil
	}

	data, item, err := s.media.Read(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	return &mediaGetResult{Item: item, ImageBase64: base64.StdEncoding.EncodeToString(data)}, nil
}
