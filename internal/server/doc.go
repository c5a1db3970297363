// Package server implements the MCP (Model Context Protocol) server for the
// image editor.
//
// The server exposes editing sessions over JSON-RPC 2.0. A client opens a
// session on a source image, adjusts rotation, filters, crop and output size,
// previews the result and exports it.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Session lifecycle:
//   - editor_open: Load a source into a new or existing session
//   - editor_close: Cancel and discard a session
//   - editor_state: Current status and transform state
//
// Transform operations:
//   - editor_rotate, editor_set_filter, editor_set_crop
//   - editor_crop_aspect: Centered crop at a preset ratio
//   - editor_resize: Target size and aspect lock
//   - editor_reset
//
// Rendering:
//   - editor_preview: Scaled canvas with crop overlay
//   - editor_sample_color: Colors of the rendered canvas
//   - editor_export: Final blob plus metadata
//   - editor_save: Export into the media library
//   - editor_aspect_ratios: Presets and filter ranges
//
// Media library (only when a store is configured):
//   - media_list, media_get
//
// # Sessions
//
// Each session owns one source image and its transform state. Mutations are
// cheap and never render; rendering happens only for preview, sampling and
// export. Sessions live until editor_close or until the server stops.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// # Usage
//
//	srv := server.New(server.Options{Logger: logger})
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
