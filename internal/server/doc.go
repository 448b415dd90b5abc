// Package server implements the MCP (Model Context Protocol) server for photo
// editing and export.
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
// Image Information:
//   - photo_info: Dimensions, format and alpha from the image header
//
// Editing and Export:
//   - photo_export: Crop, adjust and encode at full resolution
//   - photo_sample_color: Color at a pixel, optionally after adjustments
//
// Crop Geometry:
//   - photo_resolve_crop: Percent rectangle or aspect ratio to source pixels
//   - photo_aspect_presets: Named aspect ratios
//
// Live Preview:
//   - photo_preview_schedule: Debounced, downscaled render request
//   - photo_preview_latest: Most recent good preview and last error
//
// Sources are file paths, http(s) URLs or base64 data URLs. Their encoded
// bytes are cached for the life of the process, so a preview session decodes
// from memory. Each source gets its own preview scheduler; Close stops them.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	cfg, _ := config.LoadConfig()
//	srv := server.New(cfg, slog.Default())
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
