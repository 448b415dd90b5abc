package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"os"

	"github.com/ironsheep/photo-tools-mcp/internal/config"
	"github.com/ironsheep/photo-tools-mcp/internal/imaging"
	"github.com/ironsheep/photo-tools-mcp/internal/preview"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "photo_export").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

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
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, toolName(params.Name), params.Arguments)
	if err != nil {
		s.logger.Debug("tool failed", "tool", params.Name, "error", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
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
func (s *Server) executeTool(ctx context.Context, name toolName, args json.RawMessage) (interface{}, error) {
	switch name {
	case toolInfo:
		return s.handlePhotoInfo(ctx, args)
	case toolExport:
		return s.handlePhotoExport(ctx, args)
	case toolResolveCrop:
		return s.handleResolveCrop(ctx, args)
	case toolAspectPresets:
		return imaging.AspectPresets, nil
	case toolPreviewSchedule:
		return s.handlePreviewSchedule(ctx, args)
	case toolPreviewLatest:
		return s.handlePreviewLatest(args)
	case toolSampleColor:
		return s.handleSampleColor(ctx, args)
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
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return fmt.Errorf("missing arguments")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// loadSource resolves ref and returns its cached bytes.
func (s *Server) loadSource(ctx context.Context, ref string) (imaging.Source, error) {
	src, err := imaging.ParseSource(ref, s.client)
	if err != nil {
		return nil, err
	}
	b, err := s.cache.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// blobResult is the JSON form of an encoded image.
type blobResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	MimeType    string `json:"mime_type"`
	SizeBytes   int    `json:"size_bytes"`
	OutputPath  string `json:"output_path,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
}

func newBlobResult(b *imaging.Blob) *blobResult {
	return &blobResult{
		Width:       b.Width,
		Height:      b.Height,
		MimeType:    b.MIMEType,
		SizeBytes:   len(b.Data),
		ImageBase64: base64.StdEncoding.EncodeToString(b.Data),
	}
}

// === Image Information ===

type sourceArgs struct {
	Source string `json:"source"`
}

func (s *Server) handlePhotoInfo(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sourceArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	src, err := s.loadSource(ctx, a.Source)
	if err != nil {
		return nil, err
	}
	return imaging.Probe(ctx, src)
}

// === Export ===

type photoExportArgs struct {
	Source     string              `json:"source"`
	Params     *imaging.Parameters `json:"params,omitempty"`
	PresetPath string              `json:"preset_path,omitempty"`
	Format     string              `json:"format,omitempty"`
	Quality    int                 `json:"quality,omitempty"`
	Scale      float64             `json:"scale,omitempty"`
	OutputPath string              `json:"output_path,omitempty"`
}

// resolve merges the preset (if any) with explicit arguments and applies
// server defaults.
func (a *photoExportArgs) resolve(cfg *config.Config) (imaging.Parameters, imaging.ExportOptions, error) {
	var params imaging.Parameters
	opts := imaging.ExportOptions{Format: imaging.FormatPNG}

	if a.PresetPath != "" {
		preset, err := imaging.LoadPreset(a.PresetPath)
		if err != nil {
			return params, opts, err
		}
		params = preset.Parameters()
		opts = preset.Export
	}
	if a.Params != nil {
		params = *a.Params
	}
	if a.Format != "" {
		f, err := imaging.ParseFormat(a.Format)
		if err != nil {
			return params, opts, err
		}
		opts.Format = f
	}
	if a.Quality != 0 {
		opts.Quality = a.Quality
	}
	if opts.Quality == 0 {
		opts.Quality = cfg.JPEGQuality
	}
	if a.Scale != 0 {
		opts.Scale = a.Scale
	}
	opts.MaxPixels = cfg.MaxOutputPixels
	return params, opts, nil
}

func (s *Server) handlePhotoExport(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a photoExportArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	params, opts, err := a.resolve(s.cfg)
	if err != nil {
		return nil, err
	}
	src, err := s.loadSource(ctx, a.Source)
	if err != nil {
		return nil, err
	}

	blob, err := imaging.ApplyEditsAndExport(ctx, src, params, opts)
	if err != nil {
		return nil, err
	}

	result := newBlobResult(blob)
	if a.OutputPath != "" {
		if err := os.WriteFile(a.OutputPath, blob.Data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write output: %w", err)
		}
		result.OutputPath = a.OutputPath
		result.ImageBase64 = ""
	}
	s.logger.Info("exported image", "source", src.String(), "format", opts.Format,
		"width", blob.Width, "height", blob.Height, "bytes", len(blob.Data))
	return result, nil
}

// === Crop Geometry ===

type resolveCropArgs struct {
	Mode          string  `json:"mode"`
	Source        string  `json:"source,omitempty"`
	NaturalWidth  int     `json:"natural_width,omitempty"`
	NaturalHeight int     `json:"natural_height,omitempty"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	Ratio         string  `json:"ratio,omitempty"`
}

func (s *Server) handleResolveCrop(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a resolveCropArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	w, h := a.NaturalWidth, a.NaturalHeight
	if (w == 0 || h == 0) && a.Source != "" {
		src, err := s.loadSource(ctx, a.Source)
		if err != nil {
			return nil, err
		}
		// Decode rather than Probe so EXIF orientation matches the pipeline.
		img, err := imaging.Decode(ctx, src, nil)
		if err != nil {
			return nil, err
		}
		w, h = img.Rect.Dx(), img.Rect.Dy()
	}

	switch a.Mode {
	case "normalized":
		return imaging.ResolveCropFromNormalized(imaging.NormalizedRect{
			X: a.X, Y: a.Y, Width: a.Width, Height: a.Height,
		}, w, h)
	case "aspect":
		ratio, err := imaging.ParseAspectRatio(a.Ratio)
		if err != nil {
			return nil, err
		}
		if ratio == nil {
			// Original aspect: the whole image.
			full := imaging.Rect{Width: w, Height: h}
			if err := full.Validate(w, h); err != nil {
				return nil, err
			}
			return full, nil
		}
		return imaging.ResolveCropFromAspectRatio(*ratio, w, h)
	default:
		return nil, fmt.Errorf("unknown crop mode: %q", a.Mode)
	}
}

// === Live Preview ===

type previewScheduleArgs struct {
	Source string             `json:"source"`
	Params imaging.Parameters `json:"params"`
}

type previewScheduleResult struct {
	Generation uint64 `json:"generation"`
	DebounceMs int64  `json:"debounce_ms"`
}

func (s *Server) handlePreviewSchedule(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a previewScheduleArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	src, err := s.loadSource(ctx, a.Source)
	if err != nil {
		return nil, err
	}

	gen := s.scheduler(a.Source, src).Schedule(a.Params)
	return &previewScheduleResult{
		Generation: gen,
		DebounceMs: s.cfg.PreviewDebounce.Milliseconds(),
	}, nil
}

// scheduler returns the preview scheduler for ref, creating it on first use.
func (s *Server) scheduler(ref string, src imaging.Source) *preview.Scheduler {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.previews[ref]; ok {
		return p
	}

	opts := imaging.PreviewOptions{
		MaxDimension: s.cfg.PreviewMaxDimension,
		Quality:      s.cfg.PreviewQuality,
	}
	p := preview.New(s.cfg.PreviewDebounce,
		func(ctx context.Context, params imaging.Parameters) (*imaging.Blob, error) {
			return imaging.RenderPreview(ctx, src, params, opts)
		},
		preview.WithLogger(s.logger.With("source", src.String())),
	)
	s.previews[ref] = p
	return p
}

type previewLatestResult struct {
	Available  bool        `json:"available"`
	Generation uint64      `json:"generation"`
	Pending    bool        `json:"pending"`
	LastError  string      `json:"last_error,omitempty"`
	Image      *blobResult `json:"image,omitempty"`
}

func (s *Server) handlePreviewLatest(args json.RawMessage) (interface{}, error) {
	var a sourceArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	s.mu.Lock()
	p, ok := s.previews[a.Source]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no preview scheduled for %s", a.Source)
	}

	result := &previewLatestResult{}
	if err := p.LastError(); err != nil {
		result.LastError = err.Error()
	}
	latest, ok := p.Latest()
	if ok {
		result.Available = true
		result.Generation = latest.Generation
		result.Image = newBlobResult(latest.Blob)
	}
	result.Pending = p.Generation() != p.Published()
	return result, nil
}

// === Color Sampling ===

type sampleColorArgs struct {
	Source string              `json:"source"`
	X      int                 `json:"x"`
	Y      int                 `json:"y"`
	Params *imaging.Parameters `json:"params,omitempty"`
}

func (s *Server) handleSampleColor(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a sampleColorArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	src, err := s.loadSource(ctx, a.Source)
	if err != nil {
		return nil, err
	}

	if a.Params == nil {
		img, err := imaging.Decode(ctx, src, nil)
		if err != nil {
			return nil, err
		}
		return imaging.SampleColor(img, a.X, a.Y)
	}

	// Sample the adjusted image through a lossless export.
	blob, err := imaging.ApplyEditsAndExport(ctx, src, *a.Params, imaging.ExportOptions{Format: imaging.FormatPNG})
	if err != nil {
		return nil, err
	}
	img, err := png.Decode(bytes.NewReader(blob.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode rendered image: %w", err)
	}
	return imaging.SampleColor(img, a.X, a.Y)
}
