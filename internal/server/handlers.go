package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/docscan-mcp/internal/config"
	scanerr "github.com/ironsheep/docscan-mcp/internal/errors"
	"github.com/ironsheep/docscan-mcp/internal/geometry"
	"github.com/ironsheep/docscan-mcp/internal/imaging"
	"github.com/ironsheep/docscan-mcp/internal/logger"
	"github.com/ironsheep/docscan-mcp/internal/scanner"
	"github.com/ironsheep/docscan-mcp/internal/store"
)

// defaultHistoryLimit applies when document_history is called without a limit.
const defaultHistoryLimit = 20

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "document_scan", "image_load").
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

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	log := logger.WithFields(logrus.Fields{
		"tool":     params.Name,
		"duration": time.Since(start).String(),
		"cached":   s.cache.Len(),
	})
	if err != nil {
		log = log.WithError(err).WithField("error_type", scanerr.TypeOf(err))
		if scanerr.IsType(err, scanerr.ErrorTypeInternal) {
			log.Error("tool failed")
		} else {
			log.Warn("tool failed")
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	log.Debug("tool completed")

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
// Each tool handler:
//  1. Unmarshals arguments from JSON
//  2. Applies default values for optional parameters
//  3. Loads images from cache as needed
//  4. Calls the scanner or imaging function
//  5. Returns the result or error
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Scanning
	case "document_scan":
		return s.handleDocumentScan(ctx, args)
	case "document_detect":
		return s.handleDocumentDetect(ctx, args)
	case "document_scan_batch":
		return s.handleDocumentScanBatch(ctx, args)

	// Diagnostics
	case "document_edge_map":
		return s.handleDocumentEdgeMap(ctx, args)
	case "document_overlay":
		return s.handleDocumentOverlay(ctx, args)

	// History
	case "document_history":
		return s.handleDocumentHistory(args)
	case "document_history_delete":
		return s.handleDocumentHistoryDelete(args)

	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)

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

// loadRaster decodes path through the image cache.
func (s *Server) loadRaster(path string) (*imaging.Raster, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	d, err := s.cache.Load(path)
	if err != nil {
		return nil, err
	}
	return d.Raster, nil
}

// scannerFor returns the server's scanner with per-call overrides applied.
func (s *Server) scannerFor(enhanceMode string, maxDimension int) (*scanner.Scanner, error) {
	sc := s.scanner
	if enhanceMode != "" {
		mode, err := config.ParseEnhanceMode(enhanceMode)
		if err != nil {
			return nil, err
		}
		if sc, err = sc.WithEnhanceMode(mode); err != nil {
			return nil, err
		}
	}
	if maxDimension != 0 {
		var err error
		if sc, err = sc.WithMaxDimension(maxDimension); err != nil {
			return nil, err
		}
	}
	return sc, nil
}

// record stores the outcome of scanning source when history is enabled.
// Failures to record are logged and otherwise ignored.
func (s *Server) record(source string, res *scanner.Result, scanErr error, save *bool) string {
	if s.records == nil || source == "" || (save != nil && !*save) {
		return ""
	}
	rec := store.NewRecord(source, res, scanErr, time.Now())
	if err := s.records.Save(rec); err != nil {
		logger.WithError(err).WithField("source", source).Error("failed to record scan")
		return ""
	}
	return rec.ID
}

// === Scanning Handlers ===

type documentScanArgs struct {
	Path          string `json:"path"`
	EnhanceMode   string `json:"enhance_mode"`
	MaxDimension  int    `json:"max_dimension"`
	IncludeWarped bool   `json:"include_warped"`
	Save          *bool  `json:"save"`
}

// scanResponse is the document_scan result.
type scanResponse struct {
	Source       string              `json:"source"`
	Status       scanner.Status      `json:"status"`
	Corners      geometry.Quad       `json:"corners"`
	Homography   geometry.Homography `json:"homography"`
	Width        int                 `json:"width"`
	Height       int                 `json:"height"`
	Scale        float64             `json:"scale"`
	SourceWidth  int                 `json:"source_width"`
	SourceHeight int                 `json:"source_height"`
	EnhanceMode  config.EnhanceMode  `json:"enhance_mode"`
	DurationMS   int64               `json:"duration_ms"`
	RecordID     string              `json:"record_id,omitempty"`

	Enhanced *imaging.ImageResult `json:"enhanced"`
	Warped   *imaging.ImageResult `json:"warped,omitempty"`
}

func (s *Server) handleDocumentScan(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a documentScanArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	sc, err := s.scannerFor(a.EnhanceMode, a.MaxDimension)
	if err != nil {
		return nil, err
	}
	src, err := s.loadRaster(a.Path)
	if err != nil {
		s.record(a.Path, nil, err, a.Save)
		return nil, err
	}

	res, err := sc.Scan(ctx, src)
	if err != nil {
		s.record(a.Path, nil, err, a.Save)
		return nil, err
	}

	out := &scanResponse{
		Source:       a.Path,
		Status:       res.Status,
		Corners:      res.Corners,
		Homography:   res.Homography,
		Width:        res.Width,
		Height:       res.Height,
		Scale:        res.Scale,
		SourceWidth:  res.SourceWidth,
		SourceHeight: res.SourceHeight,
		EnhanceMode:  sc.Config().EnhanceMode,
		DurationMS:   res.Duration.Milliseconds(),
	}
	if out.Enhanced, err = imaging.EncodeRaster(res.Enhanced); err != nil {
		return nil, err
	}
	if a.IncludeWarped {
		if out.Warped, err = imaging.EncodeRaster(res.Warped); err != nil {
			return nil, err
		}
	}
	out.RecordID = s.record(a.Path, res, nil, a.Save)
	return out, nil
}

type documentPathArgs struct {
	Path string `json:"path"`
}

// detectResponse is the document_detect result.
type detectResponse struct {
	Source string `json:"source"`
	*scanner.Detection
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s *Server) handleDocumentDetect(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a documentPathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	src, err := s.loadRaster(a.Path)
	if err != nil {
		return nil, err
	}
	d, err := s.scanner.Detect(ctx, src)
	if err != nil {
		return nil, err
	}
	return &detectResponse{
		Source:    a.Path,
		Detection: d,
		Width:     d.Resized.Width,
		Height:    d.Resized.Height,
	}, nil
}

type documentScanBatchArgs struct {
	Paths       []string `json:"paths"`
	EnhanceMode string   `json:"enhance_mode"`
	Save        *bool    `json:"save"`
}

// batchItem summarizes one photo of a batch.
type batchItem struct {
	Path     string         `json:"path"`
	Status   scanner.Status `json:"status"`
	Corners  *geometry.Quad `json:"corners,omitempty"`
	Width    int            `json:"width,omitempty"`
	Height   int            `json:"height,omitempty"`
	Error    string         `json:"error,omitempty"`
	RecordID string         `json:"record_id,omitempty"`
}

// batchResponse is the document_scan_batch result.
type batchResponse struct {
	Summary scanner.Summary `json:"summary"`
	Items   []batchItem     `json:"items"`
}

func (s *Server) handleDocumentScanBatch(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a documentScanBatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, fmt.Errorf("paths must not be empty")
	}
	sc, err := s.scannerFor(a.EnhanceMode, 0)
	if err != nil {
		return nil, err
	}

	items := make([]scanner.Item, len(a.Paths))
	for i, path := range a.Paths {
		items[i] = scanner.Item{
			Name: path,
			Load: func() (*imaging.Raster, error) { return s.loadRaster(path) },
		}
	}

	outcomes := sc.ScanBatch(ctx, items)
	out := &batchResponse{
		Summary: scanner.Summarize(outcomes),
		Items:   make([]batchItem, len(outcomes)),
	}
	for i, o := range outcomes {
		item := batchItem{Path: o.Name, Status: o.Status}
		if o.Err != nil {
			item.Error = o.Err.Error()
		}
		if o.Result != nil {
			corners := o.Result.Corners
			item.Corners = &corners
			item.Width, item.Height = o.Result.Width, o.Result.Height
		}
		item.RecordID = s.record(o.Name, o.Result, o.Err, a.Save)
		out.Items[i] = item
	}
	return out, nil
}

// === Diagnostic Handlers ===

func (s *Server) handleDocumentEdgeMap(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a documentPathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	src, err := s.loadRaster(a.Path)
	if err != nil {
		return nil, err
	}
	edges, err := s.scanner.EdgeMap(ctx, src)
	if err != nil {
		return nil, err
	}
	return imaging.EncodeRaster(edges)
}

type documentOverlayArgs struct {
	Path  string `json:"path"`
	Color string `json:"color"`
}

// overlayResponse is the document_overlay result.
type overlayResponse struct {
	*imaging.ImageResult
	Status  scanner.Status `json:"status"`
	Corners geometry.Quad  `json:"corners"`
}

func (s *Server) handleDocumentOverlay(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a documentOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Color == "" {
		a.Color = imaging.DefaultOverlayColor
	}
	src, err := s.loadRaster(a.Path)
	if err != nil {
		return nil, err
	}
	d, err := s.scanner.Detect(ctx, src)
	if err != nil {
		return nil, err
	}
	img, err := imaging.EncodePNG(imaging.DrawQuad(d.Resized, d.Corners, a.Color))
	if err != nil {
		return nil, err
	}
	return &overlayResponse{ImageResult: img, Status: d.Status, Corners: d.Corners}, nil
}

// === History Handlers ===

type documentHistoryArgs struct {
	Limit int    `json:"limit"`
	ID    string `json:"id"`
}

type historyIDArgs struct {
	ID string `json:"id"`
}

func (s *Server) handleDocumentHistory(args json.RawMessage) (interface{}, error) {
	if s.records == nil {
		return nil, fmt.Errorf("scan history is disabled; start the server with --db")
	}
	var a documentHistoryArgs
	if len(args) > 0 {
		if err := json.Unmarshal(args, &a); err != nil {
			return nil, err
		}
	}
	if a.ID != "" {
		rec, err := s.records.Get(a.ID)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"count":   1,
			"records": []*store.Record{rec},
		}, nil
	}
	if a.Limit == 0 {
		a.Limit = defaultHistoryLimit
	}
	records, err := s.records.List(a.Limit)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"count":   len(records),
		"records": records,
	}, nil
}

func (s *Server) handleDocumentHistoryDelete(args json.RawMessage) (interface{}, error) {
	if s.records == nil {
		return nil, fmt.Errorf("scan history is disabled; start the server with --db")
	}
	var a historyIDArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.ID == "" {
		return nil, fmt.Errorf("id is required")
	}
	if _, err := s.records.Get(a.ID); err != nil {
		return nil, err
	}
	if err := s.records.Delete(a.ID); err != nil {
		return nil, err
	}
	return map[string]interface{}{"deleted": a.ID}, nil
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}
