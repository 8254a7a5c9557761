// Package server implements the MCP (Model Context Protocol) server for
// document scanning.
//
// This package provides a JSON-RPC 2.0 server that exposes the scanning
// pipeline through the MCP protocol, so an MCP client can turn a phone photo
// of a page into a flat, cleaned-up scan.
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
// Scanning:
//   - document_scan: Detect, rectify and enhance one photo
//   - document_detect: Corners and candidates only, no warp
//   - document_scan_batch: Scan several photos concurrently
//
// Diagnostics:
//   - document_edge_map: The edge mask contours are traced on
//   - document_overlay: The photo with the detected outline drawn on it
//
// History:
//   - document_history: Recent scans or one scan by id, when started with --db
//   - document_history_delete: Remove a scan record
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//
// # Image Caching
//
// The server maintains a bounded in-memory cache of decoded images. Images
// are cached by path and reused across tool calls, so detecting and then
// scanning the same photo decodes it once. A file that changed on disk since
// it was cached is decoded again, and the least recently used photo is
// dropped once the cache is full (--cache-entries).
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string, which for pipeline failures names the stage
//     and error type ("homography: degenerate_homography: ...")
//
// A photo without a detectable document is not an error: the scan uses the
// whole frame and reports status "degraded".
//
// # Usage
//
//	sc, err := scanner.New(config.DefaultPipeline())
//	if err != nil {
//	    return err
//	}
//	srv := server.New(sc, server.WithVersion(version))
//	return srv.Serve(ctx, os.Stdin, os.Stdout)
package server
