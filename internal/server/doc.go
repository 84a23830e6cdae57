// Package server implements the MCP (Model Context Protocol) server for menu
// and dish scanning.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses and notifications on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - notifications/cancelled: Abandon an in-flight menu_scan
//   - ping: Health check
//
// # Available Tools
//
//   - menu_scan: Scan a menu or dish photo into dish records
//   - ocr_lines: Run OCR only and return lines with normalized boxes
//   - scan_config: Report the model, OCR engine and matcher settings
//
// # Progress and Cancellation
//
// menu_scan runs in the background so the server keeps reading requests.
// When the call carries _meta.progressToken, every progress update is sent
// as a notifications/progress message with total 100. The final response
// follows the last notification. A scan cancelled through
// notifications/cancelled is stopped and never answered.
//
// # Error Handling
//
// Tool errors are returned as JSON-RPC error responses:
//   - -32602: invalid arguments or unknown tool
//   - -32001: inference quota exhausted
//   - -32000: any other tool failure (data holds the Go error string)
//
// # Usage
//
//	srv := server.New(session, server.Options{Config: cfg, Version: version})
//	if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
package server
