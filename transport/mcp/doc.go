// Package mcp exposes the session coordinator as a set of MCP tools so
// agent runtimes can drive sessions directly: creating them, submitting
// directional commands, ending expired ones, and inspecting live state.
//
// Tools call the coordination service in-process; there is no HTTP hop. The
// same server instance backs both stdio transport (Serve) and the HTTP
// /mcp endpoint (HandleMessage).
package mcp
