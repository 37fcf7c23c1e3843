// Package tools provides tool execution and MCP (Model Context Protocol) integration.
//
// It is organized into sub-packages:
//   - [github.com/hugohow/mcp-audio-analysis/pkg/tools/toolbox] — Tool type and ToolBox orchestrator for registering, listing, filtering, and calling tools
//   - [github.com/hugohow/mcp-audio-analysis/pkg/tools/mcpserver] — MCP server using the official MCP Go SDK for exposing tools and prompts over the MCP protocol
//
// The toolbox sub-package is the foundation layer; mcpserver depends on it
// for the Tool type. The mcpserver package is a thin wrapper around the
// official MCP Go SDK (github.com/modelcontextprotocol/go-sdk).
package tools
