package toolbox

import (
	"context"
	"encoding/json"
)

// Handler runs a tool against its raw JSON input and returns a text result.
type Handler func(ctx context.Context, input json.RawMessage) (string, error)

// Tool is one callable operation: a name, a human-readable description, the
// JSON Schema its input must satisfy, and the handler that runs it. The name,
// description, and schema are what remote callers see during discovery.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     Handler
}

// ToolCall is a request to invoke a named tool. Arguments stays a raw JSON
// string; only the handler knows its shape.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolResult carries a tool invocation's output back to the caller. IsError
// marks results whose Content is a failure message rather than tool output.
type ToolResult struct {
	ToolCallID string
	Content    string
	IsError    bool
}
