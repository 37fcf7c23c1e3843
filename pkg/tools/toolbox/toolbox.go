package toolbox

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// ToolBox holds the tools a server dispatches to, keyed by name.
// Registering a name twice replaces the earlier tool.
type ToolBox struct {
	tools map[string]Tool
}

// New returns an empty ToolBox.
func New() *ToolBox {
	return &ToolBox{
		tools: make(map[string]Tool),
	}
}

// Register adds tools to the box, replacing any existing tool with the same
// name.
func (tb *ToolBox) Register(tools ...Tool) {
	for _, t := range tools {
		tb.tools[t.Name] = t
	}
}

// Get looks up a tool by name.
func (tb *ToolBox) Get(name string) (Tool, bool) {
	t, ok := tb.tools[name]
	return t, ok
}

// Merge registers every tool from other into this box. Name collisions
// resolve in other's favor.
func (tb *ToolBox) Merge(other *ToolBox) {
	for _, t := range other.tools {
		tb.tools[t.Name] = t
	}
}

// Filter returns a box holding only the named tools, in support of allowlist
// configuration. Unregistered names are skipped, the receiver is left
// untouched, and an empty or nil name list returns the receiver itself.
func (tb *ToolBox) Filter(names []string) *ToolBox {
	if len(names) == 0 {
		return tb
	}

	filtered := New()
	for _, name := range names {
		if t, ok := tb.tools[name]; ok {
			filtered.Register(t)
		}
	}

	return filtered
}

// Tools lists the registered tools sorted by name, so discovery listings
// derived from it are stable across runs.
func (tb *ToolBox) Tools() []Tool {
	result := make([]Tool, 0, len(tb.tools))
	for _, t := range tb.tools {
		result = append(result, t)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result
}

// Call dispatches a tool call and folds failures into the result: an unknown
// tool name or a handler error produces a ToolResult with IsError set and
// the message as its content.
func (tb *ToolBox) Call(ctx context.Context, tc ToolCall) ToolResult {
	t, ok := tb.tools[tc.Name]
	if !ok {
		return ToolResult{
			ToolCallID: tc.ID,
			Content:    fmt.Sprintf("tool not found: %s", tc.Name),
			IsError:    true,
		}
	}

	result, err := t.Handler(ctx, json.RawMessage(tc.Arguments))
	if err != nil {
		return ToolResult{
			ToolCallID: tc.ID,
			Content:    err.Error(),
			IsError:    true,
		}
	}

	return ToolResult{
		ToolCallID: tc.ID,
		Content:    result,
	}
}
