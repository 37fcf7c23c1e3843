// Package defaults provides a plug-and-play default toolbox builder. It
// composes the built-in audio toolboxes into the single one the server
// exposes.
package defaults

import "github.com/hugohow/mcp-audio-analysis/pkg/tools/toolbox"

// New builds a default toolbox by merging the given toolboxes together. Each
// toolbox is merged in order so later entries overwrite earlier ones when tool
// names collide.
func New(toolboxes ...*toolbox.ToolBox) *toolbox.ToolBox {
	tb := toolbox.New()
	for _, other := range toolboxes {
		tb.Merge(other)
	}

	return tb
}
