// Package audiotoolbox provides the built-in audio tools this server exposes
// over MCP. Each sub-package implements a specific tool category:
//
//   - [github.com/hugohow/mcp-audio-analysis/pkg/audiotoolbox/analysis] — feature extraction tools (tempo, beats, onsets, chroma, MFCC, duration) backed by the analysis engine
//   - [github.com/hugohow/mcp-audio-analysis/pkg/audiotoolbox/fetch] — download tools that bring remote audio onto local disk (direct URL, YouTube)
//   - [github.com/hugohow/mcp-audio-analysis/pkg/audiotoolbox/defaults] — default toolbox builder that merges the built-in toolboxes
package audiotoolbox
