package server

import "github.com/hugohow/mcp-audio-analysis/pkg/tools/mcpserver"

const usageText = `Welcome to the audio analysis MCP server! Provide the path to an audio file on local disk, or download one first, then call the analysis tools to extract features.

Available tools:
- get_tempo(path, offset = 0, duration = to end of file) -> tempo in BPM
- get_beats(path, offset = 0, duration = to end of file) -> beat times in seconds
- get_onsets(path, offset = 0, duration = to end of file) -> note onset times in seconds
- get_mfcc(path, offset = 0, duration = to end of file) -> MFCC frames with times and coefficients
- get_chroma(path, offset = 0, duration = to end of file, fmin = C1, n_octaves = 7, interval = 1.0) -> pitch-class energy samples
- get_duration(path) -> duration in seconds
- download_from_url(url, filename = fresh unique name) -> local path; the URL must end in .mp3 or .wav
- download_from_youtube(video_url) -> local path to the extracted audio track`

// usagePrompt is the static prompt advertising the tool surface.
func usagePrompt() mcpserver.Prompt {
	return mcpserver.Prompt{
		Name:        "analyze_audio",
		Description: "How to analyze audio files with this server",
		Text:        usageText,
	}
}
