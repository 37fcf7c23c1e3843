// Package analysis provides tools that expose audio feature extraction:
// tempo, beat and onset times, chromagrams, MFCCs, and duration. All feature
// math is delegated to the analysis engine; handlers validate input, shape
// engine output, and JSON-encode the result.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/hugohow/mcp-audio-analysis/pkg/analyzer"
	"github.com/hugohow/mcp-audio-analysis/pkg/tools/toolbox"
)

// Analysis provides audio analysis tools backed by an engine.
type Analysis struct {
	engine analyzer.Engine
}

// New creates an Analysis backed by the given engine.
func New(engine analyzer.Engine) *Analysis {
	return &Analysis{engine: engine}
}

// Tools returns a ToolBox containing the analysis tools.
func (a *Analysis) Tools() *toolbox.ToolBox {
	tb := toolbox.New()
	tb.Register(
		a.tempoTool(),
		a.beatsTool(),
		a.chromaTool(),
		a.durationTool(),
		a.onsetsTool(),
		a.mfccTool(),
	)

	return tb
}

// segmentInput is the common input shape for tools that analyze a segment of
// an audio file. A missing duration means "to the end of the file".
type segmentInput struct {
	Path     string   `json:"path"`
	Offset   float64  `json:"offset"`
	Duration *float64 `json:"duration"`
}

func (in segmentInput) segment() analyzer.Segment {
	d := analyzer.ToEndOfFile()
	if in.Duration != nil {
		d = analyzer.Seconds(*in.Duration)
	}

	return analyzer.Segment{Path: in.Path, Offset: in.Offset, Duration: d}
}

// segmentSchema is the JSON Schema shared by the segment-based tools.
const segmentSchema = `{"type":"object","properties":{"path":{"type":"string","description":"Path to the audio file on local disk"},"offset":{"type":"number","description":"Start reading after this time in seconds (default 0)"},"duration":{"type":"number","description":"Only analyze this many seconds of audio (default: to the end of the file)"}},"required":["path"]}`

func marshalResult(tool string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%s: marshal: %w", tool, err)
	}

	return string(data), nil
}

// --- get_tempo ---

func (a *Analysis) tempoTool() toolbox.Tool {
	return toolbox.Tool{
		Name:        "get_tempo",
		Description: "Estimate the tempo of an audio file in beats per minute (BPM). Optionally analyze only a segment selected by offset and duration.",
		InputSchema: json.RawMessage(segmentSchema),
		Handler:     a.handleTempo,
	}
}

func (a *Analysis) handleTempo(ctx context.Context, input json.RawMessage) (string, error) {
	var in segmentInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("get_tempo: invalid input: %w", err)
	}

	if in.Path == "" {
		return "", fmt.Errorf("get_tempo: path is required")
	}

	bpm, err := a.engine.Tempo(ctx, in.segment())
	if err != nil {
		return "", fmt.Errorf("get_tempo: %w", err)
	}

	return marshalResult("get_tempo", bpm)
}

// --- get_beats ---

func (a *Analysis) beatsTool() toolbox.Tool {
	return toolbox.Tool{
		Name:        "get_beats",
		Description: "Detect beats in an audio file and return their times in seconds, relative to the analyzed segment, in ascending order.",
		InputSchema: json.RawMessage(segmentSchema),
		Handler:     a.handleBeats,
	}
}

func (a *Analysis) handleBeats(ctx context.Context, input json.RawMessage) (string, error) {
	var in segmentInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("get_beats: invalid input: %w", err)
	}

	if in.Path == "" {
		return "", fmt.Errorf("get_beats: path is required")
	}

	beats, err := a.engine.Beats(ctx, in.segment())
	if err != nil {
		return "", fmt.Errorf("get_beats: %w", err)
	}

	return marshalResult("get_beats", beats)
}

// --- get_onsets ---

func (a *Analysis) onsetsTool() toolbox.Tool {
	return toolbox.Tool{
		Name:        "get_onsets",
		Description: "Detect note onsets in an audio file and return their times in seconds, relative to the analyzed segment, in ascending order.",
		InputSchema: json.RawMessage(segmentSchema),
		Handler:     a.handleOnsets,
	}
}

func (a *Analysis) handleOnsets(ctx context.Context, input json.RawMessage) (string, error) {
	var in segmentInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("get_onsets: invalid input: %w", err)
	}

	if in.Path == "" {
		return "", fmt.Errorf("get_onsets: path is required")
	}

	onsets, err := a.engine.Onsets(ctx, in.segment())
	if err != nil {
		return "", fmt.Errorf("get_onsets: %w", err)
	}

	return marshalResult("get_onsets", onsets)
}

// --- get_mfcc ---

type mfccFrame struct {
	Time         float64   `json:"time"`
	Coefficients []float64 `json:"coefficients"`
}

func (a *Analysis) mfccTool() toolbox.Tool {
	return toolbox.Tool{
		Name:        "get_mfcc",
		Description: "Compute mel-frequency cepstral coefficients for an audio file. Returns one frame per analysis window with its time and coefficient vector.",
		InputSchema: json.RawMessage(segmentSchema),
		Handler:     a.handleMFCC,
	}
}

func (a *Analysis) handleMFCC(ctx context.Context, input json.RawMessage) (string, error) {
	var in segmentInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("get_mfcc: invalid input: %w", err)
	}

	if in.Path == "" {
		return "", fmt.Errorf("get_mfcc: path is required")
	}

	engineFrames, err := a.engine.MFCC(ctx, in.segment())
	if err != nil {
		return "", fmt.Errorf("get_mfcc: %w", err)
	}

	frames := make([]mfccFrame, 0, len(engineFrames))
	for _, f := range engineFrames {
		frames = append(frames, mfccFrame{Time: f.Time, Coefficients: f.Coefficients})
	}

	return marshalResult("get_mfcc", frames)
}

// --- get_chroma ---

type chromaInput struct {
	Path     string   `json:"path"`
	Offset   float64  `json:"offset"`
	Duration *float64 `json:"duration"`
	FMin     float64  `json:"fmin"`
	NOctaves int      `json:"n_octaves"`
	Interval *float64 `json:"interval"`
}

type chromaSample struct {
	Note      string  `json:"note"`
	Time      float64 `json:"time"`
	Amplitude float64 `json:"amplitude"`
}

// noteNames are the twelve pitch classes in chromagram bin order.
var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func (a *Analysis) chromaTool() toolbox.Tool {
	return toolbox.Tool{
		Name:        "get_chroma",
		Description: "Compute a constant-Q chromagram of an audio file and return pitch-class energy samples near each interval boundary. Samples are grouped by note (C through B), then ordered by time.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"path":{"type":"string","description":"Path to the audio file on local disk"},"offset":{"type":"number","description":"Start reading after this time in seconds (default 0)"},"duration":{"type":"number","description":"Only analyze this many seconds of audio (default: to the end of the file)"},"fmin":{"type":"number","description":"Minimum analysis frequency in Hz (default: note C1)"},"n_octaves":{"type":"integer","description":"Number of octaves to analyze above fmin (default 7)"},"interval":{"type":"number","description":"Seconds between returned samples (default 1.0, must be positive)"}},"required":["path"]}`),
		Handler:     a.handleChroma,
	}
}

func (a *Analysis) handleChroma(ctx context.Context, input json.RawMessage) (string, error) {
	var in chromaInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("get_chroma: invalid input: %w", err)
	}

	if in.Path == "" {
		return "", fmt.Errorf("get_chroma: path is required")
	}

	interval := 1.0
	if in.Interval != nil {
		interval = *in.Interval
	}
	if interval <= 0 {
		return "", fmt.Errorf("get_chroma: interval must be positive, got %v", interval)
	}

	seg := segmentInput{Path: in.Path, Offset: in.Offset, Duration: in.Duration}.segment()
	params := analyzer.ChromaParams{FMin: in.FMin, NOctaves: in.NOctaves}

	frames, err := a.engine.Chroma(ctx, seg, params)
	if err != nil {
		return "", fmt.Errorf("get_chroma: %w", err)
	}

	return marshalResult("get_chroma", subsampleChroma(frames, in.Offset, interval))
}

// subsampleChroma keeps the frames whose time lands within a hundredth of a
// second of the interval grid and is at least offset, and flattens them into
// per-note samples. Frame times are relative to the analyzed segment, so a
// nonzero offset also drops the leading frames of the segment. The result is
// grouped by pitch class, C first, each group in ascending time order.
func subsampleChroma(frames []analyzer.ChromaFrame, offset, interval float64) []chromaSample {
	samples := make([]chromaSample, 0)
	for pc := range noteNames {
		for _, f := range frames {
			if f.Time < offset || math.Abs(math.Mod(f.Time, interval)) >= 1e-2 {
				continue
			}

			samples = append(samples, chromaSample{
				Note:      noteNames[pc],
				Time:      f.Time,
				Amplitude: f.Energy[pc],
			})
		}
	}

	return samples
}

// --- get_duration ---

type durationInput struct {
	Path string `json:"path"`
}

func (a *Analysis) durationTool() toolbox.Tool {
	return toolbox.Tool{
		Name:        "get_duration",
		Description: "Return the duration of an audio file in seconds.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"path":{"type":"string","description":"Path to the audio file on local disk"}},"required":["path"]}`),
		Handler:     a.handleDuration,
	}
}

func (a *Analysis) handleDuration(ctx context.Context, input json.RawMessage) (string, error) {
	var in durationInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("get_duration: invalid input: %w", err)
	}

	if in.Path == "" {
		return "", fmt.Errorf("get_duration: path is required")
	}

	d, err := a.engine.Duration(ctx, in.Path)
	if err != nil {
		return "", fmt.Errorf("get_duration: %w", err)
	}

	return marshalResult("get_duration", d)
}
