// Package analyzer extracts audio features by delegating to external
// analysis programs: ffmpeg and ffprobe for decoding and probing, aubio for
// rhythm features, and sonic-annotator for chromagrams. No signal processing
// happens in this package; it builds command lines and parses program output.
package analyzer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	osexec "os/exec"
	"strings"
)

// Duration selects how much audio to analyze after the segment offset.
// The zero value means "to the end of the file".
type Duration struct {
	seconds float64
	bounded bool
}

// ToEndOfFile returns a Duration covering everything after the offset.
func ToEndOfFile() Duration { return Duration{} }

// Seconds returns a Duration bounded to s seconds.
func Seconds(s float64) Duration { return Duration{seconds: s, bounded: true} }

// Bounded reports whether the duration is an explicit number of seconds.
func (d Duration) Bounded() bool { return d.bounded }

// Value returns the bound in seconds. It is meaningful only when Bounded.
func (d Duration) Value() float64 { return d.seconds }

// Segment identifies a slice of an audio file to analyze.
type Segment struct {
	Path     string
	Offset   float64
	Duration Duration
}

// ChromaParams configures chromagram extraction. Zero values select the
// defaults (minimum frequency C1, seven octaves).
type ChromaParams struct {
	FMin     float64
	NOctaves int
}

// ChromaFrame is one analysis frame of a twelve-bin chromagram.
// Energy index 0 is pitch class C, index 11 is B.
type ChromaFrame struct {
	Time   float64
	Energy [12]float64
}

// MFCCFrame is one analysis frame of mel-frequency cepstral coefficients.
type MFCCFrame struct {
	Time         float64
	Coefficients []float64
}

// Engine extracts features from audio files. All methods block until the
// underlying analysis completes and honor context cancellation.
type Engine interface {
	Duration(ctx context.Context, path string) (float64, error)
	Tempo(ctx context.Context, seg Segment) (float64, error)
	Beats(ctx context.Context, seg Segment) ([]float64, error)
	Onsets(ctx context.Context, seg Segment) ([]float64, error)
	MFCC(ctx context.Context, seg Segment) ([]MFCCFrame, error)
	Chroma(ctx context.Context, seg Segment, params ChromaParams) ([]ChromaFrame, error)
}

// LoadError reports that an audio file could not be loaded or analyzed:
// the path is missing, the file is not decodable, or an analysis program
// failed on it.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// runFunc executes a program and returns its stdout.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Options configures an Analyzer. Zero values select the defaults: program
// names resolved from PATH, a 22050 Hz analysis rate, and scratch files in
// the system temp directory.
type Options struct {
	FFmpeg         string
	FFprobe        string
	Aubio          string
	SonicAnnotator string
	SampleRate     int
	ScratchDir     string
}

// Analyzer implements Engine by shelling out to the configured programs.
type Analyzer struct {
	ffmpeg     string
	ffprobe    string
	aubio      string
	sonic      string
	sampleRate int
	scratchDir string
	run        runFunc
}

// DefaultSampleRate is the analysis sample rate segments are decoded to.
const DefaultSampleRate = 22050

// New creates an Analyzer from opts.
func New(opts Options) *Analyzer {
	a := &Analyzer{
		ffmpeg:     opts.FFmpeg,
		ffprobe:    opts.FFprobe,
		aubio:      opts.Aubio,
		sonic:      opts.SonicAnnotator,
		sampleRate: opts.SampleRate,
		scratchDir: opts.ScratchDir,
		run:        runCommand,
	}

	if a.ffmpeg == "" {
		a.ffmpeg = "ffmpeg"
	}
	if a.ffprobe == "" {
		a.ffprobe = "ffprobe"
	}
	if a.aubio == "" {
		a.aubio = "aubio"
	}
	if a.sonic == "" {
		a.sonic = "sonic-annotator"
	}
	if a.sampleRate <= 0 {
		a.sampleRate = DefaultSampleRate
	}
	if a.scratchDir == "" {
		a.scratchDir = os.TempDir()
	}

	return a
}

// runCommand executes a program and returns its stdout. On failure the error
// carries the program's stderr.
func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := osexec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		return nil, fmt.Errorf("%s: %w\n%s", name, err, msg)
	}

	return stdout.Bytes(), nil
}
