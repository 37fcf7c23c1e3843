package analyzer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
}

// fakeRunner records invocations and returns canned stdout per program name.
type fakeRunner struct {
	calls   []call
	outputs map[string]string
	errs    map[string]error
	onRun   func(name string, args []string)
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, call{name: name, args: args})
	if f.onRun != nil {
		f.onRun(name, args)
	}
	if err := f.errs[name]; err != nil {
		return nil, err
	}

	return []byte(f.outputs[name]), nil
}

func (f *fakeRunner) argsFor(name string) []string {
	for _, c := range f.calls {
		if c.name == name {
			return c.args
		}
	}

	return nil
}

func flagValue(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}

	return ""
}

func flagIndex(args []string, flag string) int {
	for i, a := range args {
		if a == flag {
			return i
		}
	}

	return -1
}

func newTestAnalyzer(t *testing.T, f *fakeRunner) *Analyzer {
	t.Helper()

	a := New(Options{ScratchDir: t.TempDir()})
	a.run = f.run

	return a
}

// audioFile creates a file standing in for an audio track. Content is never
// decoded in tests; only existence matters.
func audioFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "track.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF"), 0o644))

	return path
}

func TestDurationVariant(t *testing.T) {
	assert.False(t, ToEndOfFile().Bounded())

	d := Seconds(12.5)
	assert.True(t, d.Bounded())
	assert.Equal(t, 12.5, d.Value())
}

func TestDuration(t *testing.T) {
	f := &fakeRunner{outputs: map[string]string{"ffprobe": "182.5\n"}}
	a := newTestAnalyzer(t, f)
	path := audioFile(t)

	d, err := a.Duration(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 182.5, d)

	args := f.argsFor("ffprobe")
	require.NotNil(t, args)
	assert.Equal(t, "format=duration", flagValue(args, "-show_entries"))
	assert.Equal(t, path, args[len(args)-1])
}

func TestDurationMissingFile(t *testing.T) {
	f := &fakeRunner{}
	a := newTestAnalyzer(t, f)

	_, err := a.Duration(context.Background(), "/does/not/exist.wav")
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "/does/not/exist.wav", loadErr.Path)
	assert.Empty(t, f.calls, "missing files should not reach ffprobe")
}

func TestDurationUnparsableOutput(t *testing.T) {
	f := &fakeRunner{outputs: map[string]string{"ffprobe": "N/A\n"}}
	a := newTestAnalyzer(t, f)

	_, err := a.Duration(context.Background(), audioFile(t))
	require.Error(t, err)

	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestTempo(t *testing.T) {
	f := &fakeRunner{outputs: map[string]string{"aubio": "117.453835 bpm\n"}}
	a := newTestAnalyzer(t, f)

	bpm, err := a.Tempo(context.Background(), Segment{Path: audioFile(t)})
	require.NoError(t, err)
	assert.InDelta(t, 117.453835, bpm, 1e-9)

	require.Len(t, f.calls, 2)
	assert.Equal(t, "ffmpeg", f.calls[0].name)
	assert.Equal(t, "aubio", f.calls[1].name)
	assert.Equal(t, "tempo", f.calls[1].args[0])
}

func TestTempoNoOutput(t *testing.T) {
	f := &fakeRunner{outputs: map[string]string{"aubio": "\n"}}
	a := newTestAnalyzer(t, f)

	_, err := a.Tempo(context.Background(), Segment{Path: audioFile(t)})
	require.Error(t, err)

	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestBeats(t *testing.T) {
	f := &fakeRunner{outputs: map[string]string{"aubio": "0.290249\n0.870748\n1.428571\n"}}
	a := newTestAnalyzer(t, f)

	beats, err := a.Beats(context.Background(), Segment{Path: audioFile(t)})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.290249, 0.870748, 1.428571}, beats)
	assert.Equal(t, "beat", f.argsFor("aubio")[0])
}

func TestBeatsEmptyOutput(t *testing.T) {
	f := &fakeRunner{outputs: map[string]string{"aubio": ""}}
	a := newTestAnalyzer(t, f)

	beats, err := a.Beats(context.Background(), Segment{Path: audioFile(t)})
	require.NoError(t, err)
	assert.Empty(t, beats)
}

func TestOnsets(t *testing.T) {
	f := &fakeRunner{outputs: map[string]string{"aubio": "0.058049\n1.033469\n"}}
	a := newTestAnalyzer(t, f)

	onsets, err := a.Onsets(context.Background(), Segment{Path: audioFile(t)})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.058049, 1.033469}, onsets)
	assert.Equal(t, "onset", f.argsFor("aubio")[0])
}

func TestMFCC(t *testing.T) {
	f := &fakeRunner{outputs: map[string]string{
		"aubio": "0.000000 1.5 -2.25 3.0\n0.011610 4.0 5.5 -6.75\n",
	}}
	a := newTestAnalyzer(t, f)

	frames, err := a.MFCC(context.Background(), Segment{Path: audioFile(t)})
	require.NoError(t, err)
	require.Len(t, frames, 2)
	assert.Equal(t, 0.01161, frames[1].Time)
	assert.Equal(t, []float64{1.5, -2.25, 3.0}, frames[0].Coefficients)
	assert.Equal(t, "mfcc", f.argsFor("aubio")[0])
}

func TestDecodeSegmentArgs(t *testing.T) {
	f := &fakeRunner{outputs: map[string]string{"aubio": "120 bpm\n"}}
	a := newTestAnalyzer(t, f)
	path := audioFile(t)

	_, err := a.Tempo(context.Background(), Segment{
		Path:     path,
		Offset:   30,
		Duration: Seconds(15),
	})
	require.NoError(t, err)

	args := f.argsFor("ffmpeg")
	require.NotNil(t, args)
	assert.Equal(t, "30", flagValue(args, "-ss"))
	assert.Equal(t, "15", flagValue(args, "-t"))
	assert.Equal(t, path, flagValue(args, "-i"))
	assert.Equal(t, "1", flagValue(args, "-ac"))
	assert.Equal(t, "22050", flagValue(args, "-ar"))
	assert.Less(t, flagIndex(args, "-ss"), flagIndex(args, "-i"), "seek must precede the input for input seeking")

	wav := args[len(args)-1]
	assert.True(t, strings.HasSuffix(wav, ".wav"))
	assert.Equal(t, a.scratchDir, filepath.Dir(wav))
}

func TestDecodeSegmentDefaults(t *testing.T) {
	f := &fakeRunner{outputs: map[string]string{"aubio": "120 bpm\n"}}
	a := newTestAnalyzer(t, f)

	_, err := a.Tempo(context.Background(), Segment{Path: audioFile(t)})
	require.NoError(t, err)

	args := f.argsFor("ffmpeg")
	assert.Equal(t, -1, flagIndex(args, "-ss"))
	assert.Equal(t, -1, flagIndex(args, "-t"))
}

func TestDecodeFailure(t *testing.T) {
	f := &fakeRunner{errs: map[string]error{"ffmpeg": errors.New("corrupt stream")}}
	a := newTestAnalyzer(t, f)
	path := audioFile(t)

	_, err := a.Beats(context.Background(), Segment{Path: path})
	require.Error(t, err)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, path, loadErr.Path)
	assert.ErrorContains(t, err, "corrupt stream")
}

func TestChroma(t *testing.T) {
	csv := `"/tmp/whatever.wav",0.000000000,0.1,0.2,0.3,0.4,0.5,0.6,0.7,0.8,0.9,1.0,1.1,1.2
1.000000000,1,2,3,4,5,6,7,8,9,10,11,12
`
	f := &fakeRunner{outputs: map[string]string{"sonic-annotator": csv}}

	var transformBody string
	f.onRun = func(name string, args []string) {
		if name != "sonic-annotator" {
			return
		}
		if path := flagValue(args, "-t"); path != "" {
			b, err := os.ReadFile(path)
			if err == nil {
				transformBody = string(b)
			}
		}
	}

	a := newTestAnalyzer(t, f)

	frames, err := a.Chroma(context.Background(), Segment{Path: audioFile(t)}, ChromaParams{})
	require.NoError(t, err)
	require.Len(t, frames, 2)

	assert.Equal(t, 0.0, frames[0].Time)
	assert.Equal(t, 0.1, frames[0].Energy[0])
	assert.Equal(t, 1.2, frames[0].Energy[11])
	assert.Equal(t, 1.0, frames[1].Time)
	assert.Equal(t, 1.0, frames[1].Energy[0])

	// Default pitch range: C1 for seven octaves.
	assert.Contains(t, transformBody, `"minpitch"`)
	assert.Contains(t, transformBody, `"24"^^xsd:float`)
	assert.Contains(t, transformBody, `"107"^^xsd:float`)
}

func TestChromaRotatesToC(t *testing.T) {
	csv := "0.0,1,0,0,0,0,0,0,0,0,0,0,0\n"
	f := &fakeRunner{outputs: map[string]string{"sonic-annotator": csv}}
	a := newTestAnalyzer(t, f)

	// A4: bin 0 of the raw output is pitch class A.
	frames, err := a.Chroma(context.Background(), Segment{Path: audioFile(t)}, ChromaParams{FMin: 440})
	require.NoError(t, err)
	require.Len(t, frames, 1)

	assert.Equal(t, 1.0, frames[0].Energy[9])
	assert.Equal(t, 0.0, frames[0].Energy[0])
}

func TestChromaBadRow(t *testing.T) {
	f := &fakeRunner{outputs: map[string]string{"sonic-annotator": "0.0,1,2\n"}}
	a := newTestAnalyzer(t, f)

	_, err := a.Chroma(context.Background(), Segment{Path: audioFile(t)}, ChromaParams{})
	require.Error(t, err)

	var loadErr *LoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestMidiPitch(t *testing.T) {
	assert.Equal(t, 69, midiPitch(440))
	assert.Equal(t, 24, midiPitch(defaultFMin))
	assert.Equal(t, 60, midiPitch(261.6255653005986))
}
