package analyzer

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	// defaultFMin is C1, the lowest analysis frequency when none is given.
	defaultFMin = 32.70319566257483

	defaultNOctaves = 7
)

// chromagramTransform is the sonic-annotator transform for the Queen Mary
// chromagram plugin. The pitch range is filled in per request.
const chromagramTransform = `@prefix xsd:      <http://www.w3.org/2001/XMLSchema#> .
@prefix vamp:     <http://purl.org/ontology/vamp/> .
@prefix :         <#> .

:transform a vamp:Transform ;
    vamp:plugin <http://vamp-plugins.org/rdf/plugins/qm-vamp-plugins#qm-chromagram> ;
    vamp:output <http://vamp-plugins.org/rdf/plugins/qm-vamp-plugins#qm-chromagram_output_chromagram> ;
    vamp:parameter_binding [
        vamp:parameter [ vamp:identifier "minpitch" ] ;
        vamp:value "%d"^^xsd:float ;
    ] ;
    vamp:parameter_binding [
        vamp:parameter [ vamp:identifier "maxpitch" ] ;
        vamp:value "%d"^^xsd:float ;
    ] .
`

// Chroma computes a chromagram of the segment with the Queen Mary chromagram
// plugin run through sonic-annotator. Frames are rotated so Energy index 0
// is pitch class C regardless of the requested minimum frequency.
func (a *Analyzer) Chroma(ctx context.Context, seg Segment, params ChromaParams) ([]ChromaFrame, error) {
	fmin := params.FMin
	if fmin <= 0 {
		fmin = defaultFMin
	}

	octaves := params.NOctaves
	if octaves <= 0 {
		octaves = defaultNOctaves
	}

	minPitch := midiPitch(fmin)
	maxPitch := minPitch + octaves*12 - 1

	wav, err := a.decodeSegment(ctx, seg)
	if err != nil {
		return nil, err
	}
	defer os.Remove(wav)

	transform, err := a.writeTransform(minPitch, maxPitch)
	if err != nil {
		return nil, &LoadError{Path: seg.Path, Err: err}
	}
	defer os.Remove(transform)

	out, err := a.run(ctx, a.sonic, "-t", transform, "-w", "csv", "--csv-stdout", wav)
	if err != nil {
		return nil, &LoadError{Path: seg.Path, Err: err}
	}

	frames, err := parseChromaCSV(out)
	if err != nil {
		return nil, &LoadError{Path: seg.Path, Err: err}
	}

	rotateToC(frames, minPitch)

	return frames, nil
}

// midiPitch returns the MIDI note number closest to the frequency in Hz.
func midiPitch(hz float64) int {
	return int(math.Round(69 + 12*math.Log2(hz/440)))
}

// writeTransform writes the chromagram transform for the given pitch range
// to a scratch file and returns its path.
func (a *Analyzer) writeTransform(minPitch, maxPitch int) (string, error) {
	path := filepath.Join(a.scratchDir, "chromagram-"+uuid.NewString()+".n3")
	body := fmt.Sprintf(chromagramTransform, minPitch, maxPitch)

	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write transform: %w", err)
	}

	return path, nil
}

// parseChromaCSV parses sonic-annotator CSV output: one frame per row, an
// optional quoted filename column, the frame time, then twelve bin values.
func parseChromaCSV(out []byte) ([]ChromaFrame, error) {
	frames := make([]ChromaFrame, 0)
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		fields := strings.Split(line, ",")
		if strings.HasPrefix(fields[0], `"`) {
			fields = fields[1:]
		}
		if len(fields) < 13 {
			return nil, fmt.Errorf("chromagram row %q has %d columns, want 13", line, len(fields))
		}

		t, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("parse frame time %q: %w", fields[0], err)
		}

		frame := ChromaFrame{Time: t}
		for i := 0; i < 12; i++ {
			v, err := strconv.ParseFloat(fields[1+i], 64)
			if err != nil {
				return nil, fmt.Errorf("parse bin value %q: %w", fields[1+i], err)
			}

			frame.Energy[i] = v
		}

		frames = append(frames, frame)
	}

	return frames, nil
}

// rotateToC rotates each frame's bins so index 0 is pitch class C. The
// plugin emits bin 0 at the pitch class of the minimum pitch.
func rotateToC(frames []ChromaFrame, minPitch int) {
	base := minPitch % 12
	if base == 0 {
		return
	}

	for i := range frames {
		var rotated [12]float64
		for pc := 0; pc < 12; pc++ {
			rotated[pc] = frames[i].Energy[(pc-base+12)%12]
		}

		frames[i].Energy = rotated
	}
}
