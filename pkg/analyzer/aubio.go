package analyzer

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Tempo estimates the tempo of the segment in beats per minute.
func (a *Analyzer) Tempo(ctx context.Context, seg Segment) (float64, error) {
	out, err := a.runAubio(ctx, "tempo", seg)
	if err != nil {
		return 0, err
	}

	bpm, err := parseTempo(out)
	if err != nil {
		return 0, &LoadError{Path: seg.Path, Err: err}
	}

	return bpm, nil
}

// Beats returns beat times in seconds relative to the segment start,
// in ascending order.
func (a *Analyzer) Beats(ctx context.Context, seg Segment) ([]float64, error) {
	out, err := a.runAubio(ctx, "beat", seg)
	if err != nil {
		return nil, err
	}

	times, err := parseTimes(out)
	if err != nil {
		return nil, &LoadError{Path: seg.Path, Err: err}
	}

	return times, nil
}

// Onsets returns note onset times in seconds relative to the segment start,
// in ascending order.
func (a *Analyzer) Onsets(ctx context.Context, seg Segment) ([]float64, error) {
	out, err := a.runAubio(ctx, "onset", seg)
	if err != nil {
		return nil, err
	}

	times, err := parseTimes(out)
	if err != nil {
		return nil, &LoadError{Path: seg.Path, Err: err}
	}

	return times, nil
}

// MFCC returns per-frame mel-frequency cepstral coefficient vectors for the
// segment.
func (a *Analyzer) MFCC(ctx context.Context, seg Segment) ([]MFCCFrame, error) {
	out, err := a.runAubio(ctx, "mfcc", seg)
	if err != nil {
		return nil, err
	}

	frames, err := parseMFCC(out)
	if err != nil {
		return nil, &LoadError{Path: seg.Path, Err: err}
	}

	return frames, nil
}

// runAubio decodes the segment to a scratch WAV and runs an aubio subcommand
// on it.
func (a *Analyzer) runAubio(ctx context.Context, subcommand string, seg Segment) ([]byte, error) {
	wav, err := a.decodeSegment(ctx, seg)
	if err != nil {
		return nil, err
	}
	defer os.Remove(wav)

	out, err := a.run(ctx, a.aubio, subcommand, wav)
	if err != nil {
		return nil, &LoadError{Path: seg.Path, Err: err}
	}

	return out, nil
}

// parseTempo extracts the estimated tempo from aubio tempo output, a line
// like "117.453835 bpm".
func parseTempo(out []byte) (float64, error) {
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		bpm, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			continue
		}

		return bpm, nil
	}

	return 0, fmt.Errorf("no tempo in aubio output %q", strings.TrimSpace(string(out)))
}

// parseTimes parses line-per-event timestamp output from aubio beat and
// aubio onset.
func parseTimes(out []byte) ([]float64, error) {
	times := make([]float64, 0)
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		t, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, fmt.Errorf("parse event time %q: %w", line, err)
		}

		times = append(times, t)
	}

	return times, nil
}

// parseMFCC parses aubio mfcc output: one frame per line, the frame time
// followed by the coefficients.
func parseMFCC(out []byte) ([]MFCCFrame, error) {
	frames := make([]MFCCFrame, 0)
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("mfcc frame %q has no coefficients", strings.TrimSpace(line))
		}

		t, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("parse mfcc frame time %q: %w", fields[0], err)
		}

		coeffs := make([]float64, 0, len(fields)-1)
		for _, f := range fields[1:] {
			c, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("parse mfcc coefficient %q: %w", f, err)
			}

			coeffs = append(coeffs, c)
		}

		frames = append(frames, MFCCFrame{Time: t, Coefficients: coeffs})
	}

	return frames, nil
}
