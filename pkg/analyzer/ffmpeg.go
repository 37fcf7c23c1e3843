package analyzer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Duration returns the container duration of the file in seconds, probed
// with ffprobe. The file itself is not decoded.
func (a *Analyzer) Duration(ctx context.Context, path string) (float64, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, &LoadError{Path: path, Err: err}
	}

	out, err := a.run(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, &LoadError{Path: path, Err: err}
	}

	raw := strings.TrimSpace(string(out))
	d, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &LoadError{Path: path, Err: fmt.Errorf("parse probed duration %q: %w", raw, err)}
	}

	return d, nil
}

// decodeSegment decodes a segment to a mono 16-bit WAV at the analysis
// sample rate and returns the scratch file path. The caller removes the
// file when done with it.
func (a *Analyzer) decodeSegment(ctx context.Context, seg Segment) (string, error) {
	if _, err := os.Stat(seg.Path); err != nil {
		return "", &LoadError{Path: seg.Path, Err: err}
	}

	out := filepath.Join(a.scratchDir, "segment-"+uuid.NewString()+".wav")

	args := []string{"-y", "-loglevel", "error"}
	if seg.Offset > 0 {
		args = append(args, "-ss", formatSeconds(seg.Offset))
	}
	if seg.Duration.Bounded() {
		args = append(args, "-t", formatSeconds(seg.Duration.Value()))
	}
	args = append(args,
		"-i", seg.Path,
		"-ac", "1",
		"-ar", strconv.Itoa(a.sampleRate),
		"-acodec", "pcm_s16le",
		out,
	)

	if _, err := a.run(ctx, a.ffmpeg, args...); err != nil {
		return "", &LoadError{Path: seg.Path, Err: err}
	}

	return out, nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
