// Package fetch provides tools that bring remote audio onto local disk:
// direct HTTP download of .mp3/.wav files and audio extraction from YouTube
// videos. Downloads land in the media directory and persist; nothing cleans
// them up.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/hugohow/mcp-audio-analysis/pkg/mediadir"
	"github.com/hugohow/mcp-audio-analysis/pkg/tools/toolbox"
	"github.com/kkdai/youtube/v2"
)

// ValidationError reports a URL that failed the precondition checks. It is
// returned before any network activity happens.
type ValidationError struct {
	URL string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("url %s must end in .mp3 or .wav", e.URL)
}

// FetchError reports a non-success HTTP response for a download.
type FetchError struct {
	URL    string
	Status int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
}

// UpstreamError reports a failure resolving or streaming from the video
// platform.
type UpstreamError struct {
	URL string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("youtube %s: %v", e.URL, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// videoResolver resolves a video URL and opens one of its streams. Satisfied
// by *youtube.Client.
type videoResolver interface {
	GetVideoContext(ctx context.Context, url string) (*youtube.Video, error)
	GetStreamContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (io.ReadCloser, int64, error)
}

// Fetch provides download tools that write into the media directory.
type Fetch struct {
	dir    mediadir.Dir
	client *http.Client
	videos videoResolver
}

// New creates a Fetch that writes downloads into dir. Requests carry no
// client-side timeout; cancellation comes from the caller's context.
func New(dir mediadir.Dir) *Fetch {
	return &Fetch{
		dir:    dir,
		client: &http.Client{},
		videos: &youtube.Client{},
	}
}

// Tools returns a ToolBox containing the download tools.
func (f *Fetch) Tools() *toolbox.ToolBox {
	tb := toolbox.New()
	tb.Register(f.downloadURLTool(), f.downloadYouTubeTool())

	return tb
}

// --- download_from_url ---

type downloadURLInput struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

func (f *Fetch) downloadURLTool() toolbox.Tool {
	return toolbox.Tool{
		Name:        "download_from_url",
		Description: "Download an audio file from a URL ending in .mp3 or .wav and return the local path to it. Every download gets a fresh file name unless filename fixes the destination.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"url":{"type":"string","description":"URL of the audio file; must end in .mp3 or .wav"},"filename":{"type":"string","description":"Optional fixed name for the file inside the downloads directory; reusing a name overwrites the previous download"}},"required":["url"]}`),
		Handler:     f.handleDownloadURL,
	}
}

func (f *Fetch) handleDownloadURL(ctx context.Context, input json.RawMessage) (string, error) {
	var in downloadURLInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("download_from_url: invalid input: %w", err)
	}

	if in.URL == "" {
		return "", fmt.Errorf("download_from_url: url is required")
	}

	ext, ok := audioExt(in.URL)
	if !ok {
		return "", &ValidationError{URL: in.URL}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, in.URL, nil)
	if err != nil {
		return "", fmt.Errorf("download_from_url: create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download_from_url: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on read

	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{URL: in.URL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("download_from_url: read body: %w", err)
	}

	dest := f.dir.DownloadPath(ext)
	if in.Filename != "" {
		dest = f.dir.NamedDownloadPath(in.Filename)
	}

	if err := os.WriteFile(dest, body, 0o644); err != nil {
		return "", fmt.Errorf("download_from_url: save: %w", err)
	}

	return dest, nil
}

// audioExt returns the audio extension the URL ends in. The check is an
// exact suffix match on the raw URL string; a query string after the
// extension does not count.
func audioExt(url string) (string, bool) {
	switch {
	case strings.HasSuffix(url, ".mp3"):
		return ".mp3", true
	case strings.HasSuffix(url, ".wav"):
		return ".wav", true
	default:
		return "", false
	}
}

// --- download_from_youtube ---

type downloadYouTubeInput struct {
	VideoURL string `json:"video_url"`
}

func (f *Fetch) downloadYouTubeTool() toolbox.Tool {
	return toolbox.Tool{
		Name:        "download_from_youtube",
		Description: "Download the audio track of a YouTube video and return the local path to it. The file is named after the video ID, so downloading the same video again replaces the file.",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"video_url":{"type":"string","description":"URL of the YouTube video"}},"required":["video_url"]}`),
		Handler:     f.handleDownloadYouTube,
	}
}

func (f *Fetch) handleDownloadYouTube(ctx context.Context, input json.RawMessage) (string, error) {
	var in downloadYouTubeInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("download_from_youtube: invalid input: %w", err)
	}

	if in.VideoURL == "" {
		return "", fmt.Errorf("download_from_youtube: video_url is required")
	}

	video, err := f.videos.GetVideoContext(ctx, in.VideoURL)
	if err != nil {
		return "", &UpstreamError{URL: in.VideoURL, Err: err}
	}

	format := bestAudioFormat(video.Formats)
	if format == nil {
		return "", &UpstreamError{URL: in.VideoURL, Err: errors.New("no audio-only stream available")}
	}

	stream, _, err := f.videos.GetStreamContext(ctx, video, format)
	if err != nil {
		return "", &UpstreamError{URL: in.VideoURL, Err: err}
	}
	defer stream.Close() //nolint:errcheck // best-effort close on read

	dest := f.dir.NamedDownloadPath(video.ID + formatExt(format))

	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("download_from_youtube: save: %w", err)
	}

	if _, err := io.Copy(out, stream); err != nil {
		_ = out.Close()

		return "", &UpstreamError{URL: in.VideoURL, Err: err}
	}

	if err := out.Close(); err != nil {
		return "", fmt.Errorf("download_from_youtube: save: %w", err)
	}

	return dest, nil
}

// bestAudioFormat picks the highest-bitrate audio-only stream, or nil when
// the video has none.
func bestAudioFormat(formats youtube.FormatList) *youtube.Format {
	audio := formats.WithAudioChannels()

	var best *youtube.Format
	for i := range audio {
		f := &audio[i]
		if !strings.HasPrefix(f.MimeType, "audio/") {
			continue
		}

		if best == nil || f.Bitrate > best.Bitrate {
			best = f
		}
	}

	return best
}

// formatExt maps the stream MIME type to a file extension, defaulting to the
// MP4 container.
func formatExt(f *youtube.Format) string {
	if strings.Contains(f.MimeType, "webm") {
		return ".webm"
	}

	return ".mp4"
}
