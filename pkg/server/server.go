// Package server is the composition root. It assembles the analysis engine,
// the media directory, and the toolboxes from configuration and exposes them
// over MCP on stdio or streamable HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hugohow/mcp-audio-analysis/pkg/analyzer"
	"github.com/hugohow/mcp-audio-analysis/pkg/audiotoolbox/analysis"
	"github.com/hugohow/mcp-audio-analysis/pkg/audiotoolbox/defaults"
	"github.com/hugohow/mcp-audio-analysis/pkg/audiotoolbox/fetch"
	"github.com/hugohow/mcp-audio-analysis/pkg/mediadir"
	"github.com/hugohow/mcp-audio-analysis/pkg/tools/mcpserver"
	"github.com/hugohow/mcp-audio-analysis/pkg/tools/toolbox"
)

const (
	// Name is the server name advertised during the MCP handshake.
	Name = "mcp-audio-analysis"

	// Version is the server version advertised during the MCP handshake.
	Version = "0.3.0"
)

// Server wires the audio toolboxes to the MCP protocol layer.
type Server struct {
	cfg   Config
	dir   mediadir.Dir
	tools *toolbox.ToolBox
	mcp   *mcpserver.MCPServer
	log   *slog.Logger
}

// New assembles a Server from cfg. It validates the config, prepares the
// media directory, builds the analysis engine, and registers the tools and
// the usage prompt on the MCP server.
func New(cfg Config, log *slog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if log == nil {
		log = slog.Default()
	}

	dir := mediadir.Default()
	if cfg.MediaDir != "" {
		dir = mediadir.New(cfg.MediaDir)
	}

	if err := mediadir.EnsureStructure(dir); err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	engine := analyzer.New(analyzer.Options{
		FFmpeg:         cfg.Analysis.FFmpeg,
		FFprobe:        cfg.Analysis.FFprobe,
		Aubio:          cfg.Analysis.Aubio,
		SonicAnnotator: cfg.Analysis.SonicAnnotator,
		SampleRate:     cfg.Analysis.SampleRate,
		ScratchDir:     dir.SegmentsDir(),
	})

	tools := defaults.New(
		analysis.New(engine).Tools(),
		fetch.New(dir).Tools(),
	).Filter(cfg.Tools)

	m := mcpserver.New(Name, Version)
	m.Register(tools.Tools()...)
	m.RegisterPrompt(usagePrompt())

	log.Info("server assembled", "media_dir", dir.Root(), "tools", len(tools.Tools()))

	return &Server{cfg: cfg, dir: dir, tools: tools, mcp: m, log: log}, nil
}

// MediaDir returns the media directory the server writes into.
func (s *Server) MediaDir() mediadir.Dir { return s.dir }

// Serve blocks serving MCP until ctx is cancelled. With http_addr configured
// it serves the streamable HTTP transport; otherwise it speaks the protocol
// on stdin and stdout, which is why nothing else may write to stdout.
func (s *Server) Serve(ctx context.Context) error {
	if s.cfg.HTTPAddr != "" {
		s.log.Info("serving MCP over HTTP", "addr", s.cfg.HTTPAddr)

		return s.mcp.ServeHTTP(ctx, s.cfg.HTTPAddr)
	}

	s.log.Info("serving MCP on stdio")

	return s.mcp.Serve(ctx, os.Stdin, os.Stdout)
}
