package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hugohow/mcp-audio-analysis/pkg/server"
	"github.com/joho/godotenv"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: mcp-audio-analysis [flags]\n\nServe audio analysis tools over MCP. Without flags the server speaks the protocol on stdin/stdout.\n\nFlags:\n")
		flag.PrintDefaults()
	}

	configPath := flag.String("config", "", "path to configuration file (default: mcp-audio-analysis.yaml if present)")
	envFile := flag.String("env", ".env", "path to .env file (ignored if missing)")
	httpAddr := flag.String("http", "", "serve MCP over HTTP on this address instead of stdio (overrides config)")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if err := loadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if err := run(*configPath, *httpAddr, *verbose); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, httpAddr string, verbose bool) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}

	s, err := server.New(cfg, newLogger(verbose))
	if err != nil {
		return err
	}

	return s.Serve(ctx)
}

// newLogger builds the process logger. Logs go to stderr: stdout carries the
// protocol stream when serving stdio.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// defaultConfigFile is picked up from the working directory when no -config
// flag is given.
const defaultConfigFile = "mcp-audio-analysis.yaml"

// loadConfig resolves and loads the configuration. Priority: explicit flag,
// then ./mcp-audio-analysis.yaml, then built-in defaults.
func loadConfig(explicit string) (server.Config, error) {
	if explicit != "" {
		return server.LoadConfig(explicit)
	}

	if _, err := os.Stat(defaultConfigFile); err == nil {
		return server.LoadConfig(defaultConfigFile)
	}

	return server.Config{}, nil
}

// loadDotEnv loads environment variables from path. Missing files are ignored.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	return err
}
