package server

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level server configuration.
type Config struct {
	MediaDir string         `yaml:"media_dir"`
	HTTPAddr string         `yaml:"http_addr"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Tools    []string       `yaml:"tools"`
}

// AnalysisConfig holds the external analysis program settings. Empty program
// fields resolve from PATH under the conventional names.
type AnalysisConfig struct {
	FFmpeg         string `yaml:"ffmpeg"`
	FFprobe        string `yaml:"ffprobe"`
	Aubio          string `yaml:"aubio"`
	SonicAnnotator string `yaml:"sonic_annotator"`
	SampleRate     int    `yaml:"sample_rate"`
}

// knownTools are the built-in tool names accepted in the tools allowlist.
var knownTools = map[string]struct{}{
	"get_tempo":             {},
	"get_beats":             {},
	"get_chroma":            {},
	"get_duration":          {},
	"get_onsets":            {},
	"get_mfcc":              {},
	"download_from_url":     {},
	"download_from_youtube": {},
}

// LoadConfig reads a YAML file and returns a Config.
// Environment variables referenced as ${VAR} or $VAR in the YAML are expanded
// before parsing, so machine-specific paths can be kept out of the file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("server: load config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("server: parse config: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if c.Analysis.SampleRate < 0 {
		return fmt.Errorf("server: config: sample_rate must not be negative")
	}

	for _, name := range c.Tools {
		if name == "" {
			return fmt.Errorf("server: config: empty name in tools list")
		}
		if _, ok := knownTools[name]; !ok {
			return fmt.Errorf("server: config: unknown tool %q in tools list", name)
		}
	}

	return nil
}
