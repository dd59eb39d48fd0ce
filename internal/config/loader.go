package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wispkit/wisp/pkg/audio"
)

// apiKeyEnv is consulted when synthesis.api_key is not set in the file.
const apiKeyEnv = "ELEVENLABS_API_KEY"

// Load reads the YAML configuration file at path and returns a validated
// [Config]. It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if cfg.Synthesis.APIKey == "" {
		cfg.Synthesis.APIKey = os.Getenv(apiKeyEnv)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.LogLevel != "" && !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}

	// Synthesis
	s := cfg.Synthesis
	if s.VoiceID == "" {
		errs = append(errs, errors.New("synthesis.voice_id is required"))
	}
	if s.APIKey == "" {
		slog.Warn("synthesis.api_key is empty and " + apiKeyEnv + " is unset; connections will be rejected by the service")
	}
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"synthesis.stability", s.Stability},
		{"synthesis.similarity_boost", s.SimilarityBoost},
		{"synthesis.style", s.Style},
	} {
		if f.value < 0 || f.value > 1 {
			errs = append(errs, fmt.Errorf("%s %.2f is out of range [0, 1]", f.name, f.value))
		}
	}
	if s.OutputFormat != "" {
		if _, err := audio.ParseFormat(s.OutputFormat); err != nil {
			errs = append(errs, fmt.Errorf("synthesis.output_format: %w", err))
		}
	}
	for i, n := range s.ChunkLengthSchedule {
		if n <= 0 {
			errs = append(errs, fmt.Errorf("synthesis.chunk_length_schedule[%d] must be positive, got %d", i, n))
		}
	}

	// Segmenter
	if cfg.Segmenter.MinChunkSize < 0 {
		errs = append(errs, fmt.Errorf("segmenter.min_chunk_size must not be negative, got %d", cfg.Segmenter.MinChunkSize))
	}
	if cfg.Segmenter.MaxChunkSize < 0 {
		errs = append(errs, fmt.Errorf("segmenter.max_chunk_size must not be negative, got %d", cfg.Segmenter.MaxChunkSize))
	}
	if cfg.Segmenter.MinChunkSize > 0 && cfg.Segmenter.MaxChunkSize > 0 &&
		cfg.Segmenter.MinChunkSize > cfg.Segmenter.MaxChunkSize {
		errs = append(errs, fmt.Errorf("segmenter.min_chunk_size %d exceeds max_chunk_size %d",
			cfg.Segmenter.MinChunkSize, cfg.Segmenter.MaxChunkSize))
	}

	// LipSync
	l := cfg.LipSync
	if l.WindowSize < 0 {
		errs = append(errs, fmt.Errorf("lipsync.window_size must not be negative, got %d", l.WindowSize))
	}
	if l.MinVolume < 0 || l.MinVolume > 1 {
		errs = append(errs, fmt.Errorf("lipsync.min_volume %.3f is out of range [0, 1]", l.MinVolume))
	}
	if l.Responsiveness < 0 || l.Responsiveness > 1 {
		errs = append(errs, fmt.Errorf("lipsync.responsiveness %.3f is out of range [0, 1]", l.Responsiveness))
	}
	if l.MaxJawOpen < 0 || l.MaxJawOpen > 1 {
		errs = append(errs, fmt.Errorf("lipsync.max_jaw_open %.3f is out of range [0, 1]", l.MaxJawOpen))
	}
	if l.SmoothingFraction < 0 || l.SmoothingFraction >= 1 {
		errs = append(errs, fmt.Errorf("lipsync.smoothing_fraction %.3f is out of range [0, 1)", l.SmoothingFraction))
	}

	return errors.Join(errs...)
}
