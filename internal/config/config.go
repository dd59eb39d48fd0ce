// Package config provides the configuration schema and loader for the wisp
// voice pipeline.
package config

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for wisp.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	// LogLevel controls verbosity. Defaults to info.
	LogLevel LogLevel `yaml:"log_level"`

	Synthesis SynthesisConfig `yaml:"synthesis"`
	Segmenter SegmenterConfig `yaml:"segmenter"`
	LipSync   LipSyncConfig   `yaml:"lipsync"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// SynthesisConfig holds the remote voice service connection and voice
// parameters.
type SynthesisConfig struct {
	// APIKey authenticates against the synthesis service. When empty, the
	// ELEVENLABS_API_KEY environment variable is used instead.
	APIKey string `yaml:"api_key"`

	// Endpoint overrides the service host. Leave empty for the default.
	Endpoint string `yaml:"endpoint"`

	// VoiceID is the provider-specific voice identifier. Required.
	VoiceID string `yaml:"voice_id"`

	// ModelID selects the synthesis model (e.g., "eleven_flash_v2_5").
	ModelID string `yaml:"model_id"`

	// OutputFormat names the audio encoding and rate (e.g., "pcm_16000",
	// "opus_48000").
	OutputFormat string `yaml:"output_format"`

	// Stability in [0,1]. Higher values give a steadier delivery.
	Stability float64 `yaml:"stability"`

	// SimilarityBoost in [0,1]. Higher values track the reference voice closer.
	SimilarityBoost float64 `yaml:"similarity_boost"`

	// Style in [0,1]. Style exaggeration; 0 disables.
	Style float64 `yaml:"style"`

	// SpeakerBoost enables the provider's speaker-boost flag.
	SpeakerBoost bool `yaml:"speaker_boost"`

	// ChunkLengthSchedule tunes how much buffered text the service waits for
	// before generating, in characters. Leave empty for the default.
	ChunkLengthSchedule []int `yaml:"chunk_length_schedule"`
}

// SegmenterConfig bounds the text chunks submitted per synthesis request.
type SegmenterConfig struct {
	// MinChunkSize is the smallest chunk emitted at a natural boundary, in
	// bytes. 0 means the built-in default.
	MinChunkSize int `yaml:"min_chunk_size"`

	// MaxChunkSize forces a chunk break even without a natural boundary.
	// 0 means the built-in default.
	MaxChunkSize int `yaml:"max_chunk_size"`
}

// LipSyncConfig tunes the audio-driven facial animation processor.
type LipSyncConfig struct {
	// WindowSize is the analysis window in samples. 0 means the default (256).
	WindowSize int `yaml:"window_size"`

	// MinVolume is the RMS threshold below which a window counts as silence.
	MinVolume float64 `yaml:"min_volume"`

	// Responsiveness is the per-frame smoothing factor in (0,1].
	Responsiveness float64 `yaml:"responsiveness"`

	// MaxJawOpen caps the jaw-opening control after volume scaling.
	MaxJawOpen float64 `yaml:"max_jaw_open"`

	// SmoothingFraction is the share of each timeline interval used for
	// crossfading, in [0,1).
	SmoothingFraction float64 `yaml:"smoothing_fraction"`
}

// MetricsConfig controls the Prometheus scrape endpoint. When ListenAddr is
// empty, no endpoint is served.
type MetricsConfig struct {
	// ListenAddr is the TCP address for /metrics (e.g., ":9090").
	ListenAddr string `yaml:"listen_addr"`
}

// DefaultWindowSize is the analysis window used when LipSyncConfig.WindowSize
// is zero.
const DefaultWindowSize = 256

// WindowSizeOrDefault returns the configured analysis window, defaulted.
func (c LipSyncConfig) WindowSizeOrDefault() int {
	if c.WindowSize > 0 {
		return c.WindowSize
	}
	return DefaultWindowSize
}
