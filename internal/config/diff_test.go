package config_test

import (
	"testing"

	"github.com/wispkit/wisp/internal/config"
)

func baseConfig() *config.Config {
	return &config.Config{
		LogLevel: config.LogInfo,
		Synthesis: config.SynthesisConfig{
			APIKey:              "k",
			VoiceID:             "v1",
			ModelID:             "eleven_flash_v2_5",
			Stability:           0.5,
			ChunkLengthSchedule: []int{50, 100},
		},
		Segmenter: config.SegmenterConfig{MinChunkSize: 50, MaxChunkSize: 300},
		LipSync:   config.LipSyncConfig{Responsiveness: 0.7},
		Metrics:   config.MetricsConfig{ListenAddr: ":9090"},
	}
}

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	old, new := baseConfig(), baseConfig()
	if d := config.Diff(old, new); d.Any() {
		t.Errorf("expected empty diff, got %+v", d)
	}
}

func TestDiff_LogLevel(t *testing.T) {
	t.Parallel()
	old, new := baseConfig(), baseConfig()
	new.LogLevel = config.LogDebug

	d := config.Diff(old, new)
	if !d.LogLevelChanged || d.NewLogLevel != config.LogDebug {
		t.Errorf("unexpected diff: %+v", d)
	}
	if d.SynthesisChanged || d.LipSyncChanged {
		t.Errorf("unrelated sections flagged: %+v", d)
	}
}

func TestDiff_SynthesisFields(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*config.SynthesisConfig)
	}{
		{"api_key", func(s *config.SynthesisConfig) { s.APIKey = "k2" }},
		{"endpoint", func(s *config.SynthesisConfig) { s.Endpoint = "eu.api.example.com" }},
		{"voice_id", func(s *config.SynthesisConfig) { s.VoiceID = "v2" }},
		{"model_id", func(s *config.SynthesisConfig) { s.ModelID = "eleven_turbo_v2" }},
		{"output_format", func(s *config.SynthesisConfig) { s.OutputFormat = "pcm_24000" }},
		{"stability", func(s *config.SynthesisConfig) { s.Stability = 0.9 }},
		{"similarity_boost", func(s *config.SynthesisConfig) { s.SimilarityBoost = 0.4 }},
		{"style", func(s *config.SynthesisConfig) { s.Style = 0.2 }},
		{"speaker_boost", func(s *config.SynthesisConfig) { s.SpeakerBoost = true }},
		{"chunk_length_schedule", func(s *config.SynthesisConfig) { s.ChunkLengthSchedule = []int{120, 160} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old, new := baseConfig(), baseConfig()
			tt.mutate(&new.Synthesis)
			if d := config.Diff(old, new); !d.SynthesisChanged {
				t.Errorf("expected synthesis change for %s", tt.name)
			}
		})
	}
}

func TestDiff_EqualSchedulesWithDistinctBackingArrays(t *testing.T) {
	t.Parallel()
	// baseConfig allocates a fresh schedule slice per call, so equal content
	// must not register as a change.
	old, new := baseConfig(), baseConfig()
	if d := config.Diff(old, new); d.SynthesisChanged {
		t.Errorf("equal schedules flagged as changed: %+v", d)
	}
}

func TestDiff_SectionIsolation(t *testing.T) {
	t.Parallel()
	old, new := baseConfig(), baseConfig()
	new.Segmenter.MaxChunkSize = 200
	new.LipSync.MaxJawOpen = 0.6
	new.Metrics.ListenAddr = ":9091"

	d := config.Diff(old, new)
	if !d.SegmenterChanged || !d.LipSyncChanged || !d.MetricsChanged {
		t.Errorf("expected all three sections flagged: %+v", d)
	}
	if d.SynthesisChanged || d.LogLevelChanged {
		t.Errorf("unrelated sections flagged: %+v", d)
	}
	if !d.Any() {
		t.Error("Any() should be true")
	}
}
