package config

import "slices"

// ConfigDiff describes what changed between two configs, grouped by how the
// change must be applied. Synthesis changes need a new session (the session's
// parameters are immutable once connected); the rest can be hot-applied.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// SynthesisChanged means voice or connection parameters differ; running
	// sessions keep their old settings until recreated.
	SynthesisChanged bool

	SegmenterChanged bool
	LipSyncChanged   bool
	MetricsChanged   bool
}

// Any reports whether the diff records any change at all.
func (d ConfigDiff) Any() bool {
	return d.LogLevelChanged || d.SynthesisChanged || d.SegmenterChanged ||
		d.LipSyncChanged || d.MetricsChanged
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.LogLevel != new.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.LogLevel
	}
	d.SynthesisChanged = !synthesisEqual(old.Synthesis, new.Synthesis)
	d.SegmenterChanged = old.Segmenter != new.Segmenter
	d.LipSyncChanged = old.LipSync != new.LipSync
	d.MetricsChanged = old.Metrics != new.Metrics

	return d
}

// synthesisEqual compares synthesis configs field by field; the slice field
// keeps SynthesisConfig from being directly comparable.
func synthesisEqual(a, b SynthesisConfig) bool {
	return a.APIKey == b.APIKey &&
		a.Endpoint == b.Endpoint &&
		a.VoiceID == b.VoiceID &&
		a.ModelID == b.ModelID &&
		a.OutputFormat == b.OutputFormat &&
		a.Stability == b.Stability &&
		a.SimilarityBoost == b.SimilarityBoost &&
		a.Style == b.Style &&
		a.SpeakerBoost == b.SpeakerBoost &&
		slices.Equal(a.ChunkLengthSchedule, b.ChunkLengthSchedule)
}
