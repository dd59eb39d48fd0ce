package config_test

import (
	"testing"

	"github.com/wispkit/wisp/internal/config"
)

func TestLogLevel_IsValid(t *testing.T) {
	t.Parallel()
	for _, l := range []config.LogLevel{config.LogDebug, config.LogInfo, config.LogWarn, config.LogError} {
		if !l.IsValid() {
			t.Errorf("%q should be valid", l)
		}
	}
	for _, l := range []config.LogLevel{"", "verbose", "INFO"} {
		if l.IsValid() {
			t.Errorf("%q should be invalid", l)
		}
	}
}

func TestLipSyncConfig_WindowSizeOrDefault(t *testing.T) {
	t.Parallel()
	var c config.LipSyncConfig
	if got := c.WindowSizeOrDefault(); got != config.DefaultWindowSize {
		t.Errorf("default window = %d, want %d", got, config.DefaultWindowSize)
	}
	c.WindowSize = 512
	if got := c.WindowSizeOrDefault(); got != 512 {
		t.Errorf("window = %d, want 512", got)
	}
}
