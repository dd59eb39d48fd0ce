// Command wisp streams text through the synthesis pipeline and emits audio
// plus per-frame facial-animation weights for a downstream renderer.
//
// Text is read from the -text flag or, when absent, line by line from stdin.
// Decoded audio goes to the -out file (when set); facial-weight frames are
// written to stdout as JSON lines.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wispkit/wisp/internal/config"
	"github.com/wispkit/wisp/internal/health"
	"github.com/wispkit/wisp/internal/observe"
	"github.com/wispkit/wisp/internal/turn"
	"github.com/wispkit/wisp/pkg/lipsync"
	"github.com/wispkit/wisp/pkg/synth"
	"github.com/wispkit/wisp/pkg/synth/elevenlabs"
	"github.com/wispkit/wisp/pkg/textseg"
)

func main() {
	os.Exit(run())
}

// logLevel is mutable at runtime so the config watcher can hot-apply
// log_level changes.
var logLevel = new(slog.LevelVar)

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	text := flag.String("text", "", "speak this text and exit; empty means read lines from stdin")
	outPath := flag.String("out", "", "write decoded audio bytes to this file")
	listVoices := flag.Bool("voices", false, "list available voices and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "wisp: config file %q not found; copy config.example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "wisp: %v\n", err)
		}
		return 1
	}

	slog.SetDefault(newLogger(cfg.LogLevel))

	ctx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	// Telemetry providers: OTel metrics bridged to Prometheus.
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "wisp"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	client, err := elevenlabs.New(cfg.Synthesis.APIKey, elevenlabsOptions(cfg)...)
	if err != nil {
		slog.Error("failed to create synthesis client", "err", err)
		return 1
	}

	if addr := cfg.Metrics.ListenAddr; addr != "" {
		probes := health.New(health.Probe{
			Name: "synthesis",
			Fn: func(ctx context.Context) error {
				_, err := client.ListVoices(ctx)
				return err
			},
		})
		go func() {
			slog.Info("telemetry endpoint listening", "addr", addr)
			if err := observe.ServeMetrics(ctx, addr, probes.Register); err != nil {
				slog.Error("telemetry endpoint failed", "err", err)
			}
		}()
	}

	if *listVoices {
		return printVoices(ctx, client)
	}

	// Hot-apply config edits that do not need a restart.
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config, diff config.ConfigDiff) {
		if diff.LogLevelChanged {
			logLevel.Set(slogLevel(diff.NewLogLevel))
			slog.Info("log level changed", "level", diff.NewLogLevel)
		}
		if diff.SynthesisChanged {
			slog.Info("synthesis settings changed; they apply to the next turn")
		}
	})
	if err != nil {
		slog.Error("failed to start config watcher", "err", err)
		return 1
	}
	defer watcher.Stop()

	fragments := make(chan string)
	go feedFragments(ctx, *text, fragments)

	if err := speak(ctx, client, watcher, *outPath, fragments); err != nil {
		slog.Error("turn failed", "err", err)
		return 1
	}
	slog.Info("done")
	return 0
}

// speak runs a single turn over the fragment stream, writing audio to outPath
// and weight frames to stdout.
func speak(ctx context.Context, dialer synth.Dialer, watcher *config.Watcher, outPath string, fragments <-chan string) error {
	cfg := watcher.Current()

	t, err := turn.New(turn.Config{
		Dialer:           dialer,
		Synthesis:        synthConfig(cfg.Synthesis),
		SegmenterOptions: segmenterOptions(cfg.Segmenter),
		LipSyncOptions:   lipsyncOptions(cfg.LipSync),
		WindowSize:       cfg.LipSync.WindowSizeOrDefault(),
	})
	if err != nil {
		return err
	}

	// An interrupt signal mid-speech abandons the turn instead of killing the
	// process outright.
	go func() {
		<-ctx.Done()
		t.Interrupt()
	}()

	var audioOut *os.File
	if outPath != "" {
		audioOut, err = os.Create(outPath)
		if err != nil {
			return err
		}
		defer audioOut.Close()
	}

	out, wait, err := t.Speak(ctx, fragments)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for output := range out {
		if audioOut != nil {
			if _, err := audioOut.Write(output.Frame.Data); err != nil {
				slog.Warn("audio write failed", "err", err)
			}
		}
		for _, w := range output.Weights {
			if err := enc.Encode(w); err != nil {
				slog.Warn("weight encode failed", "err", err)
			}
		}
	}
	if err := wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// feedFragments pushes either the -text flag value or stdin lines into the
// fragment channel.
func feedFragments(ctx context.Context, text string, fragments chan<- string) {
	defer close(fragments)
	if text != "" {
		select {
		case fragments <- text:
		case <-ctx.Done():
		}
		return
	}
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case fragments <- scanner.Text() + "\n":
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		slog.Warn("stdin read error", "err", err)
	}
}

func printVoices(ctx context.Context, client *elevenlabs.Client) int {
	voices, err := client.ListVoices(ctx)
	if err != nil {
		slog.Error("failed to list voices", "err", err)
		return 1
	}
	for _, v := range voices {
		fmt.Printf("%-24s %-20s %s\n", v.ID, v.Name, v.Category)
	}
	return 0
}

// ── Config translation ──────────────────────────────────────────────────────

func elevenlabsOptions(cfg *config.Config) []elevenlabs.Option {
	var opts []elevenlabs.Option
	if cfg.Synthesis.Endpoint != "" {
		opts = append(opts, elevenlabs.WithEndpoint(cfg.Synthesis.Endpoint))
	}
	return opts
}

func synthConfig(s config.SynthesisConfig) synth.Config {
	return synth.Config{
		VoiceID:             s.VoiceID,
		ModelID:             s.ModelID,
		OutputFormat:        s.OutputFormat,
		Stability:           s.Stability,
		SimilarityBoost:     s.SimilarityBoost,
		Style:               s.Style,
		SpeakerBoost:        s.SpeakerBoost,
		ChunkLengthSchedule: s.ChunkLengthSchedule,
	}
}

func segmenterOptions(s config.SegmenterConfig) []textseg.Option {
	var opts []textseg.Option
	if s.MinChunkSize > 0 {
		opts = append(opts, textseg.WithMinChunkSize(s.MinChunkSize))
	}
	if s.MaxChunkSize > 0 {
		opts = append(opts, textseg.WithMaxChunkSize(s.MaxChunkSize))
	}
	return opts
}

func lipsyncOptions(l config.LipSyncConfig) []lipsync.ProcessorOption {
	var opts []lipsync.ProcessorOption
	if l.MinVolume > 0 {
		opts = append(opts, lipsync.WithMinVolume(l.MinVolume))
	}
	if l.Responsiveness > 0 {
		opts = append(opts, lipsync.WithResponsiveness(l.Responsiveness))
	}
	if l.MaxJawOpen > 0 {
		opts = append(opts, lipsync.WithMaxJawOpen(l.MaxJawOpen))
	}
	return opts
}

// ── Logger ───────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	logLevel.Set(slogLevel(level))
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
