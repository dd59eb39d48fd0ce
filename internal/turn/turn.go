// Package turn drives one speaking turn end to end: streamed text fragments
// go in, synthesised audio frames with per-window facial weights come out.
//
// A Turn owns one synthesis session, one segmenter, and one lip-sync
// processor; it is single-use. Construct a new Turn for every utterance.
package turn

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wispkit/wisp/internal/observe"
	"github.com/wispkit/wisp/pkg/audio"
	"github.com/wispkit/wisp/pkg/lipsync"
	"github.com/wispkit/wisp/pkg/synth"
	"github.com/wispkit/wisp/pkg/textseg"
)

// Config assembles the collaborators for one Turn.
type Config struct {
	// Dialer opens the synthesis connection. Required.
	Dialer synth.Dialer

	// Synthesis holds the per-session voice parameters. VoiceID is required.
	Synthesis synth.Config

	// SegmenterOptions tune chunk boundaries. Optional.
	SegmenterOptions []textseg.Option

	// LipSyncOptions tune the facial-weight processor. Optional.
	LipSyncOptions []lipsync.ProcessorOption

	// WindowSize is the lip-sync analysis window in samples. Zero means 256.
	WindowSize int

	// Metrics receives pipeline instrumentation. Nil means the package-level
	// default instruments.
	Metrics *observe.Metrics

	// Logger for turn-scoped events. Nil means slog.Default.
	Logger *slog.Logger
}

// Output is one delivered audio frame together with the facial weights
// derived from its samples, one WeightSet per analysis window.
type Output struct {
	Frame   synth.AudioFrame
	Samples []float64
	Weights []lipsync.WeightSet
}

// Turn orchestrates a single utterance. Speak may be called once; Interrupt
// may be called at any time from any goroutine.
type Turn struct {
	session  *synth.Session
	pipeline *synth.Pipeline
	seg      *textseg.Segmenter
	proc     *lipsync.Processor
	format   audio.Format
	window   int
	metrics  *observe.Metrics
	log      *slog.Logger

	stop     chan struct{}
	stopOnce sync.Once

	mu        sync.Mutex
	started   bool
	startedAt time.Time
}

// New validates cfg and builds a Turn.
func New(cfg Config) (*Turn, error) {
	if cfg.Dialer == nil {
		return nil, fmt.Errorf("turn: cfg.Dialer is required")
	}
	if cfg.Synthesis.VoiceID == "" {
		return nil, fmt.Errorf("turn: cfg.Synthesis.VoiceID is required")
	}
	name := cfg.Synthesis.OutputFormat
	if name == "" {
		name = "pcm_16000"
	}
	format, err := audio.ParseFormat(name)
	if err != nil {
		return nil, fmt.Errorf("turn: %w", err)
	}

	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observe.DefaultMetrics()
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	window := cfg.WindowSize
	if window <= 0 {
		window = 256
	}

	session := synth.NewSession(cfg.Dialer, cfg.Synthesis)
	return &Turn{
		session:  session,
		pipeline: synth.NewPipeline(session),
		seg:      textseg.New(cfg.SegmenterOptions...),
		proc:     lipsync.NewProcessor(cfg.LipSyncOptions...),
		format:   format,
		window:   window,
		metrics:  metrics,
		log:      log,
		stop:     make(chan struct{}),
	}, nil
}

// Speak runs the turn: fragments are segmented and submitted as they arrive,
// and the returned channel yields decoded frames with facial weights in
// delivery order. The channel closes when generation finishes, the turn is
// interrupted, or the transport fails; the returned wait function reports the
// error, if any, and releases the session.
func (t *Turn) Speak(ctx context.Context, fragments <-chan string) (<-chan Output, func() error, error) {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return nil, nil, fmt.Errorf("turn: Speak called twice")
	}
	t.started = true
	t.startedAt = time.Now()
	t.mu.Unlock()

	var decoder *audio.OpusDecoder
	if t.format.Encoding == audio.EncodingOpus {
		dec, err := audio.NewOpusDecoder(t.format)
		if err != nil {
			return nil, nil, fmt.Errorf("turn: %w", err)
		}
		decoder = dec
	}

	out := make(chan Output)
	g, gctx := errgroup.WithContext(ctx)

	t.metrics.ActiveSessions.Add(ctx, 1)

	// Feeder: segment fragments and submit chunks in arrival order.
	g.Go(func() error {
		defer func() {
			if t.session.State() == synth.StateInterrupted {
				return
			}
			// Anything still buffered goes out as the final flushed chunk.
			if tail := t.seg.Flush(); tail != "" {
				if err := t.submit(gctx, tail, true); err != nil {
					t.log.Warn("turn: final chunk submit failed", "err", err)
				}
			} else if t.session.State() == synth.StateGenerating || t.session.State() == synth.StateConnected {
				if err := t.session.Flush(gctx); err != nil {
					t.log.Debug("turn: flush failed", "err", err)
				}
			}
		}()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-t.stop:
				return nil
			case fragment, ok := <-fragments:
				if !ok {
					return nil
				}
				for _, chunk := range t.seg.Push(fragment) {
					if err := t.submit(gctx, chunk, false); err != nil {
						return err
					}
				}
			}
		}
	})

	// Consumer: pull frames, decode, derive facial weights.
	g.Go(func() error {
		defer close(out)
		firstFrame := true
		for {
			frame, ok := t.pipeline.Next(gctx)
			if !ok {
				return nil
			}
			if firstFrame {
				firstFrame = false
				t.metrics.TimeToFirstAudio.Record(gctx, time.Since(t.startedAt).Seconds())
			}
			t.metrics.RecordAudioFrame(gctx, len(frame.Data))

			output, err := t.decode(frame, decoder)
			if err != nil {
				t.log.Warn("turn: frame decode failed, skipping", "err", err)
				continue
			}
			select {
			case out <- output:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
	})

	wait := func() error {
		err := g.Wait()
		t.metrics.ActiveSessions.Add(context.Background(), -1)
		t.metrics.GenerationDuration.Record(context.Background(), time.Since(t.startedAt).Seconds())
		t.pipeline.Close()

		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if derr := t.session.Disconnect(disconnectCtx); derr != nil {
			t.log.Debug("turn: disconnect", "err", derr)
		}
		return err
	}
	return out, wait, nil
}

// SpeakText runs a turn over a single complete string.
func (t *Turn) SpeakText(ctx context.Context, text string) (<-chan Output, func() error, error) {
	fragments := make(chan string, 1)
	fragments <- text
	close(fragments)
	return t.Speak(ctx, fragments)
}

// Interrupt abandons the turn immediately. Queued audio is discarded, the
// consumer channel closes, and the underlying session becomes unusable.
func (t *Turn) Interrupt() {
	t.stopOnce.Do(func() { close(t.stop) })
	t.metrics.Interrupts.Add(context.Background(), 1)
	t.session.Interrupt()
	t.pipeline.Close()
}

// Session exposes the underlying session for event subscription.
func (t *Turn) Session() *synth.Session { return t.session }

// submit sends one chunk and counts it.
func (t *Turn) submit(ctx context.Context, chunk string, flush bool) error {
	if err := t.session.SendText(ctx, chunk, flush); err != nil {
		return err
	}
	t.metrics.TextChunks.Add(ctx, 1)
	t.log.Debug("turn: chunk submitted", "bytes", len(chunk), "flush", flush)
	return nil
}

// decode converts one frame's payload to samples and runs the lip-sync
// processor over each analysis window.
func (t *Turn) decode(frame synth.AudioFrame, decoder *audio.OpusDecoder) (Output, error) {
	var samples []float64
	switch t.format.Encoding {
	case audio.EncodingPCM16:
		samples = audio.Samples(frame.Data)
	case audio.EncodingOpus:
		decoded, err := decoder.Decode(frame.Data)
		if err != nil {
			return Output{}, err
		}
		samples = decoded
	default:
		return Output{}, fmt.Errorf("turn: undecodable encoding %s", t.format.Encoding)
	}

	windows := audio.Windows(samples, t.window)
	weights := make([]lipsync.WeightSet, 0, len(windows))
	for _, win := range windows {
		weights = append(weights, t.proc.ProcessFrame(win, t.format.SampleRate))
	}
	t.metrics.LipSyncFrames.Add(context.Background(), int64(len(weights)))

	return Output{Frame: frame, Samples: samples, Weights: weights}, nil
}
