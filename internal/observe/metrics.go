// Package observe provides application-wide observability primitives for
// wisp: OpenTelemetry metrics, tracing helpers, and structured logging glue.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can be
// scraped via a standard /metrics endpoint (see [ServeMetrics]). A
// package-level default [Metrics] instance ([DefaultMetrics]) is provided for
// convenience; tests should use [NewMetrics] with a custom
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all wisp metrics.
const meterName = "github.com/wispkit/wisp"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// TimeToFirstAudio tracks the delay between submitting the first text
	// chunk of a turn and receiving the first audio frame.
	TimeToFirstAudio metric.Float64Histogram

	// GenerationDuration tracks the length of a full generation cycle, from
	// start event to end event.
	GenerationDuration metric.Float64Histogram

	// --- Counters ---

	// TextChunks counts text chunks submitted to the synthesis service.
	TextChunks metric.Int64Counter

	// AudioFrames counts audio frames received from the synthesis service.
	AudioFrames metric.Int64Counter

	// AudioBytes counts decoded audio payload bytes received.
	AudioBytes metric.Int64Counter

	// LipSyncFrames counts facial-weight frames produced by the processor.
	LipSyncFrames metric.Int64Counter

	// Interrupts counts user-initiated interruptions of a speaking turn.
	Interrupts metric.Int64Counter

	// --- Error counters ---

	// TransportErrors counts synthesis connection failures. Use with
	// attribute: attribute.String("kind", ...)
	TransportErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveSessions tracks the number of live synthesis sessions.
	ActiveSessions metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) optimised
// for speech-pipeline latencies.
var latencyBuckets = []float64{
	0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.TimeToFirstAudio, err = m.Float64Histogram("wisp.synthesis.time_to_first_audio",
		metric.WithDescription("Delay between first text chunk and first audio frame of a turn."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.GenerationDuration, err = m.Float64Histogram("wisp.synthesis.generation.duration",
		metric.WithDescription("Length of a full generation cycle."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.TextChunks, err = m.Int64Counter("wisp.synthesis.text_chunks",
		metric.WithDescription("Total text chunks submitted for synthesis."),
	); err != nil {
		return nil, err
	}
	if met.AudioFrames, err = m.Int64Counter("wisp.synthesis.audio_frames",
		metric.WithDescription("Total audio frames received."),
	); err != nil {
		return nil, err
	}
	if met.AudioBytes, err = m.Int64Counter("wisp.synthesis.audio_bytes",
		metric.WithDescription("Total decoded audio payload bytes received."),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	if met.LipSyncFrames, err = m.Int64Counter("wisp.lipsync.frames",
		metric.WithDescription("Total facial-weight frames produced."),
	); err != nil {
		return nil, err
	}
	if met.Interrupts, err = m.Int64Counter("wisp.synthesis.interrupts",
		metric.WithDescription("Total user-initiated interruptions."),
	); err != nil {
		return nil, err
	}

	if met.TransportErrors, err = m.Int64Counter("wisp.synthesis.transport_errors",
		metric.WithDescription("Total synthesis transport errors by kind."),
	); err != nil {
		return nil, err
	}

	if met.ActiveSessions, err = m.Int64UpDownCounter("wisp.active_sessions",
		metric.WithDescription("Number of live synthesis sessions."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordAudioFrame records one received audio frame and its payload size.
func (m *Metrics) RecordAudioFrame(ctx context.Context, bytes int) {
	m.AudioFrames.Add(ctx, 1)
	m.AudioBytes.Add(ctx, int64(bytes))
}

// RecordTransportError records a transport error of the given kind.
func (m *Metrics) RecordTransportError(ctx context.Context, kind string) {
	m.TransportErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("kind", kind)),
	)
}
