// Package synth implements the streaming speech-synthesis session: a
// protocol state machine that feeds text chunks to a remote voice service
// over a persistent bidirectional connection and hands back audio frames as
// soon as they exist.
//
// The wire protocol lives behind the [Transport] and [Dialer] interfaces so
// the session logic is independent of the concrete service; the ElevenLabs
// stream-input implementation is in the elevenlabs subpackage and a scripted
// implementation for tests is in the mock subpackage.
//
// Each Session instance is owned by one logical conversation turn. Event
// delivery and [Session.Interrupt] are safe to use concurrently with the
// driving goroutine; everything else is designed to be called from a single
// logical flow.
package synth

// Config holds the immutable per-session synthesis parameters. A new session
// is required to change any of them.
type Config struct {
	// VoiceID is the provider-specific voice identity. Required.
	VoiceID string

	// ModelID selects the synthesis model/quality tier.
	ModelID string

	// OutputFormat names the audio encoding of returned frames
	// (e.g., "pcm_16000", "pcm_24000").
	OutputFormat string

	// Stability controls voice consistency, in [0,1].
	Stability float64

	// SimilarityBoost controls adherence to the reference voice, in [0,1].
	SimilarityBoost float64

	// Style controls expressiveness exaggeration, in [0,1].
	Style float64

	// SpeakerBoost enables the provider's speaker-boost rendering flag.
	SpeakerBoost bool

	// ChunkLengthSchedule hints how many buffered characters the remote
	// service should accumulate before each generation pass.
	ChunkLengthSchedule []int
}

// Default synthesis parameters, matching the remote service's recommended
// low-latency streaming profile.
const (
	DefaultModelID      = "eleven_flash_v2_5"
	DefaultOutputFormat = "pcm_16000"

	defaultStability       = 0.5
	defaultSimilarityBoost = 0.75
)

// defaultChunkSchedule is the generation-config chunk length schedule sent
// when the caller does not provide one.
var defaultChunkSchedule = []int{50, 100, 150, 200}

// withDefaults returns a copy of c with zero-valued fields replaced by the
// package defaults.
func (c Config) withDefaults() Config {
	if c.ModelID == "" {
		c.ModelID = DefaultModelID
	}
	if c.OutputFormat == "" {
		c.OutputFormat = DefaultOutputFormat
	}
	if c.Stability == 0 {
		c.Stability = defaultStability
	}
	if c.SimilarityBoost == 0 {
		c.SimilarityBoost = defaultSimilarityBoost
	}
	if len(c.ChunkLengthSchedule) == 0 {
		c.ChunkLengthSchedule = defaultChunkSchedule
	}
	return c
}

// ConnectionState is the lifecycle state of a Session. Transitions are
// monotonic per operation: text cannot be sent before the session is
// Connected, and an interrupted session never reconnects.
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateConnected
	StateGenerating
	StateClosing
	StateInterrupted
)

// String returns the lowercase state name for logging.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateGenerating:
		return "generating"
	case StateClosing:
		return "closing"
	case StateInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Alignment carries the per-character timing data the synthesis service
// optionally attaches to audio frames. Index i of each slice describes the
// i-th character of the synthesised text span.
type Alignment struct {
	Chars        []string `json:"chars"`
	StartTimesMs []int    `json:"charStartTimesMs"`
	DurationsMs  []int    `json:"charDurationsMs"`
}

// AudioFrame is one chunk of synthesised audio as received from the remote
// service. Ownership transfers to the consumer on delivery; the session and
// pipeline do not retain frames after handing them off.
type AudioFrame struct {
	// Data is the raw audio payload in the session's configured OutputFormat.
	Data []byte

	// IsFinal marks the last frame of a generation cycle.
	IsFinal bool

	// Alignment is optional per-character timing for Data, when the remote
	// service produced it.
	Alignment *Alignment

	// NormalizedAlignment is the alignment against the normalised (spoken)
	// form of the text, when produced.
	NormalizedAlignment *Alignment
}
