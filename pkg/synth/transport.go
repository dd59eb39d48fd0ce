package synth

import "context"

// OutboundMessage is one protocol message sent to the synthesis service.
// The JSON shape matches the ElevenLabs stream-input schema; other backends
// may translate it in their Transport implementation.
type OutboundMessage struct {
	// Text is the chunk to synthesise. The empty string is the close signal;
	// a single space is the session-open handshake.
	Text string `json:"text"`

	// VoiceSettings is attached to the handshake message only.
	VoiceSettings *VoiceSettings `json:"voice_settings,omitempty"`

	// GenerationConfig is attached to the handshake message only.
	GenerationConfig *GenerationConfig `json:"generation_config,omitempty"`

	// TryTriggerGeneration asks the remote service to start generating as
	// soon as its internal buffer allows, rather than waiting for more text.
	TryTriggerGeneration bool `json:"try_trigger_generation,omitempty"`

	// Flush forces immediate generation of all remotely buffered text.
	Flush bool `json:"flush,omitempty"`
}

// VoiceSettings mirrors the remote service's voice_settings object.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

// GenerationConfig mirrors the remote service's generation_config object.
type GenerationConfig struct {
	ChunkLengthSchedule []int `json:"chunk_length_schedule"`
}

// InboundMessage is one protocol message received from the synthesis service.
type InboundMessage struct {
	// Audio is the base64-encoded audio payload, empty for control messages.
	Audio string `json:"audio"`

	// IsFinal marks the end of a generation cycle.
	IsFinal bool `json:"isFinal"`

	Alignment           *Alignment `json:"alignment,omitempty"`
	NormalizedAlignment *Alignment `json:"normalizedAlignment,omitempty"`

	// Message carries provider error or info text, when present.
	Message string `json:"message,omitempty"`
}

// Transport is an open bidirectional connection to the synthesis service.
// Send and Receive may be called concurrently with each other (one writer,
// one reader); neither may be called concurrently with itself.
type Transport interface {
	// Send transmits one outbound message.
	Send(ctx context.Context, msg OutboundMessage) error

	// Receive blocks until the next inbound message arrives, the connection
	// fails, or ctx is cancelled. A malformed inbound payload is reported as
	// a *ProtocolError so callers can skip it without tearing the session down.
	Receive(ctx context.Context) (InboundMessage, error)

	// Close releases the connection. Safe to call more than once.
	Close() error
}

// Dialer establishes Transports. Implementations authenticate during dial
// (connection-establishment credential) so the session itself never handles
// secrets.
type Dialer interface {
	Dial(ctx context.Context, cfg Config) (Transport, error)
}
