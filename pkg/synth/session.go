package synth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Session owns the lifetime of one streaming connection to the remote voice
// service: connect, configure, send text chunks, receive audio frames, flush,
// interrupt, close.
//
// A session serves exactly one utterance; after an interrupt or a transport
// failure it is not reusable; construct a new one. Reconnecting mid-utterance
// is deliberately unsupported.
//
// Interrupt and event subscription are safe to call from any goroutine. The
// remaining operations are designed to be driven from one logical flow.
type Session struct {
	cfg    Config
	dialer Dialer

	mu         sync.Mutex
	state      ConnectionState
	transport  Transport
	connecting chan struct{} // non-nil while a connect attempt is in flight
	connectErr error
	recvCancel context.CancelFunc
	cycleOpen  bool // a Start event has been emitted without a matching End

	listeners listenerRegistry
}

// NewSession creates a session for the given transport dialer and synthesis
// configuration. Zero-valued config fields are replaced by package defaults.
// No connection is made until Connect or the first SendText.
func NewSession(dialer Dialer, cfg Config) *Session {
	return &Session{
		cfg:    cfg.withDefaults(),
		dialer: dialer,
		state:  StateDisconnected,
	}
}

// Config returns the session's immutable synthesis parameters.
func (s *Session) Config() Config { return s.cfg }

// State returns the current connection state.
func (s *Session) State() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers a listener for the session's event stream (audio,
// start, end, error, interrupted) and returns its removal function.
// A listener panic is recovered and logged; delivery to the remaining
// listeners continues.
func (s *Session) Subscribe(fn Listener) (unsubscribe func()) {
	return s.listeners.subscribe(fn)
}

// Connect establishes the underlying connection and sends the initial
// configuration message. It returns once the transport reports open.
//
// Concurrent calls while an attempt is in flight share that attempt: at most
// one connect is ever in progress. Failure before first open is surfaced
// synchronously as a *ConnectionError.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateConnected, StateGenerating:
		s.mu.Unlock()
		return nil
	case StateInterrupted:
		s.mu.Unlock()
		return ErrInterrupted
	case StateClosing:
		s.mu.Unlock()
		return &ConnectionError{Err: errors.New("session is closing")}
	case StateConnecting:
		done := s.connecting
		s.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
		s.mu.Lock()
		err := s.connectErr
		s.mu.Unlock()
		return err
	}

	// StateDisconnected: this call owns the attempt.
	done := make(chan struct{})
	s.connecting = done
	s.state = StateConnecting
	s.mu.Unlock()

	err := s.establish(ctx)

	s.mu.Lock()
	s.connectErr = err
	s.connecting = nil
	close(done)
	s.mu.Unlock()
	return err
}

// establish dials the transport, performs the configuration handshake, and
// starts the receive loop. Called with state == StateConnecting.
func (s *Session) establish(ctx context.Context) error {
	tr, err := s.dialer.Dial(ctx, s.cfg)
	if err != nil {
		s.abandonConnect()
		return &ConnectionError{Err: err}
	}

	hello := OutboundMessage{
		Text: " ", // the service requires a non-empty first text value
		VoiceSettings: &VoiceSettings{
			Stability:       s.cfg.Stability,
			SimilarityBoost: s.cfg.SimilarityBoost,
			Style:           s.cfg.Style,
			UseSpeakerBoost: s.cfg.SpeakerBoost,
		},
		GenerationConfig: &GenerationConfig{
			ChunkLengthSchedule: s.cfg.ChunkLengthSchedule,
		},
	}
	if err := tr.Send(ctx, hello); err != nil {
		tr.Close()
		s.abandonConnect()
		return &ConnectionError{Err: fmt.Errorf("configuration handshake: %w", err)}
	}

	s.mu.Lock()
	if s.state != StateConnecting {
		// Interrupted or closed while the handshake was in flight.
		s.mu.Unlock()
		tr.Close()
		return ErrInterrupted
	}
	recvCtx, cancel := context.WithCancel(context.Background())
	s.transport = tr
	s.recvCancel = cancel
	s.state = StateConnected
	s.mu.Unlock()

	go s.receiveLoop(recvCtx, tr)

	slog.Debug("synth: session connected",
		"voice", s.cfg.VoiceID,
		"model", s.cfg.ModelID,
		"format", s.cfg.OutputFormat,
	)
	return nil
}

// abandonConnect rolls a failed connect attempt back to Disconnected, unless
// an interrupt already moved the state elsewhere.
func (s *Session) abandonConnect() {
	s.mu.Lock()
	if s.state == StateConnecting {
		s.state = StateDisconnected
	}
	s.mu.Unlock()
}

// SendText transmits one text chunk for synthesis, lazily connecting first if
// needed. flush marks the final chunk of an utterance, signalling the remote
// end to begin generating immediately instead of waiting for more text.
//
// Returns ErrNotConnected when the transport reports non-open state after the
// connect attempt; a mid-session write failure also tears the session down
// and emits an Error event to subscribers.
func (s *Session) SendText(ctx context.Context, text string, flush bool) error {
	if err := s.Connect(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	switch s.state {
	case StateConnected:
		s.state = StateGenerating
	case StateGenerating:
		// Additional chunk in the current cycle.
	case StateInterrupted:
		s.mu.Unlock()
		return ErrInterrupted
	default:
		s.mu.Unlock()
		return ErrNotConnected
	}
	tr := s.transport
	s.mu.Unlock()

	msg := OutboundMessage{Text: text}
	if flush {
		msg.Flush = true
	} else {
		msg.TryTriggerGeneration = true
	}
	if err := tr.Send(ctx, msg); err != nil {
		s.failTransport(err)
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	return nil
}

// Flush sends a zero-content flush signal, forcing generation of whatever
// text the remote end has buffered without adding more. The session must
// already be connected.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateConnected && s.state != StateGenerating {
		s.mu.Unlock()
		return ErrNotConnected
	}
	tr := s.transport
	s.mu.Unlock()

	if err := tr.Send(ctx, OutboundMessage{Flush: true}); err != nil {
		s.failTransport(err)
		return fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	return nil
}

// Interrupt immediately disconnects, discards buffered output, and emits an
// Interrupted event to all current consumers. Safe to call from any state,
// including mid-connect and concurrently with pending frame delivery, and
// idempotent. The session is terminal afterwards.
func (s *Session) Interrupt() {
	s.mu.Lock()
	if s.state == StateDisconnected || s.state == StateInterrupted {
		s.mu.Unlock()
		return
	}
	s.state = StateInterrupted
	tr := s.transport
	s.transport = nil
	cancel := s.recvCancel
	s.recvCancel = nil
	s.cycleOpen = false
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if tr != nil {
		tr.Close()
	}

	slog.Debug("synth: session interrupted", "voice", s.cfg.VoiceID)
	s.listeners.emit(Event{Kind: EventInterrupted})
}

// Disconnect closes the session gracefully: it sends the empty-text close
// signal if the connection is open, then closes the transport. A generation
// cycle still open at this point is terminated with an End event so blocked
// consumers finish their iteration.
func (s *Session) Disconnect(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateDisconnected || s.state == StateInterrupted {
		s.mu.Unlock()
		return nil
	}
	s.state = StateClosing
	tr := s.transport
	s.transport = nil
	cancel := s.recvCancel
	s.recvCancel = nil
	cycleOpen := s.cycleOpen
	s.cycleOpen = false
	s.mu.Unlock()

	var closeErr error
	if tr != nil {
		// Best effort: the remote end treats empty text as end-of-input.
		_ = tr.Send(ctx, OutboundMessage{Text: ""})
		closeErr = tr.Close()
	}
	if cancel != nil {
		cancel()
	}

	s.mu.Lock()
	s.state = StateDisconnected
	s.mu.Unlock()

	if cycleOpen {
		s.listeners.emit(Event{Kind: EventEnd})
	}
	return closeErr
}

// receiveLoop reads inbound messages until the transport fails or the
// session is torn down, translating them into session events.
func (s *Session) receiveLoop(ctx context.Context, tr Transport) {
	for {
		msg, err := tr.Receive(ctx)
		if err != nil {
			var perr *ProtocolError
			if errors.As(err, &perr) {
				slog.Warn("synth: skipping malformed inbound message", "err", perr.Err)
				continue
			}
			if ctx.Err() != nil {
				// Torn down locally (interrupt or disconnect).
				return
			}
			s.failTransport(err)
			return
		}
		s.handleInbound(msg)
	}
}

// handleInbound decodes one protocol message and emits the corresponding
// events in order: Start (first frame of a cycle), Audio, then End.
func (s *Session) handleInbound(msg InboundMessage) {
	var frame *AudioFrame
	if msg.Audio != "" {
		data, err := base64.StdEncoding.DecodeString(msg.Audio)
		if err != nil {
			slog.Warn("synth: skipping frame with undecodable audio", "err", err)
			return
		}
		frame = &AudioFrame{
			Data:                data,
			IsFinal:             msg.IsFinal,
			Alignment:           msg.Alignment,
			NormalizedAlignment: msg.NormalizedAlignment,
		}
	}
	if frame == nil && !msg.IsFinal {
		// Control or keepalive message.
		if msg.Message != "" {
			slog.Debug("synth: service message", "message", msg.Message)
		}
		return
	}

	s.mu.Lock()
	startCycle := frame != nil && !s.cycleOpen
	if startCycle {
		s.cycleOpen = true
	}
	if msg.IsFinal {
		s.cycleOpen = false
		if s.state == StateGenerating {
			s.state = StateConnected
		}
	}
	s.mu.Unlock()

	if startCycle {
		s.listeners.emit(Event{Kind: EventStart})
	}
	if frame != nil {
		s.listeners.emit(Event{Kind: EventAudio, Frame: frame})
	}
	if msg.IsFinal {
		s.listeners.emit(Event{Kind: EventEnd})
	}
}

// failTransport tears the session down after a mid-session transport error
// and reports it through the event stream. No automatic reconnect: the caller
// decides what happens next.
func (s *Session) failTransport(err error) {
	s.mu.Lock()
	if s.state == StateDisconnected || s.state == StateInterrupted || s.state == StateClosing {
		s.mu.Unlock()
		return
	}
	s.state = StateDisconnected
	tr := s.transport
	s.transport = nil
	cancel := s.recvCancel
	s.recvCancel = nil
	s.cycleOpen = false
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if tr != nil {
		tr.Close()
	}

	slog.Error("synth: transport failed", "voice", s.cfg.VoiceID, "err", err)
	s.listeners.emit(Event{Kind: EventError, Err: &TransportError{Err: err}})
}
