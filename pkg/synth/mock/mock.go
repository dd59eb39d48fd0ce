// Package mock provides a scripted synth.Transport and synth.Dialer for
// tests and offline development. Inbound messages are delivered on demand via
// [Transport.Deliver]; outbound messages are recorded for inspection.
package mock

import (
	"context"
	"errors"
	"sync"

	"github.com/wispkit/wisp/pkg/synth"
)

// ErrClosed is returned by Receive after the transport closes without a
// scripted failure.
var ErrClosed = errors.New("mock: transport closed")

// Dialer implements synth.Dialer. Each Dial creates a fresh Transport, which
// is retained so tests can script and inspect it.
type Dialer struct {
	// DialErr, when set, makes every Dial fail with this error.
	DialErr error

	// DialDelay, when set, blocks Dial until the channel is closed or the
	// dial context is cancelled. Used to test interrupt-during-connect.
	DialDelay chan struct{}

	mu         sync.Mutex
	transports []*Transport
	configs    []synth.Config
}

// Dial implements synth.Dialer.
func (d *Dialer) Dial(ctx context.Context, cfg synth.Config) (synth.Transport, error) {
	if d.DialDelay != nil {
		select {
		case <-d.DialDelay:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.DialErr != nil {
		return nil, d.DialErr
	}
	t := NewTransport()
	d.mu.Lock()
	d.transports = append(d.transports, t)
	d.configs = append(d.configs, cfg)
	d.mu.Unlock()
	return t, nil
}

// DialCount returns how many times Dial was called successfully.
func (d *Dialer) DialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.transports)
}

// Last returns the most recently dialled transport, or nil.
func (d *Dialer) Last() *Transport {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.transports) == 0 {
		return nil
	}
	return d.transports[len(d.transports)-1]
}

// inboundResult is one scripted Receive outcome.
type inboundResult struct {
	msg synth.InboundMessage
	err error
}

// Transport is a scripted synth.Transport.
type Transport struct {
	// SendErr, when set, makes every subsequent Send fail with this error.
	SendErr error

	mu        sync.Mutex
	sent      []synth.OutboundMessage
	inbound   chan inboundResult
	closed    chan struct{}
	closeOnce sync.Once
}

// NewTransport creates an open scripted transport.
func NewTransport() *Transport {
	return &Transport{
		inbound: make(chan inboundResult, 64),
		closed:  make(chan struct{}),
	}
}

// Send implements synth.Transport, recording the message.
func (t *Transport) Send(_ context.Context, msg synth.OutboundMessage) error {
	t.mu.Lock()
	sendErr := t.SendErr
	if sendErr == nil {
		t.sent = append(t.sent, msg)
	}
	t.mu.Unlock()
	return sendErr
}

// Receive implements synth.Transport, blocking for the next scripted message.
func (t *Transport) Receive(ctx context.Context) (synth.InboundMessage, error) {
	select {
	case res := <-t.inbound:
		return res.msg, res.err
	case <-t.closed:
		return synth.InboundMessage{}, ErrClosed
	case <-ctx.Done():
		return synth.InboundMessage{}, ctx.Err()
	}
}

// Close implements synth.Transport. Safe to call more than once.
func (t *Transport) Close() error {
	t.closeOnce.Do(func() { close(t.closed) })
	return nil
}

// Deliver scripts one inbound message.
func (t *Transport) Deliver(msg synth.InboundMessage) {
	t.inbound <- inboundResult{msg: msg}
}

// Fail scripts a Receive failure, simulating a mid-session transport error.
func (t *Transport) Fail(err error) {
	t.inbound <- inboundResult{err: err}
}

// Sent returns a copy of all recorded outbound messages in send order.
func (t *Transport) Sent() []synth.OutboundMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]synth.OutboundMessage, len(t.sent))
	copy(out, t.sent)
	return out
}

// Closed reports whether Close has been called.
func (t *Transport) Closed() bool {
	select {
	case <-t.closed:
		return true
	default:
		return false
	}
}
