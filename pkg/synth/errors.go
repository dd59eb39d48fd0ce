package synth

import (
	"errors"
	"fmt"
)

// ErrNotConnected is returned by SendText and Flush when the transport is not
// open after a connect attempt.
var ErrNotConnected = errors.New("synth: not connected")

// ErrInterrupted is returned by operations that were cut short by
// [Session.Interrupt]. An interrupt is caller-initiated and is not a failure.
var ErrInterrupted = errors.New("synth: interrupted")

// ConnectionError reports a handshake or dial failure before the connection
// ever opened. It is surfaced synchronously to the caller of Connect (or the
// lazy connect inside SendText); there is no in-flight generation to protect.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("synth: connect: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// TransportError reports a connection failure after the session opened.
// It is delivered asynchronously through the Error event, never thrown into
// unrelated call sites, because multiple consumers may be observing the
// session when the transport dies.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("synth: transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a malformed inbound message. The session logs it and
// skips the message rather than killing the connection.
type ProtocolError struct {
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("synth: protocol: %v", e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }
