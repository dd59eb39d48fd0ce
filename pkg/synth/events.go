package synth

import (
	"log/slog"
	"sync"
)

// EventKind identifies what a session Event carries.
type EventKind int

const (
	// EventAudio delivers one AudioFrame.
	EventAudio EventKind = iota

	// EventStart marks the first frame of a new generation cycle. Emitted
	// once per cycle, not per chunk.
	EventStart

	// EventEnd marks remote end-of-stream for the current generation cycle.
	EventEnd

	// EventError delivers a *TransportError after the session opened.
	EventError

	// EventInterrupted marks a caller-initiated interrupt. Not a failure.
	EventInterrupted
)

// String returns the lowercase event name for logging.
func (k EventKind) String() string {
	switch k {
	case EventAudio:
		return "audio"
	case EventStart:
		return "start"
	case EventEnd:
		return "end"
	case EventError:
		return "error"
	case EventInterrupted:
		return "interrupted"
	default:
		return "unknown"
	}
}

// Event is one occurrence on a session's event stream.
type Event struct {
	Kind EventKind

	// Frame is set for EventAudio.
	Frame *AudioFrame

	// Err is set for EventError.
	Err error
}

// Listener observes session events. Listeners are invoked synchronously on
// the session's receive goroutine and should hand work off quickly.
type Listener func(Event)

// listenerRegistry is a small observer set keyed by subscription token.
// One listener's panic must not prevent delivery to the others.
type listenerRegistry struct {
	mu        sync.Mutex
	next      int
	listeners map[int]Listener
}

// subscribe registers fn and returns its removal function. The removal
// function is idempotent.
func (r *listenerRegistry) subscribe(fn Listener) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listeners == nil {
		r.listeners = make(map[int]Listener)
	}
	id := r.next
	r.next++
	r.listeners[id] = fn
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.listeners, id)
	}
}

// emit delivers ev to every registered listener. Listeners are snapshotted
// under the lock so a listener may unsubscribe (itself or others) during
// delivery without deadlocking.
func (r *listenerRegistry) emit(ev Event) {
	r.mu.Lock()
	snapshot := make([]Listener, 0, len(r.listeners))
	for _, fn := range r.listeners {
		snapshot = append(snapshot, fn)
	}
	r.mu.Unlock()

	for _, fn := range snapshot {
		deliver(fn, ev)
	}
}

// deliver invokes one listener, isolating panics so delivery to the
// remaining listeners continues.
func deliver(fn Listener, ev Event) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("synth: event listener panicked", "event", ev.Kind, "panic", rec)
		}
	}()
	fn(ev)
}
