package synth

import (
	"context"
	"sync"
)

// Pipeline decouples audio arrival time from consumption time. It subscribes
// to a session's event stream, queues frames in arrival order, and lets a
// consumer pull them at its own pace: the consumer blocks when the queue is
// empty, the producer never blocks.
//
// The stream terminates (pulls return ok=false rather than an error) when
// the session emits End, Interrupted, or Error, so consumers can use plain
// iterate-to-completion loops.
//
// The queue is unbounded; memory use is bounded only by the length of one
// utterance. A production deployment with slow consumers should add a bound
// and an overflow policy here; this implementation knowingly carries the gap.
type Pipeline struct {
	mu     sync.Mutex
	queue  []AudioFrame
	done   bool
	notify chan struct{} // 1-buffered wake-up signal for a blocked consumer
	closed chan struct{} // closed exactly once on stream termination
	stop   func()        // listener unsubscribe
}

// NewPipeline creates a pipeline consuming frames from session. One pipeline
// serves one consumer; create separate pipelines for independent consumers.
func NewPipeline(session *Session) *Pipeline {
	p := &Pipeline{
		notify: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
	p.stop = session.Subscribe(func(ev Event) {
		switch ev.Kind {
		case EventAudio:
			p.push(*ev.Frame)
		case EventEnd, EventInterrupted, EventError:
			p.finish()
		}
	})
	return p
}

// push enqueues a frame and wakes the consumer. Never blocks.
func (p *Pipeline) push(frame AudioFrame) {
	p.mu.Lock()
	if p.done {
		p.mu.Unlock()
		return
	}
	p.queue = append(p.queue, frame)
	p.mu.Unlock()

	select {
	case p.notify <- struct{}{}:
	default:
	}
}

// finish marks the stream terminated. Frames already queued remain pullable;
// a blocked consumer unblocks immediately.
func (p *Pipeline) finish() {
	p.mu.Lock()
	if p.done {
		p.mu.Unlock()
		return
	}
	p.done = true
	p.mu.Unlock()
	close(p.closed)
}

// Close detaches the pipeline from the session and terminates the stream.
// Safe to call more than once.
func (p *Pipeline) Close() {
	p.stop()
	p.finish()
}

// Next blocks until a frame is available, the stream terminates, or ctx is
// cancelled. Returns ok=false on termination or cancellation. Frames are
// delivered in exact arrival order and are not retained afterwards.
func (p *Pipeline) Next(ctx context.Context) (AudioFrame, bool) {
	for {
		p.mu.Lock()
		if len(p.queue) > 0 {
			frame := p.queue[0]
			p.queue = p.queue[1:]
			remaining := len(p.queue)
			p.mu.Unlock()
			if remaining > 0 {
				// Keep the wake-up signal armed for the next pull.
				select {
				case p.notify <- struct{}{}:
				default:
				}
			}
			return frame, true
		}
		done := p.done
		p.mu.Unlock()

		if done {
			return AudioFrame{}, false
		}

		select {
		case <-p.notify:
		case <-p.closed:
		case <-ctx.Done():
			return AudioFrame{}, false
		}
	}
}

// Frames returns a channel that yields the remaining frames in order and
// closes on stream termination or ctx cancellation. Intended for
// iterate-to-completion consumers.
func (p *Pipeline) Frames(ctx context.Context) <-chan AudioFrame {
	out := make(chan AudioFrame)
	go func() {
		defer close(out)
		for {
			frame, ok := p.Next(ctx)
			if !ok {
				return
			}
			select {
			case out <- frame:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Pending returns the number of queued, not-yet-consumed frames.
func (p *Pipeline) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}
