// Package textseg turns an incrementally-arriving stream of text fragments
// into synthesis-ready chunks at natural break points.
//
// The segmenter prefers sentence terminators ('.', '!', '?' followed by
// whitespace), then clause separators (',', ';', ':'), then hard newlines.
// A chunk is emitted once it reaches the maximum size even without a natural
// boundary, bounding synthesis latency; a chunk below the minimum size is
// held and merged with the next fragment unless the caller flushes.
//
// The segmenter performs no I/O and holds no locks; use one instance per
// logical text stream.
package textseg

import (
	"context"
	"strings"
	"unicode"
)

const (
	// DefaultMinChunkSize is the smallest chunk emitted mid-stream, in bytes.
	DefaultMinChunkSize = 50

	// DefaultMaxChunkSize is the hard emission bound, in bytes.
	DefaultMaxChunkSize = 300
)

// Option is a functional option for configuring a Segmenter.
type Option func(*Segmenter)

// WithMinChunkSize overrides the minimum chunk size. Values < 1 are clamped to 1.
func WithMinChunkSize(n int) Option {
	return func(s *Segmenter) {
		if n < 1 {
			n = 1
		}
		s.minSize = n
	}
}

// WithMaxChunkSize overrides the maximum chunk size. Values < 1 are clamped to 1.
func WithMaxChunkSize(n int) Option {
	return func(s *Segmenter) {
		if n < 1 {
			n = 1
		}
		s.maxSize = n
	}
}

// Segmenter accumulates text fragments and emits complete chunks.
// Not safe for concurrent use; drive it from a single goroutine.
type Segmenter struct {
	minSize int
	maxSize int
	buf     strings.Builder
}

// New constructs a Segmenter with the default size bounds, then applies opts.
// If the configured minimum exceeds the maximum, the minimum wins as the
// effective emission floor and chunks are emitted as soon as they reach it.
func New(opts ...Option) *Segmenter {
	s := &Segmenter{
		minSize: DefaultMinChunkSize,
		maxSize: DefaultMaxChunkSize,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Push appends fragment to the internal buffer and returns all chunks that
// became complete as a result. The returned slice is nil when more input is
// needed.
func (s *Segmenter) Push(fragment string) []string {
	if fragment == "" {
		return nil
	}
	s.buf.WriteString(fragment)

	var chunks []string
	for {
		chunk, ok := s.cut()
		if !ok {
			break
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// Flush returns whatever text is held in the buffer, trimmed, and resets the
// segmenter. The flushed chunk may be shorter than the minimum size; this is
// the only path that emits an undersized chunk. Returns "" if nothing is held.
func (s *Segmenter) Flush() string {
	out := strings.TrimSpace(s.buf.String())
	s.buf.Reset()
	return out
}

// Pending returns the number of buffered bytes not yet emitted.
func (s *Segmenter) Pending() int {
	return s.buf.Len()
}

// Stream bridges a channel of incoming fragments to a channel of completed
// chunks. The returned channel is closed after the input channel closes and
// the final remainder (if any) has been flushed, or when ctx is cancelled.
func (s *Segmenter) Stream(ctx context.Context, in <-chan string) <-chan string {
	out := make(chan string, 16)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case fragment, ok := <-in:
				if !ok {
					if tail := s.Flush(); tail != "" {
						select {
						case out <- tail:
						case <-ctx.Done():
						}
					}
					return
				}
				for _, chunk := range s.Push(fragment) {
					select {
					case out <- chunk:
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return out
}

// Split segments a complete text in one call: all natural chunks plus the
// flushed remainder. Convenience for callers that already hold the full text.
func Split(text string, opts ...Option) []string {
	s := New(opts...)
	chunks := s.Push(text)
	if tail := s.Flush(); tail != "" {
		chunks = append(chunks, tail)
	}
	return chunks
}

// cut removes and returns the next complete chunk from the buffer.
// Returns ok=false when the buffered text should keep accumulating.
func (s *Segmenter) cut() (string, bool) {
	text := s.buf.String()
	if len(text) < s.minSize {
		return "", false
	}

	// Best natural boundary inside the emission window. Each boundary class
	// is searched over the whole window before falling to the next class, so
	// a clause separator inside the window wins over a sentence terminator
	// beyond it.
	if idx := bestBoundary(text, s.minSize, s.maxSize); idx >= 0 {
		return s.take(idx + 1), true
	}

	if len(text) < s.maxSize {
		return "", false
	}

	// No natural boundary within bounds: break at the last word boundary
	// before maxSize. A single token longer than maxSize is emitted whole:
	// splitting mid-word produces mispronunciations, so latency is traded
	// for correctness here.
	if idx := lastSpaceBefore(text, s.maxSize); idx > 0 {
		return s.take(idx), true
	}
	if idx := strings.IndexFunc(text, unicode.IsSpace); idx > 0 {
		return s.take(idx), true
	}
	return "", false
}

// take splits the buffer at end, returning the trimmed head and keeping the
// trimmed tail buffered.
func (s *Segmenter) take(end int) string {
	text := s.buf.String()
	head := strings.TrimSpace(text[:end])
	tail := strings.TrimLeft(text[end:], " \t\n\r")
	s.buf.Reset()
	s.buf.WriteString(tail)
	return head
}

// bestBoundary returns the byte index of the highest-priority break point
// within [from-1, limit): first sentence terminator followed by whitespace,
// then clause separator, then newline. Returns -1 if none exists in the
// window.
func bestBoundary(text string, from, limit int) int {
	if sentence := boundaryAt(text, from, limit, isSentenceEnd, true); sentence >= 0 {
		return sentence
	}
	if clause := boundaryAt(text, from, limit, isClauseEnd, false); clause >= 0 {
		return clause
	}
	start := from - 1
	if start < 0 {
		start = 0
	}
	for i := start; i < min(limit, len(text)); i++ {
		if text[i] == '\n' {
			return i
		}
	}
	return -1
}

// boundaryAt scans [from-1, limit) for the first byte matched by isEnd.
// When needsSpace is set, the terminator must be followed by whitespace (end
// of buffer is rejected so trailing terminators keep accumulating until the
// following fragment confirms the boundary).
func boundaryAt(text string, from, limit int, isEnd func(byte) bool, needsSpace bool) int {
	start := from - 1
	if start < 0 {
		start = 0
	}
	for i := start; i < min(limit, len(text)); i++ {
		if !isEnd(text[i]) {
			continue
		}
		if !needsSpace {
			return i
		}
		if i+1 < len(text) && isWhitespace(text[i+1]) {
			return i
		}
	}
	return -1
}

func isSentenceEnd(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func isClauseEnd(b byte) bool {
	return b == ',' || b == ';' || b == ':'
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// lastSpaceBefore returns the index of the last whitespace byte strictly
// before limit, or -1.
func lastSpaceBefore(text string, limit int) int {
	if limit > len(text) {
		limit = len(text)
	}
	for i := limit - 1; i >= 0; i-- {
		if isWhitespace(text[i]) {
			return i
		}
	}
	return -1
}
