// Package extract collects side-channel output (stylesheet text) emitted by
// loaders during graph traversal and materializes it as one ordered artifact
// per chunk and kind.
package extract

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ErrSealed is returned when emitting into a buffer that has already been sealed.
var ErrSealed = errors.New("extraction sink sealed")

type key struct {
	chunk string
	kind  string
}

// fragment is ordered by position when it has one, otherwise by seq after
// every positioned fragment of the same buffer.
type fragment struct {
	positioned bool
	position   int
	seq        int
	text       string
}

type buffer struct {
	fragments []fragment
	seq       int
	sealed    bool
	text      string
}

// Sink is an append-only, per (chunk, kind) fragment buffer. It is safe for
// concurrent use. Seal orders fragments by graph position so output does not
// depend on the order concurrent loaders finished in.
type Sink struct {
	mu      sync.Mutex
	buffers map[key]*buffer
}

// NewSink creates an empty sink.
func NewSink() *Sink {
	return &Sink{buffers: make(map[key]*buffer)}
}

// Emit appends text in call order. Call-ordered fragments seal after every
// fragment placed with EmitAt.
func (s *Sink) Emit(chunk, kind, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(chunk, kind, -1, text)
}

// EmitAt appends text discovered at position in the module graph.
func (s *Sink) EmitAt(chunk, kind string, position int, text string) error {
	if position < 0 {
		return fmt.Errorf("invalid graph position %d", position)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendLocked(chunk, kind, position, text)
}

func (s *Sink) appendLocked(chunk, kind string, position int, text string) error {
	k := key{chunk: chunk, kind: kind}
	b := s.buffers[k]
	if b == nil {
		b = &buffer{}
		s.buffers[k] = b
	}
	if b.sealed {
		return fmt.Errorf("%w: %s/%s", ErrSealed, chunk, kind)
	}
	b.seq++
	b.fragments = append(b.fragments, fragment{positioned: position >= 0, position: position, seq: b.seq, text: text})
	return nil
}

// Seal closes the buffer for chunk/kind and returns its content: every
// fragment exactly once, in position order, each terminated by a newline.
// Sealing again returns the same text. Sealing an unknown buffer yields "".
func (s *Sink) Seal(chunk, kind string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{chunk: chunk, kind: kind}
	b := s.buffers[k]
	if b == nil {
		b = &buffer{}
		s.buffers[k] = b
	}
	if b.sealed {
		return b.text
	}
	frags := slices.Clone(b.fragments)
	slices.SortStableFunc(frags, func(a, c fragment) int {
		switch {
		case a.positioned != c.positioned:
			if a.positioned {
				return -1
			}
			return 1
		case a.positioned && a.position != c.position:
			return a.position - c.position
		default:
			return a.seq - c.seq
		}
	})

	var sb strings.Builder
	for _, f := range frags {
		sb.WriteString(f.text)
		if !strings.HasSuffix(f.text, "\n") {
			sb.WriteByte('\n')
		}
	}
	b.sealed = true
	b.text = sb.String()
	return b.text
}

// SealAll seals every buffer of chunk and returns content keyed by kind.
func (s *Sink) SealAll(chunk string) map[string]string {
	out := make(map[string]string)
	for _, kind := range s.Kinds(chunk) {
		out[kind] = s.Seal(chunk, kind)
	}
	return out
}

// Sealed reports whether the chunk/kind buffer is sealed.
func (s *Sink) Sealed(chunk, kind string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.buffers[key{chunk: chunk, kind: kind}]
	return b != nil && b.sealed
}

// Kinds lists, sorted, the kinds that received at least one fragment for chunk.
func (s *Sink) Kinds(chunk string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kinds []string
	for k, b := range s.buffers {
		if k.chunk == chunk && len(b.fragments) > 0 {
			kinds = append(kinds, k.kind)
		}
	}
	slices.Sort(kinds)
	return kinds
}

// Len returns the number of fragments emitted for chunk/kind.
func (s *Sink) Len(chunk, kind string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b := s.buffers[key{chunk: chunk, kind: kind}]; b != nil {
		return len(b.fragments)
	}
	return 0
}
