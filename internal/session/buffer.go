package session

import (
	"sync"
	"time"

	"github.com/voicebridge-ai/voicebridge-server/internal/audio"
)

// ForceDispatchDuration is the 60-second utterance size cap (spec.md §4.3).
// The source's contradictory "15 chunks" heuristic is deliberately not
// ported — see SPEC_FULL.md / DESIGN.md's Open Question resolution.
const ForceDispatchDuration = 60 * time.Second

// UtteranceBuffer is C3: an ordered, per-session list of audio chunks for
// the utterance currently being spoken. Append is O(1); TakeAndClear
// atomically hands ownership of the whole list to the caller (the ASR
// Dispatcher).
type UtteranceBuffer struct {
	mu      sync.Mutex
	chunks  []audio.Chunk
	started time.Time
}

// Append adds one chunk in arrival order.
func (b *UtteranceBuffer) Append(c audio.Chunk) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.chunks) == 0 {
		b.started = time.Now()
	}
	b.chunks = append(b.chunks, c)
}

// TakeAndClear returns the accumulated chunks and resets the buffer,
// atomically, per spec.md §3's "utterance_chunks cleared exactly when an
// ASR dispatch begins" invariant.
func (b *UtteranceBuffer) TakeAndClear() []audio.Chunk {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.chunks
	b.chunks = nil
	return out
}

// Len reports the number of buffered chunks.
func (b *UtteranceBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chunks)
}

// ExceedsForceDispatchWindow reports whether the buffer has been
// accumulating for longer than ForceDispatchDuration without an end event,
// per spec.md §4.3's 60-second force-dispatch cap.
func (b *UtteranceBuffer) ExceedsForceDispatchWindow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.chunks) == 0 {
		return false
	}
	return time.Since(b.started) >= ForceDispatchDuration
}
