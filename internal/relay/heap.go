package relay

import (
	"context"
	"fmt"
)

// defaultMaxPayload is the heap strategy's payload ceiling when none is
// configured. Matches the session layer's publish limit.
const defaultMaxPayload = 1 << 20 // 1MB

// HeapStrategy stages each payload in a freshly allocated, exact-size heap
// block. The block is released (unreferenced) on every exit path, success
// or failure, so an indefinitely running relay cannot accumulate staged
// payloads.
type HeapStrategy struct {
	maxPayload int
}

// NewHeapStrategy creates a heap strategy with the given payload ceiling
// in bytes. A ceiling <= 0 selects the default (1MB).
func NewHeapStrategy(maxPayload int) *HeapStrategy {
	if maxPayload <= 0 {
		maxPayload = defaultMaxPayload
	}
	return &HeapStrategy{maxPayload: maxPayload}
}

// Name identifies the strategy in logs and metrics.
func (s *HeapStrategy) Name() string {
	return "heap"
}

// Relay copies payload into a private exact-size block and emits it.
//
// A zero-length payload emits a zero-length block. Payloads above the
// ceiling are rejected with ErrPayloadTooLarge before any allocation.
func (s *HeapStrategy) Relay(_ context.Context, payload []byte, emit func([]byte) error) error {
	if len(payload) > s.maxPayload {
		return fmt.Errorf("%w: %d > %d bytes", ErrPayloadTooLarge, len(payload), s.maxPayload)
	}

	// Exact-size private copy: the inbound buffer is reused by the
	// driver as soon as the handler returns, and the publish path may
	// itself use shared I/O buffers.
	staged := make([]byte, len(payload))
	copy(staged, payload)

	return emit(staged)
}
