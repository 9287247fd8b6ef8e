package relay

import (
	"context"
	"fmt"

	"github.com/gatelink/gatelink-core/internal/staging"
)

// StoreStrategy stages each payload through a single-slot staging store.
//
// The slot discipline: the cursor is reset to the sentinel offset before
// reception, every payload byte is streamed into the store, the cursor is
// reset again to read the staged copy back for emission, and reset a final
// time after relay. The store therefore always idles with its cursor at
// the sentinel, holding at most the last staged payload.
//
// Compared to the heap strategy this bounds staging by store capacity
// rather than RAM, and a SQLite-backed store keeps the staged payload
// visible across a crash.
type StoreStrategy struct {
	store staging.Store
}

// NewStoreStrategy creates a store strategy on the given staging store.
func NewStoreStrategy(store staging.Store) *StoreStrategy {
	return &StoreStrategy{store: store}
}

// Name identifies the strategy in logs and metrics.
func (s *StoreStrategy) Name() string {
	return "store"
}

// Relay stages payload in the store and emits the read-back copy.
//
// A payload larger than the slot is rejected with
// staging.ErrCapacityExceeded before any byte is written. A zero-length
// payload emits a zero-length block without touching the slot contents.
func (s *StoreStrategy) Relay(ctx context.Context, payload []byte, emit func([]byte) error) error {
	if int64(len(payload)) > staging.SlotCapacity(s.store) {
		return fmt.Errorf("%w: %d > %d bytes",
			staging.ErrCapacityExceeded, len(payload), staging.SlotCapacity(s.store))
	}

	// Reset before reception.
	if err := s.store.Seek(staging.SentinelOffset); err != nil {
		return fmt.Errorf("seeking sentinel before staging: %w", err)
	}

	for i, b := range payload {
		if err := s.store.WriteByte(ctx, b); err != nil {
			return fmt.Errorf("staging byte %d: %w", i, err)
		}
	}

	// Read the staged copy back for emission.
	if err := s.store.Seek(staging.SentinelOffset); err != nil {
		return fmt.Errorf("seeking sentinel before readback: %w", err)
	}
	staged := make([]byte, len(payload))
	for i := range staged {
		b, err := s.store.ReadByte(ctx)
		if err != nil {
			return fmt.Errorf("reading staged byte %d: %w", i, err)
		}
		staged[i] = b
	}

	// Reset after relay, regardless of emit outcome, so the slot is
	// ready for the next message.
	emitErr := emit(staged)
	if err := s.store.Seek(staging.SentinelOffset); err != nil {
		return fmt.Errorf("seeking sentinel after relay: %w", err)
	}
	return emitErr
}
