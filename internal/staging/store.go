package staging

import "context"

// SentinelOffset is the reserved cursor position the slot starts at.
// The cursor is reset here before reception and again after relay, so the
// store acts as a single-slot buffer. Offset 0 is never used.
const SentinelOffset int64 = 1

// Store is the byte-addressable staging contract consumed by the relay's
// store strategy.
//
// Reads and writes operate at the cursor and advance it by one. None of the
// implementations are safe for concurrent use; the relay serialises message
// handling, so at most one goroutine touches the store at a time.
type Store interface {
	// Seek positions the cursor at the given offset.
	Seek(offset int64) error

	// Position returns the current cursor offset.
	Position() int64

	// ReadByte returns the byte at the cursor and advances it.
	ReadByte(ctx context.Context) (byte, error)

	// WriteByte stores a byte at the cursor and advances it.
	WriteByte(ctx context.Context, b byte) error

	// Capacity returns the total addressable size of the store in bytes,
	// including the reserved region below SentinelOffset.
	Capacity() int64

	// Close releases the store. Further operations return ErrClosed.
	Close() error
}

// SlotCapacity returns the usable payload capacity of a store: the bytes
// addressable from SentinelOffset to the end.
func SlotCapacity(s Store) int64 {
	return s.Capacity() - SentinelOffset
}
