package staging

import "context"

// defaultMemoryCapacity is the slot size used when none is configured.
// Generous for MQTT payloads while staying bounded.
const defaultMemoryCapacity = 64 * 1024

// MemoryStore is a fixed-capacity in-RAM staging slot.
//
// It implements the same cursor discipline as the durable store, which
// makes it the reference implementation for tests and the backing for
// deployments where staged payloads need not survive a restart.
type MemoryStore struct {
	buf    []byte
	cursor int64
	closed bool
}

// NewMemoryStore creates a memory store with the given capacity in bytes.
// A capacity <= 0 selects the default (64 KiB).
func NewMemoryStore(capacity int64) *MemoryStore {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}
	return &MemoryStore{
		buf:    make([]byte, capacity),
		cursor: SentinelOffset,
	}
}

// Seek positions the cursor.
func (s *MemoryStore) Seek(offset int64) error {
	if s.closed {
		return ErrClosed
	}
	if offset < 0 || offset >= int64(len(s.buf)) {
		return ErrOutOfRange
	}
	s.cursor = offset
	return nil
}

// Position returns the current cursor offset.
func (s *MemoryStore) Position() int64 {
	return s.cursor
}

// ReadByte returns the byte at the cursor and advances it.
func (s *MemoryStore) ReadByte(_ context.Context) (byte, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if s.cursor >= int64(len(s.buf)) {
		return 0, ErrOutOfRange
	}
	b := s.buf[s.cursor]
	s.cursor++
	return b, nil
}

// WriteByte stores a byte at the cursor and advances it.
func (s *MemoryStore) WriteByte(_ context.Context, b byte) error {
	if s.closed {
		return ErrClosed
	}
	if s.cursor >= int64(len(s.buf)) {
		return ErrCapacityExceeded
	}
	s.buf[s.cursor] = b
	s.cursor++
	return nil
}

// Capacity returns the total addressable size in bytes.
func (s *MemoryStore) Capacity() int64 {
	return int64(len(s.buf))
}

// Close releases the buffer. Further operations return ErrClosed.
func (s *MemoryStore) Close() error {
	s.closed = true
	s.buf = nil
	return nil
}
