package staging

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gatelink/gatelink-core/internal/infrastructure/database"
)

// defaultSQLiteCapacity is the durable slot size used when none is
// configured.
const defaultSQLiteCapacity = 256 * 1024

// SQLiteStore is a durable single-slot staging store backed by SQLite.
//
// Each addressable byte is a row in the staging_slot table keyed by offset,
// which keeps the store honest to the byte-addressed contract and lets a
// staged payload be inspected after a crash. Throughput is bounded by
// per-byte statements; acceptable for a staging slot, wrong for a log.
type SQLiteStore struct {
	db       *database.DB
	capacity int64
	cursor   int64
	closed   bool
}

// NewSQLiteStore creates a durable staging store on an open database.
//
// The staging_slot table must exist; it is created by the embedded schema
// migrations (see the migrations package). A capacity <= 0 selects the
// default (256 KiB).
func NewSQLiteStore(db *database.DB, capacity int64) *SQLiteStore {
	if capacity <= 0 {
		capacity = defaultSQLiteCapacity
	}
	return &SQLiteStore{
		db:       db,
		capacity: capacity,
		cursor:   SentinelOffset,
	}
}

// Seek positions the cursor.
func (s *SQLiteStore) Seek(offset int64) error {
	if s.closed {
		return ErrClosed
	}
	if offset < 0 || offset >= s.capacity {
		return ErrOutOfRange
	}
	s.cursor = offset
	return nil
}

// Position returns the current cursor offset.
func (s *SQLiteStore) Position() int64 {
	return s.cursor
}

// ReadByte returns the byte at the cursor and advances it.
// Offsets never written read back as zero.
func (s *SQLiteStore) ReadByte(ctx context.Context) (byte, error) {
	if s.closed {
		return 0, ErrClosed
	}
	if s.cursor >= s.capacity {
		return 0, ErrOutOfRange
	}

	var value int
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM staging_slot WHERE offset = ?", s.cursor,
	).Scan(&value)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		value = 0
	case err != nil:
		return 0, fmt.Errorf("staging: reading offset %d: %w", s.cursor, err)
	}

	s.cursor++
	return byte(value), nil
}

// WriteByte stores a byte at the cursor and advances it.
func (s *SQLiteStore) WriteByte(ctx context.Context, b byte) error {
	if s.closed {
		return ErrClosed
	}
	if s.cursor >= s.capacity {
		return ErrCapacityExceeded
	}

	if _, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO staging_slot (offset, value) VALUES (?, ?)",
		s.cursor, int(b),
	); err != nil {
		return fmt.Errorf("staging: writing offset %d: %w", s.cursor, err)
	}

	s.cursor++
	return nil
}

// Capacity returns the total addressable size in bytes.
func (s *SQLiteStore) Capacity() int64 {
	return s.capacity
}

// Close marks the store closed. The underlying database is owned by the
// caller and is not closed here.
func (s *SQLiteStore) Close() error {
	s.closed = true
	return nil
}
