package staging

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/gatelink/gatelink-core/internal/infrastructure/database"
	_ "github.com/gatelink/gatelink-core/migrations"
)

// openStagingDB opens a temporary database with the staging schema applied.
func openStagingDB(t *testing.T) *database.DB {
	t.Helper()

	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "staging.db")

	db, err := database.Open(ctx, database.Config{
		Path:        dbPath,
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("failed to open staging database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate staging database: %v", err)
	}
	return db
}

func TestSQLiteStore_CursorStartsAtSentinel(t *testing.T) {
	db := openStagingDB(t)
	s := NewSQLiteStore(db, 1024)
	defer s.Close()

	if got := s.Position(); got != SentinelOffset {
		t.Errorf("Position() = %d, want %d", got, SentinelOffset)
	}
}

func TestSQLiteStore_WriteReadRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openStagingDB(t)
	s := NewSQLiteStore(db, 1024)
	defer s.Close()

	payload := []byte{0x00, 0x7F, 0xFF, 'g', 'o'}

	if err := s.Seek(SentinelOffset); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	for _, b := range payload {
		if err := s.WriteByte(ctx, b); err != nil {
			t.Fatalf("WriteByte() error = %v", err)
		}
	}

	if err := s.Seek(SentinelOffset); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	for i, want := range payload {
		got, err := s.ReadByte(ctx)
		if err != nil {
			t.Fatalf("ReadByte() error = %v", err)
		}
		if got != want {
			t.Errorf("byte %d = 0x%02X, want 0x%02X", i, got, want)
		}
	}
}

func TestSQLiteStore_OverwriteAtSameOffset(t *testing.T) {
	ctx := context.Background()
	db := openStagingDB(t)
	s := NewSQLiteStore(db, 1024)
	defer s.Close()

	if err := s.Seek(SentinelOffset); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if err := s.WriteByte(ctx, 'a'); err != nil {
		t.Fatalf("WriteByte() error = %v", err)
	}

	// A later payload reuses the slot from the sentinel onward.
	if err := s.Seek(SentinelOffset); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if err := s.WriteByte(ctx, 'b'); err != nil {
		t.Fatalf("WriteByte() error = %v", err)
	}

	if err := s.Seek(SentinelOffset); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	got, err := s.ReadByte(ctx)
	if err != nil {
		t.Fatalf("ReadByte() error = %v", err)
	}
	if got != 'b' {
		t.Errorf("ReadByte() = %q, want %q", got, byte('b'))
	}
}

func TestSQLiteStore_UnwrittenOffsetsReadZero(t *testing.T) {
	ctx := context.Background()
	db := openStagingDB(t)
	s := NewSQLiteStore(db, 1024)
	defer s.Close()

	if err := s.Seek(100); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	got, err := s.ReadByte(ctx)
	if err != nil {
		t.Fatalf("ReadByte() error = %v", err)
	}
	if got != 0 {
		t.Errorf("ReadByte() at unwritten offset = 0x%02X, want 0x00", got)
	}
}

func TestSQLiteStore_CapacityEnforced(t *testing.T) {
	ctx := context.Background()
	db := openStagingDB(t)
	s := NewSQLiteStore(db, 4)
	defer s.Close()

	if err := s.Seek(SentinelOffset); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := s.WriteByte(ctx, byte(i)); err != nil {
			t.Fatalf("WriteByte(%d) error = %v", i, err)
		}
	}

	if err := s.WriteByte(ctx, 0xFF); !errors.Is(err, ErrCapacityExceeded) {
		t.Errorf("WriteByte() past capacity error = %v, want ErrCapacityExceeded", err)
	}

	if err := s.Seek(4); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("Seek() past capacity error = %v, want ErrOutOfRange", err)
	}
}

func TestSQLiteStore_PayloadSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "staging.db")

	openDB := func() *database.DB {
		db, err := database.Open(ctx, database.Config{Path: dbPath, WALMode: true, BusyTimeout: 5})
		if err != nil {
			t.Fatalf("failed to open staging database: %v", err)
		}
		if err := db.Migrate(ctx); err != nil {
			t.Fatalf("failed to migrate staging database: %v", err)
		}
		return db
	}

	db := openDB()
	s := NewSQLiteStore(db, 1024)
	if err := s.Seek(SentinelOffset); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	for _, b := range []byte("durable") {
		if err := s.WriteByte(ctx, b); err != nil {
			t.Fatalf("WriteByte() error = %v", err)
		}
	}
	s.Close()
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// A new process inspecting the store sees the staged payload.
	db = openDB()
	defer db.Close() //nolint:errcheck // Test cleanup

	s = NewSQLiteStore(db, 1024)
	defer s.Close()
	if err := s.Seek(SentinelOffset); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	got := make([]byte, 0, 7)
	for range "durable" {
		b, err := s.ReadByte(ctx)
		if err != nil {
			t.Fatalf("ReadByte() error = %v", err)
		}
		got = append(got, b)
	}
	if string(got) != "durable" {
		t.Errorf("read back %q, want %q", got, "durable")
	}
}

func TestSQLiteStore_CloseDoesNotCloseDB(t *testing.T) {
	ctx := context.Background()
	db := openStagingDB(t)

	s := NewSQLiteStore(db, 1024)
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if err := s.Seek(SentinelOffset); !errors.Is(err, ErrClosed) {
		t.Errorf("Seek() after Close error = %v, want ErrClosed", err)
	}

	// The caller-owned database stays usable.
	if err := db.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() after store Close error = %v", err)
	}
}
