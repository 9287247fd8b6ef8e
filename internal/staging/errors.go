package staging

import "errors"

// Sentinel errors for staging store operations.
// Check with errors.Is() in calling code.
var (
	// ErrCapacityExceeded is returned when a write would run past the end
	// of the slot. The payload must be rejected, never truncated.
	ErrCapacityExceeded = errors.New("staging: slot capacity exceeded")

	// ErrOutOfRange is returned when a seek or read targets an offset
	// outside the slot.
	ErrOutOfRange = errors.New("staging: offset out of range")

	// ErrClosed is returned when operating on a closed store.
	ErrClosed = errors.New("staging: store closed")
)
