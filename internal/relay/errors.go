package relay

import "errors"

// Sentinel errors for relay operations.
// Check with errors.Is() in calling code.
var (
	// ErrNotBound is returned when a message arrives before Bind has
	// attached a publisher to the relay.
	ErrNotBound = errors.New("relay: no publisher bound")

	// ErrPayloadTooLarge is returned by the heap strategy when a payload
	// exceeds the configured ceiling. The payload is rejected, never
	// truncated.
	ErrPayloadTooLarge = errors.New("relay: payload exceeds maximum size")

	// ErrTopicMismatch is returned when a message arrives on a topic the
	// relay is not configured to forward.
	ErrTopicMismatch = errors.New("relay: message topic does not match inbound topic")
)
