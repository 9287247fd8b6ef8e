// Package relay republishes every message received on the inbound topic,
// verbatim, on the outbound topic.
//
// The inbound payload is owned by the MQTT driver only for the duration of
// the handler call; the driver may reuse the buffer the moment the handler
// returns. A relay strategy therefore stages a complete private copy before
// the outbound publish is issued:
//
//   - HeapStrategy: an exact-size heap copy, released on every exit path.
//     Bounded by available RAM via a configurable payload ceiling.
//   - StoreStrategy: a single-slot staging store (see the staging package),
//     written at reception and read back for republish, cursor reset to the
//     sentinel offset before and after each message. Bounded by slot
//     capacity, and durable when backed by SQLite.
//
// Oversize payloads are surfaced as errors; the relay never truncates.
//
// The relay is constructed unbound and the session publisher is attached
// with Bind once the session exists. This breaks the construction cycle
// between the session (which needs the handler) and the handler (which
// needs the session): a message arriving before Bind yields ErrNotBound
// instead of dereferencing a half-built session.
//
// Message handling is serialised: at most one inbound message is processed
// at a time, which is what makes the single staging slot safe to reuse.
package relay
