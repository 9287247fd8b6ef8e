// Package staging provides the single-slot staging store used by the
// store-backed relay strategy.
//
// The store is a byte-addressable scratch area with a cursor, not a log.
// Offset 0 is unused; offset 1 (SentinelOffset) is the reserved slot start
// the cursor is reset to before a message is staged and again after it has
// been relayed. Holding that discipline makes the store behave as a single
// reusable slot regardless of backing medium.
//
// Two implementations are provided:
//
//   - MemoryStore: a fixed-capacity in-RAM slot, used in tests and on
//     deployments that do not need the staged payload to survive a restart.
//   - SQLiteStore: a durable slot persisted through the database package,
//     byte-addressed by offset. Payloads staged here survive process
//     restarts and can be inspected with ordinary SQLite tooling.
package staging
