// Package store provides a SQLite-backed journal of executed operations.
//
// Every query or schema operation the driver runs can be appended as an
// Execution row holding the compiled term, its fingerprint, and either the
// canonical JSON result or the error.
//
// # Ordering
//
//   - seq INTEGER is a logical clock assigned on insert, never a timestamp
//   - ListExecutions returns newest first: ORDER BY seq DESC
//   - ids are UUIDv7, so they also sort by creation time
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - Single open connection: writes are serialised
//
// Fingerprints and result hashes are computed via internal/ir/hash.go using
// RFC 8785 canonical JSON and SHA-256 with domain separation.
package store
