// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// implementation of the graphstore.Store interface.
//
// # Characteristics
//
//   - **Ephemeral:** Records live only as long as the process.
//   - **Thread-Safe:** Uses sync.Map for concurrent access without a global lock.
//   - **Copy Semantics:** Records are stored encoded, so callers never share
//     state with the store.
//
// It backs `nodegraph run` when no --store directory is given, and tests.
// For records that must survive a restart, use internal/badgerstore.
package inmemorystore
