// Package store defines the persistence contract the form engine runs
// against: a keyed, watchable record store with wholesale writes.
//
// Responsibilities:
//   - Store[T] persists exactly one record per key and pushes change
//     notifications to watchers registered on that key.
//   - The engine treats the store as the sole source of truth between
//     mutations; every public form operation is its own read-mutate-write
//     cycle, so the store needs no transactions.
//   - Absence can surface either as (zero, false, nil) or as ErrNotFound;
//     consumers must tolerate both conventions.
//
// Memory is the in-process implementation used by tests, examples, and as
// the default when no store is supplied. Production integrations supply
// their own implementation (session caches, client-side stores, databases)
// behind the same contract.
package store
