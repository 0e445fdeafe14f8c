// Package sqlite provides a SQLite-based implementation of the place store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Staged places are stored as JSON
// snapshots next to the columns used for listing, so upload state and creation
// details survive restarts and an interrupted upload resumes where it stopped.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// The database is stored as usermgr.db in the data directory.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking provided
// by SQLite in WAL mode.
package sqlite
