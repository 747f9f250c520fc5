// Package storage defines the record store contract and its cursor
// semantics.
//
// A Store produces Cursors: stateful, single-use handles that yield one
// record per pull without materializing the result set. Each cursor owns
// a backing resource (a pooled connection and read transaction for the
// database backends) that stays checked out until the cursor is closed.
// Closing is idempotent and must happen on every exit path; a cursor
// left open pins its pool slot and will exhaust the pool under load.
//
// Three implementations exist: memory (tests and lightweight demos),
// postgres (pgx connection pool), and sqlite (database/sql).
package storage
