// Package store is the reference event store: it executes compiled
// requests against a SQL events table.
//
// Events are stored as canonical JSON documents next to their id, owner
// and timestamps:
//   - events: one row per event, doc holds every non-column field
//   - users: owners registered by signed creates
//   - user_configs: per-user connection settings written by /config
//
// # Ordering
//
// Every read ends its ORDER BY with seq, the insertion counter, so equal
// sort keys come back in insertion order.
//
// # Backends
//
// Open uses SQLite (mattn/go-sqlite3, WAL mode, a single writer) with a
// regexp function registered for $regex. OpenPostgres uses a pgx pool
// through database/sql. Both share the statements in this package and the
// WHERE clauses compiled by querysql.
package store
