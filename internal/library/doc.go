// Package library persists finalized videos and the session draft journal.
//
// The store speaks SQLite (modernc.org/sqlite, the default) or PostgreSQL
// (github.com/lib/pq) through database/sql. Queries are written with `?`
// placeholders and rebound per driver. The schema is embedded and versioned
// through a single-row schema_version table; a mismatch refuses to open rather
// than migrating in place.
package library
