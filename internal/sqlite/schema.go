// Package sqlite stores snapshots in SQLite database files, one file per
// kind. A write replaces the whole contents inside a single transaction.
package sqlite

// Schema DDL for snapshot files.
const (
	createMeta = `CREATE TABLE IF NOT EXISTS snapshot_meta (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    kind TEXT NOT NULL,
    version INTEGER NOT NULL,
    saved_at TEXT NOT NULL,
    count INTEGER NOT NULL
);`

	createRecords = `CREATE TABLE IF NOT EXISTS records (
    seq INTEGER PRIMARY KEY,
    key TEXT NOT NULL UNIQUE,
    fields TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createMeta,
	createRecords,
}

const (
	insertMeta   = `INSERT INTO snapshot_meta (id, kind, version, saved_at, count) VALUES (1, ?, ?, ?, ?)`
	insertRecord = `INSERT INTO records (seq, key, fields, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	selectMeta   = `SELECT kind, version, saved_at, count FROM snapshot_meta WHERE id = 1`
	selectAll    = `SELECT key, fields, created_at, updated_at FROM records ORDER BY seq`
)
