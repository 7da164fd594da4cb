package store

import (
	"fmt"
	"strings"
)

// SchemaSQL defines the index structure for one bugreport.
// The virtual table below requires a driver compiled with FTS5;
// mattn/go-sqlite3 only includes the module behind the sqlite_fts5
// build tag, which the Makefile sets on every build and test target.
// Every report gets its own database file, so the schema never needs
// migrations: a stale index is dropped and rebuilt, never patched.
const SchemaSQL = `
-- ========================================================
-- 1. LOG ROWS
-- ========================================================

CREATE TABLE IF NOT EXISTS logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    ts_key INTEGER NOT NULL,          -- Sortable timestamp key; 0 if unparsable
    ts_raw TEXT NOT NULL,             -- "MM-DD HH:MM:SS.mmm" as seen in the source
    level TEXT NOT NULL,              -- V, D, I, W, E, F
    tag TEXT NOT NULL,
    pid INTEGER NOT NULL,
    tid INTEGER NOT NULL,
    msg TEXT NOT NULL,
    raw_line TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_logs_ts_key ON logs(ts_key);
CREATE INDEX IF NOT EXISTS idx_logs_level ON logs(level);
CREATE INDEX IF NOT EXISTS idx_logs_tag ON logs(tag);
CREATE INDEX IF NOT EXISTS idx_logs_pid ON logs(pid);

-- ========================================================
-- 2. FULL-TEXT SEARCH
-- ========================================================

-- FTS5 external-content table keyed by the same row id.
-- The builder inserts into logs and logs_fts in the same transaction,
-- so no sync triggers are needed (rows are append-only during a build).
CREATE VIRTUAL TABLE IF NOT EXISTS logs_fts USING fts5(
    tag,
    msg,
    raw_line,
    content='logs',
    content_rowid='id'
);
`

// Pragmas applied to every writable index connection.
// WAL + synchronous=NORMAL is acceptable here because the index is a
// derived, always-rebuildable cache, never a source of truth.
var buildPragmas = []string{
	"PRAGMA journal_mode=WAL;",
	"PRAGMA synchronous=NORMAL;",
	"PRAGMA temp_store=MEMORY;",
}

// schemaHint decorates the one schema failure a misconfigured build
// actually produces: a sqlite driver compiled without the FTS5 module.
func schemaHint(err error) error {
	if strings.Contains(err.Error(), "no such module: fts5") {
		return fmt.Errorf("%w (the sqlite driver was built without FTS5; rebuild with -tags sqlite_fts5)", err)
	}
	return err
}
