// package repositories provides persistence layer implementations for all
// model types.
//
// Each repository holds a [DBTX] so the same implementation runs against a
// plain connection or inside a transaction (see WithTx on each type). The
// find-or-create entry points absorb uniqueness conflicts from concurrent
// callers: a duplicate insert under a unique index degrades to a re-read and
// is reported as "found".
package repositories

import (
	"database/sql"
	"fmt"
)

// DBTX is the subset of [sql.DB] and [sql.Tx] the repositories need.
type DBTX interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// NextSequence increments and returns the next sequence number for the given
// table. Sequence numbers provide human-readable ordering for entities; they
// are not exposed in CLI output.
//
// The two statements are not wrapped in their own transaction so the helper
// can run inside a caller's transaction; SQLite's single-writer model keeps
// the pair atomic for standalone use.
func NextSequence(db DBTX, table string) (int, error) {
	sequenceTable := table + "_sequence"

	if _, err := db.Exec(fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable)); err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	if err := db.QueryRow(fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	return sequence, nil
}
