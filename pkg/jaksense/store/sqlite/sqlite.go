package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/jaksense/pkg/jaksense/comment"
	"github.com/cognicore/jaksense/pkg/jaksense/internalerr"
	"github.com/cognicore/jaksense/pkg/jaksense/store"
	"github.com/cognicore/jaksense/pkg/jaksense/taxonomy"
)

// sqliteStore implements store.Store on SQLite. Sessions survive restarts.
type sqliteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// schema if needed.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	return open(ctx, path, time.Now)
}

func open(ctx context.Context, path string, now func() time.Time) (*sqliteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	// One writer at a time; pragmas below then hold for every statement.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: init schema: %v", internalerr.ErrStoreUnavailable, err)
	}

	return &sqliteStore{db: db, now: now}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist. Tags are rows of their own
// so the list order survives without a serialized column.
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	last_seen INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS records (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	id TEXT UNIQUE NOT NULL,
	session_id TEXT NOT NULL,
	mode TEXT NOT NULL,
	text TEXT NOT NULL,
	sentiment TEXT NOT NULL,
	confidence REAL NOT NULL,
	source TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_session ON records(session_id, seq);

CREATE TABLE IF NOT EXISTS record_tags (
	record_seq INTEGER NOT NULL,
	position INTEGER NOT NULL,
	tag TEXT NOT NULL,
	PRIMARY KEY(record_seq, position)
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Append inserts the record and its tags in one transaction.
func (s *sqliteStore) Append(ctx context.Context, session string, rec comment.Record) error {
	if err := store.ValidateSession(session); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const touch = `
INSERT INTO sessions (id, last_seen) VALUES (?, ?)
ON CONFLICT(id) DO UPDATE SET last_seen=excluded.last_seen;
`
	if _, err := tx.ExecContext(ctx, touch, session, s.now().UnixNano()); err != nil {
		return err
	}

	const insert = `
INSERT INTO records (id, session_id, mode, text, sentiment, confidence, source, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING seq;
`
	var seq int64
	err = tx.QueryRowContext(
		ctx,
		insert,
		rec.ID,
		session,
		string(rec.Mode),
		rec.Text,
		string(rec.Sentiment),
		rec.Confidence,
		string(rec.Source),
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	).Scan(&seq)
	if err != nil {
		return fmt.Errorf("insert record %s: %w", rec.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO record_tags (record_seq, position, tag) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, tag := range rec.Tags {
		if _, err := stmt.ExecContext(ctx, seq, i, string(tag)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// List returns the session's records in append order.
func (s *sqliteStore) List(ctx context.Context, session string) ([]comment.Record, error) {
	if err := store.ValidateSession(session); err != nil {
		return nil, err
	}

	const query = `
SELECT seq, id, mode, text, sentiment, confidence, source, created_at
FROM records
WHERE session_id = ?
ORDER BY seq;
`
	rows, err := s.db.QueryContext(ctx, query, session)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []comment.Record
	index := make(map[int64]int)
	for rows.Next() {
		var (
			seq                               int64
			rec                               comment.Record
			mode, sentiment, source, createdAt string
		)
		if err := rows.Scan(&seq, &rec.ID, &mode, &rec.Text, &sentiment, &rec.Confidence, &source, &createdAt); err != nil {
			return nil, err
		}
		rec.Mode = comment.Mode(mode)
		rec.Sentiment = comment.Sentiment(sentiment)
		rec.Source = comment.Source(source)
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			rec.CreatedAt = t
		}
		index[seq] = len(out)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}

	const tagQuery = `
SELECT t.record_seq, t.tag
FROM record_tags t
JOIN records r ON r.seq = t.record_seq
WHERE r.session_id = ?
ORDER BY t.record_seq, t.position;
`
	tagRows, err := s.db.QueryContext(ctx, tagQuery, session)
	if err != nil {
		return nil, err
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var (
			seq int64
			tag string
		)
		if err := tagRows.Scan(&seq, &tag); err != nil {
			return nil, err
		}
		if i, ok := index[seq]; ok {
			out[i].Tags = append(out[i].Tags, taxonomy.Label(tag))
		}
	}
	return out, tagRows.Err()
}

// Reset deletes the session, its records and their tags.
func (s *sqliteStore) Reset(ctx context.Context, session string) error {
	if err := store.ValidateSession(session); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := deleteSessions(ctx, tx, `id = ?`, session); err != nil {
		return err
	}
	return tx.Commit()
}

// Prune deletes sessions idle since before cutoff.
func (s *sqliteStore) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	n, err := deleteSessions(ctx, tx, `last_seen < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return int(n), nil
}

// deleteSessions removes every session matching where, cascading by hand so
// the result does not depend on the foreign_keys pragma of the connection.
func deleteSessions(ctx context.Context, tx *sql.Tx, where string, arg any) (int64, error) {
	sessions := `SELECT id FROM sessions WHERE ` + where
	stmts := []string{
		`DELETE FROM record_tags WHERE record_seq IN (SELECT seq FROM records WHERE session_id IN (` + sessions + `))`,
		`DELETE FROM records WHERE session_id IN (` + sessions + `)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt, arg); err != nil {
			return 0, err
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE `+where, arg)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
