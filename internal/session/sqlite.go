// ABOUTME: SQLite implementation of the session Store using modernc.org/sqlite.
// ABOUTME: Optional durable backend with automatic schema creation.

package session

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on a SQLite database. It provides the same
// contract as MemoryStore but survives process restarts. Per-key append
// atomicity comes from wrapping each append in a transaction; the monotonic
// seq column preserves insertion order independent of timestamps.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a session database at the given path.
// Parent directories are created if needed. Use ":memory:" for tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "session-store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite session store initialized", "path", path)
	return s, nil
}

// createSchema creates the turns table if it doesn't exist.
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS turns (
			seq             INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id      TEXT NOT NULL,
			conversation_id TEXT NOT NULL,
			role            TEXT NOT NULL,
			content         TEXT NOT NULL,

			CHECK (role IN ('user', 'assistant'))
		);

		CREATE INDEX IF NOT EXISTS idx_turns_key
			ON turns(session_id, conversation_id, seq);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Append inserts the turns inside one transaction so a concurrent append to
// the same key can never interleave between them.
func (s *SQLiteStore) Append(ctx context.Context, key Key, turns []Turn) error {
	if len(turns) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning append transaction: %w", err)
	}
	defer tx.Rollback()

	for _, turn := range turns {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO turns (session_id, conversation_id, role, content)
			VALUES (?, ?, ?, ?)
		`, key.SessionID, key.ConversationID, string(turn.Role), turn.Content)
		if err != nil {
			return fmt.Errorf("inserting turn: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing append: %w", err)
	}
	return nil
}

// Read returns the most recent limit turns for the key, oldest first.
// limit <= 0 returns all turns. Unknown keys read as empty.
func (s *SQLiteStore) Read(ctx context.Context, key Key, limit int) ([]Turn, error) {
	var query string
	var args []any

	if limit > 0 {
		// Most recent N via subquery, then reorder ascending
		query = `
			SELECT role, content FROM (
				SELECT seq, role, content
				FROM turns
				WHERE session_id = ? AND conversation_id = ?
				ORDER BY seq DESC
				LIMIT ?
			)
			ORDER BY seq ASC
		`
		args = []any{key.SessionID, key.ConversationID, limit}
	} else {
		query = `
			SELECT role, content
			FROM turns
			WHERE session_id = ? AND conversation_id = ?
			ORDER BY seq ASC
		`
		args = []any{key.SessionID, key.ConversationID}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	turns := []Turn{}
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turns = append(turns, Turn{Role: Role(role), Content: content})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}
	return turns, nil
}

// Delete removes all turns for the key. Absent keys are a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, key Key) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM turns
		WHERE session_id = ? AND conversation_id = ?
	`, key.SessionID, key.ConversationID)
	if err != nil {
		return fmt.Errorf("deleting turns: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
