// Package trace persists a per-turn audit trail: what the user said, how it
// was routed, what the agent answered, and how long it took. The store is an
// operational log, not conversational memory; session knowledge stays
// in-process and dies with the session.
package trace

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Turn is one recorded exchange.
type Turn struct {
	ID         int64
	SessionID  string
	Utterance  string
	Intent     string
	Response   string
	ErrorKind  string
	DurationMS int64
	CreatedAt  time.Time
}

// Store writes turns to a local SQLite database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates or opens the trace database at dbPath, creating parent
// directories as needed.
func NewStore(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("trace: create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("trace: open database: %w", err)
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("trace: initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *Store) Path() string { return s.dbPath }

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		utterance TEXT NOT NULL,
		intent TEXT NOT NULL,
		response TEXT,
		error_kind TEXT,
		duration_ms INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends one turn.
func (s *Store) Record(ctx context.Context, turn Turn) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO turns (session_id, utterance, intent, response, error_kind, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)`,
		turn.SessionID, turn.Utterance, turn.Intent, turn.Response, turn.ErrorKind, turn.DurationMS)
	if err != nil {
		return fmt.Errorf("trace: record turn: %w", err)
	}
	return nil
}

// RecentTurns returns up to limit turns for a session, newest first.
func (s *Store) RecentTurns(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, utterance, intent, response, error_kind, duration_ms, created_at
		FROM turns WHERE session_id = ?
		ORDER BY id DESC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("trace: query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var response, errorKind sql.NullString
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Utterance, &t.Intent, &response, &errorKind, &t.DurationMS, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("trace: scan turn: %w", err)
		}
		t.Response = response.String
		t.ErrorKind = errorKind.String
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
