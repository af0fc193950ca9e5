// Package sqlite persists sessions in a SQLite database using the pure-Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/polya/pkg/domain"
	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

// Store implements ports.SessionStore and ports.ProgressStore using SQLite.
// The full session is stored as JSON; a few columns are denormalized for Summary.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (creating if needed) the database at path and initializes the schema.
// Use ":memory:" for a throwaway database.
func New(path string) (*Store, error) {
	dsn := memoryPath
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if path == memoryPath {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &Store{db: db, now: time.Now}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		exercise_id TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		score INTEGER,
		data TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_exercise ON sessions(exercise_id);

	CREATE TABLE IF NOT EXISTS completions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		session_id TEXT NOT NULL,
		exercise_id TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		score INTEGER NOT NULL,
		substantive INTEGER NOT NULL,
		step_count INTEGER NOT NULL,
		completed_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_completions_user ON completions(user_id, completed_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save upserts the session.
func (s *Store) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	var score any
	if session.Score != nil {
		score = *session.Score
	}
	now := s.now().Unix()

	query := `
	INSERT INTO sessions (session_id, exercise_id, completed, score, data, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(session_id) DO UPDATE SET
		exercise_id = excluded.exercise_id,
		completed = excluded.completed,
		score = excluded.score,
		data = excluded.data,
		updated_at = excluded.updated_at`

	_, err = s.db.ExecContext(ctx, query,
		sessionID, session.ExerciseID, session.Completed, score, string(data), now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// Load reads the session.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM sessions WHERE session_id = ?`, sessionID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

// Delete removes the session.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// List returns session IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT session_id FROM sessions ORDER BY session_id`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan session id: %w", err)
		}
		sessions = append(sessions, id)
	}
	return sessions, rows.Err()
}

// ExerciseSummary aggregates stored sessions of one exercise.
type ExerciseSummary struct {
	ExerciseID   string  `json:"exercise_id"`
	Sessions     int     `json:"sessions"`
	Completed    int     `json:"completed"`
	AverageScore float64 `json:"average_score"`
}

// Summary reports attempts, completions and the mean completed score per exercise.
func (s *Store) Summary(ctx context.Context) ([]ExerciseSummary, error) {
	query := `
	SELECT exercise_id, COUNT(*), SUM(completed), COALESCE(AVG(score), 0)
	FROM sessions
	GROUP BY exercise_id
	ORDER BY exercise_id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("summarize sessions: %w", err)
	}
	defer rows.Close()

	var out []ExerciseSummary
	for rows.Next() {
		var sum ExerciseSummary
		if err := rows.Scan(&sum.ExerciseID, &sum.Sessions, &sum.Completed, &sum.AverageScore); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
