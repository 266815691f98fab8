package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vmihailenco/msgpack/v5"

	_ "modernc.org/sqlite"
)

// schema contains the DDL for the session history table.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS sessions (
		id         TEXT PRIMARY KEY,
		label      TEXT NOT NULL DEFAULT '',
		players    INTEGER NOT NULL,
		courts     INTEGER NOT NULL,
		rounds     INTEGER NOT NULL,
		seed       INTEGER NOT NULL,
		score      INTEGER NOT NULL,
		schedule   BLOB NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions(created_at)`,
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger logrus.FieldLogger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger logrus.FieldLogger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.WithField("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.WithField("op", "migrate").Debug("sql")
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Save inserts a session. A missing ID gets a fresh UUID and a zero
// CreatedAt gets the current time.
func (s *SQLiteStore) Save(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	s.logger.WithFields(logrus.Fields{"op": "insert", "table": "sessions", "id": sess.ID}).Debug("sql")

	blob, err := msgpack.Marshal(sess.Schedule)
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, label, players, courts, rounds, seed, score, schedule, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Label, sess.Players, sess.Courts, sess.Rounds, sess.Seed, sess.Score,
		blob, sess.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

// Get returns the session with the given id, or nil when none exists.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Session, error) {
	s.logger.WithFields(logrus.Fields{"op": "select", "table": "sessions", "id": id}).Debug("sql")
	return s.scanSession(s.db.QueryRowContext(ctx,
		`SELECT id, label, players, courts, rounds, seed, score, schedule, created_at
		 FROM sessions WHERE id = ?`, id))
}

// List returns all sessions, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]*Session, error) {
	s.logger.WithFields(logrus.Fields{"op": "list", "table": "sessions"}).Debug("sql")

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label, players, courts, rounds, seed, score, schedule, created_at
		 FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := s.scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// Delete removes the session with the given id.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	s.logger.WithFields(logrus.Fields{"op": "delete", "table": "sessions", "id": id}).Debug("sql")

	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("session %s not found", id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scanSession(row scanner) (*Session, error) {
	var sess Session
	var blob []byte
	var createdAt string

	err := row.Scan(&sess.ID, &sess.Label, &sess.Players, &sess.Courts, &sess.Rounds,
		&sess.Seed, &sess.Score, &blob, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := msgpack.Unmarshal(blob, &sess.Schedule); err != nil {
		return nil, fmt.Errorf("unmarshal schedule: %w", err)
	}
	sess.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

	return &sess, nil
}
