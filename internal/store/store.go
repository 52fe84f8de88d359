// Package store persists documents, projects and scheduling state in a
// single SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps the database handle. All timestamps are RFC 3339 UTC
// strings so they compare correctly as text in SQL.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (or creates) the database at path and brings the schema up
// to date.
func Open(path string, log *slog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY churn under concurrent handlers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	s := &Store{db: db, log: log}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM _migrations").Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i, m := range migrations {
		version := i + 1
		if version <= current {
			continue
		}
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration %03d: %w", version, err)
		}
		if _, err := s.db.Exec("INSERT INTO _migrations (version, applied_at) VALUES (?, ?)", version, now()); err != nil {
			return fmt.Errorf("record migration %03d: %w", version, err)
		}
		s.log.Info("applied migration", "version", version)
	}
	return nil
}

// Activity is one audit log entry.
type Activity struct {
	ID         int64  `json:"id"`
	Action     string `json:"action"`
	EntityType string `json:"entity_type"`
	EntityID   string `json:"entity_id,omitempty"`
	Details    string `json:"details,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// LogActivity records an audit entry. Failures are logged and swallowed;
// a broken audit trail never fails the caller.
func (s *Store) LogActivity(ctx context.Context, action, entityType, entityID, details string) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity_log (action, entity_type, entity_id, details, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		action, entityType, nullable(entityID), nullable(details), now())
	if err != nil {
		s.log.Warn("activity log write failed", "action", action, "error", err)
	}
}

// RecentActivity returns the newest entries first.
func (s *Store) RecentActivity(ctx context.Context, limit int) ([]Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, action, entity_type, entity_id, details, created_at
		 FROM activity_log ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var entries []Activity
	for rows.Next() {
		var a Activity
		var entityID, details sql.NullString
		if err := rows.Scan(&a.ID, &a.Action, &a.EntityType, &entityID, &details, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		a.EntityID = entityID.String
		a.Details = details.String
		entries = append(entries, a)
	}
	return entries, rows.Err()
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// nullable maps "" to NULL for optional text columns.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
