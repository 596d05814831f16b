// Package store keeps a local history of fetch outcomes in sqlite. It
// backs the `stats` command and is strictly best-effort: a broken history
// never fails a rip.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store records one row per executed fetch task.
type Store struct {
	db *sql.DB
}

// Record is one fetch outcome.
type Record struct {
	Target    string
	PostID    string
	File      string
	URL       string
	OK        bool
	Error     string
	FetchedAt time.Time
}

// TargetStats aggregates the history of one target.
type TargetStats struct {
	Target  string
	Saved   int
	Failed  int
	LastRun time.Time
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("path is required")
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	ctx := context.Background()
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Add inserts one outcome row.
func (s *Store) Add(ctx context.Context, r Record) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(r.Target) == "" {
		return errors.New("target is required")
	}
	if strings.TrimSpace(r.PostID) == "" {
		return errors.New("post_id is required")
	}
	if r.FetchedAt.IsZero() {
		r.FetchedAt = time.Now()
	}

	ok := 0
	if r.OK {
		ok = 1
	}

	var errVal sql.NullString
	if r.Error != "" {
		errVal = sql.NullString{String: r.Error, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO downloads (target, post_id, file, url, ok, error, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.Target, r.PostID, r.File, r.URL, ok, errVal, formatTime(r.FetchedAt))
	if err != nil {
		return fmt.Errorf("insert download: %w", err)
	}
	return nil
}

// Stats returns per-target aggregates, most recently active first.
func (s *Store) Stats(ctx context.Context) ([]TargetStats, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT target,
		       SUM(ok) AS saved,
		       SUM(1 - ok) AS failed,
		       MAX(fetched_at) AS last_run
		FROM downloads
		GROUP BY target
		ORDER BY last_run DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var stats []TargetStats
	for rows.Next() {
		var ts TargetStats
		var lastRun string
		if err := rows.Scan(&ts.Target, &ts.Saved, &ts.Failed, &lastRun); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		ts.LastRun, err = parseTime(lastRun)
		if err != nil {
			return nil, err
		}
		stats = append(stats, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stats: %w", err)
	}

	return stats, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
