package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/runebook/runebook/internal/storage"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements storage.Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path and runs migrations.
// Use ":memory:" for an in-memory database (useful for testing).
func Open(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) UpsertProgress(ctx context.Context, p *storage.Progress) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	// A completed lesson stays completed even if later runs only report
	// 'started' — the CASE keeps the stronger status.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lesson_progress (lesson_slug, status, last_code, last_run_ok, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(lesson_slug) DO UPDATE SET
			status = CASE WHEN lesson_progress.status = 'completed' THEN 'completed' ELSE excluded.status END,
			last_code = excluded.last_code,
			last_run_ok = excluded.last_run_ok,
			updated_at = excluded.updated_at`,
		p.LessonSlug, p.Status, p.LastCode, boolToInt(p.LastRunOK),
		p.CreatedAt.Format(time.RFC3339), p.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("upserting progress: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetProgress(ctx context.Context, slug string) (*storage.Progress, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT lesson_slug, status, last_code, last_run_ok, created_at, updated_at
		FROM lesson_progress WHERE lesson_slug = ?`, slug)

	p, err := scanProgress(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, slug)
	}
	if err != nil {
		return nil, fmt.Errorf("querying progress: %w", err)
	}
	return p, nil
}

func (s *SQLiteStore) ListProgress(ctx context.Context) ([]storage.Progress, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT lesson_slug, status, last_code, last_run_ok, created_at, updated_at
		FROM lesson_progress ORDER BY updated_at DESC, lesson_slug`)
	if err != nil {
		return nil, fmt.Errorf("listing progress: %w", err)
	}
	defer rows.Close()

	var progress []storage.Progress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		progress = append(progress, *p)
	}
	return progress, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// scanner interface to work with both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanProgress(sc scanner) (*storage.Progress, error) {
	var p storage.Progress
	var runOK int
	var createdAt, updatedAt string
	err := sc.Scan(&p.LessonSlug, &p.Status, &p.LastCode, &runOK, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	p.LastRunOK = runOK != 0
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &p, nil
}
