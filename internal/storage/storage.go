package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lesson has no progress row. Callers check
// it with errors.Is.
var ErrNotFound = errors.New("progress not found")

// ProgressStatus is the reader's state on a lesson.
type ProgressStatus string

const (
	ProgressStarted   ProgressStatus = "started"
	ProgressCompleted ProgressStatus = "completed"
)

// Valid reports whether s is a known status value.
func (s ProgressStatus) Valid() bool {
	return s == ProgressStarted || s == ProgressCompleted
}

// Progress is the reader's state on one lesson: at most one row per lesson,
// upserted on every run and completion. This is deliberately not an
// execution history — only the latest state is kept.
type Progress struct {
	LessonSlug string         `json:"lesson_slug"`
	Status     ProgressStatus `json:"status"`
	LastCode   string         `json:"last_code,omitempty"`
	LastRunOK  bool           `json:"last_run_ok"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Store is the persistence interface for lesson progress.
type Store interface {
	// UpsertProgress inserts or updates the row for p.LessonSlug. A
	// completed lesson is never demoted back to started.
	UpsertProgress(ctx context.Context, p *Progress) error

	// GetProgress returns the progress row for a lesson, or an error
	// wrapping ErrNotFound when there is none.
	GetProgress(ctx context.Context, slug string) (*Progress, error)

	// ListProgress returns all progress rows ordered by updated_at descending.
	ListProgress(ctx context.Context) ([]Progress, error)

	// Close releases resources.
	Close() error
}
