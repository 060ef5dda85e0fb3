package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/runebook/runebook/internal/storage"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening memory db: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertAndGetProgress(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p := &storage.Progress{
		LessonSlug: "hello-world",
		Status:     storage.ProgressStarted,
		LastCode:   `console.log("hi")`,
		LastRunOK:  true,
	}
	if err := s.UpsertProgress(ctx, p); err != nil {
		t.Fatalf("UpsertProgress: %v", err)
	}

	got, err := s.GetProgress(ctx, "hello-world")
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if got.Status != storage.ProgressStarted {
		t.Errorf("status = %q, want %q", got.Status, storage.ProgressStarted)
	}
	if got.LastCode != p.LastCode {
		t.Errorf("last code = %q", got.LastCode)
	}
	if !got.LastRunOK {
		t.Error("last_run_ok = false, want true")
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps should not be zero")
	}
}

func TestGetProgressNotFound(t *testing.T) {
	s := testStore(t)

	_, err := s.GetProgress(context.Background(), "nope")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("err = %v, want storage.ErrNotFound", err)
	}
}

func TestUpsertOverwritesRow(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.UpsertProgress(ctx, &storage.Progress{
		LessonSlug: "loops", Status: storage.ProgressStarted, LastCode: "v1", LastRunOK: false,
	}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := s.UpsertProgress(ctx, &storage.Progress{
		LessonSlug: "loops", Status: storage.ProgressStarted, LastCode: "v2", LastRunOK: true,
	}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	got, err := s.GetProgress(ctx, "loops")
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if got.LastCode != "v2" || !got.LastRunOK {
		t.Errorf("row not overwritten: %+v", got)
	}

	all, err := s.ListProgress(ctx)
	if err != nil {
		t.Fatalf("ListProgress: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("len = %d, want 1 (one row per lesson)", len(all))
	}
}

func TestCompletedIsNeverDemoted(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := s.UpsertProgress(ctx, &storage.Progress{
		LessonSlug: "vars", Status: storage.ProgressCompleted,
	}); err != nil {
		t.Fatalf("upsert completed: %v", err)
	}
	if err := s.UpsertProgress(ctx, &storage.Progress{
		LessonSlug: "vars", Status: storage.ProgressStarted, LastCode: "retry",
	}); err != nil {
		t.Fatalf("upsert started: %v", err)
	}

	got, err := s.GetProgress(ctx, "vars")
	if err != nil {
		t.Fatalf("GetProgress: %v", err)
	}
	if got.Status != storage.ProgressCompleted {
		t.Errorf("status = %q, want completed to stick", got.Status)
	}
	if got.LastCode != "retry" {
		t.Errorf("last code = %q, want the newer code kept", got.LastCode)
	}
}

func TestListProgress(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for _, slug := range []string{"a", "b", "c"} {
		if err := s.UpsertProgress(ctx, &storage.Progress{
			LessonSlug: slug, Status: storage.ProgressStarted,
		}); err != nil {
			t.Fatalf("upsert %s: %v", slug, err)
		}
	}

	all, err := s.ListProgress(ctx)
	if err != nil {
		t.Fatalf("ListProgress: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
}
