package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"expensetracker/internal/slot"
)

func newTestRepo(t *testing.T) (*SQLiteRepository, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "db", "expenses.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func TestSQLiteRepositoryGetPut(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)

	if _, err := repo.Get(ctx, "expenses"); !errors.Is(err, slot.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := repo.Put(ctx, "expenses", []byte(`[{"id":"a"}]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.Put(ctx, "expenses", []byte(`[]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, err := repo.Get(ctx, "expenses")
	if err != nil || string(got) != "[]" {
		t.Fatalf("unexpected value %q err=%v", got, err)
	}

	var rows int
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM slots WHERE key = ?`, "expenses").Scan(&rows); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if rows != 1 {
		t.Fatalf("overwrite left %d rows", rows)
	}
}

func TestSQLiteRepositoryEmptyValue(t *testing.T) {
	ctx := context.Background()
	repo, _ := newTestRepo(t)
	if err := repo.Put(ctx, "expenses", nil); err != nil {
		t.Fatalf("put nil: %v", err)
	}
	got, err := repo.Get(ctx, "expenses")
	if err != nil || len(got) != 0 {
		t.Fatalf("expected empty value, got %q err=%v", got, err)
	}
}

func TestSQLiteRepositoryReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	repo, path := newTestRepo(t)
	if err := repo.Put(ctx, "expenses", []byte(`[1]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	repo.Close()

	reopened, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "expenses")
	if err != nil || string(got) != "[1]" {
		t.Fatalf("unexpected value after reopen %q err=%v", got, err)
	}
}

func TestSQLiteRepositoryInvalidKey(t *testing.T) {
	repo, _ := newTestRepo(t)
	if err := repo.Put(context.Background(), "a/b", []byte("x")); !errors.Is(err, slot.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}
