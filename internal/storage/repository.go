package storage

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

	"expensetracker/internal/slot"
)

const (
	getSlotSQL = `SELECT value FROM slots WHERE key = ?`
	putSlotSQL = `INSERT INTO slots (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
)

// SQLiteRepository keeps slots as rows of a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

var _ slot.Slot = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	version, err := migrateSchema(dbPath)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer keeps concurrent Put calls from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	slog.Info("SQLite slot store ready", "component", "storage", "path", dbPath, "schema_version", version)
	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Get implements slot.Reader
func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if err := slot.ValidateKey(key); err != nil {
		return nil, err
	}
	var value []byte
	err := r.db.QueryRowContext(ctx, getSlotSQL, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, slot.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get slot %s: %w", key, err)
	}
	return value, nil
}

// Put implements slot.Writer
func (r *SQLiteRepository) Put(ctx context.Context, key string, value []byte) error {
	if err := slot.ValidateKey(key); err != nil {
		return err
	}
	if value == nil {
		value = []byte{}
	}
	if _, err := r.db.ExecContext(ctx, putSlotSQL, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("put slot %s: %w", key, err)
	}

	slog.DebugContext(ctx, "Slot saved to SQLite", "component", "storage", "key", key, "bytes", len(value))
	return nil
}
