// Package file stores each slot as one JSON document in a data directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"expensetracker/internal/slot"
)

const fileExt = ".json"

type Store struct {
	fs  afero.Fs
	dir string
}

var _ slot.Slot = (*Store)(nil)

// New returns a store rooted at dir on the operating system filesystem.
func New(dir string) (*Store, error) {
	return NewWithFs(afero.NewOsFs(), dir)
}

// NewWithFs returns a store on an arbitrary afero filesystem, creating dir if needed.
func NewWithFs(fsys afero.Fs, dir string) (*Store, error) {
	if dir == "" {
		dir = "."
	}
	exists, err := afero.DirExists(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("stat data directory: %w", err)
	}
	if !exists {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	return &Store{fs: fsys, dir: dir}, nil
}

// Path returns the file backing key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	if err := slot.ValidateKey(key); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
			return nil, slot.ErrNotFound
		}
		return nil, fmt.Errorf("read slot %s: %w", key, err)
	}
	return data, nil
}

// Put writes value to a temporary file and renames it over the slot file so a
// crash mid-write never leaves a truncated document behind.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if err := slot.ValidateKey(key); err != nil {
		return err
	}
	target := s.Path(key)
	tmp, err := afero.TempFile(s.fs, s.dir, "."+key+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := s.fs.Rename(tmpName, target); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("replace slot %s: %w", key, err)
	}

	slog.DebugContext(ctx, "Slot written", "component", "storage", "key", key, "bytes", len(value), "path", target)
	return nil
}
