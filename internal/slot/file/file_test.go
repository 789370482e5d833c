package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/slot"
)

func TestFileStoreRoundTripInMemoryFs(t *testing.T) {
	ctx := context.Background()
	fsys := afero.NewMemMapFs()
	s, err := NewWithFs(fsys, "/data")
	require.NoError(t, err)

	_, err = s.Get(ctx, "expenses")
	assert.ErrorIs(t, err, slot.ErrNotFound)

	require.NoError(t, s.Put(ctx, "expenses", []byte(`[1]`)))
	require.NoError(t, s.Put(ctx, "expenses", []byte(`[2]`)))

	got, err := s.Get(ctx, "expenses")
	require.NoError(t, err)
	assert.Equal(t, `[2]`, string(got))

	// Only the slot file remains; temp files are renamed away.
	entries, err := afero.ReadDir(fsys, "/data")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "expenses.json", entries[0].Name())
}

func TestFileStoreOnDisk(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "expenses", []byte(`[]`)))
	raw, err := os.ReadFile(filepath.Join(dir, "expenses.json"))
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(raw))
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	s, err := NewWithFs(afero.NewMemMapFs(), "/data")
	require.NoError(t, err)

	err = s.Put(context.Background(), "../etc/passwd", []byte("x"))
	assert.True(t, errors.Is(err, slot.ErrInvalidKey))
	_, err = s.Get(context.Background(), "")
	assert.True(t, errors.Is(err, slot.ErrInvalidKey))
}

func TestFileStoreReadOnlyFs(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/data", 0o755))
	s, err := NewWithFs(afero.NewReadOnlyFs(base), "/data")
	require.NoError(t, err)

	err = s.Put(context.Background(), "expenses", []byte(`[]`))
	assert.Error(t, err)
}
