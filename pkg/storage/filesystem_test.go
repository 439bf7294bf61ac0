package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportStore_SaveWritesUnderBaseDir(t *testing.T) {
	base := t.TempDir()
	store, err := NewExportStore(base)
	require.NoError(t, err)

	path, err := store.Save("complaints-20240301.csv", []byte("ID,Status\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "complaints-20240301.csv"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ID,Status\n", string(raw))
}

func TestExportStore_SaveHonorsAbsolutePath(t *testing.T) {
	store, err := NewExportStore(t.TempDir())
	require.NoError(t, err)

	target := filepath.Join(t.TempDir(), "out.pdf")
	path, err := store.Save(target, []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, target, path)
}

func TestExportStore_CleanupOlderThanRemovesStaleFiles(t *testing.T) {
	base := t.TempDir()
	store, err := NewExportStore(base)
	require.NoError(t, err)

	stale, err := store.Save("stale.csv", []byte("old"))
	require.NoError(t, err)
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	fresh, err := store.Save("fresh.csv", []byte("new"))
	require.NoError(t, err)

	deleted, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale.csv"}, deleted)

	_, err = os.Stat(fresh)
	assert.NoError(t, err)
	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}
