package cleaner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanRemovesOldUnreferencedFiles(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.mp3")
	require.NoError(t, os.WriteFile(oldPath, []byte("x"), 0644))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, old, old))

	c := New([]string{dir}, func(string) (bool, error) { return false, nil })
	c.Clean(nil)

	_, err := os.Stat(oldPath)
	assert.True(t, os.IsNotExist(err))
}

func TestCleanPreservesReferencedFiles(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.mp3")
	require.NoError(t, os.WriteFile(oldPath, []byte("x"), 0644))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, old, old))

	c := New([]string{dir}, func(string) (bool, error) { return true, nil })
	c.Clean(nil)

	_, err := os.Stat(oldPath)
	assert.NoError(t, err)
}

func TestCleanPreservesRecentFiles(t *testing.T) {
	dir := t.TempDir()
	recentPath := filepath.Join(dir, "recent.mp3")
	require.NoError(t, os.WriteFile(recentPath, []byte("x"), 0644))

	c := New([]string{dir}, func(string) (bool, error) { return false, nil })
	c.Clean(nil)

	_, err := os.Stat(recentPath)
	assert.NoError(t, err)
}

func TestCleanSkipsExplicitlyPreservedPaths(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "uploading.mp3")
	require.NoError(t, os.WriteFile(oldPath, []byte("x"), 0644))
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(oldPath, old, old))

	c := New([]string{dir}, func(string) (bool, error) { return false, nil })
	c.Clean(map[string]bool{oldPath: true})

	_, err := os.Stat(oldPath)
	assert.NoError(t, err)
}
