package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	enqueued []string
}

func (f *fakeQueue) Enqueue(userID, chatID, messageID int64, filePath, fileName string, fileSizeMB float64) (uint, error) {
	f.enqueued = append(f.enqueued, filePath)
	return uint(len(f.enqueued)), nil
}

func (f *fakeQueue) FileInQueue(path string) (bool, error) {
	for _, p := range f.enqueued {
		if p == path {
			return true, nil
		}
	}
	return false, nil
}

func TestEnrollsStableFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp3")
	require.NoError(t, os.WriteFile(path, make([]byte, 1024), 0644))

	q := &fakeQueue{}
	w, err := New(Config{Dir: dir, StabilityWindow: 1 * time.Millisecond, MaxFileSizeMB: 300}, q)
	require.NoError(t, err)
	defer w.Close()

	w.scanOnce()

	assert.Len(t, q.enqueued, 1)
	assert.Equal(t, path, q.enqueued[0])
}

func TestSkipsOversizeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.mp3")
	require.NoError(t, os.WriteFile(path, make([]byte, 2*1024*1024), 0644))

	q := &fakeQueue{}
	w, err := New(Config{Dir: dir, StabilityWindow: 1 * time.Millisecond, MaxFileSizeMB: 1}, q)
	require.NoError(t, err)
	defer w.Close()

	w.scanOnce()

	assert.Empty(t, q.enqueued)
}

func TestSkipsNonMediaFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	q := &fakeQueue{}
	w, err := New(Config{Dir: dir, StabilityWindow: 1 * time.Millisecond, MaxFileSizeMB: 300}, q)
	require.NoError(t, err)
	defer w.Close()

	w.scanOnce()

	assert.Empty(t, q.enqueued)
}

func TestDoesNotReenrollProcessedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp3")
	require.NoError(t, os.WriteFile(path, make([]byte, 1024), 0644))

	q := &fakeQueue{}
	w, err := New(Config{Dir: dir, StabilityWindow: 1 * time.Millisecond, MaxFileSizeMB: 300}, q)
	require.NoError(t, err)
	defer w.Close()

	w.scanOnce()
	w.scanOnce()

	assert.Len(t, q.enqueued, 1)
}
