// Package cleaner removes stale scratch files from temp_audio/ and
// downloads/ (§6), invoked by the dispatcher every 10th tick. It never
// touches transcriptions/: the core never deletes produced artifacts.
package cleaner

import (
	"os"
	"path/filepath"
	"time"

	"transflow/pkg/logger"
)

// FileInQueue reports whether path is still referenced by an unfinished job;
// such files are never deleted regardless of age.
type FileInQueue func(path string) (bool, error)

// Cleaner deletes files older than Retention in each watched directory,
// except ones preserve (passed per call, "still uploading") or FileInQueue
// (referenced by an unfinished job) says to keep.
type Cleaner struct {
	Dirs        []string
	Retention   time.Duration
	FileInQueue FileInQueue
}

// New builds a Cleaner over dirs with the spec's default 24h retention.
func New(dirs []string, fileInQueue FileInQueue) *Cleaner {
	return &Cleaner{Dirs: dirs, Retention: 24 * time.Hour, FileInQueue: fileInQueue}
}

// Clean implements dispatcher.Cleaner. preserve names paths the watcher
// currently considers "still uploading"; those are skipped regardless of
// age, same as a referenced-by-a-job file.
func (c *Cleaner) Clean(preserve map[string]bool) {
	cutoff := time.Now().Add(-c.Retention)

	for _, dir := range c.Dirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if !os.IsNotExist(err) {
				logger.Warn("Cleaner failed to read directory", "dir", dir, "error", err)
			}
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			if preserve[path] {
				continue
			}

			info, err := entry.Info()
			if err != nil || info.ModTime().After(cutoff) {
				continue
			}

			if inQueue, err := c.FileInQueue(path); err != nil || inQueue {
				continue
			}

			if err := os.Remove(path); err != nil {
				logger.Warn("Cleaner failed to remove stale file", "path", path, "error", err)
				continue
			}
			logger.Debug("Cleaner removed stale file", "path", path)
		}
	}
}
