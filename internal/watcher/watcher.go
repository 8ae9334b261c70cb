// Package watcher is the Downloads Watcher (C6): it polls an ingest
// directory, tracks files that are still being written, and enrolls a file
// as a queued job once its size has been stable across three consecutive
// 2-second-spaced checks. fsnotify only provides a fast-path wakeup so a
// freshly dropped file doesn't have to wait for the next 30s poll tick to be
// noticed for the first time; the stability algorithm itself is the sole
// authority on when a file is actually done uploading.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"transflow/internal/estimate"
	"transflow/pkg/logger"

	"github.com/fsnotify/fsnotify"
)

// Enqueuer is the subset of the queue store the watcher needs. It never
// imports internal/queue directly so it can be unit tested against a fake.
type Enqueuer interface {
	Enqueue(userID, chatID, messageID int64, filePath, fileName string, fileSizeMB float64) (uint, error)
	FileInQueue(path string) (bool, error)
}

// Config parameterizes the watcher per spec §4.6 and §6.
type Config struct {
	Dir             string
	PollInterval    time.Duration // default 30s
	StabilityWindow time.Duration // default 2s, times 3 checks
	SentinelUserID  int64
	MaxFileSizeMB   float64
}

// Watcher implements C6.
type Watcher struct {
	cfg      Config
	queue    Enqueuer
	fsw      *fsnotify.Watcher
	pending  map[string]*upload // path -> in-progress stability tracking
	wake     chan struct{}
	processed map[string]bool // enrolled or rejected-oversize, never re-checked
}

type upload struct {
	lastSize      int64
	stableStreaks int
}

// New builds a watcher over cfg.Dir. Dir is created if missing.
func New(cfg Config, queue Enqueuer) (*Watcher, error) {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 30 * time.Second
	}
	if cfg.StabilityWindow == 0 {
		cfg.StabilityWindow = 2 * time.Second
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(cfg.Dir); err != nil {
		fsw.Close()
		return nil, err
	}

	return &Watcher{
		cfg:       cfg,
		queue:     queue,
		fsw:       fsw,
		pending:   make(map[string]*upload),
		wake:      make(chan struct{}, 1),
		processed: make(map[string]bool),
	}, nil
}

// Close releases the fsnotify handle.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// Run blocks until ctx is cancelled, driving both the fsnotify fast path and
// the authoritative poll loop.
func (w *Watcher) Run(ctx context.Context) {
	go w.watchEvents(ctx)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	w.scanOnce()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.scanOnce()
		case <-w.wake:
			w.scanOnce()
		}
	}
}

func (w *Watcher) watchEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				select {
				case w.wake <- struct{}{}:
				default:
				}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("Downloads watcher error", "error", err)
		}
	}
}

// scanOnce runs the full C6 upload-completion algorithm: three spaced
// stability probes, gated by a non-zero, readable-first-byte check.
func (w *Watcher) scanOnce() {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		logger.Warn("Failed to read downloads directory", "error", err, "dir", w.cfg.Dir)
		return
	}

	seen := make(map[string]bool, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !estimate.IsMediaFile(name) {
			continue
		}
		path := filepath.Join(w.cfg.Dir, name)
		seen[path] = true

		if w.processed[path] {
			continue
		}
		w.checkStability(path, name)
	}

	for path := range w.pending {
		if !seen[path] {
			delete(w.pending, path)
		}
	}
}

func (w *Watcher) checkStability(path, name string) {
	info, err := os.Stat(path)
	if err != nil {
		delete(w.pending, path)
		return
	}
	size := info.Size()
	if size == 0 {
		delete(w.pending, path)
		return
	}
	if !firstByteReadable(path) {
		delete(w.pending, path)
		return
	}

	track, ok := w.pending[path]
	if !ok {
		track = &upload{lastSize: size}
		w.pending[path] = track
	}

	for track.stableStreaks < 3 {
		time.Sleep(w.cfg.StabilityWindow)
		info, err := os.Stat(path)
		if err != nil {
			delete(w.pending, path)
			return
		}
		if info.Size() != track.lastSize {
			track.lastSize = info.Size()
			track.stableStreaks = 0
			return // resume polling on the next tick/wake
		}
		track.stableStreaks++
	}

	w.enroll(path, name, track.lastSize)
	delete(w.pending, path)
}

func (w *Watcher) enroll(path, name string, size int64) {
	w.processed[path] = true

	sizeMB := float64(size) / (1024 * 1024)
	if sizeMB > w.cfg.MaxFileSizeMB {
		logger.Info("Downloads file exceeds max size, skipping enrollment", "file", name, "size_mb", sizeMB)
		return
	}

	inQueue, err := w.queue.FileInQueue(path)
	if err != nil {
		logger.Warn("Failed to check queue membership before enrollment", "error", err, "file", name)
		return
	}
	if inQueue {
		return
	}

	if _, err := w.queue.Enqueue(w.cfg.SentinelUserID, 0, 0, path, name, sizeMB); err != nil {
		logger.Error("Failed to enroll downloads file", "error", err, "file", name)
		return
	}
	logger.Info("Enrolled downloads file as job", "file", name, "size_mb", sizeMB)
}

func firstByteReadable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	buf := make([]byte, 1)
	_, err = f.Read(buf)
	return err == nil
}
