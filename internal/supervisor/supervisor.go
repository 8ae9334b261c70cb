// Package supervisor is the Dispatcher Supervisor (C5): it maintains the
// invariant "exactly one dispatcher task is alive and not yet completed".
// On start it clears stale is_active flags left by a prior crash, then
// spawns the dispatcher; a periodic health check respawns it if it ever
// stops running.
package supervisor

import (
	"context"
	"sync"
	"time"

	"transflow/pkg/logger"

	"golang.org/x/sync/singleflight"
)

// Store is the subset of C1 the supervisor needs at startup.
type Store interface {
	ResetActive() (int64, error)
}

// Dispatcher is the subset of C4 the supervisor drives.
type Dispatcher interface {
	Run(ctx context.Context)
}

// Supervisor is C5.
type Supervisor struct {
	store        Store
	newDispatcher func() Dispatcher
	healthEvery  time.Duration

	mu      sync.Mutex
	running bool
	group   singleflight.Group
}

// New builds a Supervisor. newDispatcher constructs a fresh Dispatcher each
// time one is spawned or respawned, so a crashed run never reuses stale
// in-process state (the Active Process Map, tick counters).
func New(store Store, newDispatcher func() Dispatcher, healthEvery time.Duration) *Supervisor {
	if healthEvery == 0 {
		healthEvery = 300 * time.Second
	}
	return &Supervisor{store: store, newDispatcher: newDispatcher, healthEvery: healthEvery}
}

// Run resets stale active flags, spawns the dispatcher, and then blocks
// running the health-check loop until ctx is cancelled.
func (s *Supervisor) Run(ctx context.Context) {
	s.resetActive()
	s.spawn(ctx)

	ticker := time.NewTicker(s.healthEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.healthCheck(ctx)
		}
	}
}

// resetActive collapses a burst of concurrent startup callers into one DB
// round trip.
func (s *Supervisor) resetActive() {
	_, err, _ := s.group.Do("reset_active", func() (any, error) {
		n, err := s.store.ResetActive()
		return n, err
	})
	if err != nil {
		logger.Error("Failed to reset stale active jobs at startup", "error", err)
		return
	}
}

func (s *Supervisor) spawn(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	d := s.newDispatcher()
	go func() {
		d.Run(ctx)
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		logger.Info("Dispatcher task completed")
	}()
}

func (s *Supervisor) healthCheck(ctx context.Context) {
	s.mu.Lock()
	alive := s.running
	s.mu.Unlock()

	if alive {
		return
	}

	logger.Warn("Dispatcher task not running, respawning")
	time.Sleep(2 * time.Second) // respawn grace window
	s.spawn(ctx)
}
