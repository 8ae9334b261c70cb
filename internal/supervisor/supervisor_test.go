package supervisor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeStore struct {
	resetCalls int32
}

func (f *fakeStore) ResetActive() (int64, error) {
	atomic.AddInt32(&f.resetCalls, 1)
	return 1, nil
}

type fakeDispatcher struct {
	runs int32
}

func (f *fakeDispatcher) Run(ctx context.Context) {
	atomic.AddInt32(&f.runs, 1)
	<-ctx.Done()
}

func TestSupervisorResetsActiveAndSpawnsOnce(t *testing.T) {
	store := &fakeStore{}
	d := &fakeDispatcher{}
	s := New(store, func() Dispatcher { return d }, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	s.Run(ctx)

	assert.EqualValues(t, 1, store.resetCalls)
	assert.EqualValues(t, 1, d.runs)
}

func TestSupervisorRespawnsAfterDispatcherExits(t *testing.T) {
	store := &fakeStore{}
	var spawned int32
	s := New(store, func() Dispatcher {
		atomic.AddInt32(&spawned, 1)
		return &exitingDispatcher{}
	}, 30*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	s.Run(ctx)

	assert.GreaterOrEqual(t, atomic.LoadInt32(&spawned), int32(2))
}

type exitingDispatcher struct{}

func (e *exitingDispatcher) Run(ctx context.Context) {
	// Exits immediately regardless of ctx, simulating a crashed dispatcher
	// task so the health check has to respawn it.
}
