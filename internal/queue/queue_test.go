package queue

import (
	"testing"

	"transflow/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	// A database named after the test keeps each test's rows out of the others.
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Job{}))
	return New(db)
}

func TestEnqueueAndTakeNextReady(t *testing.T) {
	s := newTestStore(t)

	id1, err := s.Enqueue(1, 100, 1, "/tmp/a.mp3", "a.mp3", 3.0)
	require.NoError(t, err)
	_, err = s.Enqueue(1, 100, 2, "/tmp/b.mp3", "b.mp3", 3.0)
	require.NoError(t, err)

	job, err := s.TakeNextReady()
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, id1, job.ID)
}

func TestClaimRace(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Enqueue(1, 100, 1, "/tmp/a.mp3", "a.mp3", 3.0)
	require.NoError(t, err)

	ok, err := s.Claim(id)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second claim on the same (now active) id must fail (P3: at most one active).
	ok, err = s.Claim(id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFinishAndCancelAreIdempotentAndMutuallyExclusive(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Enqueue(1, 100, 1, "/tmp/a.mp3", "a.mp3", 3.0)
	require.NoError(t, err)
	_, err = s.Claim(id)
	require.NoError(t, err)

	ok, err := s.Finish(id)
	require.NoError(t, err)
	assert.True(t, ok)

	// P5: finish after finish is a no-op returning false.
	ok, err = s.Finish(id)
	require.NoError(t, err)
	assert.False(t, ok)

	// P6: cancel after finish is a no-op returning false.
	ok, err = s.Cancel(id)
	require.NoError(t, err)
	assert.False(t, ok)

	job, err := s.Get(id)
	require.NoError(t, err)
	assert.True(t, job.Finished)
	assert.False(t, job.Cancelled)
	assert.False(t, job.IsActive)
}

func TestResetActiveClearsWithoutTerminating(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Enqueue(1, 100, 1, "/tmp/a.mp3", "a.mp3", 3.0)
	require.NoError(t, err)
	_, err = s.Claim(id)
	require.NoError(t, err)

	n, err := s.ResetActive()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	active, err := s.ListActive()
	require.NoError(t, err)
	assert.Empty(t, active)

	job, err := s.Get(id)
	require.NoError(t, err)
	assert.False(t, job.Finished)
	assert.False(t, job.Cancelled)
	assert.True(t, job.Ready())
}

func TestFileInQueueIgnoresTerminalJobs(t *testing.T) {
	s := newTestStore(t)
	id, err := s.Enqueue(1, 100, 1, "/tmp/a.mp3", "a.mp3", 3.0)
	require.NoError(t, err)

	inQueue, err := s.FileInQueue("/tmp/a.mp3")
	require.NoError(t, err)
	assert.True(t, inQueue)

	_, err = s.Finish(id)
	require.NoError(t, err)

	inQueue, err = s.FileInQueue("/tmp/a.mp3")
	require.NoError(t, err)
	assert.False(t, inQueue)
}
