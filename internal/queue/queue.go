// Package queue is the durable queue store (C1): an ordered, gorm-backed
// table of Job records with atomic state transitions. It is the only
// cross-component shared state in the system; every mutator runs as a single
// database statement, and the compare-and-set transitions (claim, finish,
// cancel, reset) also serialize on a process-local mutex, so concurrent
// callers (the dispatcher, the watcher, the control surface) never observe a
// torn write.
package queue

import (
	"errors"
	"sync"

	"transflow/internal/models"

	"gorm.io/gorm"
)

// ErrStore wraps any failure reading or writing the underlying store. The
// dispatcher treats it as a TransientStoreError and applies the backoff
// policy from spec §4.4 step 15 instead of finishing the job.
var ErrStore = errors.New("queue: store error")

// Store is the C1 Queue Store.
type Store struct {
	db *gorm.DB
	// mu serializes the claim/finish/cancel compare-and-set transitions so
	// that two concurrent callers racing on the same id can't both succeed.
	mu sync.Mutex
}

// New wraps an existing gorm connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Enqueue inserts a ready job and returns its assigned id.
func (s *Store) Enqueue(userID, chatID, messageID int64, filePath, fileName string, fileSizeMB float64) (uint, error) {
	job := models.Job{
		UserID:     userID,
		ChatID:     chatID,
		MessageID:  messageID,
		FilePath:   filePath,
		FileName:   fileName,
		FileSizeMB: fileSizeMB,
	}
	if err := s.db.Create(&job).Error; err != nil {
		return 0, errors.Join(ErrStore, err)
	}
	return job.ID, nil
}

// TakeNextReady returns the ready job with the smallest id, or (nil, nil) if
// none exists. It never mutates the row.
func (s *Store) TakeNextReady() (*models.Job, error) {
	var job models.Job
	err := s.db.
		Where("is_active = ? AND finished = ? AND cancelled = ?", false, false, false).
		Order("id ASC").
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(ErrStore, err)
	}
	return &job, nil
}

// Claim atomically sets is_active=true iff the row is currently ready (I4).
// It returns false, not an error, when the row lost the race (e.g. a
// concurrent cancel).
func (s *Store) Claim(id uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.db.Model(&models.Job{}).
		Where("id = ? AND is_active = ? AND finished = ? AND cancelled = ?", id, false, false, false).
		Update("is_active", true)
	if res.Error != nil {
		return false, errors.Join(ErrStore, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// Finish performs the terminal success-or-exhausted transition. Idempotent:
// a job already in a terminal state is left untouched and returns false (P5).
func (s *Store) Finish(id uint) (bool, error) {
	return s.terminalTransition(id, "finished")
}

// Cancel performs the terminal cancellation transition. Idempotent, and a
// no-op on an already-finished job (P6).
func (s *Store) Cancel(id uint) (bool, error) {
	return s.terminalTransition(id, "cancelled")
}

func (s *Store) terminalTransition(id uint, field string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.db.Model(&models.Job{}).
		Where("id = ? AND finished = ? AND cancelled = ?", id, false, false).
		Updates(map[string]any{
			"is_active": false,
			field:       true,
		})
	if res.Error != nil {
		return false, errors.Join(ErrStore, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// SetError records an error message on a job without affecting its state
// flags; callers still follow up with Finish to reach the terminal state.
func (s *Store) SetError(id uint, message string) error {
	err := s.db.Model(&models.Job{}).Where("id = ?", id).Update("error_message", message).Error
	if err != nil {
		return errors.Join(ErrStore, err)
	}
	return nil
}

// IsCancelled is the read-only probe polled frequently by the dispatcher and
// by the child process's own cancellation checkpoints.
func (s *Store) IsCancelled(id uint) (bool, error) {
	var job models.Job
	err := s.db.Select("cancelled").Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Join(ErrStore, err)
	}
	return job.Cancelled, nil
}

// Get fetches a single job by id.
func (s *Store) Get(id uint) (*models.Job, error) {
	var job models.Job
	err := s.db.Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Join(ErrStore, err)
	}
	return &job, nil
}

// ListUserReadyOrActive powers cancel-all-mine and queue-listing queries.
func (s *Store) ListUserReadyOrActive(userID int64) ([]models.Job, error) {
	var jobs []models.Job
	err := s.db.
		Where("user_id = ? AND finished = ? AND cancelled = ?", userID, false, false).
		Order("id ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, errors.Join(ErrStore, err)
	}
	return jobs, nil
}

// ListActive returns every job currently flagged active. Used only by the
// dispatcher supervisor at startup.
func (s *Store) ListActive() ([]models.Job, error) {
	var jobs []models.Job
	err := s.db.Where("is_active = ?", true).Order("id ASC").Find(&jobs).Error
	if err != nil {
		return nil, errors.Join(ErrStore, err)
	}
	return jobs, nil
}

// ResetActive clears every stale is_active flag left behind by a crash (I3,
// P7). It never moves a row to a terminal state.
func (s *Store) ResetActive() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.db.Model(&models.Job{}).Where("is_active = ?", true).Update("is_active", false)
	if res.Error != nil {
		return 0, errors.Join(ErrStore, res.Error)
	}
	return res.RowsAffected, nil
}

// FileInQueue reports whether path is referenced by any non-terminal job, so
// the cleaner never deletes a file a future dispatcher tick still needs.
func (s *Store) FileInQueue(path string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Job{}).
		Where("file_path = ? AND finished = ? AND cancelled = ?", path, false, false).
		Count(&count).Error
	if err != nil {
		return false, errors.Join(ErrStore, err)
	}
	return count > 0, nil
}
