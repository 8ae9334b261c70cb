// Package models holds the persisted entities of the transcription job
// pipeline.
package models

import "time"

// Job is the single persistent entity of the queue store. The three boolean
// flags (IsActive, Finished, Cancelled) are the source of truth for a job's
// position in the state machine, not a derived status string — see I1-I5.
type Job struct {
	ID uint `json:"id" gorm:"primaryKey;autoIncrement"`

	UserID    int64 `json:"user_id" gorm:"not null;index"`
	ChatID    int64 `json:"chat_id" gorm:"not null"`
	MessageID int64 `json:"message_id" gorm:"not null"`

	FilePath   string  `json:"file_path" gorm:"type:text;not null"`
	FileName   string  `json:"file_name" gorm:"type:text;not null"`
	FileSizeMB float64 `json:"file_size_mb" gorm:"not null"`

	IsActive  bool `json:"is_active" gorm:"not null;default:false;index"`
	Finished  bool `json:"finished" gorm:"not null;default:false;index"`
	Cancelled bool `json:"cancelled" gorm:"not null;default:false;index"`

	ErrorMessage string `json:"error_message,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName pins the table name regardless of struct renames.
func (Job) TableName() string { return "jobs" }

// Ready reports whether the dispatcher may claim this job (I4).
func (j *Job) Ready() bool {
	return !j.IsActive && !j.Finished && !j.Cancelled
}

// Terminal reports whether the job has reached a final state.
func (j *Job) Terminal() bool {
	return j.Finished || j.Cancelled
}
