package model

import "time"

// TaskHistory marks a habit completion on one calendar date.
// (task_id, completed_date) is unique.
type TaskHistory struct {
	ID            uint  `gorm:"primaryKey"`
	TaskID        uint  `gorm:"not null;index;uniqueIndex:idx_task_history_day"`
	Task          *Task `gorm:"constraint:OnDelete:CASCADE"`
	CompletedDate Date  `gorm:"not null;uniqueIndex:idx_task_history_day"`
	UserID        uint  `gorm:"index;not null"`
	CreatedAt     time.Time
}

// StateVersion is bumped in the same transaction as every mutation of a
// user's tasks, so clients can poll for changes made elsewhere (bot, jobs).
type StateVersion struct {
	UserID    uint `gorm:"primaryKey;autoIncrement:false"`
	Version   int64
	UpdatedAt time.Time
}
