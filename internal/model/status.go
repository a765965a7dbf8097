package model

import "time"

// CompletionStatus marks a task or sub-task as done (or seen) by one user.
// Exactly one of TaskID/SubTaskID is set. A status row must never outlive
// its referent; the reconciler removes rows whose referent is gone.
type CompletionStatus struct {
	ID          uint  `gorm:"primaryKey"`
	UserID      uint  `gorm:"index"`
	TaskID      *uint `gorm:"index"`
	SubTaskID   *uint `gorm:"index"`
	Completed   bool  `gorm:"default:false"`
	CompletedAt *time.Time
	CreatedAt   time.Time
}
