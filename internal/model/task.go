package model

import "time"

// Task is a unit of schoolwork visible to a class.
type Task struct {
	ID        uint `gorm:"primaryKey"`
	ClassID   uint `gorm:"index"`
	AuthorID  uint `gorm:"index"`
	Title     string
	Deadline  *time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
	SubTasks  []SubTask `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
}

// SubTask is a follow-up item attached to a Task. It has no deadline of
// its own; it is due whenever its parent is.
type SubTask struct {
	ID        uint `gorm:"primaryKey"`
	TaskID    uint `gorm:"index"`
	AuthorID  uint
	Content   string
	CreatedAt time.Time
}
