package model

import "time"

// HistoryRecord is the durable record of a user's completed work. TaskID is
// a weak back-reference: once the task is retired it becomes nil and the
// denormalized Task* fields carry the provenance instead. A record must
// never have a nil TaskID and empty denormalized fields at the same time.
type HistoryRecord struct {
	ID             uint  `gorm:"primaryKey"`
	UserID         uint  `gorm:"index"`
	TaskID         *uint `gorm:"index"`
	TaskTitle      string
	TaskAuthorID   uint
	TaskAuthorName string
	CompletedAt    time.Time
	CreatedAt      time.Time
}
