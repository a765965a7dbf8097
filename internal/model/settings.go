package model

import "time"

// NotificationSettings keeps one user's delivery preferences. Times of day
// are stored as "HH:MM" strings in the service timezone. A missing row
// means "everything enabled"; rows are created lazily by the settings API
// (outside this engine) and never deleted while the user exists.
type NotificationSettings struct {
	ID                   uint `gorm:"primaryKey"`
	UserID               uint `gorm:"uniqueIndex"`
	TasksEnabled         bool `gorm:"default:true"`
	CommentsEnabled      bool `gorm:"default:true"`
	AnnouncementsEnabled bool `gorm:"default:true"`
	DeadlinesEnabled     bool `gorm:"default:true"`
	SchedulesEnabled     bool `gorm:"default:true"`
	OverdueEnabled       bool `gorm:"default:true"`
	PushEnabled          bool `gorm:"default:true"`
	DNDEnabled           bool `gorm:"default:false"`
	DNDStart             string
	DNDEnd               string
	ReminderTime         string
	HistoryRetentionDays int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
