package model

import "time"

// User stores the class membership and delivery address for a student.
// Profile, authentication and sessions live elsewhere; the engine only
// needs enough to scope tasks and address notifications.
type User struct {
	ID        uint `gorm:"primaryKey"`
	ClassID   uint `gorm:"index"`
	Name      string
	PushToken string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReminderCandidate pairs a user with their settings for deadline-reminder
// matching.
type ReminderCandidate struct {
	User     User
	Settings NotificationSettings
}
