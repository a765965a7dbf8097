package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"classfeed/internal/model"
)

// Category names a notification-producing event kind.
type Category string

const (
	CategoryTask         Category = "task"
	CategoryComment      Category = "comment"
	CategoryAnnouncement Category = "announcement"
	CategoryDeadline     Category = "deadline"
	CategorySchedule     Category = "schedule"
	CategoryOverdue      Category = "overdue"
)

// ParseCategory validates an externally supplied category string.
func ParseCategory(value string) (Category, bool) {
	switch c := Category(value); c {
	case CategoryTask, CategoryComment, CategoryAnnouncement,
		CategoryDeadline, CategorySchedule, CategoryOverdue:
		return c, true
	default:
		return "", false
	}
}

// SettingsSource loads one user's notification preferences.
type SettingsSource interface {
	FindByUser(ctx context.Context, userID uint) (*model.NotificationSettings, error)
}

// GateService decides whether a notification may reach a user. It is
// read-only; callers act on the boolean.
type GateService struct {
	settings SettingsSource
	logger   zerolog.Logger
}

func NewGateService(settings SettingsSource, logger zerolog.Logger) *GateService {
	return &GateService{settings: settings, logger: logger}
}

// IsAllowed reports whether a notification of the given category may be
// delivered to the user at the given moment. A user without a settings row
// gets everything: absence of configuration must not suppress delivery.
func (s *GateService) IsAllowed(ctx context.Context, userID uint, category Category, now time.Time) (bool, error) {
	settings, err := s.settings.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return s.allowed(settings, category, now), nil
}

func (s *GateService) allowed(settings *model.NotificationSettings, category Category, now time.Time) bool {
	if !settings.PushEnabled {
		return false
	}

	enabled, known := categoryEnabled(settings, category)
	if !known {
		// Caller/schema mismatch, not user preference.
		s.logger.Error().
			Str("category", string(category)).
			Uint("user_id", settings.UserID).
			Msg("notification gate called with unknown category")
		return false
	}
	if !enabled {
		return false
	}

	if !settings.DNDEnabled {
		return true
	}
	return !s.inDNDWindow(settings, now)
}

func (s *GateService) inDNDWindow(settings *model.NotificationSettings, now time.Time) bool {
	start, err := parseTimeOfDay(settings.DNDStart)
	if err != nil {
		s.logger.Warn().Err(err).Uint("user_id", settings.UserID).Msg("bad DND start, ignoring window")
		return false
	}
	end, err := parseTimeOfDay(settings.DNDEnd)
	if err != nil {
		s.logger.Warn().Err(err).Uint("user_id", settings.UserID).Msg("bad DND end, ignoring window")
		return false
	}
	return inWindow(now.Hour()*60+now.Minute(), start, end)
}

func categoryEnabled(settings *model.NotificationSettings, category Category) (enabled, known bool) {
	switch category {
	case CategoryTask:
		return settings.TasksEnabled, true
	case CategoryComment:
		return settings.CommentsEnabled, true
	case CategoryAnnouncement:
		return settings.AnnouncementsEnabled, true
	case CategoryDeadline:
		return settings.DeadlinesEnabled, true
	case CategorySchedule:
		return settings.SchedulesEnabled, true
	case CategoryOverdue:
		return settings.OverdueEnabled, true
	default:
		return false, false
	}
}
