package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"classfeed/internal/model"
)

// UserRepository reads user rows owned by the account service.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByID(ctx context.Context, userID uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListReminderCandidates returns every user whose deadline reminders are
// enabled, paired with their settings, in one joined query.
func (r *UserRepository) ListReminderCandidates(ctx context.Context) ([]model.ReminderCandidate, error) {
	var settings []model.NotificationSettings
	if err := r.db.WithContext(ctx).
		Where("deadlines_enabled AND reminder_time <> ''").
		Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("list reminder settings: %w", err)
	}
	if len(settings) == 0 {
		return nil, nil
	}

	userIDs := make([]uint, 0, len(settings))
	for _, s := range settings {
		userIDs = append(userIDs, s.UserID)
	}
	var users []model.User
	if err := r.db.WithContext(ctx).Find(&users, userIDs).Error; err != nil {
		return nil, fmt.Errorf("load reminder users: %w", err)
	}
	byID := make(map[uint]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	candidates := make([]model.ReminderCandidate, 0, len(settings))
	for _, s := range settings {
		user, ok := byID[s.UserID]
		if !ok {
			continue
		}
		candidates = append(candidates, model.ReminderCandidate{User: user, Settings: s})
	}
	return candidates, nil
}
