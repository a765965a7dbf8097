package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"classfeed/internal/model"
)

// SettingsRepository reads user notification preferences. The engine never
// writes settings; the settings API owns mutation.
type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// FindByUser returns the user's settings row. A missing row surfaces as
// gorm.ErrRecordNotFound; callers decide the default.
func (r *SettingsRepository) FindByUser(ctx context.Context, userID uint) (*model.NotificationSettings, error) {
	var settings model.NotificationSettings
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// ListWithRetention returns settings rows with history auto-delete enabled.
func (r *SettingsRepository) ListWithRetention(ctx context.Context) ([]model.NotificationSettings, error) {
	var settings []model.NotificationSettings
	if err := r.db.WithContext(ctx).
		Where("history_retention_days > 0").
		Find(&settings).Error; err != nil {
		return nil, fmt.Errorf("list retention settings: %w", err)
	}
	return settings, nil
}
