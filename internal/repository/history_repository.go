package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"classfeed/internal/model"
)

// HistoryRepository manages durable completion records.
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Denormalize copies the task's provenance onto every history record still
// referencing it. Safe to re-run; it rewrites the same values.
func (r *HistoryRepository) Denormalize(ctx context.Context, taskID uint, title string, authorID uint, authorName string) error {
	err := r.db.WithContext(ctx).
		Model(&model.HistoryRecord{}).
		Where("task_id = ?", taskID).
		Updates(map[string]interface{}{
			"task_title":       title,
			"task_author_id":   authorID,
			"task_author_name": authorName,
		}).Error
	if err != nil {
		return fmt.Errorf("denormalize history for task %d: %w", taskID, err)
	}
	return nil
}

// Detach nulls the task reference. Callers must denormalize first.
func (r *HistoryRepository) Detach(ctx context.Context, taskID uint) error {
	err := r.db.WithContext(ctx).
		Model(&model.HistoryRecord{}).
		Where("task_id = ?", taskID).
		Update("task_id", nil).Error
	if err != nil {
		return fmt.Errorf("detach history for task %d: %w", taskID, err)
	}
	return nil
}

// DeleteOlderThan prunes one user's records completed before the cutoff.
func (r *HistoryRepository) DeleteOlderThan(ctx context.Context, userID uint, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND completed_at < ?", userID, cutoff).
		Delete(&model.HistoryRecord{})
	if res.Error != nil {
		return 0, fmt.Errorf("prune history for user %d: %w", userID, res.Error)
	}
	return res.RowsAffected, nil
}
