package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"classfeed/internal/model"
)

// StatusRepository manages per-user completion markers.
type StatusRepository struct {
	db *gorm.DB
}

func NewStatusRepository(db *gorm.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// DeleteForTask removes every status referencing the task or one of its
// sub-tasks. Idempotent: deleting an already-clean task removes nothing.
func (r *StatusRepository) DeleteForTask(ctx context.Context, taskID uint) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("task_id = ? OR sub_task_id IN (SELECT id FROM sub_tasks WHERE task_id = ?)", taskID, taskID).
		Delete(&model.CompletionStatus{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete statuses for task %d: %w", taskID, res.Error)
	}
	return res.RowsAffected, nil
}

// FindOrphans returns statuses whose referent task or sub-task no longer
// exists. Under correct sweeper operation this finds nothing.
func (r *StatusRepository) FindOrphans(ctx context.Context) ([]model.CompletionStatus, error) {
	var statuses []model.CompletionStatus
	if err := r.db.WithContext(ctx).
		Where("(task_id IS NOT NULL AND task_id NOT IN (SELECT id FROM tasks)) OR (sub_task_id IS NOT NULL AND sub_task_id NOT IN (SELECT id FROM sub_tasks))").
		Find(&statuses).Error; err != nil {
		return nil, fmt.Errorf("find orphan statuses: %w", err)
	}
	return statuses, nil
}

func (r *StatusRepository) DeleteByIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Delete(&model.CompletionStatus{}, ids)
	if res.Error != nil {
		return 0, fmt.Errorf("delete statuses: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteStaleIncomplete removes never-completed statuses created before the
// cutoff. History records, not statuses, are the durable completion record.
func (r *StatusRepository) DeleteStaleIncomplete(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("NOT completed AND created_at < ?", cutoff).
		Delete(&model.CompletionStatus{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete stale statuses: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ListCompletedByUser returns the user's completed statuses in one query so
// callers can filter task sets locally.
func (r *StatusRepository) ListCompletedByUser(ctx context.Context, userID uint) ([]model.CompletionStatus, error) {
	var statuses []model.CompletionStatus
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND completed", userID).
		Find(&statuses).Error; err != nil {
		return nil, fmt.Errorf("list completed statuses for user %d: %w", userID, err)
	}
	return statuses, nil
}
