package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"classfeed/internal/model"
)

// TaskRepository handles task queries for the lifecycle engine. Task
// creation and editing happen in the feed API, not here.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// FindExpired returns tasks whose deadline has passed or whose age exceeds
// the global ceiling.
func (r *TaskRepository) FindExpired(ctx context.Context, now time.Time, ageCeiling time.Duration) ([]model.Task, error) {
	var tasks []model.Task
	oldest := now.Add(-ageCeiling)
	if err := r.db.WithContext(ctx).
		Where("(deadline IS NOT NULL AND deadline < ?) OR created_at < ?", now, oldest).
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("find expired tasks: %w", err)
	}
	return tasks, nil
}

// FindFullyCompleted returns tasks where every completed status is older
// than the grace cutoff and no incomplete status remains. Tasks nobody has
// touched yet have no completed status and are excluded.
func (r *TaskRepository) FindFullyCompleted(ctx context.Context, now time.Time, grace time.Duration) ([]model.Task, error) {
	cutoff := now.Add(-grace)
	refersToTask := "(cs.task_id = tasks.id OR cs.sub_task_id IN (SELECT st.id FROM sub_tasks st WHERE st.task_id = tasks.id))"

	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("EXISTS (SELECT 1 FROM completion_statuses cs WHERE "+refersToTask+" AND cs.completed)").
		Where("NOT EXISTS (SELECT 1 FROM completion_statuses cs WHERE "+refersToTask+" AND cs.completed AND cs.completed_at > ?)", cutoff).
		Where("NOT EXISTS (SELECT 1 FROM completion_statuses cs WHERE " + refersToTask + " AND NOT cs.completed)").
		Order("id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("find fully completed tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, taskID).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// Delete removes a task and its sub-tasks.
func (r *TaskRepository) Delete(ctx context.Context, taskID uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("task_id = ?", taskID).Delete(&model.SubTask{}).Error; err != nil {
		return fmt.Errorf("delete sub-tasks of task %d: %w", taskID, err)
	}
	if err := db.Delete(&model.Task{}, taskID).Error; err != nil {
		return fmt.Errorf("delete task %d: %w", taskID, err)
	}
	return nil
}

// FindDueBetween returns a class's tasks with a deadline inside [start, end),
// sub-tasks preloaded.
func (r *TaskRepository) FindDueBetween(ctx context.Context, classID uint, start, end time.Time) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Preload("SubTasks").
		Where("class_id = ? AND deadline IS NOT NULL AND deadline >= ? AND deadline < ?", classID, start, end).
		Order("title ASC, id ASC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("find tasks due for class %d: %w", classID, err)
	}
	return tasks, nil
}
