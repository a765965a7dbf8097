package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"classfeed/internal/model"
)

// SweeperTasks is the task-store surface the sweeper consumes.
type SweeperTasks interface {
	FindExpired(ctx context.Context, now time.Time, ageCeiling time.Duration) ([]model.Task, error)
	FindFullyCompleted(ctx context.Context, now time.Time, grace time.Duration) ([]model.Task, error)
	FindByID(ctx context.Context, taskID uint) (*model.Task, error)
	Delete(ctx context.Context, taskID uint) error
}

// SweeperHistory denormalizes and detaches history records.
type SweeperHistory interface {
	Denormalize(ctx context.Context, taskID uint, title string, authorID uint, authorName string) error
	Detach(ctx context.Context, taskID uint) error
}

// SweeperStatuses removes completion markers for retired tasks.
type SweeperStatuses interface {
	DeleteForTask(ctx context.Context, taskID uint) (int64, error)
}

// SweeperUsers resolves task authors for denormalization.
type SweeperUsers interface {
	FindByID(ctx context.Context, userID uint) (*model.User, error)
}

// SweepSummary reports one sweep run.
type SweepSummary struct {
	RunID      string        `json:"run_id"`
	Candidates int           `json:"candidates"`
	Retired    int           `json:"retired"`
	Errors     int           `json:"errors"`
	Duration   time.Duration `json:"duration"`
}

// SweeperService retires expired and stale tasks while preserving their
// history records. Runs are idempotent and tolerate overlapping triggers:
// a task already retired by a concurrent run is skipped, not an error.
type SweeperService struct {
	tasks      SweeperTasks
	history    SweeperHistory
	statuses   SweeperStatuses
	users      SweeperUsers
	ageCeiling time.Duration
	grace      time.Duration
	logger     zerolog.Logger
}

func NewSweeperService(
	tasks SweeperTasks,
	history SweeperHistory,
	statuses SweeperStatuses,
	users SweeperUsers,
	ageCeiling, grace time.Duration,
	logger zerolog.Logger,
) *SweeperService {
	return &SweeperService{
		tasks:      tasks,
		history:    history,
		statuses:   statuses,
		users:      users,
		ageCeiling: ageCeiling,
		grace:      grace,
		logger:     logger,
	}
}

// Sweep finds every task whose retention condition is met and retires each
// one independently. One task's failure is logged and skipped; the run
// continues and the failed task stays eligible for the next trigger.
func (s *SweeperService) Sweep(ctx context.Context, now time.Time) (SweepSummary, error) {
	started := time.Now()
	summary := SweepSummary{RunID: uuid.NewString()}
	logger := s.logger.With().Str("run_id", summary.RunID).Logger()

	candidates, err := s.findCandidates(ctx, now)
	if err != nil {
		return summary, err
	}
	summary.Candidates = len(candidates)

	for _, task := range candidates {
		if err := ctx.Err(); err != nil {
			// Trigger deadline hit: already-retired tasks stay retired,
			// the rest are picked up next run.
			summary.Duration = time.Since(started)
			return summary, err
		}
		retired, err := s.retire(ctx, logger, task.ID)
		if err != nil {
			summary.Errors++
			logger.Error().Err(err).Uint("task_id", task.ID).Msg("retire task")
			continue
		}
		if retired {
			summary.Retired++
		}
	}

	summary.Duration = time.Since(started)
	logger.Info().
		Int("candidates", summary.Candidates).
		Int("retired", summary.Retired).
		Int("errors", summary.Errors).
		Dur("duration", summary.Duration).
		Msg("sweep finished")
	return summary, nil
}

func (s *SweeperService) findCandidates(ctx context.Context, now time.Time) ([]model.Task, error) {
	expired, err := s.tasks.FindExpired(ctx, now, s.ageCeiling)
	if err != nil {
		return nil, err
	}
	completed, err := s.tasks.FindFullyCompleted(ctx, now, s.grace)
	if err != nil {
		return nil, err
	}

	seen := make(map[uint]bool, len(expired))
	candidates := make([]model.Task, 0, len(expired)+len(completed))
	for _, task := range expired {
		if !seen[task.ID] {
			seen[task.ID] = true
			candidates = append(candidates, task)
		}
	}
	for _, task := range completed {
		if !seen[task.ID] {
			seen[task.ID] = true
			candidates = append(candidates, task)
		}
	}
	return candidates, nil
}

// retire removes one task after copying its provenance onto related history
// records. Step order is mandatory: denormalize, detach, delete statuses,
// delete task. Every step is idempotent, so re-application after a partial
// failure is harmless.
func (s *SweeperService) retire(ctx context.Context, logger zerolog.Logger, taskID uint) (bool, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// A concurrent run got here first.
		logger.Debug().Uint("task_id", taskID).Msg("task already retired")
		return false, nil
	}
	if err != nil {
		return false, err
	}

	authorName := ""
	author, err := s.users.FindByID(ctx, task.AuthorID)
	switch {
	case err == nil:
		authorName = author.Name
	case errors.Is(err, gorm.ErrRecordNotFound):
		logger.Warn().Uint("task_id", task.ID).Uint("author_id", task.AuthorID).Msg("task author missing")
		authorName = "(deleted)"
	default:
		return false, err
	}

	if err := s.history.Denormalize(ctx, task.ID, task.Title, task.AuthorID, authorName); err != nil {
		return false, err
	}
	if err := s.history.Detach(ctx, task.ID); err != nil {
		return false, err
	}
	if _, err := s.statuses.DeleteForTask(ctx, task.ID); err != nil {
		return false, err
	}
	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		return false, err
	}
	return true, nil
}
