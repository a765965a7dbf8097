package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"classfeed/internal/model"
)

// ReminderTasks is the task-store surface the matcher consumes.
type ReminderTasks interface {
	FindDueBetween(ctx context.Context, classID uint, start, end time.Time) ([]model.Task, error)
}

// ReminderStatuses loads a user's completed markers in bulk.
type ReminderStatuses interface {
	ListCompletedByUser(ctx context.Context, userID uint) ([]model.CompletionStatus, error)
}

// ReminderUsers lists users with deadline reminders enabled.
type ReminderUsers interface {
	ListReminderCandidates(ctx context.Context) ([]model.ReminderCandidate, error)
}

// ReminderGate is the notification gate surface the dispatcher consults.
type ReminderGate interface {
	IsAllowed(ctx context.Context, userID uint, category Category, now time.Time) (bool, error)
}

// DueTask is one outstanding task in a reminder payload.
type DueTask struct {
	Task         model.Task
	TaskDone     bool
	OpenSubTasks int
}

// DueReminder is the payload for one due user. Tasks are ordered by title.
type DueReminder struct {
	User  model.User
	Tasks []DueTask
}

// ReminderSummary reports one dispatch run.
type ReminderSummary struct {
	RunID      string        `json:"run_id"`
	Candidates int           `json:"candidates"`
	Due        int           `json:"due"`
	Sent       int           `json:"sent"`
	Suppressed int           `json:"suppressed"`
	Errors     int           `json:"errors"`
	Duration   time.Duration `json:"duration"`
}

// ReminderService matches users against their configured reminder time and
// collects the tasks they still owe for tomorrow. The matcher is stateless
// and idempotent per call; de-duplicating repeat fires within one day is the
// trigger's responsibility.
type ReminderService struct {
	tasks     ReminderTasks
	statuses  ReminderStatuses
	users     ReminderUsers
	gate      ReminderGate
	sender    Sender
	tolerance time.Duration
	logger    zerolog.Logger
}

func NewReminderService(
	tasks ReminderTasks,
	statuses ReminderStatuses,
	users ReminderUsers,
	gate ReminderGate,
	sender Sender,
	tolerance time.Duration,
	logger zerolog.Logger,
) *ReminderService {
	return &ReminderService{
		tasks:     tasks,
		statuses:  statuses,
		users:     users,
		gate:      gate,
		sender:    sender,
		tolerance: tolerance,
		logger:    logger,
	}
}

// ComputeDueReminders returns, for every user whose reminder time is within
// tolerance of now, the class tasks due tomorrow that the user has not
// completed. Users with nothing outstanding are excluded.
func (s *ReminderService) ComputeDueReminders(ctx context.Context, now time.Time) ([]DueReminder, error) {
	candidates, err := s.users.ListReminderCandidates(ctx)
	if err != nil {
		return nil, err
	}

	nowMinutes := now.Hour()*60 + now.Minute()
	tolerance := int(s.tolerance.Minutes())
	dayStart, dayEnd := tomorrowBounds(now)

	// Classes share their task list; load each one once per run.
	tasksByClass := make(map[uint][]model.Task)

	var reminders []DueReminder
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return reminders, err
		}

		reminderMinutes, err := parseTimeOfDay(candidate.Settings.ReminderTime)
		if err != nil {
			s.logger.Warn().Err(err).Uint("user_id", candidate.User.ID).Msg("bad reminder time, skipping user")
			continue
		}
		if minutesApart(nowMinutes, reminderMinutes) > tolerance {
			continue
		}

		classTasks, ok := tasksByClass[candidate.User.ClassID]
		if !ok {
			classTasks, err = s.tasks.FindDueBetween(ctx, candidate.User.ClassID, dayStart, dayEnd)
			if err != nil {
				s.logger.Error().Err(err).Uint("class_id", candidate.User.ClassID).Msg("load tasks due tomorrow")
				continue
			}
			tasksByClass[candidate.User.ClassID] = classTasks
		}
		if len(classTasks) == 0 {
			continue
		}

		due, err := s.outstandingTasks(ctx, candidate.User.ID, classTasks)
		if err != nil {
			s.logger.Error().Err(err).Uint("user_id", candidate.User.ID).Msg("load completion statuses")
			continue
		}
		if len(due) == 0 {
			continue
		}
		reminders = append(reminders, DueReminder{User: candidate.User, Tasks: due})
	}
	return reminders, nil
}

// outstandingTasks filters the class task list down to what this user still
// owes, using one bulk status load instead of a per-task lookup.
func (s *ReminderService) outstandingTasks(ctx context.Context, userID uint, classTasks []model.Task) ([]DueTask, error) {
	completed, err := s.statuses.ListCompletedByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	doneTasks := make(map[uint]bool)
	doneSubTasks := make(map[uint]bool)
	for _, status := range completed {
		if status.TaskID != nil {
			doneTasks[*status.TaskID] = true
		}
		if status.SubTaskID != nil {
			doneSubTasks[*status.SubTaskID] = true
		}
	}

	var due []DueTask
	for _, task := range classTasks {
		open := 0
		for _, sub := range task.SubTasks {
			if !doneSubTasks[sub.ID] {
				open++
			}
		}
		taskDone := doneTasks[task.ID]
		if taskDone && open == 0 {
			continue
		}
		due = append(due, DueTask{Task: task, TaskDone: taskDone, OpenSubTasks: open})
	}
	return due, nil
}

// Dispatch computes due reminders, gates each one, and hands allowed
// payloads to the sender. Per-user failures never abort the batch.
func (s *ReminderService) Dispatch(ctx context.Context, now time.Time) (ReminderSummary, error) {
	started := time.Now()
	summary := ReminderSummary{RunID: uuid.NewString()}
	logger := s.logger.With().Str("run_id", summary.RunID).Logger()

	candidates, err := s.users.ListReminderCandidates(ctx)
	if err != nil {
		return summary, err
	}
	summary.Candidates = len(candidates)

	reminders, err := s.ComputeDueReminders(ctx, now)
	if err != nil {
		return summary, err
	}
	summary.Due = len(reminders)

	for _, reminder := range reminders {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(started)
			return summary, err
		}

		allowed, err := s.gate.IsAllowed(ctx, reminder.User.ID, CategoryDeadline, now)
		if err != nil {
			summary.Errors++
			logger.Error().Err(err).Uint("user_id", reminder.User.ID).Msg("notification gate")
			continue
		}
		if !allowed {
			summary.Suppressed++
			continue
		}
		if reminder.User.PushToken == "" {
			summary.Suppressed++
			logger.Debug().Uint("user_id", reminder.User.ID).Msg("user has no push token")
			continue
		}

		payload := renderReminder(reminder, now)
		if err := s.sender.Send(ctx, reminder.User.PushToken, payload); err != nil {
			summary.Errors++
			logger.Error().Err(err).Uint("user_id", reminder.User.ID).Msg("send reminder")
			continue
		}
		summary.Sent++
	}

	summary.Duration = time.Since(started)
	logger.Info().
		Int("candidates", summary.Candidates).
		Int("due", summary.Due).
		Int("sent", summary.Sent).
		Int("suppressed", summary.Suppressed).
		Int("errors", summary.Errors).
		Dur("duration", summary.Duration).
		Msg("reminder dispatch finished")
	return summary, nil
}

// tomorrowBounds returns the [start, end) interval of the next calendar day
// in now's location.
func tomorrowBounds(now time.Time) (time.Time, time.Time) {
	year, month, day := now.Date()
	start := time.Date(year, month, day+1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 0, 1)
}

func renderReminder(reminder DueReminder, now time.Time) string {
	start, _ := tomorrowBounds(now)

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Due tomorrow (%s):\n", start.Format("2006-01-02")))
	for _, due := range reminder.Tasks {
		title := strings.TrimSpace(due.Task.Title)
		builder.WriteString(fmt.Sprintf("• %s", title))
		if due.OpenSubTasks == 1 {
			builder.WriteString(" · 1 open sub-task")
		} else if due.OpenSubTasks > 1 {
			builder.WriteString(fmt.Sprintf(" · %d open sub-tasks", due.OpenSubTasks))
		}
		builder.WriteByte('\n')
	}
	return strings.TrimSpace(builder.String())
}
