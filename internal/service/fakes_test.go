package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"classfeed/internal/model"
)

// memStore is an in-memory stand-in for the repositories. It records every
// mutation in ops so tests can assert step ordering, and fails any op listed
// in failures.
type memStore struct {
	mu       sync.Mutex
	tasks    map[uint]model.Task
	subTasks map[uint]model.SubTask
	statuses map[uint]model.CompletionStatus
	history  map[uint]model.HistoryRecord
	users    map[uint]model.User
	settings map[uint]model.NotificationSettings

	ops      []string
	failures map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		tasks:    make(map[uint]model.Task),
		subTasks: make(map[uint]model.SubTask),
		statuses: make(map[uint]model.CompletionStatus),
		history:  make(map[uint]model.HistoryRecord),
		users:    make(map[uint]model.User),
		settings: make(map[uint]model.NotificationSettings),
		failures: make(map[string]error),
	}
}

func (m *memStore) record(op string) error {
	m.ops = append(m.ops, op)
	return m.failures[op]
}

func (m *memStore) opIndex(op string) int {
	for i, recorded := range m.ops {
		if recorded == op {
			return i
		}
	}
	return -1
}

func (m *memStore) subTaskIDsOf(taskID uint) map[uint]bool {
	ids := make(map[uint]bool)
	for id, sub := range m.subTasks {
		if sub.TaskID == taskID {
			ids[id] = true
		}
	}
	return ids
}

func (m *memStore) statusRefersTo(status model.CompletionStatus, taskID uint) bool {
	if status.TaskID != nil && *status.TaskID == taskID {
		return true
	}
	if status.SubTaskID != nil {
		if sub, ok := m.subTasks[*status.SubTaskID]; ok && sub.TaskID == taskID {
			return true
		}
	}
	return false
}

func sortedTasks(byID map[uint]model.Task, keep func(model.Task) bool) []model.Task {
	var tasks []model.Task
	for _, task := range byID {
		if keep(task) {
			tasks = append(tasks, task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks
}

// SweeperTasks / ReminderTasks

func (m *memStore) FindExpired(_ context.Context, now time.Time, ageCeiling time.Duration) ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	oldest := now.Add(-ageCeiling)
	return sortedTasks(m.tasks, func(t model.Task) bool {
		return (t.Deadline != nil && t.Deadline.Before(now)) || t.CreatedAt.Before(oldest)
	}), nil
}

func (m *memStore) FindFullyCompleted(_ context.Context, now time.Time, grace time.Duration) ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := now.Add(-grace)
	return sortedTasks(m.tasks, func(t model.Task) bool {
		completed := 0
		for _, status := range m.statuses {
			if !m.statusRefersTo(status, t.ID) {
				continue
			}
			if !status.Completed {
				return false
			}
			completed++
			if status.CompletedAt != nil && status.CompletedAt.After(cutoff) {
				return false
			}
		}
		return completed > 0
	}), nil
}

func (m *memStore) FindByID(_ context.Context, taskID uint) (*model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[taskID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &task, nil
}

func (m *memStore) Delete(_ context.Context, taskID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(fmt.Sprintf("task:%d", taskID)); err != nil {
		return err
	}
	for id := range m.subTaskIDsOf(taskID) {
		delete(m.subTasks, id)
	}
	delete(m.tasks, taskID)
	return nil
}

func (m *memStore) FindDueBetween(_ context.Context, classID uint, start, end time.Time) ([]model.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tasks := sortedTasks(m.tasks, func(t model.Task) bool {
		if t.ClassID != classID || t.Deadline == nil {
			return false
		}
		return !t.Deadline.Before(start) && t.Deadline.Before(end)
	})
	for i := range tasks {
		for _, sub := range m.subTasks {
			if sub.TaskID == tasks[i].ID {
				tasks[i].SubTasks = append(tasks[i].SubTasks, sub)
			}
		}
		sort.Slice(tasks[i].SubTasks, func(a, b int) bool { return tasks[i].SubTasks[a].ID < tasks[i].SubTasks[b].ID })
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].Title != tasks[j].Title {
			return tasks[i].Title < tasks[j].Title
		}
		return tasks[i].ID < tasks[j].ID
	})
	return tasks, nil
}

// SweeperHistory / ReconcilerHistory

func (m *memStore) Denormalize(_ context.Context, taskID uint, title string, authorID uint, authorName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(fmt.Sprintf("denormalize:%d", taskID)); err != nil {
		return err
	}
	for id, record := range m.history {
		if record.TaskID != nil && *record.TaskID == taskID {
			record.TaskTitle = title
			record.TaskAuthorID = authorID
			record.TaskAuthorName = authorName
			m.history[id] = record
		}
	}
	return nil
}

func (m *memStore) Detach(_ context.Context, taskID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(fmt.Sprintf("detach:%d", taskID)); err != nil {
		return err
	}
	for id, record := range m.history {
		if record.TaskID != nil && *record.TaskID == taskID {
			record.TaskID = nil
			m.history[id] = record
		}
	}
	return nil
}

func (m *memStore) DeleteOlderThan(_ context.Context, userID uint, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(fmt.Sprintf("prune:%d", userID)); err != nil {
		return 0, err
	}
	var removed int64
	for id, record := range m.history {
		if record.UserID == userID && record.CompletedAt.Before(cutoff) {
			delete(m.history, id)
			removed++
		}
	}
	return removed, nil
}

// SweeperStatuses / ReconcilerStatuses / ReminderStatuses

func (m *memStore) DeleteForTask(_ context.Context, taskID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(fmt.Sprintf("statuses:%d", taskID)); err != nil {
		return 0, err
	}
	var removed int64
	for id, status := range m.statuses {
		if m.statusRefersTo(status, taskID) {
			delete(m.statuses, id)
			removed++
		}
	}
	return removed, nil
}

func (m *memStore) FindOrphans(_ context.Context) ([]model.CompletionStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("find-orphans"); err != nil {
		return nil, err
	}
	var orphans []model.CompletionStatus
	for _, status := range m.statuses {
		if status.TaskID != nil {
			if _, ok := m.tasks[*status.TaskID]; !ok {
				orphans = append(orphans, status)
				continue
			}
		}
		if status.SubTaskID != nil {
			if _, ok := m.subTasks[*status.SubTaskID]; !ok {
				orphans = append(orphans, status)
			}
		}
	}
	sort.Slice(orphans, func(i, j int) bool { return orphans[i].ID < orphans[j].ID })
	return orphans, nil
}

func (m *memStore) DeleteByIDs(_ context.Context, ids []uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for _, id := range ids {
		if _, ok := m.statuses[id]; ok {
			delete(m.statuses, id)
			removed++
		}
	}
	return removed, nil
}

func (m *memStore) DeleteStaleIncomplete(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record("stale"); err != nil {
		return 0, err
	}
	var removed int64
	for id, status := range m.statuses {
		if !status.Completed && status.CreatedAt.Before(cutoff) {
			delete(m.statuses, id)
			removed++
		}
	}
	return removed, nil
}

func (m *memStore) ListCompletedByUser(_ context.Context, userID uint) ([]model.CompletionStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var statuses []model.CompletionStatus
	for _, status := range m.statuses {
		if status.UserID == userID && status.Completed {
			statuses = append(statuses, status)
		}
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].ID < statuses[j].ID })
	return statuses, nil
}

// SweeperUsers / ReminderUsers

func (m *memStore) FindUser(_ context.Context, userID uint) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func (m *memStore) ListReminderCandidates(_ context.Context) ([]model.ReminderCandidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var candidates []model.ReminderCandidate
	for _, settings := range m.settings {
		if !settings.DeadlinesEnabled || settings.ReminderTime == "" {
			continue
		}
		user, ok := m.users[settings.UserID]
		if !ok {
			continue
		}
		candidates = append(candidates, model.ReminderCandidate{User: user, Settings: settings})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].User.ID < candidates[j].User.ID })
	return candidates, nil
}

// SettingsSource / ReconcilerSettings

func (m *memStore) FindByUser(_ context.Context, userID uint) (*model.NotificationSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	settings, ok := m.settings[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &settings, nil
}

func (m *memStore) ListWithRetention(_ context.Context) ([]model.NotificationSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var settings []model.NotificationSettings
	for _, s := range m.settings {
		if s.HistoryRetentionDays > 0 {
			settings = append(settings, s)
		}
	}
	sort.Slice(settings, func(i, j int) bool { return settings[i].UserID < settings[j].UserID })
	return settings, nil
}

// userStore adapts memStore.FindUser to the FindByID method name shared by
// the task store.
type userStore struct {
	*memStore
}

func (u userStore) FindByID(ctx context.Context, userID uint) (*model.User, error) {
	return u.FindUser(ctx, userID)
}

// fakeSender records deliveries.
type fakeSender struct {
	mu    sync.Mutex
	sent  []sentPayload
	errOn string
}

type sentPayload struct {
	token   string
	payload string
}

func (s *fakeSender) Send(_ context.Context, token, payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.errOn != "" && s.errOn == token {
		return fmt.Errorf("transport refused token %s", token)
	}
	s.sent = append(s.sent, sentPayload{token: token, payload: payload})
	return nil
}

func uintPtr(v uint) *uint { return &v }

func timePtr(t time.Time) *time.Time { return &t }
