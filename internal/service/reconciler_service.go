package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"classfeed/internal/model"
)

// ReconcilerStatuses is the status-store surface the reconciler consumes.
type ReconcilerStatuses interface {
	FindOrphans(ctx context.Context) ([]model.CompletionStatus, error)
	DeleteByIDs(ctx context.Context, ids []uint) (int64, error)
	DeleteStaleIncomplete(ctx context.Context, cutoff time.Time) (int64, error)
}

// ReconcilerHistory prunes history records past per-user retention.
type ReconcilerHistory interface {
	DeleteOlderThan(ctx context.Context, userID uint, cutoff time.Time) (int64, error)
}

// ReconcilerSettings lists users with history auto-delete enabled.
type ReconcilerSettings interface {
	ListWithRetention(ctx context.Context) ([]model.NotificationSettings, error)
}

// ReconcileSummary reports one reconcile run.
type ReconcileSummary struct {
	RunID          string        `json:"run_id"`
	OrphansRemoved int           `json:"orphans_removed"`
	StaleRemoved   int           `json:"stale_removed"`
	HistoryPruned  int           `json:"history_pruned"`
	Errors         int           `json:"errors"`
	Duration       time.Duration `json:"duration"`
}

// ReconcilerService is the safety net behind the sweeper: it removes
// completion statuses whose referent is gone, drops abandoned never-completed
// statuses past the staleness horizon, and applies each user's history
// auto-delete retention. Under correct sweeper operation the orphan pass
// finds nothing.
type ReconcilerService struct {
	statuses ReconcilerStatuses
	history  ReconcilerHistory
	settings ReconcilerSettings
	staleAge time.Duration
	logger   zerolog.Logger
}

func NewReconcilerService(
	statuses ReconcilerStatuses,
	history ReconcilerHistory,
	settings ReconcilerSettings,
	staleAge time.Duration,
	logger zerolog.Logger,
) *ReconcilerService {
	return &ReconcilerService{
		statuses: statuses,
		history:  history,
		settings: settings,
		staleAge: staleAge,
		logger:   logger,
	}
}

// Reconcile runs the three cleanup passes. Each pass is independent: a
// failure in one is counted and the others still run.
func (s *ReconcilerService) Reconcile(ctx context.Context, now time.Time) (ReconcileSummary, error) {
	started := time.Now()
	summary := ReconcileSummary{RunID: uuid.NewString()}
	logger := s.logger.With().Str("run_id", summary.RunID).Logger()

	if removed, err := s.removeOrphans(ctx); err != nil {
		summary.Errors++
		logger.Error().Err(err).Msg("remove orphan statuses")
	} else {
		summary.OrphansRemoved = removed
	}

	if removed, err := s.statuses.DeleteStaleIncomplete(ctx, now.Add(-s.staleAge)); err != nil {
		summary.Errors++
		logger.Error().Err(err).Msg("remove stale statuses")
	} else {
		summary.StaleRemoved = int(removed)
	}

	pruned, errs := s.pruneHistory(ctx, logger, now)
	summary.HistoryPruned = pruned
	summary.Errors += errs

	summary.Duration = time.Since(started)
	logger.Info().
		Int("orphans_removed", summary.OrphansRemoved).
		Int("stale_removed", summary.StaleRemoved).
		Int("history_pruned", summary.HistoryPruned).
		Int("errors", summary.Errors).
		Dur("duration", summary.Duration).
		Msg("reconcile finished")
	return summary, ctx.Err()
}

func (s *ReconcilerService) removeOrphans(ctx context.Context) (int, error) {
	orphans, err := s.statuses.FindOrphans(ctx)
	if err != nil {
		return 0, err
	}
	if len(orphans) == 0 {
		return 0, nil
	}
	ids := make([]uint, 0, len(orphans))
	for _, status := range orphans {
		ids = append(ids, status.ID)
	}
	removed, err := s.statuses.DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	return int(removed), nil
}

// pruneHistory applies each user's auto-delete retention. Per-user failures
// are logged and counted without aborting the pass.
func (s *ReconcilerService) pruneHistory(ctx context.Context, logger zerolog.Logger, now time.Time) (pruned, errs int) {
	settings, err := s.settings.ListWithRetention(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("list retention settings")
		return 0, 1
	}

	for _, cfg := range settings {
		if err := ctx.Err(); err != nil {
			return pruned, errs
		}
		cutoff := now.AddDate(0, 0, -cfg.HistoryRetentionDays)
		removed, err := s.history.DeleteOlderThan(ctx, cfg.UserID, cutoff)
		if err != nil {
			errs++
			logger.Error().Err(err).Uint("user_id", cfg.UserID).Msg("prune history")
			continue
		}
		pruned += int(removed)
	}
	return pruned, errs
}
