// Package v1 exposes the engine's trigger and gate endpoints. Job triggers
// are POST-only and guarded by a shared-secret header; the scheduler that
// calls them provides at-least-once delivery, so every job is idempotent.
package v1

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"classfeed/internal/service"
)

type handler struct {
	logger     zerolog.Logger
	sweeper    *service.SweeperService
	reconciler *service.ReconcilerService
	reminders  *service.ReminderService
	gate       *service.GateService
	now        func() time.Time
}

// Register mounts the v1 routes on the router.
func Register(
	router gin.IRouter,
	logger zerolog.Logger,
	secret string,
	sweeper *service.SweeperService,
	reconciler *service.ReconcilerService,
	reminders *service.ReminderService,
	gate *service.GateService,
	now func() time.Time,
) {
	h := &handler{
		logger:     logger,
		sweeper:    sweeper,
		reconciler: reconciler,
		reminders:  reminders,
		gate:       gate,
		now:        now,
	}

	api := router.Group("/api/v1")

	jobs := api.Group("/jobs", requireTriggerSecret(secret))
	jobs.POST("/sweep", h.handleSweep)
	jobs.POST("/reconcile", h.handleReconcile)
	jobs.POST("/reminders", h.handleReminders)

	api.GET("/users/:id/notifications/:category", h.handleGateCheck)
}
