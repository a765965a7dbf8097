package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"classfeed/internal/config"
	v1 "classfeed/internal/delivery/http/v1"
	"classfeed/internal/notifier"
	"classfeed/internal/repository"
	"classfeed/internal/service"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config")
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("timezone")
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("db")
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	taskRepo := repository.NewTaskRepository(db)
	statusRepo := repository.NewStatusRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	userRepo := repository.NewUserRepository(db)

	var sender service.Sender = notifier.NopSender{}
	if cfg.TelegramToken != "" {
		telegram, err := notifier.NewTelegramSender(cfg.TelegramToken)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram")
		}
		sender = telegram
	}

	gateSvc := service.NewGateService(settingsRepo, logger)
	sweeperSvc := service.NewSweeperService(
		taskRepo, historyRepo, statusRepo, userRepo,
		cfg.TaskAgeCeiling, cfg.CompletionGrace, logger,
	)
	reconcilerSvc := service.NewReconcilerService(
		statusRepo, historyRepo, settingsRepo,
		cfg.StaleStatusAge, logger,
	)
	reminderSvc := service.NewReminderService(
		taskRepo, statusRepo, userRepo, gateSvc, sender,
		cfg.ReminderTolerance, logger,
	)

	now := func() time.Time { return time.Now().In(loc) }

	scheduler := service.NewSchedulerService(loc)
	scheduleJob := func(interval time.Duration, name string, run func(context.Context, time.Time) error) {
		if _, err := scheduler.ScheduleInterval(interval, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), cfg.JobTimeout)
			defer cancel()
			if err := run(jobCtx, now()); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Str("job", name).Msg("scheduled job failed")
			}
		}); err != nil {
			logger.Fatal().Err(err).Str("job", name).Msg("schedule job")
		}
	}
	scheduleJob(cfg.SweepInterval, "sweep", func(ctx context.Context, t time.Time) error {
		_, err := sweeperSvc.Sweep(ctx, t)
		return err
	})
	scheduleJob(cfg.ReconcileInterval, "reconcile", func(ctx context.Context, t time.Time) error {
		_, err := reconcilerSvc.Reconcile(ctx, t)
		return err
	})
	scheduleJob(cfg.ReminderInterval, "reminders", func(ctx context.Context, t time.Time) error {
		_, err := reminderSvc.Dispatch(ctx, t)
		return err
	})
	scheduler.Start()
	defer scheduler.Stop()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	v1.Register(router, logger, cfg.TriggerSecret, sweeperSvc, reconcilerSvc, reminderSvc, gateSvc, now)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("serving trigger endpoints")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown http server")
	}
	logger.Info().Msg("shutdown complete")
}
