package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"IPOAlertBot/internal/config"
	"IPOAlertBot/internal/infrastructure/nse"
	"IPOAlertBot/internal/infrastructure/scheduler"
	"IPOAlertBot/internal/infrastructure/storage"
	"IPOAlertBot/internal/infrastructure/telegram"
	"IPOAlertBot/internal/logging"
	"IPOAlertBot/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	store     *storage.Store
	scheduler *usecase.Scheduler
	listener  *telegram.Listener
}

// New builds a runnable application instance; the state store is opened here
// and owned until Run returns.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	store, err := storage.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	source := nse.NewSource(cfg.Source, nil)
	dispatcher := telegram.NewDispatcher(
		cfg.Notifications.Telegram.BotToken,
		cfg.Notifications.Telegram.ChatID,
	)

	reconciler := usecase.NewReconciler(usecase.ReconcilerDeps{
		Source:         source,
		Store:          store,
		Dispatcher:     dispatcher,
		MinIssueSizeCr: cfg.Alerts.MinIssueSizeCr,
		Logger:         baseLogger.With("component", "reconciler"),
	})

	interest := usecase.NewInterestHandler(store, dispatcher,
		baseLogger.With("component", "interest"))
	listener := telegram.NewListener(dispatcher, interest,
		baseLogger.With("component", "telegram.listener"))

	driver := scheduler.NewIntervalScheduler(cfg.Scheduler.Period.Std(), cfg.Scheduler.InitialDelay.Std())
	recurring := usecase.NewScheduler(driver, reconciler, cfg.Scheduler.Location(),
		baseLogger.With("component", "scheduler"))

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		store:     store,
		scheduler: recurring,
		listener:  listener,
	}, nil
}

// Run starts the recurring reconciliation job and blocks on the Telegram
// update loop until the context is cancelled.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("close state store", "error", err)
		}
	}()

	if err := a.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer func() { _ = a.scheduler.Stop(context.Background()) }()

	a.logger.Info("ipo alert bot started",
		"period", a.cfg.Scheduler.Period.Std(),
		"initial_delay", a.cfg.Scheduler.InitialDelay.Std(),
		"min_issue_size_cr", a.cfg.Alerts.MinIssueSizeCr)

	err := a.listener.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
