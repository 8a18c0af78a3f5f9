package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"CredentialScanner/internal/config"
	"CredentialScanner/internal/infrastructure/dea"
	"CredentialScanner/internal/infrastructure/exclusion"
	"CredentialScanner/internal/infrastructure/notify"
	"CredentialScanner/internal/infrastructure/npi"
	"CredentialScanner/internal/infrastructure/scheduler"
	"CredentialScanner/internal/infrastructure/storage"
	"CredentialScanner/internal/logging"
	"CredentialScanner/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg          config.Config
	db           *sql.DB
	orchestrator *usecase.Orchestrator
	maintenance  *usecase.Maintenance
	driver       *scheduler.TickScheduler
	logger       *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := storage.NewPostgresStore(db)
	httpClient := &http.Client{Timeout: 30 * time.Second}

	registry := npi.NewClient(cfg.Registry.NPIBaseURL, httpClient, baseLogger.With("component", "npi"))
	validator := dea.NewValidator()

	checker := exclusion.NewChecker(store, baseLogger.With("component", "oig"))
	sam := exclusion.NewSAMClient(cfg.SAM.BaseURL, cfg.SAM.APIKey, httpClient, baseLogger.With("component", "sam"))

	var locator *exclusion.SourceLocator
	if cfg.OIG.DownloadsPageURL != "" {
		locator = exclusion.NewSourceLocator(cfg.OIG.DownloadsPageURL, httpClient)
	}
	importer := exclusion.NewImporter(store, httpClient, cfg.OIG.CSVURL, locator, baseLogger.With("component", "importer"))
	importer.SetBatchSize(cfg.OIG.BatchSize)

	notifier := notify.NewWebhook(cfg.Notifications.Webhook.Endpoint, cfg.Notifications.Webhook.Token,
		baseLogger.With("component", "notify"))

	orchestrator := usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Store:    store,
		NPI:      registry,
		DEA:      validator,
		OIG:      checker,
		SAM:      sam,
		Notifier: notifier,
		Logger:   baseLogger.With("component", "orchestrator"),
	})

	maintenance := usecase.NewMaintenance(usecase.MaintenanceDeps{
		Store:        store,
		Importer:     importer,
		OIG:          checker,
		SAM:          sam,
		Notifier:     notifier,
		Orchestrator: orchestrator,
		Logger:       baseLogger.With("component", "maintenance"),
	})

	return &Application{
		cfg:          cfg,
		db:           db,
		orchestrator: orchestrator,
		maintenance:  maintenance,
		driver:       scheduler.NewTickScheduler(cfg.Scheduler.Interval()),
		logger:       baseLogger,
	}, nil
}

// Orchestrator exposes the credentialing workflow component.
func (a *Application) Orchestrator() *usecase.Orchestrator {
	return a.orchestrator
}

// Maintenance exposes the scheduled-job component for manual runs.
func (a *Application) Maintenance() *usecase.Maintenance {
	return a.maintenance
}

// Run starts the maintenance schedule and blocks until the context ends.
func (a *Application) Run(ctx context.Context) error {
	if err := a.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	if err := a.maintenance.Bind(ctx, a.driver); err != nil {
		return fmt.Errorf("bind scheduler: %w", err)
	}
	a.logger.Info("credential scanner started", "tickInterval", a.cfg.Scheduler.Interval().String())

	<-ctx.Done()
	return a.Close()
}

// Close releases the scheduler and database handle.
func (a *Application) Close() error {
	_ = a.driver.Stop(context.Background())
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
