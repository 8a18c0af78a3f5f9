package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"CredentialScanner/internal/domain"
	"CredentialScanner/internal/ports"
)

// MaintenanceDeps wires the periodic jobs to their collaborators.
type MaintenanceDeps struct {
	Store        ports.ProviderStore
	Importer     ports.ExclusionImporter
	OIG          ports.OIGChecker
	SAM          ports.SAMChecker
	Notifier     ports.Notifier
	Orchestrator *Orchestrator
	Logger       *slog.Logger
}

// Maintenance holds the scheduled-job entry points: dataset refresh, the
// monthly exclusion sweep, and expiration monitoring. Each is also exposed
// for manual invocation.
type Maintenance struct {
	store        ports.ProviderStore
	importer     ports.ExclusionImporter
	oig          ports.OIGChecker
	sam          ports.SAMChecker
	notifier     ports.Notifier
	orchestrator *Orchestrator
	logger       *slog.Logger
	now          func() time.Time
}

// NewMaintenance constructs the job component.
func NewMaintenance(deps MaintenanceDeps) *Maintenance {
	return &Maintenance{
		store:        deps.Store,
		importer:     deps.Importer,
		oig:          deps.OIG,
		sam:          deps.SAM,
		notifier:     deps.Notifier,
		orchestrator: deps.Orchestrator,
		logger:       deps.Logger,
		now:          time.Now,
	}
}

// RunOIGUpdateNow refreshes the exclusion dataset immediately.
func (m *Maintenance) RunOIGUpdateNow(ctx context.Context) (domain.ExclusionImportStats, error) {
	return m.importer.UpdateOIGDatabase(ctx)
}

// RunExclusionCheckNow sweeps all currently-approved providers against the
// exclusion lists. Any match creates a critical alert and immediately
// suspends the provider (profileStatus=inactive) before any human review;
// federal exclusion is a hard legal stop. The sweep checkpoints between
// providers: cancellation leaves already-processed providers in their new
// state, which is correct, not a rollback candidate.
func (m *Maintenance) RunExclusionCheckNow(ctx context.Context) (domain.SweepStats, error) {
	stats := domain.SweepStats{}

	providers, err := m.store.ListApprovedProviders(ctx)
	if err != nil {
		return stats, fmt.Errorf("list approved providers: %w", err)
	}

	for _, provider := range providers {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		stats.Checked++

		match := m.oig.CheckOIGExclusion(ctx, provider.FirstName, provider.LastName, provider.NPINumber)
		alertType := domain.AlertOIGMatch
		if !match.Matched && m.sam != nil && m.sam.Configured() {
			match = m.sam.CheckSAMExclusion(ctx, provider.FirstName, provider.LastName)
			alertType = domain.AlertSAMMatch
		}
		if !match.Matched {
			continue
		}

		stats.Matched++
		message := fmt.Sprintf("Monthly sweep: exclusion match for %s %s in %s (confidence: %s, matched on: %s)",
			provider.FirstName, provider.LastName, match.Source, match.Confidence, strings.Join(match.MatchedOn, ", "))

		alert := domain.Alert{
			ID:         uuid.NewString(),
			ProviderID: provider.ID,
			AlertType:  alertType,
			Severity:   domain.SeverityCritical,
			Message:    message,
			CreatedAt:  m.now(),
		}
		if err := m.store.AppendAlert(ctx, alert); err != nil {
			m.warn("append sweep alert failed", "providerID", provider.ID, "error", err)
		} else {
			stats.AlertsCreated++
		}

		now := m.now()
		provider.ProfileStatus = domain.ProfileInactive
		provider.LastCredentialingUpdate = &now
		if err := m.store.UpdateProvider(ctx, provider); err != nil {
			m.logError("auto-suspend update failed", "providerID", provider.ID, "error", err)
		}

		if m.notifier != nil {
			if !m.notifier.SendAlert(ctx, provider.ID, alertType, message, domain.SeverityCritical, true) {
				m.warn("sweep notification not delivered", "providerID", provider.ID)
			}
		}
	}

	m.info("exclusion sweep finished", "checked", stats.Checked, "matched", stats.Matched, "alerts", stats.AlertsCreated)
	return stats, nil
}

// CheckExpiringNow runs the expiring-credentials scan immediately.
func (m *Maintenance) CheckExpiringNow(ctx context.Context) (domain.ExpiryStats, error) {
	return m.orchestrator.CheckExpiringCredentials(ctx)
}

// Run is the scheduler entry point. Expiration monitoring runs every tick;
// on the first of the month the dataset refresh runs first and the sweep
// only after it completes, so the sweep never reads a half-refreshed table.
func (m *Maintenance) Run(ctx context.Context, tick time.Time) {
	if tick.Day() == 1 {
		if _, err := m.RunOIGUpdateNow(ctx); err != nil {
			m.logError("scheduled OIG update failed", "error", err)
		} else if _, err := m.RunExclusionCheckNow(ctx); err != nil {
			m.logError("scheduled exclusion sweep failed", "error", err)
		}
	}

	if _, err := m.CheckExpiringNow(ctx); err != nil {
		m.logError("scheduled expiration check failed", "error", err)
	}
}

// Bind registers the maintenance cycle with a scheduler driver.
func (m *Maintenance) Bind(ctx context.Context, driver ports.Scheduler) error {
	if driver == nil {
		return nil
	}
	return driver.Start(ctx, func(tick time.Time) {
		m.Run(ctx, tick)
	})
}

func (m *Maintenance) info(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Info(msg, args...)
	}
}

func (m *Maintenance) warn(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Warn(msg, args...)
	}
}

func (m *Maintenance) logError(msg string, args ...any) {
	if m.logger != nil {
		m.logger.Error(msg, args...)
	}
}
