package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"CredentialScanner/internal/domain"
	"CredentialScanner/internal/ports"
)

const verifiedByAutomated = "automated"

// OrchestratorDeps wires all driven adapters into the credentialing workflow.
type OrchestratorDeps struct {
	Store    ports.ProviderStore
	NPI      ports.NPIVerifier
	DEA      ports.DEAValidator
	OIG      ports.OIGChecker
	SAM      ports.SAMChecker
	Notifier ports.Notifier
	Logger   *slog.Logger
}

// Orchestrator drives the 8-phase credentialing timeline per provider,
// invokes the automated checkers, persists verification/alert/timeline
// records, and maintains aggregate provider status.
type Orchestrator struct {
	store    ports.ProviderStore
	npi      ports.NPIVerifier
	dea      ports.DEAValidator
	oig      ports.OIGChecker
	sam      ports.SAMChecker
	notifier ports.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewOrchestrator constructs the workflow component.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	return &Orchestrator{
		store:    deps.Store,
		npi:      deps.NPI,
		dea:      deps.DEA,
		oig:      deps.OIG,
		sam:      deps.SAM,
		notifier: deps.Notifier,
		logger:   deps.Logger,
		now:      time.Now,
	}
}

// VerificationSummary reports which automated checks ran and passed.
type VerificationSummary struct {
	NPI bool `json:"npi"`
	DEA bool `json:"dea"`
	OIG bool `json:"oig"`
	SAM bool `json:"sam"`
}

// CredentialingProgress aggregates the phase timeline and verification
// history for one provider.
type CredentialingProgress struct {
	ProviderID          string
	CredentialingStatus domain.CredentialingStatus
	CurrentPhase        domain.Phase
	CompletedPhases     []domain.Phase
	PendingPhases       []domain.Phase
	FailedPhases        []domain.Phase
	DaysInProcess       int
	Timeline            []domain.TimelinePhase
	History             []domain.VerificationRecord
}

// InitializeCredentialing starts the workflow for a provider: status moves to
// documents_pending and all 8 phase rows are created pending in one batch.
// Calling it again for an already-initialized provider is a no-op; duplicate
// phase rows would be an invalid state downstream progress checks cannot
// reason about.
func (o *Orchestrator) InitializeCredentialing(ctx context.Context, providerID string) error {
	existing, err := o.store.GetTimeline(ctx, providerID)
	if err != nil {
		return fmt.Errorf("load timeline: %w", err)
	}
	if len(existing) > 0 {
		o.debug("credentialing already initialized", "providerID", providerID)
		return nil
	}

	provider, err := o.store.GetProvider(ctx, providerID)
	if err != nil {
		return fmt.Errorf("load provider: %w", err)
	}

	now := o.now()
	phases := make([]domain.TimelinePhase, 0, len(domain.AllPhases))
	for _, phase := range domain.AllPhases {
		phases = append(phases, domain.TimelinePhase{
			ID:         uuid.NewString(),
			ProviderID: providerID,
			Phase:      phase,
			Status:     domain.PhasePending,
		})
	}
	if err := o.store.CreateTimeline(ctx, phases); err != nil {
		return fmt.Errorf("create timeline: %w", err)
	}

	provider.CredentialingStatus = domain.CredentialingDocumentsPending
	provider.CredentialingStartedAt = &now
	provider.LastCredentialingUpdate = &now
	if err := o.store.UpdateProvider(ctx, provider); err != nil {
		return fmt.Errorf("update provider: %w", err)
	}

	o.info("credentialing initialized", "providerID", providerID)
	return nil
}

// RunAutomatedVerifications executes the NPI, DEA, OIG, and SAM checks in
// order, independently: a failure in one never blocks the others, and each
// writes its own verification record. NPI and DEA failures are informational
// gates (warning alerts); an OIG or SAM exclusion match is a hard stop that
// rejects the provider before any human review.
func (o *Orchestrator) RunAutomatedVerifications(ctx context.Context, providerID string) (VerificationSummary, error) {
	summary := VerificationSummary{}

	provider, err := o.store.GetProvider(ctx, providerID)
	if err != nil {
		return summary, fmt.Errorf("load provider: %w", err)
	}

	if provider.NPINumber != "" {
		result := o.npi.Verify(ctx, provider.NPINumber)
		o.recordVerification(ctx, providerID, domain.VerificationNPI, result.Verified, result, result.Reason, nil)
		if result.Verified {
			summary.NPI = true
		} else {
			o.raiseAlert(ctx, providerID, domain.AlertNPIFailed, domain.SeverityWarning,
				fmt.Sprintf("NPI verification failed for %s: %s", provider.NPINumber, result.Reason))
		}
	}

	if provider.DEANumber != "" {
		result := o.dea.Validate(provider.DEANumber, provider.LastName)
		o.recordVerification(ctx, providerID, domain.VerificationDEA, result.Valid, result, strings.Join(result.Errors, "; "), nil)
		if result.Valid {
			summary.DEA = true
		} else {
			o.raiseAlert(ctx, providerID, domain.AlertDEAFailed, domain.SeverityWarning,
				fmt.Sprintf("DEA validation failed for %s: %s", provider.DEANumber, strings.Join(result.Errors, "; ")))
		}
	}

	nextCheck := o.now().AddDate(0, 1, 0)

	oigMatch := o.oig.CheckOIGExclusion(ctx, provider.FirstName, provider.LastName, provider.NPINumber)
	o.recordVerification(ctx, providerID, domain.VerificationOIG, !oigMatch.Matched, oigMatch, oigMatch.Details, &nextCheck)

	samMatched := false
	if o.sam != nil && o.sam.Configured() {
		samMatch := o.sam.CheckSAMExclusion(ctx, provider.FirstName, provider.LastName)
		o.recordVerification(ctx, providerID, domain.VerificationSAM, !samMatch.Matched, samMatch, samMatch.Details, &nextCheck)
		if samMatch.Matched {
			samMatched = true
			o.suspendForExclusion(ctx, &provider, domain.AlertSAMMatch, samMatch)
		} else {
			summary.SAM = true
		}
	}

	if oigMatch.Matched {
		o.suspendForExclusion(ctx, &provider, domain.AlertOIGMatch, oigMatch)
	} else {
		summary.OIG = true
	}

	if !oigMatch.Matched && !samMatched {
		npiClear := provider.NPINumber == "" || summary.NPI
		deaClear := provider.DEANumber == "" || summary.DEA
		advancing := provider.CredentialingStatus == domain.CredentialingNotStarted ||
			provider.CredentialingStatus == domain.CredentialingDocumentsPending
		if npiClear && deaClear && advancing {
			provider.CredentialingStatus = domain.CredentialingUnderReview
		}
		now := o.now()
		provider.LastCredentialingUpdate = &now
		if err := o.store.UpdateProvider(ctx, provider); err != nil {
			return summary, fmt.Errorf("update provider: %w", err)
		}
	}

	return summary, nil
}

// suspendForExclusion applies the hard stop for a federal exclusion match:
// critical alert, immediate rejection of profile and credentialing, then a
// non-blocking notification. The compliance state change is recorded before
// and regardless of notification delivery.
func (o *Orchestrator) suspendForExclusion(ctx context.Context, provider *domain.Provider, alertType string, match domain.ExclusionMatch) {
	message := fmt.Sprintf("Exclusion match for %s %s in %s (confidence: %s, matched on: %s)",
		provider.FirstName, provider.LastName, match.Source, match.Confidence, strings.Join(match.MatchedOn, ", "))

	o.raiseAlert(ctx, provider.ID, alertType, domain.SeverityCritical, message)

	now := o.now()
	provider.ProfileStatus = domain.ProfileRejected
	provider.CredentialingStatus = domain.CredentialingRejected
	provider.LastCredentialingUpdate = &now
	if err := o.store.UpdateProvider(ctx, *provider); err != nil {
		o.error("suspend update failed", "providerID", provider.ID, "error", err)
	}

	if o.notifier != nil {
		if !o.notifier.SendAlert(ctx, provider.ID, alertType, message, domain.SeverityCritical, true) {
			o.warn("critical alert notification not delivered", "providerID", provider.ID, "alertType", alertType)
		}
	}
}

// GetCredentialingProgress aggregates the 8 timeline rows and the full
// verification history. Pure read, no side effects.
func (o *Orchestrator) GetCredentialingProgress(ctx context.Context, providerID string) (CredentialingProgress, error) {
	provider, err := o.store.GetProvider(ctx, providerID)
	if err != nil {
		return CredentialingProgress{}, fmt.Errorf("load provider: %w", err)
	}

	rows, err := o.store.GetTimeline(ctx, providerID)
	if err != nil {
		return CredentialingProgress{}, fmt.Errorf("load timeline: %w", err)
	}

	history, err := o.store.ListVerifications(ctx, providerID)
	if err != nil {
		return CredentialingProgress{}, fmt.Errorf("load verifications: %w", err)
	}

	timeline := orderTimeline(rows)

	progress := CredentialingProgress{
		ProviderID:          providerID,
		CredentialingStatus: provider.CredentialingStatus,
		CurrentPhase:        currentPhase(timeline),
		CompletedPhases:     phasesWithStatus(timeline, domain.PhaseCompleted),
		PendingPhases:       phasesWithStatus(timeline, domain.PhasePending),
		FailedPhases:        phasesWithStatus(timeline, domain.PhaseFailed),
		Timeline:            timeline,
		History:             history,
	}

	if provider.CredentialingStartedAt != nil {
		progress.DaysInProcess = int(o.now().Sub(*provider.CredentialingStartedAt).Hours() / 24)
	}

	return progress, nil
}

// CompleteCredentialingPhase marks one phase completed and re-evaluates
// overall progress. When the last phase completes with none failed, the
// provider is auto-promoted to approved; this is the only path to approval.
func (o *Orchestrator) CompleteCredentialingPhase(ctx context.Context, providerID string, phase domain.Phase, notes string) error {
	if !lo.Contains(domain.AllPhases, phase) {
		return fmt.Errorf("unknown credentialing phase %q", phase)
	}

	rows, err := o.store.GetTimeline(ctx, providerID)
	if err != nil {
		return fmt.Errorf("load timeline: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("credentialing not initialized for provider %s", providerID)
	}

	now := o.now()
	var target *domain.TimelinePhase
	for i := range rows {
		if rows[i].Phase == phase {
			target = &rows[i]
			break
		}
	}
	if target == nil {
		return fmt.Errorf("no timeline row for phase %q", phase)
	}

	target.Status = domain.PhaseCompleted
	target.CompletedAt = &now
	if target.StartedAt == nil {
		target.StartedAt = &now
	}
	if notes != "" {
		target.Notes = notes
	}
	if err := o.store.UpdateTimelinePhase(ctx, *target); err != nil {
		return fmt.Errorf("update phase: %w", err)
	}

	remaining := lo.CountBy(rows, func(r domain.TimelinePhase) bool {
		return r.Status != domain.PhaseCompleted
	})
	if remaining > 0 {
		return nil
	}

	provider, err := o.store.GetProvider(ctx, providerID)
	if err != nil {
		return fmt.Errorf("load provider: %w", err)
	}
	provider.CredentialingStatus = domain.CredentialingApproved
	provider.ProfileStatus = domain.ProfileApproved
	provider.CredentialingCompletedAt = &now
	provider.LastCredentialingUpdate = &now
	if err := o.store.UpdateProvider(ctx, provider); err != nil {
		return fmt.Errorf("update provider: %w", err)
	}

	o.info("provider fully credentialed", "providerID", providerID)
	return nil
}

const expiryHorizonDays = 60

// CheckExpiringCredentials scans approved providers whose license or DEA
// expiration falls within a 60-day horizon and raises an info alert (>30
// days out) or warning alert (30 or fewer). At most one unresolved alert per
// provider and alert type exists at a time, so daily runs do not pile up
// duplicates.
func (o *Orchestrator) CheckExpiringCredentials(ctx context.Context) (domain.ExpiryStats, error) {
	stats := domain.ExpiryStats{}

	providers, err := o.store.ListApprovedProviders(ctx)
	if err != nil {
		return stats, fmt.Errorf("list approved providers: %w", err)
	}

	now := o.now()
	for _, provider := range providers {
		stats.Scanned++

		if created := o.expiryAlert(ctx, provider, provider.LicenseExpiresAt, domain.AlertLicenseExpiring,
			fmt.Sprintf("License %s (%s)", provider.LicenseNumber, provider.LicenseState), now); created {
			stats.AlertsCreated++
		}
		if created := o.expiryAlert(ctx, provider, provider.DEAExpiresAt, domain.AlertDEAExpiring,
			fmt.Sprintf("DEA registration %s", provider.DEANumber), now); created {
			stats.AlertsCreated++
		}
	}

	return stats, nil
}

func (o *Orchestrator) expiryAlert(ctx context.Context, provider domain.Provider, expiresAt *time.Time, alertType, credential string, now time.Time) bool {
	if expiresAt == nil {
		return false
	}

	days := int(expiresAt.Sub(now).Hours() / 24)
	if days < 0 || days > expiryHorizonDays {
		return false
	}

	exists, err := o.store.HasUnresolvedAlert(ctx, provider.ID, alertType)
	if err != nil {
		o.warn("alert dedup check failed", "providerID", provider.ID, "alertType", alertType, "error", err)
		return false
	}
	if exists {
		return false
	}

	severity := domain.SeverityInfo
	if days <= 30 {
		severity = domain.SeverityWarning
	}

	o.raiseAlert(ctx, provider.ID, alertType, severity,
		fmt.Sprintf("%s for %s %s expires in %d days", credential, provider.FirstName, provider.LastName, days))
	return true
}

func (o *Orchestrator) recordVerification(ctx context.Context, providerID string, vType domain.VerificationType, passed bool, payload any, notes string, nextCheck *time.Time) {
	status := domain.VerificationFailed
	if passed {
		status = domain.VerificationVerified
	}

	data, err := json.Marshal(payload)
	if err != nil {
		o.error("marshal verification payload", "type", vType, "error", err)
		data = []byte("{}")
	}

	record := domain.VerificationRecord{
		ID:               uuid.NewString(),
		ProviderID:       providerID,
		VerificationType: vType,
		Status:           status,
		VerificationDate: o.now(),
		VerifiedBy:       verifiedByAutomated,
		Source:           sourceFor(vType),
		Data:             string(data),
		Notes:            notes,
		NextCheckDate:    nextCheck,
	}

	if err := o.store.AppendVerification(ctx, record); err != nil {
		o.error("append verification record", "providerID", providerID, "type", vType, "error", err)
	}
}

func (o *Orchestrator) raiseAlert(ctx context.Context, providerID, alertType string, severity domain.AlertSeverity, message string) {
	alert := domain.Alert{
		ID:         uuid.NewString(),
		ProviderID: providerID,
		AlertType:  alertType,
		Severity:   severity,
		Message:    message,
		CreatedAt:  o.now(),
	}
	if err := o.store.AppendAlert(ctx, alert); err != nil {
		o.error("append alert", "providerID", providerID, "alertType", alertType, "error", err)
	}
}

func sourceFor(vType domain.VerificationType) string {
	switch vType {
	case domain.VerificationNPI:
		return "CMS NPI Registry API"
	case domain.VerificationDEA:
		return "DEA checksum validation"
	case domain.VerificationOIG:
		return "OIG LEIE Database"
	case domain.VerificationSAM:
		return "SAM.gov Exclusions API"
	default:
		return string(vType)
	}
}

func orderTimeline(rows []domain.TimelinePhase) []domain.TimelinePhase {
	byPhase := lo.KeyBy(rows, func(r domain.TimelinePhase) domain.Phase { return r.Phase })
	ordered := make([]domain.TimelinePhase, 0, len(rows))
	for _, phase := range domain.AllPhases {
		if row, ok := byPhase[phase]; ok {
			ordered = append(ordered, row)
		}
	}
	return ordered
}

func currentPhase(timeline []domain.TimelinePhase) domain.Phase {
	for _, row := range timeline {
		if row.Status == domain.PhaseInProgress {
			return row.Phase
		}
	}
	for _, row := range timeline {
		if row.Status == domain.PhasePending {
			return row.Phase
		}
	}
	return domain.PhaseFinalReview
}

func phasesWithStatus(timeline []domain.TimelinePhase, status domain.PhaseStatus) []domain.Phase {
	matching := lo.Filter(timeline, func(r domain.TimelinePhase, _ int) bool {
		return r.Status == status
	})
	return lo.Map(matching, func(r domain.TimelinePhase, _ int) domain.Phase { return r.Phase })
}

func (o *Orchestrator) debug(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Debug(msg, args...)
	}
}

func (o *Orchestrator) info(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Info(msg, args...)
	}
}

func (o *Orchestrator) warn(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Warn(msg, args...)
	}
}

func (o *Orchestrator) error(msg string, args ...any) {
	if o.logger != nil {
		o.logger.Error(msg, args...)
	}
}
