package ports

import (
	"context"
	"time"

	"CredentialScanner/internal/domain"
)

// ProviderStore persists providers and their credentialing trail.
type ProviderStore interface {
	GetProvider(ctx context.Context, id string) (domain.Provider, error)
	UpdateProvider(ctx context.Context, provider domain.Provider) error
	ListApprovedProviders(ctx context.Context) ([]domain.Provider, error)

	AppendVerification(ctx context.Context, record domain.VerificationRecord) error
	ListVerifications(ctx context.Context, providerID string) ([]domain.VerificationRecord, error)

	// CreateTimeline inserts all phase rows as one unit; a provider with
	// some-but-not-all phase rows is an invalid state.
	CreateTimeline(ctx context.Context, phases []domain.TimelinePhase) error
	GetTimeline(ctx context.Context, providerID string) ([]domain.TimelinePhase, error)
	UpdateTimelinePhase(ctx context.Context, phase domain.TimelinePhase) error

	AppendAlert(ctx context.Context, alert domain.Alert) error
	HasUnresolvedAlert(ctx context.Context, providerID, alertType string) (bool, error)
}

// ExclusionStore holds the bulk-imported federal exclusion dataset.
type ExclusionStore interface {
	DeleteAllExclusions(ctx context.Context) error
	InsertExclusions(ctx context.Context, records []domain.ExclusionRecord) error
	FindExclusionsByName(ctx context.Context, firstName, lastName string) ([]domain.ExclusionRecord, error)
	FindExclusionsByNPI(ctx context.Context, npi string) ([]domain.ExclusionRecord, error)
	CountExclusions(ctx context.Context) (int64, error)
}

// NPIVerifier resolves provider identity against the national registry.
type NPIVerifier interface {
	Verify(ctx context.Context, npi string) domain.NPIVerification
	SearchByName(ctx context.Context, firstName, lastName, state string, limit int) ([]domain.NPIVerification, error)
}

// DEAValidator performs the offline DEA registration number check.
type DEAValidator interface {
	Validate(deaNumber, lastName string) domain.DEAValidation
}

// OIGChecker matches a provider against the local exclusion dataset.
type OIGChecker interface {
	CheckOIGExclusion(ctx context.Context, firstName, lastName, npi string) domain.ExclusionMatch
}

// SAMChecker queries the SAM.gov exclusions API when an API key is present.
type SAMChecker interface {
	Configured() bool
	CheckSAMExclusion(ctx context.Context, firstName, lastName string) domain.ExclusionMatch
}

// ExclusionImporter refreshes the local OIG dataset from the federal source.
type ExclusionImporter interface {
	UpdateOIGDatabase(ctx context.Context) (domain.ExclusionImportStats, error)
}

// Notifier delivers alert notifications on a "notify, don't block" contract:
// it never returns an error, only a delivery success flag. Compliance state
// changes must not depend on delivery succeeding.
type Notifier interface {
	SendAlert(ctx context.Context, providerID, alertType, message string, severity domain.AlertSeverity, actionRequired bool) bool
}

// Scheduler controls when maintenance jobs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
