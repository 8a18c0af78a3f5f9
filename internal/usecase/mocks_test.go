package usecase

import (
	"context"
	"fmt"

	"CredentialScanner/internal/domain"
)

// memProviderStore is an in-memory ProviderStore for workflow tests.
type memProviderStore struct {
	providers     map[string]domain.Provider
	verifications []domain.VerificationRecord
	timeline      map[string][]domain.TimelinePhase
	alerts        []domain.Alert

	getErr      error
	timelineErr error
}

func newMemProviderStore(providers ...domain.Provider) *memProviderStore {
	s := &memProviderStore{
		providers: map[string]domain.Provider{},
		timeline:  map[string][]domain.TimelinePhase{},
	}
	for _, p := range providers {
		s.providers[p.ID] = p
	}
	return s
}

func (s *memProviderStore) GetProvider(ctx context.Context, id string) (domain.Provider, error) {
	if s.getErr != nil {
		return domain.Provider{}, s.getErr
	}
	p, ok := s.providers[id]
	if !ok {
		return domain.Provider{}, fmt.Errorf("provider %s not found", id)
	}
	return p, nil
}

func (s *memProviderStore) UpdateProvider(ctx context.Context, provider domain.Provider) error {
	s.providers[provider.ID] = provider
	return nil
}

func (s *memProviderStore) ListApprovedProviders(ctx context.Context) ([]domain.Provider, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	var out []domain.Provider
	for _, p := range s.providers {
		if p.ProfileStatus == domain.ProfileApproved {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memProviderStore) AppendVerification(ctx context.Context, record domain.VerificationRecord) error {
	s.verifications = append(s.verifications, record)
	return nil
}

func (s *memProviderStore) ListVerifications(ctx context.Context, providerID string) ([]domain.VerificationRecord, error) {
	var out []domain.VerificationRecord
	// Newest first.
	for i := len(s.verifications) - 1; i >= 0; i-- {
		if s.verifications[i].ProviderID == providerID {
			out = append(out, s.verifications[i])
		}
	}
	return out, nil
}

func (s *memProviderStore) CreateTimeline(ctx context.Context, phases []domain.TimelinePhase) error {
	if s.timelineErr != nil {
		return s.timelineErr
	}
	for _, p := range phases {
		s.timeline[p.ProviderID] = append(s.timeline[p.ProviderID], p)
	}
	return nil
}

func (s *memProviderStore) GetTimeline(ctx context.Context, providerID string) ([]domain.TimelinePhase, error) {
	return append([]domain.TimelinePhase(nil), s.timeline[providerID]...), nil
}

func (s *memProviderStore) UpdateTimelinePhase(ctx context.Context, phase domain.TimelinePhase) error {
	rows := s.timeline[phase.ProviderID]
	for i := range rows {
		if rows[i].Phase == phase.Phase {
			rows[i] = phase
			return nil
		}
	}
	return fmt.Errorf("phase %s not found", phase.Phase)
}

func (s *memProviderStore) AppendAlert(ctx context.Context, alert domain.Alert) error {
	s.alerts = append(s.alerts, alert)
	return nil
}

func (s *memProviderStore) HasUnresolvedAlert(ctx context.Context, providerID, alertType string) (bool, error) {
	for _, a := range s.alerts {
		if a.ProviderID == providerID && a.AlertType == alertType && !a.Resolved {
			return true, nil
		}
	}
	return false, nil
}

func (s *memProviderStore) alertsOfType(alertType string) []domain.Alert {
	var out []domain.Alert
	for _, a := range s.alerts {
		if a.AlertType == alertType {
			out = append(out, a)
		}
	}
	return out
}

type stubNPIVerifier struct {
	result domain.NPIVerification
	calls  int
}

func (s *stubNPIVerifier) Verify(ctx context.Context, npi string) domain.NPIVerification {
	s.calls++
	return s.result
}

func (s *stubNPIVerifier) SearchByName(ctx context.Context, firstName, lastName, state string, limit int) ([]domain.NPIVerification, error) {
	return nil, nil
}

type stubDEAValidator struct {
	result domain.DEAValidation
	calls  int
}

func (s *stubDEAValidator) Validate(deaNumber, lastName string) domain.DEAValidation {
	s.calls++
	return s.result
}

type stubOIGChecker struct {
	match domain.ExclusionMatch
	calls int
}

func (s *stubOIGChecker) CheckOIGExclusion(ctx context.Context, firstName, lastName, npi string) domain.ExclusionMatch {
	s.calls++
	return s.match
}

type stubSAMChecker struct {
	configured bool
	match      domain.ExclusionMatch
	calls      int
}

func (s *stubSAMChecker) Configured() bool { return s.configured }

func (s *stubSAMChecker) CheckSAMExclusion(ctx context.Context, firstName, lastName string) domain.ExclusionMatch {
	s.calls++
	return s.match
}

type notifierCall struct {
	providerID string
	alertType  string
	severity   domain.AlertSeverity
}

type stubNotifier struct {
	ok    bool
	calls []notifierCall
}

func (s *stubNotifier) SendAlert(ctx context.Context, providerID, alertType, message string, severity domain.AlertSeverity, actionRequired bool) bool {
	s.calls = append(s.calls, notifierCall{providerID: providerID, alertType: alertType, severity: severity})
	return s.ok
}

type stubImporter struct {
	stats domain.ExclusionImportStats
	err   error
	calls int
}

func (s *stubImporter) UpdateOIGDatabase(ctx context.Context) (domain.ExclusionImportStats, error) {
	s.calls++
	return s.stats, s.err
}

func noMatch() domain.ExclusionMatch {
	return domain.ExclusionMatch{Matched: false, Confidence: domain.ConfidenceHigh, MatchedOn: []string{}}
}

func oigHit() domain.ExclusionMatch {
	return domain.ExclusionMatch{
		Matched:    true,
		Confidence: domain.ConfidenceHigh,
		MatchedOn:  []string{"name", "npi"},
		Source:     "OIG LEIE Database",
	}
}
