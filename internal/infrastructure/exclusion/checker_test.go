package exclusion

import (
	"context"
	"errors"
	"testing"
	"time"

	"CredentialScanner/internal/domain"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestCheckOIGExclusionHighConfidence(t *testing.T) {
	t.Parallel()

	store := &memExclusionStore{records: []domain.ExclusionRecord{
		{FirstName: "JOHN", LastName: "SMITH", NPI: "1234567890", ExclusionType: "1128b4"},
	}}
	checker := NewChecker(store, nil)

	match := checker.CheckOIGExclusion(context.Background(), "John", "Smith", "1234567890")

	if !match.Matched {
		t.Fatalf("expected match")
	}
	if match.Confidence != domain.ConfidenceHigh {
		t.Fatalf("expected high confidence, got %s", match.Confidence)
	}
	if len(match.MatchedOn) != 2 || match.MatchedOn[0] != "name" || match.MatchedOn[1] != "npi" {
		t.Fatalf("unexpected matchedOn: %v", match.MatchedOn)
	}
}

func TestCheckOIGExclusionNameOnlyIsMedium(t *testing.T) {
	t.Parallel()

	store := &memExclusionStore{records: []domain.ExclusionRecord{
		{FirstName: "JOHN", LastName: "SMITH", NPI: "9999999999"},
	}}
	checker := NewChecker(store, nil)

	match := checker.CheckOIGExclusion(context.Background(), "John", "Smith", "1234567890")

	if !match.Matched {
		t.Fatalf("expected match")
	}
	if match.Confidence != domain.ConfidenceMedium {
		t.Fatalf("expected medium confidence, got %s", match.Confidence)
	}
	if len(match.MatchedOn) != 1 || match.MatchedOn[0] != "name" {
		t.Fatalf("unexpected matchedOn: %v", match.MatchedOn)
	}
}

func TestCheckOIGExclusionNPIFallbackIsMedium(t *testing.T) {
	t.Parallel()

	store := &memExclusionStore{records: []domain.ExclusionRecord{
		{FirstName: "JONATHAN", LastName: "SMYTHE", NPI: "1234567890"},
	}}
	checker := NewChecker(store, nil)

	match := checker.CheckOIGExclusion(context.Background(), "John", "Smith", "1234567890")

	if !match.Matched {
		t.Fatalf("expected NPI fallback match")
	}
	if match.Confidence != domain.ConfidenceMedium {
		t.Fatalf("NPI-only match must stay medium, got %s", match.Confidence)
	}
	if len(match.MatchedOn) != 1 || match.MatchedOn[0] != "npi" {
		t.Fatalf("unexpected matchedOn: %v", match.MatchedOn)
	}
}

func TestCheckOIGExclusionLapsedReinstatement(t *testing.T) {
	t.Parallel()

	yesterday := time.Now().AddDate(0, 0, -1)
	store := &memExclusionStore{records: []domain.ExclusionRecord{
		{FirstName: "JOHN", LastName: "SMITH", NPI: "1234567890", ReinstatementDate: timePtr(yesterday)},
	}}
	checker := NewChecker(store, nil)

	match := checker.CheckOIGExclusion(context.Background(), "John", "Smith", "1234567890")

	if match.Matched {
		t.Fatalf("lapsed exclusion must not match")
	}
}

func TestCheckOIGExclusionFutureReinstatementStillMatches(t *testing.T) {
	t.Parallel()

	nextYear := time.Now().AddDate(1, 0, 0)
	store := &memExclusionStore{records: []domain.ExclusionRecord{
		{FirstName: "JOHN", LastName: "SMITH", ReinstatementDate: timePtr(nextYear)},
	}}
	checker := NewChecker(store, nil)

	if !checker.CheckOIGExclusion(context.Background(), "John", "Smith", "").Matched {
		t.Fatalf("exclusion with future reinstatement must still match")
	}
}

func TestCheckOIGExclusionNoMatch(t *testing.T) {
	t.Parallel()

	store := &memExclusionStore{records: []domain.ExclusionRecord{
		{FirstName: "JOHN", LastName: "SMITH", NPI: "1234567890"},
	}}
	checker := NewChecker(store, nil)

	match := checker.CheckOIGExclusion(context.Background(), "Alice", "Jones", "")

	if match.Matched {
		t.Fatalf("unexpected match")
	}
	if match.Confidence != domain.ConfidenceHigh {
		t.Fatalf("clean no-match should be high confidence, got %s", match.Confidence)
	}
	if len(match.MatchedOn) != 0 {
		t.Fatalf("unexpected matchedOn: %v", match.MatchedOn)
	}
}

func TestCheckOIGExclusionFailsSafeOnLookupError(t *testing.T) {
	t.Parallel()

	store := &memExclusionStore{nameErr: errors.New("connection refused")}
	checker := NewChecker(store, nil)

	match := checker.CheckOIGExclusion(context.Background(), "John", "Smith", "1234567890")

	if match.Matched {
		t.Fatalf("lookup outage must never convert into a match")
	}
	if match.Confidence != domain.ConfidenceLow {
		t.Fatalf("fail-safe path must be low confidence, got %s", match.Confidence)
	}
}
