package exclusion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"CredentialScanner/internal/domain"
	"CredentialScanner/internal/ports"
)

// SAMSourceName labels verification records produced by the SAM client.
const SAMSourceName = "SAM.gov Exclusions API"

// SAMClient queries the SAM.gov exclusions API. The whole check is gated on
// an API key; free-tier absence is expected and degrades to "not excluded".
type SAMClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

var _ ports.SAMChecker = (*SAMClient)(nil)

// NewSAMClient wires the SAM endpoint; an empty apiKey disables the check.
func NewSAMClient(baseURL, apiKey string, client *http.Client, logger *slog.Logger) *SAMClient {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &SAMClient{baseURL: baseURL, apiKey: apiKey, client: client, logger: logger}
}

// Configured reports whether an API key is present.
func (s *SAMClient) Configured() bool {
	return s.apiKey != ""
}

type samResponse struct {
	TotalRecords int `json:"totalRecords"`
	EntityData   []struct {
		ExclusionDetails []struct {
			ClassificationType string `json:"classificationType"`
			ExclusionType      string `json:"exclusionType"`
			ActivationDate     string `json:"activationDate"`
		} `json:"exclusionDetails"`
	} `json:"entityData"`
}

// CheckSAMExclusion searches the federal debarment registry by name. Missing
// key and transport failures both degrade to not-matched with low
// confidence rather than blocking credentialing.
func (s *SAMClient) CheckSAMExclusion(ctx context.Context, firstName, lastName string) domain.ExclusionMatch {
	if !s.Configured() {
		s.debug("SAM check skipped, no API key configured")
		return domain.ExclusionMatch{
			Matched:    false,
			Confidence: domain.ConfidenceLow,
			MatchedOn:  []string{},
			Source:     SAMSourceName,
			Details:    "SAM API not configured",
		}
	}

	params := url.Values{}
	params.Set("api_key", s.apiKey)
	params.Set("firstName", firstName)
	params.Set("lastName", lastName)

	resp, err := s.fetch(ctx, params)
	if err != nil {
		s.warn("SAM lookup failed", "lastName", lastName, "error", err)
		return domain.ExclusionMatch{
			Matched:    false,
			Confidence: domain.ConfidenceLow,
			MatchedOn:  []string{},
			Source:     SAMSourceName,
			Details:    err.Error(),
		}
	}

	if resp.TotalRecords == 0 {
		return domain.ExclusionMatch{
			Matched:    false,
			Confidence: domain.ConfidenceHigh,
			MatchedOn:  []string{},
			Source:     SAMSourceName,
		}
	}

	details := ""
	if len(resp.EntityData) > 0 && len(resp.EntityData[0].ExclusionDetails) > 0 {
		details = resp.EntityData[0].ExclusionDetails[0].ExclusionType
	}

	return domain.ExclusionMatch{
		Matched:    true,
		Confidence: domain.ConfidenceMedium,
		MatchedOn:  []string{"name"},
		Source:     SAMSourceName,
		Details:    details,
	}
}

func (s *SAMClient) fetch(ctx context.Context, params url.Values) (*samResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("SAM API unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("SAM API returned %s", resp.Status)
	}

	var parsed samResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode SAM response: %w", err)
	}

	return &parsed, nil
}

func (s *SAMClient) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

func (s *SAMClient) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
