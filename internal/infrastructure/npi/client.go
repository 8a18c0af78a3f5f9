package npi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"CredentialScanner/internal/domain"
	"CredentialScanner/internal/ports"
)

const (
	// SourceName labels verification records produced by this client.
	SourceName = "CMS NPI Registry API"

	defaultSearchLimit = 10
)

var npiFormat = regexp.MustCompile(`^\d{10}$`)

// Client talks to the CMS national provider registry.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

var _ ports.NPIVerifier = (*Client)(nil)

// NewClient wires the registry endpoint; a nil http.Client gets a bounded
// timeout default.
func NewClient(baseURL string, client *http.Client, logger *slog.Logger) *Client {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: baseURL, client: client, logger: logger}
}

// registryResponse mirrors the registry's JSON envelope.
type registryResponse struct {
	ResultCount int              `json:"result_count"`
	Results     []registryResult `json:"results"`
}

type registryResult struct {
	Number          string             `json:"number"`
	EnumerationType string             `json:"enumeration_type"`
	Basic           registryBasic      `json:"basic"`
	Taxonomies      []registryTaxonomy `json:"taxonomies"`
	Addresses       []registryAddress  `json:"addresses"`
}

type registryBasic struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	MiddleName       string `json:"middle_name"`
	Credential       string `json:"credential"`
	OrganizationName string `json:"organization_name"`
	EnumerationDate  string `json:"enumeration_date"`
	LastUpdated      string `json:"last_updated"`
	Status           string `json:"status"`
}

type registryTaxonomy struct {
	Code    string `json:"code"`
	Desc    string `json:"desc"`
	Primary bool   `json:"primary"`
	License string `json:"license"`
	State   string `json:"state"`
}

type registryAddress struct {
	AddressPurpose  string `json:"address_purpose"`
	Address1        string `json:"address_1"`
	Address2        string `json:"address_2"`
	City            string `json:"city"`
	State           string `json:"state"`
	PostalCode      string `json:"postal_code"`
	TelephoneNumber string `json:"telephone_number"`
}

// Verify looks up a single NPI. Failures are result values, never errors:
// the orchestrator must persist a failure record rather than abort the run.
func (c *Client) Verify(ctx context.Context, npi string) domain.NPIVerification {
	if !npiFormat.MatchString(npi) {
		return domain.NPIVerification{NPI: npi, Reason: "Invalid NPI format"}
	}

	params := url.Values{}
	params.Set("version", "2.1")
	params.Set("number", npi)

	resp, err := c.fetch(ctx, params)
	if err != nil {
		c.debug("registry lookup failed", "npi", npi, "error", err)
		return domain.NPIVerification{NPI: npi, Reason: err.Error()}
	}

	if resp.ResultCount == 0 || len(resp.Results) == 0 {
		return domain.NPIVerification{NPI: npi, Reason: "NPI number not found in registry"}
	}

	return toVerification(resp.Results[0])
}

// SearchByName finds providers by name and optional state, for callers who
// do not know their NPI. Results are capped at limit (default 10).
func (c *Client) SearchByName(ctx context.Context, firstName, lastName, state string, limit int) ([]domain.NPIVerification, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	params := url.Values{}
	params.Set("version", "2.1")
	params.Set("first_name", firstName)
	params.Set("last_name", lastName)
	if state != "" {
		params.Set("state", state)
	}
	params.Set("limit", fmt.Sprintf("%d", limit))

	resp, err := c.fetch(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search registry: %w", err)
	}

	results := make([]domain.NPIVerification, 0, len(resp.Results))
	for i, r := range resp.Results {
		if i >= limit {
			break
		}
		results = append(results, toVerification(r))
	}
	return results, nil
}

func (c *Client) fetch(ctx context.Context, params url.Values) (*registryResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("registry returned %s", resp.Status)
	}

	var parsed registryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode registry response: %w", err)
	}

	return &parsed, nil
}

func toVerification(r registryResult) domain.NPIVerification {
	v := domain.NPIVerification{
		Verified:        true,
		NPI:             r.Number,
		Name:            providerName(r.Basic),
		Credential:      r.Basic.Credential,
		EnumerationType: enumerationType(r.EnumerationType),
		EnumerationDate: r.Basic.EnumerationDate,
		LastUpdated:     r.Basic.LastUpdated,
		Status:          r.Basic.Status,
	}

	for _, t := range r.Taxonomies {
		tax := domain.Taxonomy{
			Code:        t.Code,
			Description: t.Desc,
			Primary:     t.Primary,
			License:     t.License,
			State:       t.State,
		}
		v.Taxonomies = append(v.Taxonomies, tax)
		if t.Primary {
			v.PrimaryTaxonomy = tax
		}
	}
	if v.PrimaryTaxonomy.Code == "" && len(v.Taxonomies) > 0 {
		v.PrimaryTaxonomy = v.Taxonomies[0]
	}

	for _, a := range r.Addresses {
		if a.AddressPurpose == "LOCATION" {
			v.Address = toAddress(a)
			break
		}
	}
	if v.Address.Address1 == "" && len(r.Addresses) > 0 {
		v.Address = toAddress(r.Addresses[0])
	}

	return v
}

func toAddress(a registryAddress) domain.PracticeAddress {
	return domain.PracticeAddress{
		Address1:   a.Address1,
		Address2:   a.Address2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Telephone:  a.TelephoneNumber,
	}
}

func providerName(b registryBasic) string {
	if b.OrganizationName != "" {
		return b.OrganizationName
	}
	name := b.FirstName
	if b.MiddleName != "" {
		name += " " + b.MiddleName
	}
	if b.LastName != "" {
		name += " " + b.LastName
	}
	return name
}

func enumerationType(code string) string {
	switch code {
	case "NPI-1":
		return "Individual"
	case "NPI-2":
		return "Organization"
	default:
		return code
	}
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
