package domain

import "time"

// VerificationType identifies which automated check produced a record.
type VerificationType string

const (
	VerificationNPI VerificationType = "npi"
	VerificationDEA VerificationType = "dea"
	VerificationOIG VerificationType = "oig"
	VerificationSAM VerificationType = "sam"
)

// VerificationStatus is the outcome of one automated check run.
type VerificationStatus string

const (
	VerificationVerified VerificationStatus = "verified"
	VerificationFailed   VerificationStatus = "failed"
)

// VerificationRecord is the immutable result of one automated check run
// against one provider. A new check produces a new record; existing records
// are never mutated, preserving audit history.
type VerificationRecord struct {
	ID               string
	ProviderID       string
	VerificationType VerificationType
	Status           VerificationStatus
	VerificationDate time.Time
	VerifiedBy       string // always "automated" for this core
	Source           string // human-readable origin, e.g. "CMS NPI Registry API"
	Data             string // raw structured result, serialized JSON
	Notes            string
	ExpirationDate   *time.Time
	NextCheckDate    *time.Time
}

// Taxonomy is one specialty classification returned by the NPI registry.
type Taxonomy struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Primary     bool   `json:"primary"`
	License     string `json:"license,omitempty"`
	State       string `json:"state,omitempty"`
}

// PracticeAddress is the primary practice location from the NPI registry.
type PracticeAddress struct {
	Address1   string `json:"address1"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Telephone  string `json:"telephone,omitempty"`
}

// NPIVerification is the structured outcome of a registry lookup. A failed
// lookup is a value, not an error: the orchestrator persists failures too.
type NPIVerification struct {
	Verified        bool            `json:"verified"`
	Reason          string          `json:"reason,omitempty"`
	NPI             string          `json:"npi"`
	Name            string          `json:"name,omitempty"`
	Credential      string          `json:"credential,omitempty"`
	EnumerationType string          `json:"enumerationType,omitempty"` // Individual|Organization
	PrimaryTaxonomy Taxonomy        `json:"primaryTaxonomy,omitempty"`
	Taxonomies      []Taxonomy      `json:"taxonomies,omitempty"`
	Address         PracticeAddress `json:"address,omitempty"`
	EnumerationDate string          `json:"enumerationDate,omitempty"`
	LastUpdated     string          `json:"lastUpdated,omitempty"`
	Status          string          `json:"status,omitempty"`
}

// DEAValidation is the outcome of the offline DEA number check. All
// applicable problems accumulate into Errors; the first failure does not
// short-circuit the remaining checks.
type DEAValidation struct {
	Valid                     bool     `json:"valid"`
	RegistrantType            string   `json:"registrantType,omitempty"`
	RegistrantTypeDescription string   `json:"registrantTypeDescription,omitempty"`
	LastNameInitial           string   `json:"lastNameInitial,omitempty"`
	CheckDigitValid           bool     `json:"checkDigitValid"`
	Errors                    []string `json:"errors,omitempty"`
}

// MatchConfidence grades how strongly an exclusion record matched.
type MatchConfidence string

const (
	ConfidenceHigh   MatchConfidence = "high"
	ConfidenceMedium MatchConfidence = "medium"
	ConfidenceLow    MatchConfidence = "low"
)

// ExclusionMatch is the tagged result of an OIG or SAM exclusion check. A
// compliance finding is not an error; it flows through the success path with
// Matched=true so generic error handling can never swallow it.
type ExclusionMatch struct {
	Matched    bool             `json:"matched"`
	Confidence MatchConfidence  `json:"confidence"`
	MatchedOn  []string         `json:"matchedOn"`
	Source     string           `json:"source"`
	Record     *ExclusionRecord `json:"record,omitempty"`
	Details    string           `json:"details,omitempty"`
}

// ExclusionImportStats summarizes one bulk refresh of the OIG dataset.
type ExclusionImportStats struct {
	Imported int
	Errors   int
}

// SweepStats summarizes one monthly exclusion sweep over approved providers.
type SweepStats struct {
	Checked       int
	Matched       int
	AlertsCreated int
}

// ExpiryStats summarizes one expiring-credentials scan.
type ExpiryStats struct {
	Scanned       int
	AlertsCreated int
}
