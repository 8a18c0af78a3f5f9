package domain

import "time"

// CredentialingStatus tracks a provider's position in the credentialing workflow.
type CredentialingStatus string

const (
	CredentialingNotStarted       CredentialingStatus = "not_started"
	CredentialingDocumentsPending CredentialingStatus = "documents_pending"
	CredentialingUnderReview      CredentialingStatus = "under_review"
	CredentialingApproved         CredentialingStatus = "approved"
	CredentialingRejected         CredentialingStatus = "rejected"
)

// ProfileStatus controls public visibility, separately from credentialing.
type ProfileStatus string

const (
	ProfilePending  ProfileStatus = "pending"
	ProfileApproved ProfileStatus = "approved"
	ProfileRejected ProfileStatus = "rejected"
	ProfileInactive ProfileStatus = "inactive"
)

// Provider is a healthcare professional seeking platform approval.
// Providers are never hard-deleted; status transitions instead.
type Provider struct {
	ID                       string
	FirstName                string
	LastName                 string
	NPINumber                string // optional, 10 digits
	DEANumber                string // optional, 9 chars
	LicenseNumber            string
	LicenseState             string
	LicenseType              string
	LicenseExpiresAt         *time.Time
	DEAExpiresAt             *time.Time
	CredentialingStatus      CredentialingStatus
	ProfileStatus            ProfileStatus
	CredentialingStartedAt   *time.Time
	CredentialingCompletedAt *time.Time
	LastCredentialingUpdate  *time.Time
}

// Phase is one of the 8 fixed credentialing timeline phases.
type Phase string

const (
	PhaseDocumentReview        Phase = "document_review"
	PhaseNPIVerification       Phase = "npi_verification"
	PhaseLicenseVerification   Phase = "license_verification"
	PhaseEducationVerification Phase = "education_verification"
	PhaseBackgroundCheck       Phase = "background_check"
	PhaseInsuranceVerification Phase = "insurance_verification"
	PhaseOIGSAMCheck           Phase = "oig_sam_check"
	PhaseFinalReview           Phase = "final_review"
)

// AllPhases lists the credentialing phases in workflow order.
var AllPhases = []Phase{
	PhaseDocumentReview,
	PhaseNPIVerification,
	PhaseLicenseVerification,
	PhaseEducationVerification,
	PhaseBackgroundCheck,
	PhaseInsuranceVerification,
	PhaseOIGSAMCheck,
	PhaseFinalReview,
}

// PhaseStatus tracks progress of a single timeline phase.
type PhaseStatus string

const (
	PhasePending    PhaseStatus = "pending"
	PhaseInProgress PhaseStatus = "in_progress"
	PhaseCompleted  PhaseStatus = "completed"
	PhaseFailed     PhaseStatus = "failed"
)

// TimelinePhase is one tracked phase row; exactly one exists per (provider, phase).
type TimelinePhase struct {
	ID          string
	ProviderID  string
	Phase       Phase
	Status      PhaseStatus
	StartedAt   *time.Time
	CompletedAt *time.Time
	Notes       string
}

// AlertSeverity ranks how urgently an alert needs human attention.
type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityWarning  AlertSeverity = "warning"
	SeverityInfo     AlertSeverity = "info"
)

// Alert types raised by the credentialing core.
const (
	AlertOIGMatch          = "oig_match"
	AlertSAMMatch          = "sam_match"
	AlertNPIFailed         = "npi_verification_failed"
	AlertDEAFailed         = "dea_verification_failed"
	AlertLicenseExpiring   = "license_expiring"
	AlertDEAExpiring       = "dea_expiring"
)

// Alert is a flagged condition requiring human review. Resolved only by
// explicit admin action, never by the core.
type Alert struct {
	ID         string
	ProviderID string
	AlertType  string
	Severity   AlertSeverity
	Message    string
	Resolved   bool
	CreatedAt  time.Time
}

// ExclusionRecord is one row of the federal OIG exclusion list. The table is
// read-only reference data, replaced wholesale on each monthly refresh.
type ExclusionRecord struct {
	ID                string
	FirstName         string
	LastName          string
	MiddleName        string
	BusinessName      string
	General           string
	Specialty         string
	NPI               string
	ExclusionType     string
	ExclusionDate     *time.Time
	ReinstatementDate *time.Time
	State             string
}

// ActivelyExcluded reports whether the exclusion is still in force at the
// given instant. A reinstatement date in the past means the exclusion lapsed.
func (r ExclusionRecord) ActivelyExcluded(at time.Time) bool {
	if r.ReinstatementDate == nil {
		return true
	}
	return r.ReinstatementDate.After(at)
}
