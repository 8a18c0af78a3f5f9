package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"CredentialScanner/internal/domain"
	"CredentialScanner/internal/ports"
)

// PostgresStore implements the provider and exclusion store ports on a
// single Postgres database.
type PostgresStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ProviderStore = (*PostgresStore)(nil)
var _ ports.ExclusionStore = (*PostgresStore)(nil)

// NewPostgresStore wires a sql.DB implementation.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var providerColumns = []string{
	"id", "first_name", "last_name", "npi_number", "dea_number",
	"license_number", "license_state", "license_type",
	"license_expires_at", "dea_expires_at",
	"credentialing_status", "profile_status",
	"credentialing_started_at", "credentialing_completed_at", "last_credentialing_update",
}

// GetProvider loads one provider by id.
func (s *PostgresStore) GetProvider(ctx context.Context, id string) (domain.Provider, error) {
	query, args, err := s.builder.
		Select(providerColumns...).
		From("providers").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Provider{}, fmt.Errorf("build query: %w", err)
	}

	var p domain.Provider
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&p.ID, &p.FirstName, &p.LastName, &p.NPINumber, &p.DEANumber,
		&p.LicenseNumber, &p.LicenseState, &p.LicenseType,
		&p.LicenseExpiresAt, &p.DEAExpiresAt,
		&p.CredentialingStatus, &p.ProfileStatus,
		&p.CredentialingStartedAt, &p.CredentialingCompletedAt, &p.LastCredentialingUpdate,
	)
	if err != nil {
		return domain.Provider{}, fmt.Errorf("get provider %s: %w", id, err)
	}
	return p, nil
}

// UpdateProvider persists status and credentialing fields for one provider.
func (s *PostgresStore) UpdateProvider(ctx context.Context, p domain.Provider) error {
	query, args, err := s.builder.
		Update("providers").
		Set("first_name", p.FirstName).
		Set("last_name", p.LastName).
		Set("npi_number", p.NPINumber).
		Set("dea_number", p.DEANumber).
		Set("license_number", p.LicenseNumber).
		Set("license_state", p.LicenseState).
		Set("license_type", p.LicenseType).
		Set("license_expires_at", p.LicenseExpiresAt).
		Set("dea_expires_at", p.DEAExpiresAt).
		Set("credentialing_status", p.CredentialingStatus).
		Set("profile_status", p.ProfileStatus).
		Set("credentialing_started_at", p.CredentialingStartedAt).
		Set("credentialing_completed_at", p.CredentialingCompletedAt).
		Set("last_credentialing_update", p.LastCredentialingUpdate).
		Where(sq.Eq{"id": p.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update provider %s: %w", p.ID, err)
	}
	return nil
}

// CreateProvider inserts a new provider row.
func (s *PostgresStore) CreateProvider(ctx context.Context, p domain.Provider) error {
	query, args, err := s.builder.
		Insert("providers").
		Columns(providerColumns...).
		Values(
			p.ID, p.FirstName, p.LastName, p.NPINumber, p.DEANumber,
			p.LicenseNumber, p.LicenseState, p.LicenseType,
			p.LicenseExpiresAt, p.DEAExpiresAt,
			p.CredentialingStatus, p.ProfileStatus,
			p.CredentialingStartedAt, p.CredentialingCompletedAt, p.LastCredentialingUpdate,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert provider %s: %w", p.ID, err)
	}
	return nil
}

// ListApprovedProviders returns every provider with an approved profile.
func (s *PostgresStore) ListApprovedProviders(ctx context.Context) ([]domain.Provider, error) {
	query, args, err := s.builder.
		Select(providerColumns...).
		From("providers").
		Where(sq.Eq{"profile_status": domain.ProfileApproved}).
		OrderBy("last_name", "first_name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list approved providers: %w", err)
	}
	defer rows.Close()

	var providers []domain.Provider
	for rows.Next() {
		var p domain.Provider
		if err := rows.Scan(
			&p.ID, &p.FirstName, &p.LastName, &p.NPINumber, &p.DEANumber,
			&p.LicenseNumber, &p.LicenseState, &p.LicenseType,
			&p.LicenseExpiresAt, &p.DEAExpiresAt,
			&p.CredentialingStatus, &p.ProfileStatus,
			&p.CredentialingStartedAt, &p.CredentialingCompletedAt, &p.LastCredentialingUpdate,
		); err != nil {
			return nil, fmt.Errorf("scan provider: %w", err)
		}
		providers = append(providers, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return providers, nil
}

// AppendVerification inserts one immutable verification record.
func (s *PostgresStore) AppendVerification(ctx context.Context, r domain.VerificationRecord) error {
	query, args, err := s.builder.
		Insert("verification_records").
		Columns("id", "provider_id", "verification_type", "status", "verification_date",
			"verified_by", "verification_source", "verification_data", "notes",
			"expiration_date", "next_check_date").
		Values(r.ID, r.ProviderID, r.VerificationType, r.Status, r.VerificationDate,
			r.VerifiedBy, r.Source, r.Data, r.Notes, r.ExpirationDate, r.NextCheckDate).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append verification: %w", err)
	}
	return nil
}

// ListVerifications returns all records for a provider, newest first.
func (s *PostgresStore) ListVerifications(ctx context.Context, providerID string) ([]domain.VerificationRecord, error) {
	query, args, err := s.builder.
		Select("id", "provider_id", "verification_type", "status", "verification_date",
			"verified_by", "verification_source", "verification_data", "notes",
			"expiration_date", "next_check_date").
		From("verification_records").
		Where(sq.Eq{"provider_id": providerID}).
		OrderBy("verification_date DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	defer rows.Close()

	var records []domain.VerificationRecord
	for rows.Next() {
		var r domain.VerificationRecord
		if err := rows.Scan(&r.ID, &r.ProviderID, &r.VerificationType, &r.Status, &r.VerificationDate,
			&r.VerifiedBy, &r.Source, &r.Data, &r.Notes, &r.ExpirationDate, &r.NextCheckDate); err != nil {
			return nil, fmt.Errorf("scan verification: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return records, nil
}

// CreateTimeline inserts all phase rows in one transaction; on any failure
// nothing is created.
func (s *PostgresStore) CreateTimeline(ctx context.Context, phases []domain.TimelinePhase) error {
	if len(phases) == 0 {
		return nil
	}

	insert := s.builder.
		Insert("credentialing_timeline").
		Columns("id", "provider_id", "phase", "status", "started_at", "completed_at", "notes")
	for _, p := range phases {
		insert = insert.Values(p.ID, p.ProviderID, p.Phase, p.Status, p.StartedAt, p.CompletedAt, p.Notes)
	}
	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert timeline: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit timeline: %w", err)
	}
	return nil
}

// GetTimeline returns all phase rows for a provider.
func (s *PostgresStore) GetTimeline(ctx context.Context, providerID string) ([]domain.TimelinePhase, error) {
	query, args, err := s.builder.
		Select("id", "provider_id", "phase", "status", "started_at", "completed_at", "notes").
		From("credentialing_timeline").
		Where(sq.Eq{"provider_id": providerID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get timeline: %w", err)
	}
	defer rows.Close()

	var phases []domain.TimelinePhase
	for rows.Next() {
		var p domain.TimelinePhase
		if err := rows.Scan(&p.ID, &p.ProviderID, &p.Phase, &p.Status, &p.StartedAt, &p.CompletedAt, &p.Notes); err != nil {
			return nil, fmt.Errorf("scan phase: %w", err)
		}
		phases = append(phases, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return phases, nil
}

// UpdateTimelinePhase persists status/timestamps/notes of one phase row.
func (s *PostgresStore) UpdateTimelinePhase(ctx context.Context, p domain.TimelinePhase) error {
	query, args, err := s.builder.
		Update("credentialing_timeline").
		Set("status", p.Status).
		Set("started_at", p.StartedAt).
		Set("completed_at", p.CompletedAt).
		Set("notes", p.Notes).
		Where(sq.Eq{"provider_id": p.ProviderID, "phase": p.Phase}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update phase %s: %w", p.Phase, err)
	}
	return nil
}

// AppendAlert inserts one alert row.
func (s *PostgresStore) AppendAlert(ctx context.Context, a domain.Alert) error {
	query, args, err := s.builder.
		Insert("alerts").
		Columns("id", "provider_id", "alert_type", "severity", "message", "resolved", "created_at").
		Values(a.ID, a.ProviderID, a.AlertType, a.Severity, a.Message, a.Resolved, a.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append alert: %w", err)
	}
	return nil
}

// HasUnresolvedAlert reports whether an unresolved alert of the given type
// already exists for the provider.
func (s *PostgresStore) HasUnresolvedAlert(ctx context.Context, providerID, alertType string) (bool, error) {
	query, args, err := s.builder.
		Select("COUNT(*)").
		From("alerts").
		Where(sq.Eq{"provider_id": providerID, "alert_type": alertType, "resolved": false}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("count alerts: %w", err)
	}
	return count > 0, nil
}

var exclusionColumns = []string{
	"id", "first_name", "last_name", "middle_name", "business_name", "general",
	"specialty", "npi", "exclusion_type", "exclusion_date", "reinstatement_date", "state",
}

// DeleteAllExclusions clears the exclusion reference table ahead of a
// wholesale refresh.
func (s *PostgresStore) DeleteAllExclusions(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM exclusion_records"); err != nil {
		return fmt.Errorf("clear exclusions: %w", err)
	}
	return nil
}

// InsertExclusions inserts one batch of exclusion rows.
func (s *PostgresStore) InsertExclusions(ctx context.Context, records []domain.ExclusionRecord) error {
	if len(records) == 0 {
		return nil
	}

	insert := s.builder.Insert("exclusion_records").Columns(exclusionColumns...)
	for _, r := range records {
		insert = insert.Values(r.ID, r.FirstName, r.LastName, r.MiddleName, r.BusinessName, r.General,
			r.Specialty, r.NPI, r.ExclusionType, r.ExclusionDate, r.ReinstatementDate, r.State)
	}
	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert exclusions: %w", err)
	}
	return nil
}

// FindExclusionsByName matches exact, case-insensitive first and last name.
func (s *PostgresStore) FindExclusionsByName(ctx context.Context, firstName, lastName string) ([]domain.ExclusionRecord, error) {
	query, args, err := s.builder.
		Select(exclusionColumns...).
		From("exclusion_records").
		Where("LOWER(first_name) = LOWER(?) AND LOWER(last_name) = LOWER(?)", firstName, lastName).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return s.queryExclusions(ctx, query, args...)
}

// FindExclusionsByNPI matches on NPI alone.
func (s *PostgresStore) FindExclusionsByNPI(ctx context.Context, npi string) ([]domain.ExclusionRecord, error) {
	query, args, err := s.builder.
		Select(exclusionColumns...).
		From("exclusion_records").
		Where(sq.Eq{"npi": npi}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	return s.queryExclusions(ctx, query, args...)
}

// CountExclusions returns the current dataset size.
func (s *PostgresStore) CountExclusions(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM exclusion_records").Scan(&count); err != nil {
		return 0, fmt.Errorf("count exclusions: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) queryExclusions(ctx context.Context, query string, args ...any) ([]domain.ExclusionRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query exclusions: %w", err)
	}
	defer rows.Close()

	var records []domain.ExclusionRecord
	for rows.Next() {
		var r domain.ExclusionRecord
		if err := rows.Scan(&r.ID, &r.FirstName, &r.LastName, &r.MiddleName, &r.BusinessName, &r.General,
			&r.Specialty, &r.NPI, &r.ExclusionType, &r.ExclusionDate, &r.ReinstatementDate, &r.State); err != nil {
			return nil, fmt.Errorf("scan exclusion: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return records, nil
}
