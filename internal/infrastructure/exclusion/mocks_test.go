package exclusion

import (
	"context"
	"strings"

	"CredentialScanner/internal/domain"
)

// memExclusionStore is an in-memory ExclusionStore with injectable failures.
type memExclusionStore struct {
	records   []domain.ExclusionRecord
	nameErr   error
	npiErr    error
	insertErr error

	// insertErrBatches fails only the listed zero-based batch calls.
	insertErrBatches map[int]error
	insertCalls      int
	deleteCalls      int
}

func (m *memExclusionStore) DeleteAllExclusions(ctx context.Context) error {
	m.deleteCalls++
	m.records = nil
	return nil
}

func (m *memExclusionStore) InsertExclusions(ctx context.Context, records []domain.ExclusionRecord) error {
	call := m.insertCalls
	m.insertCalls++
	if m.insertErr != nil {
		return m.insertErr
	}
	if err, ok := m.insertErrBatches[call]; ok {
		return err
	}
	m.records = append(m.records, records...)
	return nil
}

func (m *memExclusionStore) FindExclusionsByName(ctx context.Context, firstName, lastName string) ([]domain.ExclusionRecord, error) {
	if m.nameErr != nil {
		return nil, m.nameErr
	}
	var out []domain.ExclusionRecord
	for _, r := range m.records {
		if strings.EqualFold(r.FirstName, firstName) && strings.EqualFold(r.LastName, lastName) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memExclusionStore) FindExclusionsByNPI(ctx context.Context, npi string) ([]domain.ExclusionRecord, error) {
	if m.npiErr != nil {
		return nil, m.npiErr
	}
	var out []domain.ExclusionRecord
	for _, r := range m.records {
		if r.NPI == npi {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memExclusionStore) CountExclusions(ctx context.Context) (int64, error) {
	return int64(len(m.records)), nil
}
