package exclusion

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"CredentialScanner/internal/domain"
	"CredentialScanner/internal/ports"
)

const defaultBatchSize = 1000

// leieDateLayout is the YYYYMMDD format used throughout the LEIE CSV.
const leieDateLayout = "20060102"

// Importer refreshes the local OIG exclusion dataset from the federal CSV
// snapshot. The table is replaced wholesale (delete-all, insert-all); the
// dataset is small enough that consistency beats incremental efficiency.
type Importer struct {
	store     ports.ExclusionStore
	client    *http.Client
	csvURL    string
	locator   *SourceLocator
	batchSize int
	logger    *slog.Logger
}

var _ ports.ExclusionImporter = (*Importer)(nil)

// SetBatchSize overrides the insert batch size; non-positive values keep the
// default.
func (i *Importer) SetBatchSize(n int) {
	if n > 0 {
		i.batchSize = n
	}
}

// NewImporter wires the dataset store and download endpoint. A non-nil
// locator discovers the current CSV URL from the OIG downloads page, with
// csvURL as fallback.
func NewImporter(store ports.ExclusionStore, client *http.Client, csvURL string, locator *SourceLocator, logger *slog.Logger) *Importer {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	return &Importer{
		store:     store,
		client:    client,
		csvURL:    csvURL,
		locator:   locator,
		batchSize: defaultBatchSize,
		logger:    logger,
	}
}

// UpdateOIGDatabase downloads the LEIE snapshot and atomically replaces the
// local reference table. Batch insert failures are counted and logged but do
// not abort the remaining batches; a failed download is returned as an
// error, because an unrefreshed dataset silently passing every future check
// is worse than a loud job failure.
func (i *Importer) UpdateOIGDatabase(ctx context.Context) (domain.ExclusionImportStats, error) {
	stats := domain.ExclusionImportStats{}

	sourceURL := i.resolveSourceURL(ctx)

	body, err := i.download(ctx, sourceURL)
	if err != nil {
		return stats, fmt.Errorf("download exclusion list: %w", err)
	}
	defer body.Close()

	records, parseErrors, err := parseLEIE(body)
	if err != nil {
		return stats, fmt.Errorf("parse exclusion list: %w", err)
	}
	stats.Errors += parseErrors

	if err := i.store.DeleteAllExclusions(ctx); err != nil {
		return stats, fmt.Errorf("clear exclusion table: %w", err)
	}

	for start := 0; start < len(records); start += i.batchSize {
		end := start + i.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]

		if err := i.store.InsertExclusions(ctx, batch); err != nil {
			stats.Errors += len(batch)
			i.warn("exclusion batch insert failed", "offset", start, "size", len(batch), "error", err)
			continue
		}
		stats.Imported += len(batch)
	}

	i.info("exclusion dataset refreshed", "imported", stats.Imported, "errors", stats.Errors, "source", sourceURL)
	return stats, nil
}

func (i *Importer) resolveSourceURL(ctx context.Context) string {
	if i.locator == nil {
		return i.csvURL
	}
	discovered, err := i.locator.LatestCSVURL(ctx)
	if err != nil {
		i.warn("CSV link discovery failed, using configured URL", "error", err)
		return i.csvURL
	}
	return discovered
}

func (i *Importer) download(ctx context.Context, sourceURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return resp.Body, nil
}

// parseLEIE reads the CSV with header-indexed columns; rows missing required
// fields are counted as errors, not fatal.
func parseLEIE(r io.Reader) ([]domain.ExclusionRecord, int, error) {
	buffered := bufio.NewReaderSize(r, 256*1024)

	// Skip UTF-8 BOM if present.
	if bom, err := buffered.Peek(3); err == nil && len(bom) == 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = buffered.Discard(3)
	}

	reader := csv.NewReader(buffered)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	colIdx := make(map[string]int, len(header))
	for idx, name := range header {
		colIdx[strings.ToUpper(strings.TrimSpace(name))] = idx
	}
	for _, required := range []string{"LASTNAME", "FIRSTNAME", "EXCLTYPE"} {
		if _, ok := colIdx[required]; !ok {
			return nil, 0, fmt.Errorf("missing column %s", required)
		}
	}

	field := func(row []string, name string) string {
		idx, ok := colIdx[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var records []domain.ExclusionRecord
	parseErrors := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			parseErrors++
			continue
		}

		lastName := field(row, "LASTNAME")
		busName := field(row, "BUSNAME")
		if lastName == "" && busName == "" {
			parseErrors++
			continue
		}

		records = append(records, domain.ExclusionRecord{
			ID:                uuid.NewString(),
			FirstName:         field(row, "FIRSTNAME"),
			LastName:          lastName,
			MiddleName:        field(row, "MIDNAME"),
			BusinessName:      busName,
			General:           field(row, "GENERAL"),
			Specialty:         field(row, "SPECIALTY"),
			NPI:               normalizeNPI(field(row, "NPI")),
			ExclusionType:     field(row, "EXCLTYPE"),
			ExclusionDate:     parseLEIEDate(field(row, "EXCLDATE")),
			ReinstatementDate: parseLEIEDate(field(row, "REINDATE")),
			State:             field(row, "STATE"),
		})
	}

	return records, parseErrors, nil
}

// normalizeNPI drops the all-zero placeholder the LEIE uses for "no NPI".
func normalizeNPI(raw string) string {
	if raw == "" || strings.Trim(raw, "0") == "" {
		return ""
	}
	return raw
}

func parseLEIEDate(raw string) *time.Time {
	if raw == "" || strings.Trim(raw, "0") == "" {
		return nil
	}
	parsed, err := time.Parse(leieDateLayout, raw)
	if err != nil {
		return nil
	}
	return &parsed
}

func (i *Importer) info(msg string, args ...any) {
	if i.logger != nil {
		i.logger.Info(msg, args...)
	}
}

func (i *Importer) warn(msg string, args ...any) {
	if i.logger != nil {
		i.logger.Warn(msg, args...)
	}
}
