package exclusion

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const leieCSV = "LASTNAME,FIRSTNAME,MIDNAME,BUSNAME,GENERAL,SPECIALTY,NPI,DOB,ADDRESS,CITY,STATE,ZIP,EXCLTYPE,EXCLDATE,REINDATE,WAIVERDATE,WAIVERSTATE\n" +
	"SMITH,JOHN,A,,PHYSICIAN,PSYCHIATRY,1234567890,19600101,1 MAIN ST,AUSTIN,TX,78701,1128b4,20200115,00000000,00000000,\n" +
	"DOE,JANE,,,NURSE,NURSING,0000000000,19700101,2 OAK AVE,DENVER,CO,80202,1128a1,20190601,20230601,00000000,\n" +
	",,,ACME HEALTH LLC,CLINIC,,,,3 ELM RD,MIAMI,FL,33101,1128b7,20210301,00000000,00000000,\n"

func csvServer(t *testing.T, payload string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	}))
}

func TestUpdateOIGDatabase(t *testing.T) {
	t.Parallel()

	server := csvServer(t, leieCSV)
	defer server.Close()

	store := &memExclusionStore{}
	importer := NewImporter(store, server.Client(), server.URL, nil, nil)

	stats, err := importer.UpdateOIGDatabase(context.Background())
	if err != nil {
		t.Fatalf("update error: %v", err)
	}

	if stats.Imported != 3 {
		t.Fatalf("expected 3 imported, got %d", stats.Imported)
	}
	if stats.Errors != 0 {
		t.Fatalf("expected 0 errors, got %d", stats.Errors)
	}
	if store.deleteCalls != 1 {
		t.Fatalf("expected one delete-all, got %d", store.deleteCalls)
	}

	smith := store.records[0]
	if smith.NPI != "1234567890" {
		t.Fatalf("unexpected NPI: %s", smith.NPI)
	}
	if smith.ReinstatementDate != nil {
		t.Fatalf("zero reinstatement date must parse as nil")
	}
	if smith.ExclusionDate == nil || smith.ExclusionDate.Year() != 2020 {
		t.Fatalf("unexpected exclusion date: %v", smith.ExclusionDate)
	}

	doe := store.records[1]
	if doe.NPI != "" {
		t.Fatalf("all-zero NPI placeholder must normalize to empty, got %s", doe.NPI)
	}
	if doe.ReinstatementDate == nil {
		t.Fatalf("expected reinstatement date for DOE")
	}

	acme := store.records[2]
	if acme.BusinessName != "ACME HEALTH LLC" {
		t.Fatalf("unexpected business name: %s", acme.BusinessName)
	}
}

func TestUpdateOIGDatabaseIdempotent(t *testing.T) {
	t.Parallel()

	server := csvServer(t, leieCSV)
	defer server.Close()

	store := &memExclusionStore{}
	importer := NewImporter(store, server.Client(), server.URL, nil, nil)

	first, err := importer.UpdateOIGDatabase(context.Background())
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	second, err := importer.UpdateOIGDatabase(context.Background())
	if err != nil {
		t.Fatalf("second update: %v", err)
	}

	if first.Imported != second.Imported {
		t.Fatalf("imports differ: %d vs %d", first.Imported, second.Imported)
	}
	count, _ := store.CountExclusions(context.Background())
	if count != int64(first.Imported) {
		t.Fatalf("full replace must not accumulate rows, have %d", count)
	}
}

func TestUpdateOIGDatabaseDownloadFailureIsError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	store := &memExclusionStore{}
	importer := NewImporter(store, server.Client(), server.URL, nil, nil)

	if _, err := importer.UpdateOIGDatabase(context.Background()); err == nil {
		t.Fatalf("failed download must surface as an error")
	}
	if store.deleteCalls != 0 {
		t.Fatalf("dataset must not be cleared when download fails")
	}
}

func TestUpdateOIGDatabaseBatchFailuresDoNotAbort(t *testing.T) {
	t.Parallel()

	server := csvServer(t, leieCSV)
	defer server.Close()

	store := &memExclusionStore{insertErrBatches: map[int]error{0: errors.New("deadlock")}}
	importer := NewImporter(store, server.Client(), server.URL, nil, nil)
	importer.batchSize = 2

	stats, err := importer.UpdateOIGDatabase(context.Background())
	if err != nil {
		t.Fatalf("batch failures must not abort the refresh: %v", err)
	}

	if stats.Imported != 1 {
		t.Fatalf("expected 1 imported from surviving batch, got %d", stats.Imported)
	}
	if stats.Errors != 2 {
		t.Fatalf("expected 2 counted errors, got %d", stats.Errors)
	}
}

func TestUpdateOIGDatabaseUsesDiscoveredLink(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/exclusions/files/UPDATED.csv", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(leieCSV))
	})
	mux.HandleFunc("/exclusions/exclusions_list.asp", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
          <a href="/exclusions/files/UPDATED.pdf">PDF</a>
          <a href="/exclusions/files/UPDATED.csv">CSV</a>
        </body></html>`))
	})

	locator := NewSourceLocator(server.URL+"/exclusions/exclusions_list.asp", server.Client())
	store := &memExclusionStore{}
	importer := NewImporter(store, server.Client(), server.URL+"/wrong.csv", locator, nil)

	stats, err := importer.UpdateOIGDatabase(context.Background())
	if err != nil {
		t.Fatalf("update error: %v", err)
	}
	if stats.Imported != 3 {
		t.Fatalf("expected import via discovered link, got %d rows", stats.Imported)
	}
}

func TestSourceLocatorNoLink(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><a href="/files/list.pdf">PDF only</a></body></html>`))
	}))
	defer server.Close()

	locator := NewSourceLocator(server.URL, server.Client())
	if _, err := locator.LatestCSVURL(context.Background()); err == nil {
		t.Fatalf("expected error when no CSV link present")
	}
}
