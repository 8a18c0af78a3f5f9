package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"CredentialScanner/internal/domain"
)

func TestSendAlertDeliversJSON(t *testing.T) {
	t.Parallel()

	var gotBody []byte
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, "secret-token", nil)
	ok := wh.SendAlert(context.Background(), "p1", domain.AlertOIGMatch, "exclusion match found", domain.SeverityCritical, true)
	if !ok {
		t.Fatalf("expected delivery to succeed")
	}
	if gotAuth != "Bearer secret-token" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}

	var payload map[string]any
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if payload["providerId"] != "p1" || payload["alertType"] != "oig_match" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if payload["severity"] != "critical" || payload["actionRequired"] != true {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestSendAlertReportsFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, "", nil)
	if wh.SendAlert(context.Background(), "p1", domain.AlertNPIFailed, "check failed", domain.SeverityWarning, false) {
		t.Fatalf("expected delivery to fail on 500")
	}
}

func TestSendAlertUnconfigured(t *testing.T) {
	t.Parallel()

	wh := NewWebhook("", "", nil)
	if wh.SendAlert(context.Background(), "p1", domain.AlertDEAExpiring, "renewal due", domain.SeverityInfo, false) {
		t.Fatalf("unconfigured notifier must report false")
	}
}
