package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"barbapro/internal/archive"
	"barbapro/internal/broadcast"
	"barbapro/internal/core"
	"barbapro/internal/ledger"
	"barbapro/internal/log"
)

var testClock = time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *ledger.Service, *broadcast.Hub) {
	t.Helper()

	logger := log.New(log.DefaultConfig())
	store := ledger.NewFileStore(filepath.Join(t.TempDir(), "ledger.json"), []string{"Gabriel", "Wagner"}, logger)
	hub := broadcast.NewHub(logger)
	t.Cleanup(hub.Close)

	svc, err := ledger.NewService(store, hub, logger)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	srv := NewServer(Options{
		Addr:   ":0",
		Ledger: svc,
		Hub:    hub,
		Logger: logger,
		Now:    func() time.Time { return testClock },
	})
	t.Cleanup(srv.limiter.close)
	return srv, svc, hub
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "203.0.113.10:54321"
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	if !envelope.Success {
		t.Fatalf("request failed: %s", envelope.Error)
	}
	if dst != nil {
		if err := json.Unmarshal(envelope.Data, dst); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("/healthz: got %d %q", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("/health: got %d", rec.Code)
	}
	var health struct {
		Status string `json:"status"`
	}
	decodeData(t, rec, &health)
	if health.Status != "ok" {
		t.Errorf("/health status = %q", health.Status)
	}

	rec = doJSON(t, srv, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "ready" {
		t.Errorf("/readyz: got %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
}

func TestGetData(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/data", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	var doc core.Ledger
	decodeData(t, rec, &doc)
	if len(doc.Barbers) != 2 {
		t.Fatalf("got %d barbers, want 2", len(doc.Barbers))
	}
	if doc.Settings.PIN == "" {
		t.Fatal("settings missing from payload")
	}
}

func TestPINAuth(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/auth/pin", map[string]string{"pin": "1234"})
	if rec.Code != http.StatusOK {
		t.Fatalf("valid pin: got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/auth/pin", map[string]string{"pin": "9999"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong pin: got %d, want 401", rec.Code)
	}
}

func TestServiceLifecycleOverHTTP(t *testing.T) {
	srv, svc, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/barbers/Gabriel/services", map[string]any{
		"serviceType":   "corte",
		"value":         2800,
		"paid":          true,
		"paymentMethod": "pix",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add: got %d body %s", rec.Code, rec.Body.String())
	}
	var created core.Service
	decodeData(t, rec, &created)
	if created.ID == "" {
		t.Fatal("created service has no id")
	}
	if created.Date.String() != "2025-03-15" {
		t.Errorf("date defaulted to %s, want 2025-03-15", created.Date)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/barbers/Gabriel/services/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: got %d", rec.Code)
	}
	if n := len(svc.Snapshot().Barbers["Gabriel"]); n != 0 {
		t.Fatalf("got %d services after delete, want 0", n)
	}
}

func TestAddServiceValidationStatus(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/barbers/Gabriel/services", map[string]any{
		"serviceType": "corte",
		"value":       0,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("zero value: got %d, want 422", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/barbers/Nobody/services", map[string]any{
		"serviceType": "corte",
		"value":       2800,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unknown barber: got %d, want 422", rec.Code)
	}
}

func TestAddServiceDecimalValues(t *testing.T) {
	srv, _, _ := newTestServer(t)

	tests := []struct {
		name      string
		value     any
		wantCents int64
	}{
		{"integer cents", 2800, 2800},
		{"decimal string", "28.00", 2800},
		{"comma decimal string", "28,50", 2850},
		{"decimal number", json.Number("28.5"), 2850},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, srv, http.MethodPost, "/api/barbers/Gabriel/services", map[string]any{
				"serviceType":   "corte",
				"value":         tt.value,
				"paid":          true,
				"paymentMethod": "cash",
			})
			if rec.Code != http.StatusCreated {
				t.Fatalf("got %d body %s", rec.Code, rec.Body.String())
			}
			var created core.Service
			decodeData(t, rec, &created)
			if created.Value.Cents != tt.wantCents {
				t.Errorf("value = %d, want %d", created.Value.Cents, tt.wantCents)
			}
		})
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/expenses", map[string]any{
		"description": "lâminas",
		"value":       "45,90",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("decimal expense: got %d body %s", rec.Code, rec.Body.String())
	}
	var exp core.Expense
	decodeData(t, rec, &exp)
	if exp.Value.Cents != 4590 {
		t.Errorf("expense value = %d, want 4590", exp.Value.Cents)
	}
}

func TestExpenseAndClientEndpoints(t *testing.T) {
	srv, svc, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/expenses", map[string]any{
		"description": "aluguel",
		"value":       120000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add expense: got %d body %s", rec.Code, rec.Body.String())
	}
	var exp core.Expense
	decodeData(t, rec, &exp)

	rec = doJSON(t, srv, http.MethodPost, "/api/clients", map[string]any{
		"name":           "Carlos",
		"assignedBarber": "Gabriel",
		"value":          10000,
		"dueDay":         5,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add client: got %d body %s", rec.Code, rec.Body.String())
	}
	var client core.RecurringClient
	decodeData(t, rec, &client)
	if client.Status != core.StatusPending {
		t.Errorf("new client status %q, want pending", client.Status)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/clients/"+client.ID+"/toggle", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle: got %d", rec.Code)
	}
	var toggled core.RecurringClient
	decodeData(t, rec, &toggled)
	if toggled.Status != core.StatusPaid {
		t.Errorf("toggled status %q, want paid", toggled.Status)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/expenses/"+exp.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete expense: got %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodDelete, "/api/clients/"+client.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete client: got %d", rec.Code)
	}

	snap := svc.Snapshot()
	if len(snap.Expenses) != 0 || len(snap.RecurringClients) != 0 {
		t.Fatal("deletes did not land")
	}
}

func TestUpdateConfigPartialAcceptance(t *testing.T) {
	srv, svc, _ := newTestServer(t)

	pin := "12"
	contact := "11999887766"
	rec := doJSON(t, srv, http.MethodPut, "/api/config", map[string]any{
		"pin":           pin,
		"contactNumber": contact,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d body %s", rec.Code, rec.Body.String())
	}
	var result struct {
		Applied  []string          `json:"applied"`
		Rejected map[string]string `json:"rejected"`
	}
	decodeData(t, rec, &result)
	if len(result.Applied) != 1 || result.Applied[0] != "contactNumber" {
		t.Errorf("applied = %v, want [contactNumber]", result.Applied)
	}
	if _, ok := result.Rejected["pin"]; !ok {
		t.Errorf("rejected = %v, want pin entry", result.Rejected)
	}

	settings := svc.Snapshot().Settings
	if settings.ContactNumber != contact {
		t.Errorf("contact = %q, want %q", settings.ContactNumber, contact)
	}
	if settings.PIN != "1234" {
		t.Errorf("pin changed to %q, want untouched", settings.PIN)
	}
}

func TestDashboardShape(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/barbers/Gabriel/services", map[string]any{
		"serviceType":   "corte",
		"value":         2800,
		"paid":          true,
		"paymentMethod": "pix",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed service: got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/dashboard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	var payload struct {
		Date    string `json:"date"`
		ShopDay struct {
			Count int   `json:"count"`
			Paid  int64 `json:"paid"`
		} `json:"shopDay"`
		Barbers  map[string]json.RawMessage `json:"barbers"`
		Payments struct {
			Pix int64 `json:"pix"`
		} `json:"payments"`
	}
	decodeData(t, rec, &payload)
	if payload.Date != "2025-03-15" {
		t.Errorf("date = %q", payload.Date)
	}
	if payload.ShopDay.Count != 1 || payload.ShopDay.Paid != 2800 {
		t.Errorf("shopDay = %+v", payload.ShopDay)
	}
	if len(payload.Barbers) != 2 {
		t.Errorf("got %d barbers in dashboard", len(payload.Barbers))
	}
	if payload.Payments.Pix != 2800 {
		t.Errorf("pix total = %d, want 2800", payload.Payments.Pix)
	}
}

func TestReportRangeValidation(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/reports/payments?startDate=2025-03-10&endDate=2025-03-01", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("inverted range: got %d, want 400", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/reports/services?startDate=yesterday", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed date: got %d, want 400", rec.Code)
	}
}

func TestCSVExport(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/expenses", map[string]any{
		"description": "aluguel",
		"value":       120000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed expense: got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/export/expenses.csv", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "aluguel") {
		t.Errorf("csv missing expense row: %q", rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/export/everything.csv", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown kind: got %d, want 400", rec.Code)
	}
}

func TestWhatsAppSummaryEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/whatsapp/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	var payload struct {
		Message string `json:"message"`
		Link    string `json:"link"`
	}
	decodeData(t, rec, &payload)
	if !strings.Contains(payload.Message, "RESUMO COMPLETO") {
		t.Errorf("message = %q", payload.Message)
	}
	if !strings.HasPrefix(payload.Link, "https://wa.me/") {
		t.Errorf("link = %q", payload.Link)
	}
}

func TestMutationRateLimit(t *testing.T) {
	srv, _, _ := newTestServer(t)

	var limited bool
	for i := 0; i < mutationsPerMinute+5; i++ {
		rec := doJSON(t, srv, http.MethodPost, "/api/auth/pin", map[string]string{"pin": "1234"})
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Fatal("mutations were never rate limited")
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/data", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("read throttled: got %d", rec.Code)
	}
}

func TestSuspiciousRequestRejected(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/data?q=%2e%2e%2fetc", nil)
	req.URL.RawQuery = "path=../../etc/passwd"
	req.RemoteAddr = "203.0.113.10:54321"
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", rec.Code)
	}
}

func TestRestoreLatestSnapshot(t *testing.T) {
	srv, svc, _ := newTestServer(t)

	arch, err := archive.New(filepath.Join(t.TempDir(), "archive.db"), 10, log.New(log.DefaultConfig()))
	if err != nil {
		t.Fatalf("archive.New: %v", err)
	}
	t.Cleanup(func() { arch.Close() })
	srv.archive = arch

	rec := doJSON(t, srv, http.MethodPost, "/api/expenses", map[string]any{
		"description": "aluguel",
		"value":       120000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed expense: got %d", rec.Code)
	}
	if _, err := arch.Snapshot(context.Background(), svc.Snapshot()); err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/barbers/Gabriel/services", map[string]any{
		"serviceType": "corte", "value": 2800, "paid": true, "paymentMethod": "pix",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("post-snapshot mutation: got %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/snapshots/latest/restore", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("restore latest: got %d body %s", rec.Code, rec.Body.String())
	}

	snap := svc.Snapshot()
	if len(snap.Barbers["Gabriel"]) != 0 {
		t.Error("post-snapshot service survived the restore")
	}
	if len(snap.Expenses) != 1 || snap.Expenses[0].Description != "aluguel" {
		t.Errorf("archived expense missing after restore: %+v", snap.Expenses)
	}
}

func TestSnapshotEndpointsWithoutArchive(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/snapshots", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("list: got %d, want 404", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodPost, "/api/snapshots/1/restore", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("restore: got %d, want 404", rec.Code)
	}
}
