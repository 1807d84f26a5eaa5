package web_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"bet-books/internal/adapters/web"
	"bet-books/internal/app"
	"bet-books/internal/core"
	"bet-books/internal/storage"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	books, err := core.OpenBooks(context.Background(), storage.NewMemoryMedium())
	if err != nil {
		t.Fatal(err)
	}
	svc := app.NewAppService(books, "USD", zerolog.Nop())
	srv := httptest.NewServer(web.NewHandler(svc, "http://localhost:3000", zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, data
}

func decode(t *testing.T, data []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("invalid JSON response %s: %v", data, err)
	}
}

func TestHealth(t *testing.T) {
	srv := newServer(t)
	resp, body := do(t, http.MethodGet, srv.URL+"/api/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("expected a request ID header")
	}
	var got struct {
		Status string `json:"status"`
	}
	decode(t, body, &got)
	if got.Status != "ok" {
		t.Errorf("status = %q", got.Status)
	}
}

func TestCreateDocument(t *testing.T) {
	srv := newServer(t)

	tests := []struct {
		name   string
		kind   string
		body   string
		status int
		number int
	}{
		{"invoice", "invoice", `{"date": "2024-01-01", "amount": 500, "customer": "ACME"}`, http.StatusCreated, 134},
		{"second invoice", "invoices", `{"amount": 200}`, http.StatusCreated, 135},
		{"supplied number", "receipt", `{"number": 900, "amount": 1}`, http.StatusCreated, 900},
		{"unknown kind", "quote", `{}`, http.StatusNotFound, 0},
		{"invalid amount", "invoice", `{"amount": "lots"}`, http.StatusBadRequest, 0},
		{"not an object", "invoice", `[1, 2]`, http.StatusBadRequest, 0},
		{"bad json", "invoice", `{`, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := do(t, http.MethodPost, srv.URL+"/api/documents/"+tt.kind, tt.body)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d (%s)", resp.StatusCode, tt.status, body)
			}
			if tt.number == 0 {
				var e struct {
					Code      string `json:"code"`
					RequestID string `json:"request_id"`
				}
				decode(t, body, &e)
				if e.Code == "" || e.RequestID == "" {
					t.Errorf("expected a structured error, got %s", body)
				}
				return
			}
			var got struct {
				Document struct {
					Number int `json:"number"`
				} `json:"document"`
			}
			decode(t, body, &got)
			if got.Document.Number != tt.number {
				t.Errorf("number = %d, want %d", got.Document.Number, tt.number)
			}
		})
	}

	resp, body := do(t, http.MethodGet, srv.URL+"/api/ledger?kind=invoice", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ledger status = %d", resp.StatusCode)
	}
	var ledger struct {
		Total          json.Number `json:"total"`
		FormattedTotal string      `json:"formattedTotal"`
		Entries        []any       `json:"entries"`
	}
	decode(t, body, &ledger)
	if ledger.Total != "700" || ledger.FormattedTotal != "$700.00" || len(ledger.Entries) != 2 {
		t.Errorf("unexpected ledger %s", body)
	}
}

func TestReaders(t *testing.T) {
	srv := newServer(t)
	do(t, http.MethodPost, srv.URL+"/api/documents/invoice", `{"amount": 10, "customer": "ACME"}`)
	do(t, http.MethodPost, srv.URL+"/api/documents/vendor-payment", `{"amount": 3}`)

	_, body := do(t, http.MethodGet, srv.URL+"/api/documents?where="+url.QueryEscape(`doc.customer == "ACME"`), "")
	var docs struct {
		Count int `json:"count"`
	}
	decode(t, body, &docs)
	if docs.Count != 1 {
		t.Errorf("filtered count = %d, want 1", docs.Count)
	}

	resp, _ := do(t, http.MethodGet, srv.URL+"/api/documents?where="+url.QueryEscape(`doc.amount >`), "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad expression status = %d", resp.StatusCode)
	}

	_, body = do(t, http.MethodGet, srv.URL+"/api/collections/vendorPayments", "")
	var coll struct {
		Key   string `json:"key"`
		Count int    `json:"count"`
	}
	decode(t, body, &coll)
	if coll.Key != "vendorPayments" || coll.Count != 1 {
		t.Errorf("unexpected collection %s", body)
	}
	if resp, _ := do(t, http.MethodGet, srv.URL+"/api/collections/orders", ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown collection status = %d", resp.StatusCode)
	}

	_, body = do(t, http.MethodGet, srv.URL+"/api/counters", "")
	var counters map[string]int
	decode(t, body, &counters)
	if counters["lastInvoiceNumber"] != 134 || counters["lastReceiptNumber"] != 133 || len(counters) != 5 {
		t.Errorf("unexpected counters %v", counters)
	}

	_, body = do(t, http.MethodGet, srv.URL+"/api/query?path="+url.QueryEscape("$.documents[*].type"), "")
	var q struct {
		Result []string `json:"result"`
	}
	decode(t, body, &q)
	if len(q.Result) != 2 || q.Result[1] != "vendorPayment" {
		t.Errorf("unexpected query result %s", body)
	}
	if resp, _ := do(t, http.MethodGet, srv.URL+"/api/query", ""); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing path status = %d", resp.StatusCode)
	}

	_, body = do(t, http.MethodGet, srv.URL+"/api/storage", "")
	var storageReport struct {
		Healthy bool  `json:"healthy"`
		Keys    []any `json:"keys"`
	}
	decode(t, body, &storageReport)
	if !storageReport.Healthy || len(storageReport.Keys) != 12 {
		t.Errorf("unexpected storage report %s", body)
	}
}

func TestBackupDownloadAndUpload(t *testing.T) {
	source := newServer(t)
	do(t, http.MethodPost, source.URL+"/api/documents/invoice", `{"amount": 10}`)
	do(t, http.MethodPost, source.URL+"/api/documents/journal-entry", `{"amount": 0, "memo": "close"}`)

	resp, backup := do(t, http.MethodGet, source.URL+"/api/backup", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d", resp.StatusCode)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.HasPrefix(cd, `attachment; filename="BET_Backup_`) {
		t.Errorf("Content-Disposition = %q", cd)
	}

	target := newServer(t)
	do(t, http.MethodPost, target.URL+"/api/documents/receipt", `{"amount": 1}`)

	resp, _ = do(t, http.MethodPost, target.URL+"/api/backup", string(backup))
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("unconfirmed import status = %d, want 409", resp.StatusCode)
	}
	resp, _ = do(t, http.MethodPost, target.URL+"/api/backup?confirm=true", "not json")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid import status = %d, want 400", resp.StatusCode)
	}
	_, body := do(t, http.MethodGet, target.URL+"/api/collections/receipts", "")
	if !strings.Contains(string(body), `"count":1`) {
		t.Errorf("rejected imports must leave state unchanged: %s", body)
	}

	resp, body = do(t, http.MethodPost, target.URL+"/api/backup?confirm=true", string(backup))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("import status = %d (%s)", resp.StatusCode, body)
	}
	var res struct {
		Documents int  `json:"documents"`
		Reloaded  bool `json:"reloaded"`
	}
	decode(t, body, &res)
	if res.Documents != 2 || !res.Reloaded {
		t.Errorf("unexpected import result %s", body)
	}

	_, after := do(t, http.MethodGet, target.URL+"/api/backup", "")
	if string(after) != string(backup) {
		t.Errorf("target differs from the imported backup\nwant: %s\ngot:  %s", backup, after)
	}

	resp, body = do(t, http.MethodGet, target.URL+"/api/backup/schema", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"ledger"`) {
		t.Errorf("unexpected schema response %d", resp.StatusCode)
	}
}

func TestCORS(t *testing.T) {
	srv := newServer(t)
	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/counters", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent || resp.Header.Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Errorf("unexpected preflight response %d %v", resp.StatusCode, resp.Header)
	}
}
