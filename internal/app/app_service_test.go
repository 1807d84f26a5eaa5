package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bet-books/internal/app"
	"bet-books/internal/config"
	"bet-books/internal/core"
	"bet-books/internal/storage"
)

func newService(t *testing.T, medium storage.Medium) app.ApplicationService {
	t.Helper()
	books, err := core.OpenBooks(context.Background(), medium)
	if err != nil {
		t.Fatalf("OpenBooks failed: %v", err)
	}
	return app.NewAppService(books, "USD", zerolog.Nop())
}

func add(t *testing.T, svc app.ApplicationService, kind string, fields map[string]any) core.Document {
	t.Helper()
	res, err := svc.AddDocument(context.Background(), app.AddDocumentRequest{Kind: kind, Fields: fields})
	if err != nil {
		t.Fatalf("AddDocument(%s) failed: %v", kind, err)
	}
	return res.Document
}

func TestAddDocument(t *testing.T) {
	svc := newService(t, storage.NewMemoryMedium())

	doc := add(t, svc, "invoice", map[string]any{"date": "2024-01-01", "amount": 500})
	if doc.Number != 134 {
		t.Errorf("number = %d, want 134", doc.Number)
	}
	doc = add(t, svc, "vendor-payment", map[string]any{"amount": "12.5"})
	if doc.Number != 134 || doc.Date == "" {
		t.Errorf("unexpected vendor payment %+v", doc)
	}

	ctx := context.Background()
	if _, err := svc.AddDocument(ctx, app.AddDocumentRequest{Kind: "quote"}); !errors.Is(err, core.ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
	if _, err := svc.AddDocument(ctx, app.AddDocumentRequest{Kind: "receipt", Fields: map[string]any{"amount": "ten"}}); !errors.Is(err, core.ErrInvalidDocument) {
		t.Errorf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestAddDocument_ConcurrentCallersGetDistinctNumbers(t *testing.T) {
	svc := newService(t, storage.NewMemoryMedium())
	const n = 50

	var wg sync.WaitGroup
	numbers := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.AddDocument(context.Background(), app.AddDocumentRequest{
				Kind:   "invoice",
				Fields: map[string]any{"amount": 1},
			})
			if err != nil {
				t.Errorf("AddDocument failed: %v", err)
				return
			}
			numbers <- res.Document.Number
		}()
	}
	wg.Wait()
	close(numbers)

	seen := map[int]bool{}
	for num := range numbers {
		if seen[num] {
			t.Errorf("number %d issued twice", num)
		}
		seen[num] = true
	}
	counters, _ := svc.GetCounters(context.Background())
	if got := counters.Counters[0].Value; got != 133+n {
		t.Errorf("invoice counter = %d, want %d", got, 133+n)
	}
}

func TestGetCollectionAndLedger(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, storage.NewMemoryMedium())
	add(t, svc, "invoice", map[string]any{"amount": "1000.10"})
	add(t, svc, "invoice", map[string]any{"amount": "310.15"})
	add(t, svc, "receipt", map[string]any{"amount": 50})

	tests := []struct {
		name  string
		key   string
		count int
	}{
		{"invoices", core.KeyInvoices, 2},
		{"receipt", core.KeyReceipts, 1},
		{"ledger", core.KeyLedger, 3},
		{"documents", core.KeyDocuments, 3},
		{"journalEntries", core.KeyJournalEntries, 0},
	}
	for _, tt := range tests {
		res, err := svc.GetCollection(ctx, tt.name)
		if err != nil {
			t.Fatalf("GetCollection(%s) failed: %v", tt.name, err)
		}
		if res.Key != tt.key || res.Count != tt.count {
			t.Errorf("GetCollection(%s) = %s/%d, want %s/%d", tt.name, res.Key, res.Count, tt.key, tt.count)
		}
	}
	if _, err := svc.GetCollection(ctx, "orders"); err == nil {
		t.Error("expected an error for an unknown collection")
	}

	ledger, err := svc.GetLedger(ctx, "invoice")
	if err != nil {
		t.Fatal(err)
	}
	if len(ledger.Entries) != 2 || !ledger.Total.Equal(decimal.RequireFromString("1310.25")) {
		t.Errorf("unexpected invoice ledger %+v", ledger)
	}
	if ledger.FormattedTotal != "$1,310.25" {
		t.Errorf("formatted total = %q", ledger.FormattedTotal)
	}
	all, _ := svc.GetLedger(ctx, "")
	if len(all.Entries) != 3 || all.Kind != "" {
		t.Errorf("unexpected full ledger %+v", all)
	}
}

func TestListDocuments(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, storage.NewMemoryMedium())
	add(t, svc, "invoice", map[string]any{"amount": 10, "customer": "ACME"})
	add(t, svc, "receipt", map[string]any{"amount": 10, "customer": "ACME"})
	add(t, svc, "invoice", map[string]any{"amount": 99})

	res, err := svc.ListDocuments(ctx, `doc.type == "invoice" && doc.customer == "ACME"`)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Entries) != 1 || res.Entries[0].Document.Number != 134 {
		t.Errorf("unexpected entries %+v", res.Entries)
	}

	res, err = svc.ListDocuments(ctx, `doc.amount > 1000`)
	if err != nil {
		t.Fatal(err)
	}
	if res.Entries == nil || len(res.Entries) != 0 {
		t.Errorf("no match should be an empty, non-nil list")
	}
}

func TestImportBackup_ReloadsFromMedium(t *testing.T) {
	ctx := context.Background()
	source := newService(t, storage.NewMemoryMedium())
	add(t, source, "invoice", map[string]any{"amount": 1})
	add(t, source, "journalEntry", map[string]any{"amount": 2})
	exported, err := source.ExportBackup(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if exported.FileName == "" {
		t.Error("expected a backup file name")
	}
	data, err := json.Marshal(exported.Backup)
	if err != nil {
		t.Fatal(err)
	}

	medium := storage.NewMemoryMedium()
	target := newService(t, medium)
	add(t, target, "receipt", map[string]any{"amount": 3})

	if _, err := target.ImportBackup(ctx, data, func() bool { return false }); !errors.Is(err, core.ErrImportCancelled) {
		t.Fatalf("expected ErrImportCancelled, got %v", err)
	}

	res, err := target.ImportBackup(ctx, data, core.AlwaysConfirm)
	if err != nil {
		t.Fatalf("ImportBackup failed: %v", err)
	}
	if !res.Persisted || !res.Reloaded || res.Documents != 2 {
		t.Errorf("unexpected import result %+v", res)
	}

	receipts, _ := target.GetCollection(ctx, "receipts")
	if receipts.Count != 0 {
		t.Errorf("import should replace existing receipts, got %d", receipts.Count)
	}

	// A fresh service over the same medium sees the imported state.
	reopened := newService(t, medium)
	docs, _ := reopened.ListDocuments(ctx, "")
	if len(docs.Entries) != 2 {
		t.Errorf("reopened books have %d documents, want 2", len(docs.Entries))
	}
}

func TestQueryAndInspect(t *testing.T) {
	ctx := context.Background()
	medium := storage.NewMemoryMedium()
	svc := newService(t, medium)
	add(t, svc, "invoice", map[string]any{"amount": 5})

	res, err := svc.Query(ctx, "$.invoices[0].number")
	if err != nil {
		t.Fatal(err)
	}
	if res.Result != float64(134) {
		t.Errorf("query result = %v, want 134", res.Result)
	}
	if _, err := svc.Query(ctx, ""); err == nil {
		t.Error("expected an error for an empty path")
	}

	report, err := svc.Inspect(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Healthy {
		t.Errorf("expected healthy storage: %+v", report.Keys)
	}
	if err := medium.Set(ctx, core.KeyReceipts, "{broken"); err != nil {
		t.Fatal(err)
	}
	report, _ = svc.Inspect(ctx)
	if report.Healthy {
		t.Error("expected corrupt receipts to be reported")
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     string
	}{
		{"1310.25", "USD", "$1,310.25"},
		{"0", "USD", "$0.00"},
		{"12.345", "USD", "$12.35"},
		{"10", "XXX", "10.00 XXX"},
	}
	for _, tt := range tests {
		if got := app.FormatAmount(decimal.RequireFromString(tt.amount), tt.currency); got != tt.want {
			t.Errorf("FormatAmount(%s, %s) = %q, want %q", tt.amount, tt.currency, got, tt.want)
		}
	}
}

func TestOpenMedium(t *testing.T) {
	ctx := context.Background()

	m, closeFn, err := app.OpenMedium(ctx, &config.Config{StorageBackend: config.StorageMemory})
	if err != nil || m == nil {
		t.Fatalf("memory backend: %v", err)
	}
	closeFn()

	path := t.TempDir() + "/books.json"
	m, closeFn, err = app.OpenMedium(ctx, &config.Config{StorageBackend: config.StorageFile, StoragePath: path})
	if err != nil {
		t.Fatalf("file backend: %v", err)
	}
	defer closeFn()
	if fm, ok := m.(*storage.FileMedium); !ok || fm.Path() != path {
		t.Errorf("expected a file medium at %s", path)
	}

	if _, _, err := app.OpenMedium(ctx, &config.Config{StorageBackend: "tape"}); err == nil {
		t.Error("expected an error for an unknown backend")
	}
	if _, _, err := app.OpenMedium(ctx, &config.Config{StorageBackend: config.StoragePostgres}); err == nil {
		t.Error("expected an error for postgres without DATABASE_URL")
	}
}
