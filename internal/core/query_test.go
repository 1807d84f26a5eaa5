package core_test

import (
	"errors"
	"testing"

	"bet-books/internal/core"
	"bet-books/internal/storage"

	"github.com/shopspring/decimal"
)

func TestSearch(t *testing.T) {
	books := openBooks(t, storage.NewMemoryMedium())
	seedBooks(t, books)
	state := books.State()

	tests := []struct {
		name       string
		expression string
		want       []int
	}{
		{"empty matches all", "", []int{134, 135, 134, 900, 134, 134}},
		{"by type", `doc.type == "invoice"`, []int{134, 135}},
		{"by amount", `doc.amount >= 200 && doc.amount < 500`, []int{135, 134}},
		{"extension field", `doc.customer == "ACME"`, []int{134}},
		{"by number", `doc.number == 900`, []int{900}},
		{"top level binding", `number == 900 && amount == 80`, []int{900}},
		{"nested field", `doc.items != nil && doc.items[0].qty == 2`, []int{135}},
		{"no match", `doc.vendor == "Nobody"`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := state.Search(tt.expression)
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(got), len(tt.want))
			}
			for i, e := range got {
				if e.Document.Number != tt.want[i] {
					t.Errorf("entry %d number = %d, want %d", i, e.Document.Number, tt.want[i])
				}
			}
		})
	}
}

func TestSearch_InvalidExpression(t *testing.T) {
	books := openBooks(t, storage.NewMemoryMedium())
	seedBooks(t, books)

	if _, err := books.State().Search(`doc.amount >`); err == nil {
		t.Error("expected a compile error")
	}
	if _, err := books.State().Search(`doc.amount + 1`); err == nil {
		t.Error("expected an error for a non-boolean expression")
	}
}

func TestQuery(t *testing.T) {
	books := openBooks(t, storage.NewMemoryMedium())
	seedBooks(t, books)

	got, err := books.State().Query("$.lastInvoiceNumber")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if got != float64(135) {
		t.Errorf("lastInvoiceNumber = %v, want 135", got)
	}

	got, err = books.State().Query("$.ledger[*].docType")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	types, ok := got.([]any)
	if !ok || len(types) != 6 || types[0] != "invoice" {
		t.Errorf("unexpected ledger types %v", got)
	}

	if _, err := books.State().Query("$["); err == nil {
		t.Error("expected an error for a malformed path")
	}
}

func TestLedgerTotal(t *testing.T) {
	books := openBooks(t, storage.NewMemoryMedium())
	seedBooks(t, books)
	state := books.State()

	tests := []struct {
		kind core.Kind
		want string
	}{
		{"", "1310.25"},
		{core.KindInvoice, "700"},
		{core.KindReceipt, "450.25"},
		{core.KindJournalEntry, "0"},
	}
	for _, tt := range tests {
		if got := state.LedgerTotal(tt.kind); !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("LedgerTotal(%q) = %s, want %s", tt.kind, got, tt.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	tests := map[string]core.Kind{
		"invoice":          core.KindInvoice,
		"Invoices":         core.KindInvoice,
		"purchase-invoice": core.KindPurchaseInvoice,
		"purchaseInvoices": core.KindPurchaseInvoice,
		"vendor_payment":   core.KindVendorPayment,
		"journal entry":    core.KindJournalEntry,
		"RECEIPTS":         core.KindReceipt,
	}
	for input, want := range tests {
		got, err := core.ParseKind(input)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %q, %v; want %q", input, got, err, want)
		}
	}
	if _, err := core.ParseKind("ledger"); !errors.Is(err, core.ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind for ledger, got %v", err)
	}
}

func TestNewDocument_Validation(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]any
		wantErr bool
	}{
		{"minimal", map[string]any{"date": "2024-01-01", "amount": 1}, false},
		{"numeric strings", map[string]any{"number": "140", "amount": "12.30"}, false},
		{"empty number string", map[string]any{"number": ""}, false},
		{"negative number", map[string]any{"number": -1}, true},
		{"fractional number", map[string]any{"number": 1.5}, true},
		{"number object", map[string]any{"number": map[string]any{}}, true},
		{"date number", map[string]any{"date": 20240101}, true},
		{"amount text", map[string]any{"amount": "ten"}, true},
		{"amount bool", map[string]any{"amount": true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := core.NewDocument(tt.fields)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, core.ErrInvalidDocument) {
				t.Errorf("expected ErrInvalidDocument, got %v", err)
			}
		})
	}
}
