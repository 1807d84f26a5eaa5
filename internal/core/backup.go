package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/invopop/jsonschema"
)

var (
	ErrImportParse     = errors.New("backup is not valid JSON")
	ErrImportCancelled = errors.New("import cancelled")
)

// Counter is a counter value in a backup file. It decodes from a JSON number
// or a numeric string; anything else, or a value below 1, stands for the
// default.
type Counter int

func (c *Counter) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	n, _ := parseCounter(s)
	*c = Counter(n)
	return nil
}

// Value returns the counter, substituting DefaultCounter for unset values.
func (c Counter) Value() int {
	if c < 1 {
		return DefaultCounter
	}
	return int(c)
}

// Backup is the export file: a lossless snapshot of every counter and collection.
type Backup struct {
	LastInvoiceNumber         Counter `json:"lastInvoiceNumber"`
	LastReceiptNumber         Counter `json:"lastReceiptNumber"`
	LastPurchaseInvoiceNumber Counter `json:"lastPurchaseInvoiceNumber"`
	LastVendorPaymentNumber   Counter `json:"lastVendorPaymentNumber"`
	LastJournalEntryNumber    Counter `json:"lastJournalEntryNumber"`

	Invoices         []Document    `json:"invoices"`
	PurchaseInvoices []Document    `json:"purchaseInvoices"`
	Receipts         []Document    `json:"receipts"`
	VendorPayments   []Document    `json:"vendorPayments"`
	JournalEntries   []Document    `json:"journalEntries"`
	Ledger           []LedgerEntry `json:"ledger"`
	Documents        []IndexEntry  `json:"documents"`
}

func (b *Backup) counter(kind Kind) *Counter {
	switch kind {
	case KindInvoice:
		return &b.LastInvoiceNumber
	case KindReceipt:
		return &b.LastReceiptNumber
	case KindPurchaseInvoice:
		return &b.LastPurchaseInvoiceNumber
	case KindVendorPayment:
		return &b.LastVendorPaymentNumber
	default:
		return &b.LastJournalEntryNumber
	}
}

func (b *Backup) collection(kind Kind) *[]Document {
	switch kind {
	case KindInvoice:
		return &b.Invoices
	case KindReceipt:
		return &b.Receipts
	case KindPurchaseInvoice:
		return &b.PurchaseInvoices
	case KindVendorPayment:
		return &b.VendorPayments
	default:
		return &b.JournalEntries
	}
}

// NewBackup snapshots s.
func NewBackup(s *StateStore) *Backup {
	b := &Backup{
		Ledger:    s.Ledger(),
		Documents: s.Documents(),
	}
	for _, k := range Kinds {
		*b.counter(k) = Counter(s.Counter(k))
		*b.collection(k) = s.Collection(k)
	}
	return b
}

// StateStore converts the backup into a store, defaulting missing counters
// to 133 and missing collections to empty.
func (b *Backup) StateStore() *StateStore {
	s := NewStateStore()
	m := &Mutation{s: s}
	for _, k := range Kinds {
		m.SetCounter(k, b.counter(k).Value())
		m.SetCollection(k, *b.collection(k))
	}
	m.SetLedger(b.Ledger)
	m.SetDocuments(b.Documents)
	return s
}

// ParseBackup decodes a backup file. Collection elements are decoded
// leniently, so only malformed JSON or a key holding the wrong JSON shape is
// reported as ErrImportParse.
func ParseBackup(data []byte) (*Backup, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrImportParse)
	}
	var b Backup
	if err := json.Unmarshal(trimmed, &b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImportParse, err)
	}
	return &b, nil
}

// BackupFileName names an export made at t, e.g. BET_Backup_20240131.json.
func BackupFileName(t time.Time) string {
	return "BET_Backup_" + t.Format("20060102") + ".json"
}

// BackupSchema describes the backup file format as JSON Schema.
func BackupSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(&Backup{})
	schema.Title = "BET backup"
	return schema
}

// ImportResult reports a completed import.
type ImportResult struct {
	Documents     int
	LedgerEntries int
	// Persisted is false when the imported state could not be written to the medium.
	Persisted bool
	// Reload asks the caller to reinitialise every view of the books from the
	// medium, as after a restart.
	Reload bool
}

// Export snapshots the books.
func (b *Books) Export() *Backup {
	return NewBackup(b.state)
}

// Import replaces the whole state with the backup in data. confirm is asked
// first and must return true; a nil confirm counts as declined. Parsing is
// all-or-nothing: on any error the current state is left untouched.
func (b *Books) Import(ctx context.Context, data []byte, confirm func() bool) (*ImportResult, error) {
	if confirm == nil || !confirm() {
		return nil, ErrImportCancelled
	}

	backup, err := ParseBackup(data)
	if err != nil {
		b.log.Error().Err(err).Msg("Import rejected")
		return nil, err
	}

	imported := backup.StateStore()
	persisted, err := b.mutate(ctx, func(m *Mutation) error {
		m.Replace(imported)
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		Documents:     len(imported.documents),
		LedgerEntries: len(imported.ledger),
		Persisted:     persisted,
		Reload:        persisted,
	}
	b.log.Info().
		Int("documents", result.Documents).
		Int("ledger", result.LedgerEntries).
		Bool("persisted", persisted).
		Msg("Backup imported")
	return result, nil
}

// AlwaysConfirm is a confirm func for non-interactive imports.
func AlwaysConfirm() bool { return true }
