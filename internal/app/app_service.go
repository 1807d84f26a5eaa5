package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/invopop/jsonschema"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bet-books/internal/core"
)

type appService struct {
	mu       sync.Mutex
	books    *core.Books
	currency string
	log      zerolog.Logger
	now      func() time.Time
}

// NewAppService wraps books in an ApplicationService. Every call takes the
// same lock, so adapters serving concurrent requests see one command at a
// time.
func NewAppService(books *core.Books, currency string, log zerolog.Logger) ApplicationService {
	if currency == "" {
		currency = money.USD
	}
	return &appService{
		books:    books,
		currency: currency,
		log:      log,
		now:      time.Now,
	}
}

// AddDocument creates a document of the requested kind.
func (s *appService) AddDocument(ctx context.Context, req AddDocumentRequest) (*DocumentResult, error) {
	kind, err := core.ParseKind(req.Kind)
	if err != nil {
		return nil, err
	}
	doc, err := core.NewDocument(req.Fields)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err = s.books.AddDocument(ctx, kind, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to add %s: %w", kind.Label(), err)
	}
	return &DocumentResult{Kind: kind, Document: doc}, nil
}

// ListDocuments returns the documents index, filtered by where.
func (s *appService) ListDocuments(ctx context.Context, where string) (*DocumentListResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.books.State().Search(where)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []core.IndexEntry{}
	}
	return &DocumentListResult{Where: where, Entries: entries}, nil
}

// GetCollection returns one stored collection by name.
func (s *appService) GetCollection(ctx context.Context, name string) (*CollectionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.books.State()
	switch name {
	case core.KeyLedger:
		entries := state.Ledger()
		return &CollectionResult{Key: core.KeyLedger, Count: len(entries), Items: entries}, nil
	case core.KeyDocuments:
		entries := state.Documents()
		return &CollectionResult{Key: core.KeyDocuments, Count: len(entries), Items: entries}, nil
	}

	kind, err := core.ParseKind(name)
	if err != nil {
		return nil, fmt.Errorf("unknown collection %q: %w", name, err)
	}
	docs := state.Collection(kind)
	return &CollectionResult{Key: kind.CollectionKey(), Count: len(docs), Items: docs}, nil
}

// GetLedger returns the ledger for one kind, or all of it when kind is empty.
func (s *appService) GetLedger(ctx context.Context, kind string) (*LedgerResult, error) {
	var k core.Kind
	if kind != "" {
		var err error
		if k, err = core.ParseKind(kind); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.books.State()
	entries := []core.LedgerEntry{}
	for _, e := range state.Ledger() {
		if k == "" || e.DocType == k {
			entries = append(entries, e)
		}
	}
	total := state.LedgerTotal(k)
	return &LedgerResult{
		Kind:           k,
		Entries:        entries,
		Total:          total,
		Currency:       s.currency,
		FormattedTotal: FormatAmount(total, s.currency),
	}, nil
}

// GetCounters returns the last issued number for every kind.
func (s *appService) GetCounters(ctx context.Context) (*CountersResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.books.State()
	result := &CountersResult{}
	for _, k := range core.Kinds {
		result.Counters = append(result.Counters, CounterResult{
			Kind:  k,
			Key:   k.CounterKey(),
			Label: k.Label(),
			Value: state.Counter(k),
		})
	}
	return result, nil
}

// ExportBackup snapshots the whole state.
func (s *appService) ExportBackup(ctx context.Context) (*BackupResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &BackupResult{
		FileName: core.BackupFileName(s.now()),
		Backup:   s.books.Export(),
	}, nil
}

// ImportBackup replaces the whole state with data and, once the import is
// persisted, reloads the books from the medium.
func (s *appService) ImportBackup(ctx context.Context, data []byte, confirm func() bool) (*ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	imported, err := s.books.Import(ctx, data, confirm)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		Documents:     imported.Documents,
		LedgerEntries: imported.LedgerEntries,
		Persisted:     imported.Persisted,
	}
	if imported.Reload {
		if err := s.books.Reload(ctx); err != nil {
			s.log.Error().Err(err).Msg("Reload after import failed, keeping imported state")
		} else {
			result.Reloaded = true
		}
	}
	return result, nil
}

// Query evaluates a JSONPath expression against the backup form of the state.
func (s *appService) Query(ctx context.Context, path string) (*QueryResult, error) {
	if path == "" {
		return nil, errors.New("query path is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.books.State().Query(path)
	if err != nil {
		return nil, err
	}
	return &QueryResult{Path: path, Result: result}, nil
}

// BackupSchema returns the JSON Schema of the backup file.
func (s *appService) BackupSchema() *jsonschema.Schema {
	return core.BackupSchema()
}

// Inspect reports the health of every storage key.
func (s *appService) Inspect(ctx context.Context) (*InspectResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.books.Bridge().Inspect(ctx)
	if err != nil {
		return nil, err
	}
	healthy := true
	for _, k := range keys {
		if k.Present && !k.Valid {
			healthy = false
		}
	}
	return &InspectResult{Keys: keys, Healthy: healthy}, nil
}

// Reload discards the in-memory state and rehydrates it from the medium.
func (s *appService) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.books.Reload(ctx)
}

// FormatAmount renders amount in currency's display format, e.g. "$1,310.25".
// Amounts are rounded to the currency's minor unit.
func FormatAmount(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return amount.StringFixed(2) + " " + currency
	}
	factor := decimal.New(1, int32(cur.Fraction))
	return money.New(amount.Mul(factor).Round(0).IntPart(), cur.Code).Display()
}
