package app

import (
	"github.com/shopspring/decimal"

	"bet-books/internal/core"
)

// DocumentResult is returned by AddDocument.
type DocumentResult struct {
	Kind     core.Kind
	Document core.Document
}

// DocumentListResult is returned by ListDocuments.
type DocumentListResult struct {
	Where   string
	Entries []core.IndexEntry
}

// CollectionResult is returned by GetCollection. Items is one of
// []core.Document, []core.LedgerEntry or []core.IndexEntry.
type CollectionResult struct {
	Key   string
	Count int
	Items any
}

// LedgerResult is returned by GetLedger.
type LedgerResult struct {
	Kind           core.Kind // empty for the whole ledger
	Entries        []core.LedgerEntry
	Total          decimal.Decimal
	Currency       string
	FormattedTotal string
}

// CounterResult is one row of CountersResult.
type CounterResult struct {
	Kind  core.Kind
	Key   string
	Label string
	Value int
}

// CountersResult is returned by GetCounters, in core.Kinds order.
type CountersResult struct {
	Counters []CounterResult
}

// BackupResult is returned by ExportBackup.
type BackupResult struct {
	FileName string
	Backup   *core.Backup
}

// ImportResult is returned by ImportBackup.
type ImportResult struct {
	Documents     int
	LedgerEntries int
	Persisted     bool
	Reloaded      bool
}

// QueryResult is returned by Query.
type QueryResult struct {
	Path   string
	Result any
}

// InspectResult is returned by Inspect.
type InspectResult struct {
	Keys    []core.KeyStatus
	Healthy bool
}
