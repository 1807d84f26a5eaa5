package app

import (
	"context"

	"github.com/invopop/jsonschema"
)

// ApplicationService is the single interface all UI adapters (CLI, Web) call.
// It decouples presentation from the books. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// AddDocument creates a document of the requested kind through the factory,
	// assigning the next number when none is supplied.
	AddDocument(ctx context.Context, req AddDocumentRequest) (*DocumentResult, error)

	// ListDocuments returns the documents index, filtered by an optional
	// boolean expression over each entry (empty means all).
	ListDocuments(ctx context.Context, where string) (*DocumentListResult, error)

	// GetCollection returns one stored collection by name: a document kind,
	// its collection key, "ledger" or "documents".
	GetCollection(ctx context.Context, name string) (*CollectionResult, error)

	// GetLedger returns the ledger, optionally restricted to one document kind,
	// with its total.
	GetLedger(ctx context.Context, kind string) (*LedgerResult, error)

	// GetCounters returns the last issued number for every kind.
	GetCounters(ctx context.Context) (*CountersResult, error)

	// ExportBackup snapshots the whole state in backup form.
	ExportBackup(ctx context.Context) (*BackupResult, error)

	// ImportBackup replaces the whole state with the backup in data after
	// confirm returns true. On a persisted import the books are reloaded
	// from the medium before returning.
	ImportBackup(ctx context.Context, data []byte, confirm func() bool) (*ImportResult, error)

	// Query evaluates a JSONPath expression against the backup form of the state.
	Query(ctx context.Context, path string) (*QueryResult, error)

	// BackupSchema returns the JSON Schema of the backup file.
	BackupSchema() *jsonschema.Schema

	// Inspect reports the health of every storage key without changing anything.
	Inspect(ctx context.Context) (*InspectResult, error)

	// Reload discards the in-memory state and rehydrates it from the medium.
	Reload(ctx context.Context) error
}
