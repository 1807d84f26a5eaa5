package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"bet-books/internal/storage"
)

// Books binds a StateStore to its Bridge. Every change goes through Mutate,
// which persists the store exactly once per command.
//
// Books is not safe for concurrent use; callers that share one Books must
// serialise access (see app.NewAppService).
type Books struct {
	bridge *Bridge
	state  *StateStore
	log    zerolog.Logger
	now    func() time.Time
}

type Option func(*Books)

// WithLogger sets the logger used by Books and its Bridge.
func WithLogger(log zerolog.Logger) Option {
	return func(b *Books) { b.log = log }
}

// WithClock replaces time.Now for defaulted document dates.
func WithClock(now func() time.Time) Option {
	return func(b *Books) { b.now = now }
}

// OpenBooks loads the books stored in medium. If the medium cannot be read
// the error is returned together with usable, empty books.
func OpenBooks(ctx context.Context, medium storage.Medium, opts ...Option) (*Books, error) {
	b := &Books{log: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	b.bridge = NewBridge(medium, b.log)
	err := b.Reload(ctx)
	return b, err
}

// State returns the current store for reading.
func (b *Books) State() *StateStore { return b.state }

// Bridge returns the persistence bridge the books save through.
func (b *Books) Bridge() *Bridge { return b.bridge }

// Reload discards the in-memory state and rehydrates it from the medium.
// If the medium cannot be read, loaded books keep their current state.
func (b *Books) Reload(ctx context.Context) error {
	state, err := b.bridge.Load(ctx)
	if err != nil && b.state != nil {
		return err
	}
	b.state = state
	if err == nil {
		b.log.Debug().
			Int("documents", len(state.documents)).
			Int("ledger", len(state.ledger)).
			Msg("Books loaded")
	}
	return err
}

// Save persists the current state.
func (b *Books) Save(ctx context.Context) error {
	return b.bridge.Save(ctx, b.state)
}

// Mutate runs fn against the store and then saves once. If fn fails, the
// store is restored to its previous value and nothing is written. A failed
// save is logged by the bridge and not returned: the in-memory state stays
// authoritative for the rest of the session.
func (b *Books) Mutate(ctx context.Context, fn func(*Mutation) error) error {
	_, err := b.mutate(ctx, fn)
	return err
}

func (b *Books) mutate(ctx context.Context, fn func(*Mutation) error) (persisted bool, err error) {
	previous := b.state.clone()
	if err := fn(&Mutation{s: b.state}); err != nil {
		b.state = previous
		return false, err
	}
	return b.bridge.Save(ctx, b.state) == nil, nil
}
