package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"bet-books/internal/config"
	"bet-books/internal/core"
	"bet-books/internal/db"
	"bet-books/internal/storage"
)

// OpenMedium builds the durable medium selected by cfg. The returned close
// func releases whatever the medium holds and is never nil.
func OpenMedium(ctx context.Context, cfg *config.Config) (storage.Medium, func(), error) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		return storage.NewMemoryMedium(), func() {}, nil

	case config.StorageFile:
		m, err := storage.OpenFileMedium(cfg.StoragePath)
		if err != nil {
			return nil, func() {}, fmt.Errorf("failed to open storage file: %w", err)
		}
		return m, func() {}, nil

	case config.StoragePostgres:
		pool, err := db.NewPool(ctx, cfg.GetPoolSettings())
		if err != nil {
			return nil, func() {}, err
		}
		m, err := storage.NewPostgresMedium(ctx, pool, cfg.StorageTable)
		if err != nil {
			pool.Close()
			return nil, func() {}, err
		}
		return m, pool.Close, nil

	default:
		return nil, func() {}, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// Open wires the configured medium, loads the books and returns the service
// adapters talk to. An unreadable medium is logged and the books start empty.
func Open(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ApplicationService, func(), error) {
	medium, closeMedium, err := OpenMedium(ctx, cfg)
	if err != nil {
		return nil, closeMedium, err
	}

	books, err := core.OpenBooks(ctx, medium, core.WithLogger(log))
	if err != nil {
		log.Error().Err(err).Str("backend", cfg.StorageBackend).Msg("Storage unreadable, starting with empty books")
	}

	log.Info().
		Str("backend", cfg.StorageBackend).
		Int("documents", len(books.State().Documents())).
		Msg("Books opened")
	return NewAppService(books, cfg.Currency, log), closeMedium, nil
}
