// Package storage provides the durable key-value media the bookkeeping state
// is mirrored to. A medium stores opaque string values under string keys and
// offers synchronous get/set/remove, like a browser's local storage.
package storage

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned by a medium that refuses a write because it
// would exceed its capacity.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Medium is a durable string key-value store.
type Medium interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key, overwriting any prior value.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}
