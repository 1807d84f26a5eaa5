package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"bet-books/internal/storage"
)

// Bridge mirrors a StateStore to a durable medium under the fixed storage keys.
type Bridge struct {
	medium storage.Medium
	log    zerolog.Logger
}

func NewBridge(medium storage.Medium, log zerolog.Logger) *Bridge {
	return &Bridge{medium: medium, log: log}
}

// Save writes every counter as a decimal string and every collection as a
// JSON array. All keys are attempted even if one write fails; failures are
// logged and returned joined. Nothing is rolled back.
func (b *Bridge) Save(ctx context.Context, s *StateStore) error {
	var errs []error

	for _, k := range Kinds {
		if err := b.medium.Set(ctx, k.CounterKey(), strconv.Itoa(s.counters[k])); err != nil {
			errs = append(errs, err)
		}
	}

	values := map[string]any{
		KeyLedger:    s.ledger,
		KeyDocuments: s.documents,
	}
	for _, k := range Kinds {
		values[k.CollectionKey()] = s.collections[k]
	}
	for _, key := range CollectionKeys {
		data, err := json.Marshal(values[key])
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to encode %s: %w", key, err))
			continue
		}
		if err := b.medium.Set(ctx, key, string(data)); err != nil {
			errs = append(errs, err)
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		b.log.Error().Err(err).Msg("Failed to persist state; in-memory data may not survive the session")
	}
	return err
}

// Load reads a StateStore from the medium. Missing or corrupt values fall
// back to their defaults (133 for counters, empty for collections) and are
// never reported as errors. An error is returned only when the medium itself
// cannot be read; the returned store is then the default store.
func (b *Bridge) Load(ctx context.Context) (*StateStore, error) {
	s := NewStateStore()
	var errs []error

	for _, k := range Kinds {
		raw, ok, err := b.medium.Get(ctx, k.CounterKey())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok {
			continue
		}
		n, valid := parseCounter(raw)
		if !valid {
			b.log.Warn().Str("key", k.CounterKey()).Str("value", raw).Msg("Stored counter is not a positive integer, using default")
		}
		s.counters[k] = n
	}

	for _, k := range Kinds {
		docs, err := loadCollection[Document](ctx, b, k.CollectionKey())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.collections[k] = docs
	}
	ledger, err := loadCollection[LedgerEntry](ctx, b, KeyLedger)
	if err != nil {
		errs = append(errs, err)
	}
	s.ledger = ledger
	documents, err := loadCollection[IndexEntry](ctx, b, KeyDocuments)
	if err != nil {
		errs = append(errs, err)
	}
	s.documents = documents

	if err := errors.Join(errs...); err != nil {
		b.log.Error().Err(err).Msg("Failed to read storage, starting from an empty state")
		return NewStateStore(), err
	}
	return s, nil
}

func loadCollection[T any](ctx context.Context, b *Bridge, key string) ([]T, error) {
	raw, ok, err := b.medium.Get(ctx, key)
	if err != nil {
		return []T{}, err
	}
	if !ok {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		b.log.Warn().Err(err).Str("key", key).Msg("Stored collection is corrupt, using an empty one")
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// parseCounter reads a counter the way the stored values were historically
// read: leading whitespace is skipped and the leading integer is taken, so
// "150", " 150" and "150abc" all give 150. Anything without leading digits,
// or a value below 1, yields DefaultCounter and valid=false.
func parseCounter(raw string) (n int, valid bool) {
	s := strings.TrimLeft(raw, " \t\n\r\f\v")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return DefaultCounter, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n < 1 {
		return DefaultCounter, false
	}
	return n, true
}

// KeyStatus describes the health of one storage key.
type KeyStatus struct {
	Key     string
	Present bool
	Valid   bool
	Items   int    // collection length, or the counter value
	Detail  string // parse problem, if any
}

// Inspect reports, for every storage key, whether it is present and readable.
// It never modifies the medium.
func (b *Bridge) Inspect(ctx context.Context) ([]KeyStatus, error) {
	var out []KeyStatus

	for _, k := range Kinds {
		raw, ok, err := b.medium.Get(ctx, k.CounterKey())
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", k.CounterKey(), err)
		}
		st := KeyStatus{Key: k.CounterKey(), Present: ok, Valid: true, Items: DefaultCounter}
		if ok {
			st.Items, st.Valid = parseCounter(raw)
			if !st.Valid {
				st.Detail = fmt.Sprintf("not a positive integer: %q", raw)
			}
		}
		out = append(out, st)
	}

	for _, key := range CollectionKeys {
		raw, ok, err := b.medium.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		st := KeyStatus{Key: key, Present: ok, Valid: true}
		if ok {
			n, err := countCollection(key, raw)
			st.Items = n
			if err != nil {
				st.Valid = false
				st.Detail = err.Error()
			}
		}
		out = append(out, st)
	}
	return out, nil
}

func countCollection(key, raw string) (int, error) {
	var err error
	var n int
	switch key {
	case KeyLedger:
		var items []LedgerEntry
		err = json.Unmarshal([]byte(raw), &items)
		n = len(items)
	case KeyDocuments:
		var items []IndexEntry
		err = json.Unmarshal([]byte(raw), &items)
		n = len(items)
	default:
		var items []Document
		err = json.Unmarshal([]byte(raw), &items)
		n = len(items)
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}
