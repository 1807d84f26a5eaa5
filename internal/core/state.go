package core

// StateStore is the in-memory aggregate of the five document collections,
// the documents index, the ledger and the five counters.
//
// Accessors return copies: a StateStore can only be changed through a
// Mutation handed out by Books.Mutate, which persists the result.
type StateStore struct {
	counters    map[Kind]int
	collections map[Kind][]Document
	ledger      []LedgerEntry
	documents   []IndexEntry
}

// NewStateStore returns a fresh store: empty collections, counters at 133.
func NewStateStore() *StateStore {
	s := &StateStore{
		counters:    make(map[Kind]int, len(Kinds)),
		collections: make(map[Kind][]Document, len(Kinds)),
		ledger:      []LedgerEntry{},
		documents:   []IndexEntry{},
	}
	for _, k := range Kinds {
		s.counters[k] = DefaultCounter
		s.collections[k] = []Document{}
	}
	return s
}

// Counter returns the last number issued for kind.
func (s *StateStore) Counter(kind Kind) int {
	return s.counters[kind]
}

// Counters returns every counter keyed by kind.
func (s *StateStore) Counters() map[Kind]int {
	out := make(map[Kind]int, len(s.counters))
	for k, v := range s.counters {
		out[k] = v
	}
	return out
}

// Collection returns the documents of kind in insertion order.
func (s *StateStore) Collection(kind Kind) []Document {
	src := s.collections[kind]
	out := make([]Document, len(src))
	for i, d := range src {
		out[i] = d.clone()
	}
	return out
}

func (s *StateStore) Invoices() []Document         { return s.Collection(KindInvoice) }
func (s *StateStore) Receipts() []Document         { return s.Collection(KindReceipt) }
func (s *StateStore) PurchaseInvoices() []Document { return s.Collection(KindPurchaseInvoice) }
func (s *StateStore) VendorPayments() []Document   { return s.Collection(KindVendorPayment) }
func (s *StateStore) JournalEntries() []Document   { return s.Collection(KindJournalEntry) }

// Ledger returns the ledger entries in insertion order.
func (s *StateStore) Ledger() []LedgerEntry {
	return append([]LedgerEntry{}, s.ledger...)
}

// Documents returns the documents index in insertion order.
func (s *StateStore) Documents() []IndexEntry {
	out := make([]IndexEntry, len(s.documents))
	for i, e := range s.documents {
		out[i] = IndexEntry{Type: e.Type, Document: e.Document.clone()}
	}
	return out
}

// hasNumber reports whether a document of kind already carries number.
func (s *StateStore) hasNumber(kind Kind, number int) bool {
	for _, d := range s.collections[kind] {
		if d.Number == number {
			return true
		}
	}
	return false
}

func (s *StateStore) clone() *StateStore {
	out := &StateStore{
		counters:    s.Counters(),
		collections: make(map[Kind][]Document, len(s.collections)),
		ledger:      s.Ledger(),
		documents:   s.Documents(),
	}
	for k := range s.collections {
		out.collections[k] = s.Collection(k)
	}
	return out
}

// Mutation is the write access a command receives inside Books.Mutate.
type Mutation struct {
	s *StateStore
}

// State gives read access to the store being mutated.
func (m *Mutation) State() *StateStore { return m.s }

// NextNumber increments the counter of kind and returns the new value.
func (m *Mutation) NextNumber(kind Kind) int {
	m.s.counters[kind]++
	return m.s.counters[kind]
}

// SetCounter overwrites the counter of kind. Values below 1 reset it to DefaultCounter.
func (m *Mutation) SetCounter(kind Kind, value int) {
	if value < 1 {
		value = DefaultCounter
	}
	m.s.counters[kind] = value
}

// Append adds doc to the collection of kind.
func (m *Mutation) Append(kind Kind, doc Document) {
	m.s.collections[kind] = append(m.s.collections[kind], doc.clone())
}

// AppendIndex adds an entry to the documents index.
func (m *Mutation) AppendIndex(e IndexEntry) {
	m.s.documents = append(m.s.documents, e)
}

// AppendLedger adds an entry to the ledger.
func (m *Mutation) AppendLedger(e LedgerEntry) {
	m.s.ledger = append(m.s.ledger, e)
}

// SetCollection replaces the collection of kind. A nil slice empties it.
func (m *Mutation) SetCollection(kind Kind, docs []Document) {
	out := make([]Document, len(docs))
	for i, d := range docs {
		out[i] = d.clone()
	}
	m.s.collections[kind] = out
}

// SetLedger replaces the ledger.
func (m *Mutation) SetLedger(entries []LedgerEntry) {
	m.s.ledger = append([]LedgerEntry{}, entries...)
}

// SetDocuments replaces the documents index.
func (m *Mutation) SetDocuments(entries []IndexEntry) {
	m.s.documents = append([]IndexEntry{}, entries...)
}

// Replace swaps the whole store for other.
func (m *Mutation) Replace(other *StateStore) {
	*m.s = *other.clone()
}
