package core

import (
	"context"
	"fmt"
)

// AddDocument records doc as a new document of kind.
//
// An unassigned number (zero) takes the next counter value; a caller-supplied
// number is kept and the counter is left alone. Numbers are not checked for
// uniqueness, a reused number is only logged. Date defaults to now and amount
// to zero. The document, its index entry and its ledger entry are appended
// together and saved once.
func (b *Books) AddDocument(ctx context.Context, kind Kind, doc Document) (Document, error) {
	if !kind.Valid() {
		return Document{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if doc.Number < 0 {
		return Document{}, fmt.Errorf("%w: number must be a positive integer, got %d", ErrInvalidDocument, doc.Number)
	}

	var created Document
	err := b.Mutate(ctx, func(m *Mutation) error {
		created = doc.clone()
		created.raw = nil
		if created.Number == 0 {
			created.Number = m.NextNumber(kind)
		}
		if m.State().hasNumber(kind, created.Number) {
			b.log.Warn().
				Str("kind", string(kind)).
				Int("number", created.Number).
				Msg("Document number already in use")
		}
		if created.Date == "" {
			created.Date = b.now().UTC().Format(ISOTimestamp)
		}

		m.Append(kind, created)
		m.AppendIndex(newIndexEntry(kind, created))
		m.AppendLedger(LedgerEntry{
			DocType: kind,
			Number:  created.Number,
			Amount:  created.Amount,
			Date:    created.Date,
		})
		return nil
	})
	if err != nil {
		return Document{}, err
	}

	b.log.Info().
		Str("kind", string(kind)).
		Int("number", created.Number).
		Str("amount", created.Amount.String()).
		Msg("Document recorded")
	return created, nil
}

func (b *Books) AddInvoice(ctx context.Context, doc Document) (Document, error) {
	return b.AddDocument(ctx, KindInvoice, doc)
}

func (b *Books) AddReceipt(ctx context.Context, doc Document) (Document, error) {
	return b.AddDocument(ctx, KindReceipt, doc)
}

func (b *Books) AddPurchaseInvoice(ctx context.Context, doc Document) (Document, error) {
	return b.AddDocument(ctx, KindPurchaseInvoice, doc)
}

func (b *Books) AddVendorPayment(ctx context.Context, doc Document) (Document, error) {
	return b.AddDocument(ctx, KindVendorPayment, doc)
}

func (b *Books) AddJournalEntry(ctx context.Context, doc Document) (Document, error) {
	return b.AddDocument(ctx, KindJournalEntry, doc)
}
