package core

import (
	"errors"
	"fmt"
	"strings"
)

// Kind tags one of the five document types.
type Kind string

const (
	KindInvoice         Kind = "invoice"
	KindReceipt         Kind = "receipt"
	KindPurchaseInvoice Kind = "purchaseInvoice"
	KindVendorPayment   Kind = "vendorPayment"
	KindJournalEntry    Kind = "journalEntry"
)

// Kinds lists every document kind in storage order.
var Kinds = []Kind{KindInvoice, KindPurchaseInvoice, KindReceipt, KindVendorPayment, KindJournalEntry}

// DefaultCounter is the value every counter starts at and falls back to.
// Numbering continues from the legacy baseline, so the first document is 134.
const DefaultCounter = 133

// Storage keys. These names are shared with existing persisted data and
// backup files and must not change.
const (
	KeyLastInvoiceNumber         = "lastInvoiceNumber"
	KeyLastReceiptNumber         = "lastReceiptNumber"
	KeyLastPurchaseInvoiceNumber = "lastPurchaseInvoiceNumber"
	KeyLastVendorPaymentNumber   = "lastVendorPaymentNumber"
	KeyLastJournalEntryNumber    = "lastJournalEntryNumber"

	KeyInvoices         = "invoices"
	KeyPurchaseInvoices = "purchaseInvoices"
	KeyReceipts         = "receipts"
	KeyVendorPayments   = "vendorPayments"
	KeyJournalEntries   = "journalEntries"
	KeyLedger           = "ledger"
	KeyDocuments        = "documents"
)

// CollectionKeys lists the seven collection keys.
var CollectionKeys = []string{
	KeyInvoices, KeyPurchaseInvoices, KeyReceipts, KeyVendorPayments, KeyJournalEntries, KeyLedger, KeyDocuments,
}

var ErrUnknownKind = errors.New("unknown document kind")

type kindKeys struct {
	counter    string
	collection string
	label      string
}

var kindTable = map[Kind]kindKeys{
	KindInvoice:         {KeyLastInvoiceNumber, KeyInvoices, "Invoice"},
	KindReceipt:         {KeyLastReceiptNumber, KeyReceipts, "Receipt"},
	KindPurchaseInvoice: {KeyLastPurchaseInvoiceNumber, KeyPurchaseInvoices, "Purchase Invoice"},
	KindVendorPayment:   {KeyLastVendorPaymentNumber, KeyVendorPayments, "Vendor Payment"},
	KindJournalEntry:    {KeyLastJournalEntryNumber, KeyJournalEntries, "Journal Entry"},
}

func (k Kind) Valid() bool {
	_, ok := kindTable[k]
	return ok
}

// CounterKey is the storage key of the kind's counter.
func (k Kind) CounterKey() string { return kindTable[k].counter }

// CollectionKey is the storage key of the kind's collection.
func (k Kind) CollectionKey() string { return kindTable[k].collection }

// Label is a human readable name, e.g. "Purchase Invoice".
func (k Kind) Label() string { return kindTable[k].label }

// ParseKind accepts a kind tag ("purchaseInvoice"), its collection key
// ("purchaseInvoices") or a dashed/underscored spelling ("purchase-invoice"),
// case-insensitively.
func ParseKind(s string) (Kind, error) {
	norm := normalizeKindName(s)
	for _, k := range Kinds {
		if norm == normalizeKindName(string(k)) || norm == normalizeKindName(k.CollectionKey()) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func normalizeKindName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(s)
}
