package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"
)

// ISOTimestamp is the layout used for defaulted dates. It matches the
// millisecond UTC form browsers produce for Date.prototype.toISOString.
const ISOTimestamp = "2006-01-02T15:04:05.000Z"

var ErrInvalidDocument = errors.New("invalid document")

// Document is a single accounting record. Number, Date and Amount are the
// fields every kind carries; anything else the caller supplied (line items,
// customer or vendor references, notes) lives in Fields.
//
// A zero Number means "not assigned yet".
//
// Documents decoded from storage or a backup keep their original encoding and
// are written back byte for byte; the typed fields are a read view of it.
type Document struct {
	Number int
	Date   string
	Amount decimal.Decimal
	Fields map[string]any

	raw json.RawMessage
}

// NewDocument builds a Document from a flat field mapping such as a decoded
// form submission. number, date and amount are lifted out of fields and
// checked: number must be a positive integer when present, date a string and
// amount numeric (a JSON number or a numeric string).
func NewDocument(fields map[string]any) (Document, error) {
	doc := Document{Fields: make(map[string]any, len(fields))}
	for k, v := range fields {
		doc.Fields[k] = v
	}

	var err error
	if v, ok := doc.Fields["number"]; ok {
		delete(doc.Fields, "number")
		if doc.Number, err = toNumber(v); err != nil {
			return Document{}, err
		}
	}
	if v, ok := doc.Fields["date"]; ok {
		delete(doc.Fields, "date")
		if doc.Date, err = toDate(v); err != nil {
			return Document{}, err
		}
	}
	if v, ok := doc.Fields["amount"]; ok {
		delete(doc.Fields, "amount")
		if doc.Amount, err = toAmount(v); err != nil {
			return Document{}, err
		}
	}
	return doc, nil
}

// looseDocument is the lenient counterpart of NewDocument used for stored
// data. number, date and amount are lifted only when they parse; a value of
// the wrong type stays in Fields under its own key.
func looseDocument(fields map[string]any) Document {
	doc := Document{Fields: make(map[string]any, len(fields))}
	for k, v := range fields {
		doc.Fields[k] = v
	}
	if n, err := toNumber(doc.Fields["number"]); err == nil {
		doc.Number = n
		delete(doc.Fields, "number")
	}
	if date, err := toDate(doc.Fields["date"]); err == nil {
		doc.Date = date
		delete(doc.Fields, "date")
	}
	if amount, err := toAmount(doc.Fields["amount"]); err == nil {
		doc.Amount = amount
		delete(doc.Fields, "amount")
	}
	return doc
}

// Flatten returns the document as a single field mapping, the shape used in
// storage and backups. Amount is rendered as a json.Number unless Fields
// still holds an amount that did not parse.
func (d Document) Flatten() map[string]any {
	out := make(map[string]any, len(d.Fields)+3)
	for k, v := range d.Fields {
		out[k] = v
	}
	if d.Number > 0 {
		out["number"] = d.Number
	}
	if d.Date != "" {
		out["date"] = d.Date
	}
	if _, ok := out["amount"]; !ok {
		out["amount"] = json.Number(d.Amount.String())
	}
	return out
}

func (d Document) MarshalJSON() ([]byte, error) {
	if d.raw != nil {
		return d.raw, nil
	}
	return json.Marshal(d.Flatten())
}

// UnmarshalJSON never fails on well-formed JSON: any element, including null
// or an object with oddly typed fields, is accepted and kept as found.
func (d *Document) UnmarshalJSON(data []byte) error {
	*d = looseDocument(decodeLoose(data))
	d.raw = keepRaw(data)
	return nil
}

func (d Document) clone() Document {
	out := d
	if d.Fields != nil {
		out.Fields = make(map[string]any, len(d.Fields))
		for k, v := range d.Fields {
			out.Fields[k] = v
		}
	}
	return out
}

func (Document) JSONSchema() *jsonschema.Schema {
	props := jsonschema.NewProperties()
	props.Set("number", &jsonschema.Schema{Type: "integer", Minimum: json.Number("1")})
	props.Set("date", &jsonschema.Schema{Type: "string", Description: "ISO-8601 date or timestamp"})
	props.Set("amount", &jsonschema.Schema{Type: "number"})
	return &jsonschema.Schema{
		Type:                 "object",
		Description:          "Accounting document; fields beyond number, date and amount are kept as supplied",
		Properties:           props,
		Required:             []string{"number", "date", "amount"},
		AdditionalProperties: jsonschema.TrueSchema,
	}
}

// IndexEntry is the denormalized row of the documents index: the full
// document plus its kind.
type IndexEntry struct {
	Type     Kind
	Document Document

	raw json.RawMessage
}

func newIndexEntry(kind Kind, doc Document) IndexEntry {
	return IndexEntry{Type: kind, Document: doc.clone()}
}

// Flatten merges the document fields with type. The assigned type, number
// and date win over extension fields of the same name.
func (e IndexEntry) Flatten() map[string]any {
	out := e.Document.Flatten()
	if e.Type != "" {
		out["type"] = string(e.Type)
	}
	return out
}

func (e IndexEntry) MarshalJSON() ([]byte, error) {
	if e.raw != nil {
		return e.raw, nil
	}
	return json.Marshal(e.Flatten())
}

// UnmarshalJSON decodes leniently like Document: a non-string type stays in
// the document fields and the original encoding is kept.
func (e *IndexEntry) UnmarshalJSON(data []byte) error {
	fields := decodeLoose(data)
	var kind Kind
	if s, ok := fields["type"].(string); ok {
		kind = Kind(s)
		delete(fields, "type")
	}
	*e = IndexEntry{Type: kind, Document: looseDocument(fields), raw: keepRaw(data)}
	return nil
}

func (IndexEntry) JSONSchema() *jsonschema.Schema {
	s := Document{}.JSONSchema()
	kinds := make([]any, len(Kinds))
	for i, k := range Kinds {
		kinds[i] = string(k)
	}
	s.Properties.Set("type", &jsonschema.Schema{Type: "string", Enum: kinds})
	s.Required = append(s.Required, "type")
	s.Description = "Documents index entry: a document merged with its kind"
	return s
}

// LedgerEntry is the minimal financial trace recorded for every document.
// A stored entry whose amount is not numeric counts as zero.
type LedgerEntry struct {
	DocType Kind            `json:"docType"`
	Number  int             `json:"number"`
	Amount  decimal.Decimal `json:"amount"`
	Date    string          `json:"date"`

	raw json.RawMessage
}

func (e LedgerEntry) MarshalJSON() ([]byte, error) {
	if e.raw != nil {
		return e.raw, nil
	}
	return json.Marshal(struct {
		DocType Kind        `json:"docType"`
		Number  int         `json:"number"`
		Amount  json.Number `json:"amount"`
		Date    string      `json:"date"`
	}{e.DocType, e.Number, json.Number(e.Amount.String()), e.Date})
}

func (e *LedgerEntry) UnmarshalJSON(data []byte) error {
	fields := decodeLoose(data)
	entry := LedgerEntry{raw: keepRaw(data)}
	if s, ok := fields["docType"].(string); ok {
		entry.DocType = Kind(s)
	}
	entry.Number, _ = toNumber(fields["number"])
	entry.Amount, _ = toAmount(fields["amount"])
	entry.Date, _ = toDate(fields["date"])
	*e = entry
	return nil
}

func (LedgerEntry) JSONSchema() *jsonschema.Schema {
	kinds := make([]any, len(Kinds))
	for i, k := range Kinds {
		kinds[i] = string(k)
	}
	props := jsonschema.NewProperties()
	props.Set("docType", &jsonschema.Schema{Type: "string", Enum: kinds})
	props.Set("number", &jsonschema.Schema{Type: "integer", Minimum: json.Number("1")})
	props.Set("amount", &jsonschema.Schema{Type: "number"})
	props.Set("date", &jsonschema.Schema{Type: "string"})
	return &jsonschema.Schema{
		Type:       "object",
		Properties: props,
		Required:   []string{"docType", "number", "amount", "date"},
	}
}

// decodeLoose decodes a stored element keeping numbers as json.Number. It
// returns nil when the element is not a JSON object.
func decodeLoose(data []byte) map[string]any {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	fields, _ := v.(map[string]any)
	return fields
}

// keepRaw copies data, which encoding/json does not let us retain.
func keepRaw(data []byte) json.RawMessage {
	return append(json.RawMessage(nil), bytes.TrimSpace(data)...)
}

func toNumber(v any) (int, error) {
	var n float64
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case float64:
		n = x
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: number %q is not numeric", ErrInvalidDocument, x)
		}
		n = f
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: number %q is not numeric", ErrInvalidDocument, x)
		}
		n = f
	default:
		return 0, fmt.Errorf("%w: number must be an integer, got %T", ErrInvalidDocument, v)
	}
	if n < 0 || n != math.Trunc(n) || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: number must be a positive integer, got %v", ErrInvalidDocument, v)
	}
	return int(n), nil
}

func toDate(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(x), nil
	case time.Time:
		return x.UTC().Format(ISOTimestamp), nil
	default:
		return "", fmt.Errorf("%w: date must be a string, got %T", ErrInvalidDocument, v)
	}
}

func toAmount(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return x, nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case float64:
		return decimal.NewFromFloat(x), nil
	case json.Number:
		d, err := decimal.NewFromString(string(x))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: amount %q is not numeric", ErrInvalidDocument, x)
		}
		return d, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: amount %q is not numeric", ErrInvalidDocument, x)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: amount must be numeric, got %T", ErrInvalidDocument, v)
	}
}
