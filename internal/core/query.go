package core

import (
	"encoding/json"
	"fmt"

	"github.com/PaesslerAG/jsonpath"
	"github.com/expr-lang/expr"
	"github.com/shopspring/decimal"
)

// Search returns the documents index entries matching expression, an
// expr-lang boolean expression over the flattened entry bound as doc, for
// example
//
//	doc.type == "invoice" && doc.amount >= 100 && doc.customer == "ACME"
//
// Entry fields are also bound at the top level when their names do not
// shadow an expr builtin (type and date do). Fields an entry does not carry
// evaluate to nil. An empty expression matches every entry.
func (s *StateStore) Search(expression string) ([]IndexEntry, error) {
	entries := s.Documents()
	if expression == "" {
		return entries, nil
	}

	program, err := expr.Compile(expression, expr.Env(map[string]any{}), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("invalid search expression: %w", err)
	}

	var out []IndexEntry
	for _, e := range entries {
		env := exprValue(e.Flatten()).(map[string]any)
		env["doc"] = exprValue(e.Flatten())
		result, err := expr.Run(program, env)
		if err != nil {
			return nil, fmt.Errorf("search failed on %s %d: %w", e.Type, e.Document.Number, err)
		}
		match, ok := result.(bool)
		if !ok {
			return nil, fmt.Errorf("search expression must yield a boolean, got %T", result)
		}
		if match {
			out = append(out, e)
		}
	}
	return out, nil
}

// exprValue converts decoded JSON into values expr can compare: json.Number
// becomes float64, and maps and slices are converted recursively.
func exprValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return f
		}
		return string(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = exprValue(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = exprValue(val)
		}
		return out
	default:
		return v
	}
}

// Query evaluates a JSONPath expression against the backup form of the
// store, e.g. "$.ledger[*].amount" or "$.documents[?(@.amount > 100)].number".
func (s *StateStore) Query(path string) (any, error) {
	data, err := json.Marshal(NewBackup(s))
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	result, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, fmt.Errorf("query %q failed: %w", path, err)
	}
	return result, nil
}

// LedgerTotal sums ledger amounts, for one kind or, with an empty kind, for all.
func (s *StateStore) LedgerTotal(kind Kind) decimal.Decimal {
	total := decimal.Zero
	for _, e := range s.ledger {
		if kind == "" || e.DocType == kind {
			total = total.Add(e.Amount)
		}
	}
	return total
}
