package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"bet-books/internal/app"
	"bet-books/internal/core"
)

// newDocument runs an interactive document form. Blank answers keep the
// defaults: next number, current date, zero amount.
func newDocument(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader, out io.Writer, kindName string) error {
	kind, err := core.ParseKind(kindName)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "New %s. Type 'cancel' at any prompt to abort.\n", kind.Label())
	fields := map[string]any{}

	for {
		raw, ok := ask(reader, out, "Number (blank for next): ")
		if !ok {
			return cancelled(out)
		}
		if raw == "" {
			break
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fmt.Fprintln(out, "  Invalid number.")
			continue
		}
		fields["number"] = n
		break
	}

	raw, ok := ask(reader, out, "Date (blank for now): ")
	if !ok {
		return cancelled(out)
	}
	if raw != "" {
		fields["date"] = raw
	}

	for {
		raw, ok := ask(reader, out, "Amount: ")
		if !ok {
			return cancelled(out)
		}
		if raw == "" {
			break
		}
		amount, err := decimal.NewFromString(raw)
		if err != nil {
			fmt.Fprintln(out, "  Invalid amount.")
			continue
		}
		fields["amount"] = amount.String()
		break
	}

	fmt.Fprintln(out, "Extra fields as key=value, one per line. Type 'done' when finished.")
	for {
		raw, ok := ask(reader, out, "  Field: ")
		if !ok {
			return cancelled(out)
		}
		if raw == "" || strings.EqualFold(raw, "done") {
			break
		}
		key, value, found := strings.Cut(raw, "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			fmt.Fprintln(out, "  Invalid format. Use: key=value")
			continue
		}
		fields[key] = strings.TrimSpace(value)
	}

	res, err := svc.AddDocument(ctx, app.AddDocumentRequest{Kind: string(kind), Fields: fields})
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s #%d recorded (%s, %s)\n", res.Kind.Label(), res.Document.Number, res.Document.Date, res.Document.Amount.String())
	return nil
}

// ask prompts and reads one trimmed line. ok is false on 'cancel' or end of input.
func ask(reader *bufio.Reader, out io.Writer, prompt string) (answer string, ok bool) {
	fmt.Fprint(out, prompt)
	line, err := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if strings.EqualFold(line, "cancel") || (err != nil && line == "") {
		return "", false
	}
	return line, true
}

func cancelled(out io.Writer) error {
	fmt.Fprintln(out, "Cancelled.")
	return nil
}
