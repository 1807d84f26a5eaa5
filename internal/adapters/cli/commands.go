package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"bet-books/internal/app"
	"bet-books/internal/core"
	"bet-books/internal/logger"
)

func newAddCommand(svc app.ApplicationService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <kind>",
		Short: "Record a new document",
		Long: `Record a new document of the given kind: invoice, receipt,
purchase-invoice, vendor-payment or journal-entry.

The number is assigned from the kind's counter unless --number is given,
and the date defaults to now.`,
		Example: `  bet add invoice --amount 500 --field customer=ACME
  bet add receipt --json '{"amount": 450.25, "invoice": 134}'
  bet add journal-entry --date 2024-01-31 --field 'lines=[{"account":"4000","credit":100}]'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := documentFields(cmd)
			if err != nil {
				return err
			}
			res, err := svc.AddDocument(cmd.Context(), app.AddDocumentRequest{Kind: args[0], Fields: fields})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s #%d recorded (%s, %s)\n",
				res.Kind.Label(), res.Document.Number, res.Document.Date, res.Document.Amount.String())
			return nil
		},
	}
	cmd.Flags().String("json", "", "Document as a JSON object")
	cmd.Flags().StringArrayP("field", "f", nil, "Extra field as key=value; JSON values are decoded (repeatable)")
	cmd.Flags().Int("number", 0, "Document number (default: next from the counter)")
	cmd.Flags().String("date", "", "Document date (default: now)")
	cmd.Flags().String("amount", "", "Document amount")
	return cmd
}

// documentFields merges --json, then --field, then the dedicated flags.
func documentFields(cmd *cobra.Command) (map[string]any, error) {
	fields := map[string]any{}
	if raw, _ := cmd.Flags().GetString("json"); raw != "" {
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&fields); err != nil {
			return nil, fmt.Errorf("invalid --json object: %w", err)
		}
		if fields == nil {
			fields = map[string]any{}
		}
	}

	pairs, _ := cmd.Flags().GetStringArray("field")
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --field %q, expected key=value", pair)
		}
		fields[key] = fieldValue(value)
	}

	if cmd.Flags().Changed("number") {
		n, _ := cmd.Flags().GetInt("number")
		fields["number"] = n
	}
	if cmd.Flags().Changed("date") {
		fields["date"], _ = cmd.Flags().GetString("date")
	}
	if cmd.Flags().Changed("amount") {
		fields["amount"], _ = cmd.Flags().GetString("amount")
	}
	return fields, nil
}

// fieldValue decodes value as JSON when it is valid JSON and keeps it as a
// string otherwise, so both qty=2 and customer=ACME work.
func fieldValue(value string) any {
	dec := json.NewDecoder(strings.NewReader(value))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return value
	}
	return v
}

func newListCommand(svc app.ApplicationService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the documents index",
		Example: `  bet list
  bet list --where 'doc.type == "invoice" && doc.amount > 100'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			where, _ := cmd.Flags().GetString("where")
			res, err := svc.ListDocuments(cmd.Context(), where)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "  %-18s %8s  %-24s %12s\n", "TYPE", "NUMBER", "DATE", "AMOUNT")
			printRule(w, "-")
			for _, e := range res.Entries {
				fmt.Fprintf(w, "  %-18s %8d  %-24s %12s\n", e.Type.Label(), e.Document.Number, e.Document.Date, e.Document.Amount.StringFixed(2))
			}
			printRule(w, "-")
			fmt.Fprintf(w, "  %d document(s)\n", len(res.Entries))
			return nil
		},
	}
	cmd.Flags().String("where", "", "Filter expression over each entry, bound as doc")
	return cmd
}

func newShowCommand(svc app.ApplicationService) *cobra.Command {
	return &cobra.Command{
		Use:   "show <collection>",
		Short: "Print a stored collection as JSON",
		Long: `Print one stored collection as JSON: a document kind or collection key
(invoices, receipts, purchaseInvoices, vendorPayments, journalEntries),
ledger or documents.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := svc.GetCollection(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res.Items)
		},
	}
}

func newLedgerCommand(svc app.ApplicationService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Print the ledger and its total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, _ := cmd.Flags().GetString("kind")
			res, err := svc.GetLedger(cmd.Context(), kind)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			title := "LEDGER"
			if res.Kind != "" {
				title += " - " + strings.ToUpper(res.Kind.Label())
			}
			fmt.Fprintln(w)
			printRule(w, "=")
			fmt.Fprintf(w, "  %-58s\n", title)
			fmt.Fprintf(w, "  Currency : %s\n", res.Currency)
			printRule(w, "=")
			fmt.Fprintf(w, "  %-18s %8s  %-12s %18s\n", "TYPE", "NUMBER", "DATE", "AMOUNT")
			printRule(w, "-")
			for _, e := range res.Entries {
				fmt.Fprintf(w, "  %-18s %8d  %-12.12s %18s\n", e.DocType.Label(), e.Number, e.Date, app.FormatAmount(e.Amount, res.Currency))
			}
			printRule(w, "-")
			fmt.Fprintf(w, "  %-40s %18s\n", "TOTAL", res.FormattedTotal)
			printRule(w, "=")
			return nil
		},
	}
	cmd.Flags().String("kind", "", "Only entries of this document kind")
	return cmd
}

func newCountersCommand(svc app.ApplicationService) *cobra.Command {
	return &cobra.Command{
		Use:   "counters",
		Short: "Print the last issued number of every kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := svc.GetCounters(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, c := range res.Counters {
				fmt.Fprintf(w, "  %-18s %-28s %8d\n", c.Label, c.Key, c.Value)
			}
			return nil
		},
	}
}

func newExportCommand(svc app.ApplicationService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a backup of the whole state",
		Long: `Write a backup of the whole state to BET_Backup_YYYYMMDD.json in --dir,
or to --out, or to standard output with --out -.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.WithComponent("export")
			res, err := svc.ExportBackup(cmd.Context())
			if err != nil {
				return err
			}

			out, _ := cmd.Flags().GetString("out")
			if out == "-" {
				return writeJSON(cmd.OutOrStdout(), res.Backup)
			}
			if out == "" {
				dir, _ := cmd.Flags().GetString("dir")
				out = filepath.Join(dir, res.FileName)
			}

			var buf bytes.Buffer
			if err := writeJSON(&buf, res.Backup); err != nil {
				return fmt.Errorf("failed to encode backup: %w", err)
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("failed to write backup: %w", err)
			}
			log.Info().Str("file", out).Int("bytes", buf.Len()).Msg("Backup exported")
			fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().String("dir", ".", "Directory for the dated backup file")
	cmd.Flags().StringP("out", "o", "", "Backup file path, or - for standard output")
	return cmd
}

func newImportCommand(svc app.ApplicationService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the whole state with a backup",
		Long: `Replace every document, the ledger, the documents index and all
counters with the contents of a backup file. Existing data is lost.
The backup is only applied when it parses completely.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, ok := cmd.InOrStdin().(*bufio.Reader)
			if !ok {
				in = bufio.NewReader(cmd.InOrStdin())
			}
			var data []byte
			var err error
			if args[0] == "-" {
				data, err = io.ReadAll(in)
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("failed to read backup: %w", err)
			}

			yes, _ := cmd.Flags().GetBool("yes")
			confirm := core.AlwaysConfirm
			if !yes {
				if args[0] == "-" {
					return errors.New("importing from standard input requires --yes")
				}
				confirm = func() bool {
					fmt.Fprint(cmd.OutOrStdout(), "This replaces ALL current data. Continue? [y/N] ")
					answer, _ := in.ReadString('\n')
					answer = strings.ToLower(strings.TrimSpace(answer))
					return answer == "y" || answer == "yes"
				}
			}

			res, err := svc.ImportBackup(cmd.Context(), data, confirm)
			if errors.Is(err, core.ErrImportCancelled) {
				fmt.Fprintln(cmd.OutOrStdout(), "Import cancelled.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d document(s) and %d ledger entries.\n", res.Documents, res.LedgerEntries)
			if !res.Persisted {
				fmt.Fprintln(cmd.ErrOrStderr(), "Warning: the imported data could not be saved and will be lost on exit.")
			}
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newQueryCommand(svc app.ApplicationService) *cobra.Command {
	return &cobra.Command{
		Use:     "query <jsonpath>",
		Short:   "Evaluate a JSONPath expression against the backup form of the state",
		Example: `  bet query '$.ledger[*].amount'
  bet query '$.documents[?(@.amount > 100)].number'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := svc.Query(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res.Result)
		},
	}
}

func newSchemaCommand(svc app.ApplicationService) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the backup file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), svc.BackupSchema())
		},
	}
}

func newVerifyCommand(svc app.ApplicationService) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check every storage key without changing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := svc.Inspect(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, k := range res.Keys {
				status := "ok"
				switch {
				case !k.Present:
					status = "missing (defaults apply)"
				case !k.Valid:
					status = "CORRUPT: " + k.Detail
				}
				fmt.Fprintf(w, "  %-28s %8d  %s\n", k.Key, k.Items, status)
			}
			if !res.Healthy {
				return errors.New("storage has corrupt keys; they load as defaults")
			}
			return nil
		},
	}
}
