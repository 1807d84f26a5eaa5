package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"bet-books/internal/app"
)

var version = "1.0.0"

// NewRootCommand builds the bet command tree over svc.
func NewRootCommand(svc app.ApplicationService) *cobra.Command {
	root := &cobra.Command{
		Use:   "bet",
		Short: "BET books - invoices, receipts, purchase invoices, vendor payments and journal entries",
		Long: `bet records bookkeeping documents, keeps the ledger and the documents
index in step with them, and exports or imports the whole state as a
single JSON backup.

Storage is selected with BET_STORAGE (file, memory or postgres).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newAddCommand(svc),
		newListCommand(svc),
		newShowCommand(svc),
		newLedgerCommand(svc),
		newCountersCommand(svc),
		newExportCommand(svc),
		newImportCommand(svc),
		newQueryCommand(svc),
		newSchemaCommand(svc),
		newVerifyCommand(svc),
	)
	return root
}

// Run executes a one-shot CLI command. args excludes the program name.
func Run(ctx context.Context, svc app.ApplicationService, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	root := NewRootCommand(svc)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRule(w io.Writer, ch string) {
	fmt.Fprintln(w, strings.Repeat(ch, 62))
}
