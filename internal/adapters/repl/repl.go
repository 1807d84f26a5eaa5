package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"bet-books/internal/adapters/cli"
	"bet-books/internal/app"
)

var errExit = errors.New("exit")

// Run starts the interactive loop. Slash commands run the same commands as
// the one-shot CLI ("/list --where ..."), and /new walks through a document
// form. It returns when the reader is exhausted or on /exit.
func Run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader, out io.Writer) {
	fmt.Fprintln(out, "BET books")
	fmt.Fprintln(out, "Type /new <kind> to record a document, or /help for commands.")
	fmt.Fprintln(out, strings.Repeat("-", 70))

	for {
		fmt.Fprint(out, "\n> ")
		input, readErr := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input != "" {
			if err := dispatch(ctx, svc, reader, out, input); err != nil {
				if errors.Is(err, errExit) {
					fmt.Fprintln(out, "Goodbye!")
					return
				}
				fmt.Fprintf(out, "Error: %v\n", err)
			}
		}
		if readErr != nil {
			fmt.Fprintln(out)
			return
		}
	}
}

func dispatch(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader, out io.Writer, input string) error {
	if !strings.HasPrefix(input, "/") {
		fmt.Fprintln(out, "Commands start with a slash. Type /help for the list.")
		return nil
	}

	args, err := splitArgs(strings.TrimPrefix(input, "/"))
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}

	switch strings.ToLower(args[0]) {
	case "exit", "quit", "e", "q":
		return errExit
	case "help", "h", "?":
		printHelp(out)
		return nil
	case "new", "n":
		if len(args) < 2 {
			return errors.New("usage: /new <kind>")
		}
		return newDocument(ctx, svc, reader, out, args[1])
	}
	return cli.Run(ctx, svc, args, reader, out, out)
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  /new <kind>              record a document step by step")
	fmt.Fprintln(out, "  /add <kind> [flags]      record a document in one line")
	fmt.Fprintln(out, "  /list [--where expr]     documents index")
	fmt.Fprintln(out, "  /show <collection>       one collection as JSON")
	fmt.Fprintln(out, "  /ledger [--kind k]       ledger and total")
	fmt.Fprintln(out, "  /counters                last issued numbers")
	fmt.Fprintln(out, "  /export, /import <file>  backup and restore")
	fmt.Fprintln(out, "  /query <jsonpath>        query the backup form of the books")
	fmt.Fprintln(out, "  /verify                  check storage")
	fmt.Fprintln(out, "  /exit                    leave")
	fmt.Fprintln(out, "Kinds: invoice, receipt, purchase-invoice, vendor-payment, journal-entry")
}

// splitArgs splits a command line on whitespace, honouring single and double
// quotes and backslash escapes outside single quotes.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inArg   bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inArg = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}
	if quote != 0 || escaped {
		return nil, errors.New("unterminated quote or escape")
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}
