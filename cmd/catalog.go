package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/fredsync"
	"github.com/google/subcommands"
)

type catalogCmd struct {
	dryRun bool
}

func (*catalogCmd) Name() string { return "catalog" }
func (*catalogCmd) Synopsis() string {
	return "parse the catalog definition and reconcile it into the store"
}
func (*catalogCmd) Usage() string {
	return `fsync catalog [-n]

  Parses the catalog definition file and reconciles categories and
  indicators into the store, without fetching any data. With -n the
  parsed catalog is only printed, nothing is written.
`
}

func (c *catalogCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.dryRun, "n", false, "Parse and print only; do not write to the store.")
}

func (c *catalogCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	rows, err := LoadCatalogRows()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	parsed, err := fredsync.ParseRows(rows)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if c.dryRun {
		printMarkdown(renderParsed(parsed))
		return subcommands.ExitSuccess
	}

	db, err := OpenStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	indicators, err := fredsync.NewReconciler(db).Reconcile(ctx, parsed)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	fmt.Printf("reconciled %d categories, %d indicators\n", len(parsed), len(indicators))
	return subcommands.ExitSuccess
}

// renderParsed formats the parsed catalog as markdown.
func renderParsed(parsed []fredsync.ParsedCategory) string {
	var b strings.Builder
	for _, cat := range parsed {
		fmt.Fprintf(&b, "# %s / %s\n\n", cat.Sector, cat.Name)
		for _, ind := range cat.Indicators {
			fmt.Fprintf(&b, "- %s (`%s`)\n", ind.Name, ind.Code)
		}
		b.WriteString("\n")
	}
	return b.String()
}
