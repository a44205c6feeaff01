// Package cmd implements the CLI application to sync and inspect the
// indicator store.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/fredsync"
	"github.com/etnz/fredsync/date"
	"github.com/etnz/fredsync/store"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&syncCmd{}, "data")
	c.Register(&catalogCmd{}, "catalog")
	c.Register(&listCmd{}, "catalog")

	c.Register(&topicCmd{}, "documentation")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var dbPath = flag.String("db", "fredsync.db", "Path to the indicator database file (SQLite)")
var catalogFile = flag.String("catalog", "catalog.csv", "Path to the catalog definition file (CSV: sector, category, name, code)")

// OpenStore is the central function to open the indicator database.
func OpenStore() (*store.Store, error) {
	return store.Open(*dbPath)
}

// LoadCatalogRows reads the catalog definition rows from the app catalog file.
func LoadCatalogRows() ([]fredsync.Row, error) {
	f, err := os.Open(*catalogFile)
	if err != nil {
		return nil, fmt.Errorf("cannot open catalog file %q: %w", *catalogFile, err)
	}
	defer f.Close()
	return fredsync.DecodeRows(f)
}

// parseRange resolves the -s/-e flag pair into a date range, defaulting to
// the historical epoch and today.
func parseRange(start, end string) (date.Range, error) {
	from := fredsync.DefaultStart
	to := date.Today()
	var err error
	if start != "" {
		if from, err = date.Parse(start); err != nil {
			return date.Range{}, fmt.Errorf("invalid start date: %w", err)
		}
	}
	if end != "" {
		if to, err = date.Parse(end); err != nil {
			return date.Range{}, fmt.Errorf("invalid end date: %w", err)
		}
	}
	return date.NewRange(from, to), nil
}

// printMarkdown renders markdown for the terminal, falling back to the raw
// text when rendering is not possible.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
