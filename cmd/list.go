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

type listCmd struct {
	category string
}

func (*listCmd) Name() string { return "list" }
func (*listCmd) Synopsis() string {
	return "list stored categories and indicators with their point counts"
}
func (*listCmd) Usage() string {
	return `fsync list [-c <category>]

  Lists the persisted catalog: categories in their stable order, and for
  each indicator its series code, units and number of stored points.
`
}

func (c *listCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.category, "c", "", "Only list indicators of this category.")
}

func (c *listCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	db, err := OpenStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	categories, err := db.Categories(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	indicators, err := db.Indicators(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	byCategory := make(map[int64][]fredsync.Indicator)
	for _, ind := range indicators {
		byCategory[ind.CategoryID] = append(byCategory[ind.CategoryID], ind)
	}

	var b strings.Builder
	for _, cat := range categories {
		if c.category != "" && cat.Name != c.category {
			continue
		}
		inds := byCategory[cat.ID]
		if len(inds) == 0 && c.category == "" {
			continue
		}
		fmt.Fprintf(&b, "# %d. %s (%s)\n\n", cat.Ordinal, cat.Name, cat.Sector)
		fmt.Fprintf(&b, "| Code | Name | Units | Points |\n|---|---|---|---|\n")
		for _, ind := range inds {
			n, err := db.PointCount(ctx, ind.ID)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return subcommands.ExitFailure
			}
			fmt.Fprintf(&b, "| `%s` | %s | %s | %d |\n", ind.Code, ind.Name, ind.Units, n)
		}
		b.WriteString("\n")
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
