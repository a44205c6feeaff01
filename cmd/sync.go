package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/etnz/fredsync"
	"github.com/etnz/fredsync/date"
	"github.com/etnz/fredsync/fred"
	"github.com/google/subcommands"
)

type syncCmd struct {
	start       string
	end         string
	fullRefresh bool
	rpm         int
	workers     int
}

func (*syncCmd) Name() string { return "sync" }
func (*syncCmd) Synopsis() string {
	return "fetch missing indicator data from the FRED provider into the local store"
}
func (*syncCmd) Usage() string {
	return `fsync sync [-s <start_date>] [-e <end_date>] [-full-refresh] [-rpm <n>] [-workers <n>]

  Reconciles the catalog definition against the store, then brings every
  indicator's data up to date. By default only the date gaps missing from
  the store are requested; -full-refresh discards and refetches the whole
  range instead.

Usage Examples:
# Incremental sync since the default epoch.
$ fsync sync

# Refetch 2024 entirely for all indicators.
$ fsync sync -s 2024-01-01 -e 2024-12-31 -full-refresh
`
}

func (c *syncCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "s", "", "Fetch data starting from this date (YYYY-MM-DD). Defaults to "+fredsync.DefaultStart.String()+".")
	f.StringVar(&c.end, "e", "", "Fetch data up to this date (YYYY-MM-DD). Defaults to today.")
	f.BoolVar(&c.fullRefresh, "full-refresh", false, "Delete stored data points in range for each indicator before fetching.")
	f.IntVar(&c.rpm, "rpm", 30, "FRED API request limit per minute.")
	f.IntVar(&c.workers, "workers", 1, "Number of indicators to sync concurrently. All workers share the one request budget.")
}

func (c *syncCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "no arguments expected")
		return subcommands.ExitUsageError
	}

	apiKey := fred.APIKey()
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "FRED API key is not set. Use -fred-api-key flag or FRED_API_KEY environment variable")
		return subcommands.ExitFailure
	}

	r, err := parseRange(c.start, c.end)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}

	db, err := OpenStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer db.Close()

	pipeline := fredsync.NewPipeline(db, fred.NewClient(apiKey, c.rpm), LoadCatalogRows)
	pipeline.Workers = c.workers

	summary, err := pipeline.Run(ctx, r, c.fullRefresh)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sync run failed: %v\n", err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderSummary(r, summary))

	// A run always completes with a summary; failed indicators decide the
	// exit status here.
	if len(summary.Failed) > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// renderSummary formats a run summary as markdown.
func renderSummary(r date.Range, s fredsync.RunSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Sync %s\n\n", r)
	fmt.Fprintf(&b, "- indicators: %d (%d succeeded, %d failed)\n", s.IndicatorsTotal, s.Succeeded, len(s.Failed))
	fmt.Fprintf(&b, "- points: %d added, %d updated, %d deleted\n", s.PointsAdded, s.PointsUpdated, s.PointsDeleted)
	fmt.Fprintf(&b, "- provider requests: %d\n", s.Fetches)

	if len(s.Failed) > 0 {
		b.WriteString("\n## Failures\n\n")
		codes := make([]string, 0, len(s.Failed))
		for code := range s.Failed {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			fmt.Fprintf(&b, "- `%s`: %v\n", code, s.Failed[code])
		}
	}
	return b.String()
}
