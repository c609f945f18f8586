package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/simaogato/wealthflow-projection/internal/adapter/dto"
	"github.com/simaogato/wealthflow-projection/internal/report"
)

type instrumentsCmd struct {
	query   string
	asJSON  bool
	refresh bool
	verbose bool
}

func (*instrumentsCmd) Name() string     { return "instruments" }
func (*instrumentsCmd) Synopsis() string { return "list the instrument catalog" }
func (*instrumentsCmd) Usage() string {
	return `forecast instruments [-q <text>] [-json] [-refresh]

  Lists catalog instruments whose identifier, symbol or name contains the query.
`
}

func (c *instrumentsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.query, "q", "", "case-insensitive filter")
	f.BoolVar(&c.asJSON, "json", false, "print JSON")
	f.BoolVar(&c.refresh, "refresh", false, "re-seed the catalog before listing")
	f.BoolVar(&c.verbose, "v", false, "verbose logging")
}

func (c *instrumentsCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx, c.verbose, c.refresh)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	instruments, err := a.Catalog.ListInstruments(ctx, c.query)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	rows := dto.FromInstruments(instruments)

	if c.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rows); err != nil {
			fail("encode instruments: %v", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	printMarkdown(instrumentsMarkdown(rows))
	return subcommands.ExitSuccess
}

func instrumentsMarkdown(rows []dto.InstrumentDTO) string {
	var b strings.Builder
	b.WriteString("| Identifier | Name | Price | Growth | Yield | Policy | History |\n")
	b.WriteString("|---|---|---:|---:|---:|---|---:|\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %s | %s | %.2f%% | %.2f%% | %s | %dm |\n",
			r.Identifier,
			strings.ReplaceAll(r.Name, "|", `\|`),
			report.Format(r.CurrentPrice, r.Currency),
			r.AnnualGrowthRate*100,
			r.DividendYield*100,
			r.DividendPolicy,
			r.HistoryMonths,
		)
	}
	return b.String()
}
