package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"os"

	"github.com/google/subcommands"

	"github.com/simaogato/wealthflow-projection/internal/adapter/dto"
	"github.com/simaogato/wealthflow-projection/internal/report"
)

type runCmd struct {
	file     string
	asJSON   bool
	currency string
	refresh  bool
	verbose  bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "run a projection from a JSON request" }
func (*runCmd) Usage() string {
	return `forecast run -f <request.json> [-json] [-currency USD] [-refresh]

  Runs one projection and prints the yearly summary.
  Use -f - to read the request from stdin.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "", "request file, or - for stdin")
	f.BoolVar(&c.asJSON, "json", false, "print the full result as JSON")
	f.StringVar(&c.currency, "currency", report.DefaultCurrency, "display currency code")
	f.BoolVar(&c.refresh, "refresh", false, "re-seed the catalog before running")
	f.BoolVar(&c.verbose, "v", false, "verbose logging")
}

func (c *runCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		fail("missing -f")
		return subcommands.ExitUsageError
	}

	body, err := c.readRequest()
	if err != nil {
		fail("read request: %v", err)
		return subcommands.ExitFailure
	}

	var in dto.SimulationRequest
	if err := json.Unmarshal(body, &in); err != nil {
		fail("parse request: %v", err)
		return subcommands.ExitUsageError
	}
	req, err := in.ToDomain()
	if err != nil {
		fail("%v", err)
		return subcommands.ExitUsageError
	}

	a, err := openApp(ctx, c.verbose, c.refresh)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	result, err := a.Projection.RunProjection(ctx, req)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}

	if c.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(dto.FromResult(result)); err != nil {
			fail("encode result: %v", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	printMarkdown(report.Markdown(result, c.currency))
	return subcommands.ExitSuccess
}

func (c *runCmd) readRequest() ([]byte, error) {
	if c.file == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(c.file)
}
