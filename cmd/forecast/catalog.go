package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog"

	"github.com/simaogato/wealthflow-projection/internal/app"
	"github.com/simaogato/wealthflow-projection/internal/config"
	"github.com/simaogato/wealthflow-projection/internal/logging"
)

// openApp wires the application and makes sure the catalog is populated.
// The memory store starts empty on every invocation, so it is always seeded.
func openApp(ctx context.Context, verbose, refresh bool) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	log := logging.NewWithWriter(logging.Config{Level: level, Pretty: true}, os.Stderr)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	if !refresh && cfg.StoreDriver != config.StoreMemory {
		existing, err := a.Catalog.ListInstruments(ctx, "")
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		if len(existing) > 0 {
			return a, nil
		}
	}

	if _, err := a.Seeder.Seed(ctx); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	return a, nil
}

// printMarkdown renders markdown for the terminal, falling back to the raw text
func printMarkdown(md string) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(120),
	)
	if err == nil {
		if out, err := r.Render(md); err == nil {
			fmt.Print(out)
			return
		}
	}
	fmt.Print(md)
}

func fail(format string, args ...any) {
	l := zerolog.New(os.Stderr)
	l.Error().Msgf(format, args...)
}
