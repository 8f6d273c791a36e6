package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	charmlog "github.com/charmbracelet/log"

	"github.com/FreerikH/popcorn/internal/config"
	"github.com/FreerikH/popcorn/internal/explorer"
	"github.com/FreerikH/popcorn/internal/infra/api"
	"github.com/FreerikH/popcorn/internal/tui"
)

const logFile = "popcorn-explorer.log"

func main() {
	cfg := config.Load()
	if cfg.Explorer.Name == "" {
		fmt.Fprintln(os.Stderr, "POPCORN_NAME is required: set it to your login name")
		os.Exit(1)
	}

	// Diagnostics go to a file so they never bleed into the rendered UI.
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	logger := slog.New(charmlog.NewWithOptions(f, charmlog.Options{
		ReportTimestamp: true,
	}))

	ctx := context.Background()

	client := api.New(cfg.Explorer.BaseURL, api.WithLogger(logger))
	if err := client.Login(ctx, cfg.Explorer.AccessCode, cfg.Explorer.Name); err != nil {
		fmt.Fprintf(os.Stderr, "login failed: %v\n", err)
		os.Exit(1)
	}

	queue := explorer.New(client, client,
		explorer.WithTarget(cfg.Explorer.Target),
		explorer.WithLogger(logger),
	)
	defer queue.Close()

	p := tea.NewProgram(tui.NewModel(ctx, queue), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error running UI: %v\n", err)
		os.Exit(1)
	}
}
