package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	app "github.com/miguelmontanez/google-sheets-dashboard-automation/internal"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/cli"
)

// Set by goreleaser ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("GSDA_DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cli.SetVersionInfo(version, commit, date)
	basePath := app.ResolveBasePath()

	application, err := app.NewApp(context.Background(), basePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing gsda: %v\n", err)
		os.Exit(1)
	}

	err = cli.Execute()
	_ = application.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
