// Command docrag answers questions from crawled documentation.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/docrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/docrag/internal/app"
	"github.com/custodia-labs/docrag/internal/logger"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	app.LoadEnv()

	home := os.Getenv(app.EnvHome)
	settingsService, err := app.NewSettingsService(home, false)
	if err != nil {
		logger.Warn("settings will not be saved: %v", err)
		settingsService, _ = app.NewSettingsService("", true) //nolint:errcheck // in-memory store cannot fail
	}

	cli.SetVersion(version)
	cli.SetSettingsService(settingsService)
	cli.SetBootstrap(func(ctx context.Context) (*cli.Services, error) {
		settings, err := settingsService.Get()
		if err != nil {
			return nil, fmt.Errorf("loading settings: %w", err)
		}
		app.ApplyEnv(settings, os.Getenv)

		promptDir := ""
		if home != "" {
			promptDir = filepath.Join(home, "prompts")
		}
		a, err := app.New(ctx, *settings, promptDir)
		if err != nil {
			return nil, err
		}
		return &cli.Services{
			Answer:    a.Answer,
			Pages:     a.Pages,
			Ingest:    a.Ingest,
			History:   a.History,
			Open:      app.OpenSource,
			Scheduler: a.Scheduler,
			Close:     a.Close,
		}, nil
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = cli.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
