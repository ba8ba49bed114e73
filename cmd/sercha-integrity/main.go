// Command sercha-integrity deletes documents atomically across every store
// they live in and keeps those stores consistent.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/sercha-integrity/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-integrity/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-integrity/internal/core/services"
	"github.com/custodia-labs/sercha-integrity/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	loaded, err := file.LoadEnv(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	for _, p := range loaded {
		logger.Debug("loaded environment from %s", p)
	}

	configStore, err := file.NewConfigStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	settingsService := services.NewSettingsService(configStore)

	settings, err := settingsService.Get()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}

	a, err := newApp(ctx, settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("closing stores: %v", err)
		}
	}()

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Deletion:    a.deletion,
		Integrity:   a.integrity,
		Repair:      a.repair,
		Audit:       a.audit,
		Settings:    settingsService,
		Scheduler:   a.scheduler,
		Metrics:     a.metrics,
		MetricsAddr: settings.Metrics.Addr,
		Config:      configStore,
	})

	// cobra has already printed the error.
	return cli.Execute(ctx)
}
