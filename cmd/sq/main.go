// Package main is the entry point for the sq CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"spacequest/internal/backend/restapi"
	"spacequest/internal/cli"
	"spacequest/internal/commands"
	"spacequest/internal/config"
	"spacequest/internal/service"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The client drops the stored session on the first 401.
	factory := func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		return restapi.New(ctx, cfg,
			restapi.WithLogger(cfg.Log().Named("restapi")),
			restapi.WithUnauthorizedHandler(func() {
				cfg.Log().Debug("session rejected, removing token")
				_ = cfg.RemoveToken()
			}),
		)
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
