// Command reaper deletes expired refresh tokens once and exits.
// It is meant to be run by an external scheduler.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"auth_backend/internal/app/di"
	"auth_backend/internal/platform/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	gdb, err := di.OpenDB(cfg)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	deleted, err := di.NewTokenReaper(cfg, gdb, nil).RunOnce(ctx)
	if err != nil {
		slog.Error("reaper failed", "error", err)
		os.Exit(1)
	}
	slog.Info("reaper ok", "deleted", deleted)
}
