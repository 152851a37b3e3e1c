package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.vtype.dev/vtype/internal/app"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	slog.Info("starting vtype", "version", version, "commit", commit, "date", date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.New().Run(ctx); err != nil {
		slog.Error("run", "error", err)
		os.Exit(1)
	}
}
