package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/weather-dashboard/internal/app/notifier"
	"github.com/magabrotheeeer/weather-dashboard/internal/config"
	"github.com/magabrotheeeer/weather-dashboard/internal/lib/logger"
	"github.com/magabrotheeeer/weather-dashboard/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	log := logger.Setup(cfg.Env)
	log.Info("starting notifier", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := notifier.New(cfg, log)
	if err != nil {
		log.Error("failed to initialize notifier", sl.Err(err))
		os.Exit(1)
	}
	if err := app.Run(ctx); err != nil {
		log.Error("notifier stopped with error", sl.Err(err))
		os.Exit(1)
	}
}
