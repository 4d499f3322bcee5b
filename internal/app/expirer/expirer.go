// Package expirer запускает фоновое снятие истёкшего ручного премиума.
package expirer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/weather-dashboard/internal/config"
	"github.com/magabrotheeeer/weather-dashboard/internal/lib/sl"
	"github.com/magabrotheeeer/weather-dashboard/internal/rabbitmq"
	expiryservice "github.com/magabrotheeeer/weather-dashboard/internal/services/expiry"
	"github.com/magabrotheeeer/weather-dashboard/internal/storage/repository"
)

// App представляет приложение планировщика.
type App struct {
	expiryService *expiryservice.ExpiryService
	interval      time.Duration
	db            *repository.Storage
	conn          *amqp.Connection
	ch            *amqp.Channel
	logger        *slog.Logger
}

func waitForDB(ctx context.Context, dsn string) (*repository.Storage, error) {
	var err error
	for range 10 {
		var db *repository.Storage
		db, err = repository.New(ctx, dsn)
		if err == nil {
			return db, nil
		}
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("database not ready after retries: %w", err)
}

// New создает новый экземпляр приложения планировщика.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := waitForDB(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}

	app := &App{
		interval: cfg.Expiry.Interval,
		db:       db,
		logger:   logger,
	}

	var notifier expiryservice.Notifier = rabbitmq.NopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
		if err != nil {
			app.closeResources()
			return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
		}
		app.conn = conn

		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetSubscriptionQueues())
		if err != nil {
			app.closeResources()
			return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
		}
		app.ch = ch
		notifier = rabbitmq.NewPublisher(ch)
	} else {
		logger.Warn("rabbitmq url is empty, expiry events are disabled")
	}

	app.expiryService = expiryservice.NewExpiryService(db, notifier, logger)
	return app, nil
}

func (a *App) closeResources() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}

// Run запускает планировщик и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("expirer started", slog.Duration("interval", a.interval))
	a.expiryService.Run(ctx, a.interval)

	a.logger.Info("shutting down expirer")
	a.closeResources()
	return nil
}
