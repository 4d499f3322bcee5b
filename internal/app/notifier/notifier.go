// Package notifier запускает воркер, отправляющий письма по событиям подписки.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/weather-dashboard/internal/config"
	"github.com/magabrotheeeer/weather-dashboard/internal/lib/sl"
	"github.com/magabrotheeeer/weather-dashboard/internal/lib/smtp"
	"github.com/magabrotheeeer/weather-dashboard/internal/rabbitmq"
	notifierservice "github.com/magabrotheeeer/weather-dashboard/internal/services/notifier"
)

// App читает очереди событий подписки и рассылает письма.
type App struct {
	conn            *amqp.Connection
	ch              *amqp.Channel
	notifierService *notifierservice.NotifierService
	logger          *slog.Logger
}

// New подключается к RabbitMQ и объявляет очереди.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg.RabbitMQ.URL == "" {
		return nil, errors.New("rabbitmq url is required for notifier")
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetSubscriptionQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	return &App{
		conn:            conn,
		ch:              ch,
		notifierService: notifierservice.NewNotifierService(transport, cfg.AppURL, logger),
		logger:          logger,
	}, nil
}

// Run слушает все очереди подписки до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, q := range rabbitmq.GetSubscriptionQueues() {
		g.Go(func() error {
			return rabbitmq.ConsumeMessages(gctx, a.ch, q.QueueName, a.notifierService.HandleEvent, a.logger)
		})
	}
	err := g.Wait()

	a.logger.Info("notifier shutting down gracefully")
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return err
}
