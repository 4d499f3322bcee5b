package weatherdash

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/weather-dashboard/internal/cache"
	"github.com/magabrotheeeer/weather-dashboard/internal/config"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/handlers/health"
	"github.com/magabrotheeeer/weather-dashboard/internal/lib/jwt"
	"github.com/magabrotheeeer/weather-dashboard/internal/lib/sl"
	"github.com/magabrotheeeer/weather-dashboard/internal/migrations"
	"github.com/magabrotheeeer/weather-dashboard/internal/nbrb"
	"github.com/magabrotheeeer/weather-dashboard/internal/paymentprovider"
	"github.com/magabrotheeeer/weather-dashboard/internal/rabbitmq"
	adminservice "github.com/magabrotheeeer/weather-dashboard/internal/services/admin"
	authservice "github.com/magabrotheeeer/weather-dashboard/internal/services/auth"
	citiesservice "github.com/magabrotheeeer/weather-dashboard/internal/services/cities"
	currencyservice "github.com/magabrotheeeer/weather-dashboard/internal/services/currency"
	subservice "github.com/magabrotheeeer/weather-dashboard/internal/services/subscription"
	weatherservice "github.com/magabrotheeeer/weather-dashboard/internal/services/weather"
	"github.com/magabrotheeeer/weather-dashboard/internal/storage/repository"
	"github.com/magabrotheeeer/weather-dashboard/internal/weatherapi"
)

const shutdownTimeout = 15 * time.Second

// App - HTTP-сервер дашборда со всеми зависимостями.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New подключает хранилища, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.weatherdash.New"

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.Redis)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app := &App{
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}

	notifier, err := app.connectNotifier(cfg.RabbitMQ)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	authService := authservice.NewAuthService(db, cfg.Auth.AdminEmails, logger)
	svc := Services{
		Auth:     authService,
		Weather:  weatherservice.NewWeatherService(weatherapi.New(cfg.WeatherAPI), cacheRedis, cfg.WeatherAPI.CacheTTL, logger),
		Currency: currencyservice.NewCurrencyService(nbrb.New(cfg.NBRB), cacheRedis, cfg.NBRB.CacheTTL, logger),
		Cities:   citiesservice.NewCitiesService(db, logger),
		Billing: subservice.NewService(
			db,
			paymentprovider.NewClient(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret),
			notifier,
			subservice.Config{
				AppURL:         cfg.AppURL,
				MonthlyPriceID: cfg.Stripe.MonthlyPriceID,
				YearlyPriceID:  cfg.Stripe.YearlyPriceID,
			},
			logger,
		),
		Admin: adminservice.NewAdminService(db, notifier, logger),
	}

	router := chi.NewRouter()
	RegisterRoutes(
		router,
		logger,
		jwt.NewParser(cfg.Auth.JWTSecret),
		svc,
		rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst),
		map[string]health.Pinger{
			"postgres": db,
			"redis":    cacheRedis,
		},
	)

	app.server = &http.Server{
		Addr:         cfg.HTTPServer.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.TimeoutHTTP,
		WriteTimeout: cfg.HTTPServer.TimeoutHTTP,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}
	return app, nil
}

// connectNotifier подключает RabbitMQ. Без URL события не публикуются.
func (a *App) connectNotifier(cfg config.RabbitMQ) (subservice.Notifier, error) {
	if cfg.URL == "" {
		a.logger.Warn("rabbitmq url is empty, subscription events are disabled")
		return rabbitmq.NopPublisher{}, nil
	}

	conn, err := rabbitmq.Connect(cfg.URL, cfg.MaxRetries, cfg.RetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetSubscriptionQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	a.conn, a.ch = conn, ch
	return rabbitmq.NewPublisher(ch), nil
}

// Run запускает сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
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
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
