// Package weatherdash собирает HTTP API дашборда погоды и курсов валют.
package weatherdash

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/weather-dashboard/internal/http/handlers/admin/stats"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/handlers/admin/userdelete"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/handlers/admin/userlist"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/handlers/admin/userupdate"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/handlers/auth/profile"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/handlers/billing/cancel"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/handlers/billing/checkout"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/handlers/billing/portal"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/handlers/billing/syncsession"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/handlers/billing/webhook"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/handlers/cities/list"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/handlers/cities/remove"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/handlers/cities/save"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/handlers/currency/convert"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/handlers/currency/export"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/handlers/currency/rates"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/handlers/health"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/handlers/weather/compare"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/handlers/weather/current"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/handlers/weather/forecast"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/middlewarectx"
	"github.com/magabrotheeeer/weather-dashboard/internal/metrics"
	adminservice "github.com/magabrotheeeer/weather-dashboard/internal/services/admin"
	authservice "github.com/magabrotheeeer/weather-dashboard/internal/services/auth"
	citiesservice "github.com/magabrotheeeer/weather-dashboard/internal/services/cities"
	currencyservice "github.com/magabrotheeeer/weather-dashboard/internal/services/currency"
	subservice "github.com/magabrotheeeer/weather-dashboard/internal/services/subscription"
	weatherservice "github.com/magabrotheeeer/weather-dashboard/internal/services/weather"
)

// Services - сервисы, которые обслуживают маршруты API.
type Services struct {
	Auth     *authservice.AuthService
	Weather  *weatherservice.WeatherService
	Currency *currencyservice.CurrencyService
	Cities   *citiesservice.CitiesService
	Billing  *subservice.Service
	Admin    *adminservice.AdminService
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(
	r chi.Router,
	logger *slog.Logger,
	parser middlewarectx.TokenParser,
	svc Services,
	limiter *rate.Limiter,
	deps map[string]health.Pinger,
) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		metrics.Middleware,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, limiter))

		// Webhook платёжного провайдера (без аутентификации, проверяется подпись)
		r.Post("/stripe/webhook", webhook.New(logger, svc.Billing).ServeHTTP)

		// Открытые данные: анонимные запросы получают бесплатный тариф
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.OptionalAuthenticate(parser, logger))
			r.Use(middlewarectx.ResolveOptionalUser(svc.Auth, logger))
			r.Get("/weather", current.New(logger, svc.Weather).ServeHTTP)
			r.Get("/weather/forecast", forecast.New(logger, svc.Weather).ServeHTTP)
			r.Get("/currency", rates.New(logger, svc.Currency).ServeHTTP)
			r.Get("/currency/convert", convert.New(logger, svc.Currency).ServeHTTP)
		})

		// Профиль и регистрация работают с личностью без автосоздания пользователя
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.Authenticate(parser, logger))
			r.Get("/auth/profile", profile.New(logger, svc.Auth).ServeHTTP)
			r.Post("/auth/register", register.New(logger, svc.Auth).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.Authenticate(parser, logger))
			r.Use(middlewarectx.ResolveUser(svc.Auth, logger))

			r.Get("/saved-cities", list.New(logger, svc.Cities).ServeHTTP)
			r.Post("/saved-cities", save.New(logger, svc.Cities).ServeHTTP)
			r.Delete("/saved-cities", remove.New(logger, svc.Cities).ServeHTTP)

			r.Post("/stripe/checkout", checkout.New(logger, svc.Billing).ServeHTTP)
			r.Post("/stripe/sync-session", syncsession.New(logger, svc.Billing).ServeHTTP)
			r.Post("/stripe/portal", portal.New(logger, svc.Billing).ServeHTTP)
			r.Post("/stripe/cancel", cancel.New(logger, svc.Billing).ServeHTTP)

			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequirePremium(logger))
				r.Get("/weather/compare", compare.New(logger, svc.Weather).ServeHTTP)
				r.Get("/currency/export", export.New(logger, svc.Currency).ServeHTTP)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middlewarectx.RequireAdmin(logger))
				r.Get("/users", userlist.New(logger, svc.Admin).ServeHTTP)
				r.Patch("/users/{id}", userupdate.New(logger, svc.Admin).ServeHTTP)
				r.Delete("/users/{id}", userdelete.New(logger, svc.Admin).ServeHTTP)
				r.Get("/stats", stats.New(logger, svc.Admin).ServeHTTP)
			})
		})
	})

	r.Get("/health", health.New(logger, deps).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
