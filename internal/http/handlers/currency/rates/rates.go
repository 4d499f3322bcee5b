package rates

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/weather-dashboard/internal/http/middlewarectx"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/response"
	"github.com/magabrotheeeer/weather-dashboard/internal/lib/sl"
	"github.com/magabrotheeeer/weather-dashboard/internal/models"
	"github.com/magabrotheeeer/weather-dashboard/internal/premium"
)

// Service отдаёт курсы валют.
type Service interface {
	Rates(ctx context.Context, isPremium bool) (*models.CurrencyRates, error)
}

// Handler обрабатывает запрос курсов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Курсы валют НБРБ
// @Description Основные валюты для всех, полная таблица для премиума.
// @Tags currency
// @Produce json
// @Success 200 {object} models.CurrencyRates
// @Failure 500 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /currency [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.currency.rates"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	isPremium := premium.IsPremium(middlewarectx.UserFromContext(r.Context()))
	rates, err := h.service.Rates(r.Context(), isPremium)
	if err != nil {
		log.Error("failed to fetch exchange rates", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to fetch exchange rates"))
		return
	}
	render.JSON(w, r, rates)
}
