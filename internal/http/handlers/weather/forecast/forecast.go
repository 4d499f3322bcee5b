package forecast

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/weather-dashboard/internal/http/middlewarectx"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/response"
	"github.com/magabrotheeeer/weather-dashboard/internal/lib/sl"
	"github.com/magabrotheeeer/weather-dashboard/internal/models"
	"github.com/magabrotheeeer/weather-dashboard/internal/weatherapi"
)

// Service отдаёт прогноз с учётом тарифа.
type Service interface {
	Forecast(ctx context.Context, user *models.User, q weatherapi.Query) (*models.Forecast, error)
}

// Handler обрабатывает запрос прогноза.
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
// @Summary Прогноз погоды
// @Description Прогноз на 5 дней, для премиума на 7 дней с почасовыми данными, астрономией и УФ-индексом.
// @Tags weather
// @Produce json
// @Param city query string false "Город"
// @Param lat query number false "Широта"
// @Param lon query number false "Долгота"
// @Success 200 {object} models.Forecast
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /weather/forecast [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.weather.forecast"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	q, err := weatherapi.QueryFromValues(r.URL.Query())
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid coordinates"))
		return
	}
	if q.Empty() {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("City or coordinates required"))
		return
	}

	forecast, err := h.service.Forecast(r.Context(), middlewarectx.UserFromContext(r.Context()), q)
	switch {
	case errors.Is(err, weatherapi.ErrLocationNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("City not found"))
		return
	case err != nil:
		log.Error("failed to fetch forecast", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to fetch forecast"))
		return
	}

	render.JSON(w, r, forecast)
}
