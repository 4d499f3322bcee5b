package current

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

// Service отдаёт текущую погоду.
type Service interface {
	Current(ctx context.Context, user *models.User, q weatherapi.Query) (*models.Weather, error)
}

// Handler обрабатывает запрос текущей погоды.
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
// @Summary Текущая погода
// @Description Текущая погода по названию города или координатам. УФ-индекс только для премиума.
// @Tags weather
// @Produce json
// @Param city query string false "Город"
// @Param lat query number false "Широта"
// @Param lon query number false "Долгота"
// @Success 200 {object} models.Weather
// @Failure 400 {object} response.ErrorResponse "Не задан город или координаты"
// @Failure 404 {object} response.ErrorResponse "Город не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка провайдера"
// @Security BearerAuth
// @Router /weather [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.weather.current"
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

	weather, err := h.service.Current(r.Context(), middlewarectx.UserFromContext(r.Context()), q)
	if errors.Is(err, weatherapi.ErrLocationNotFound) {
		log.Info("location not found", slog.String("q", q.String()))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("City not found"))
		return
	}
	if err != nil {
		log.Error("failed to fetch weather", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to fetch weather"))
		return
	}

	render.JSON(w, r, weather)
}
