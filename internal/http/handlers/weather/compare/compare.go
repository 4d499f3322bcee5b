package compare

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
	services "github.com/magabrotheeeer/weather-dashboard/internal/services/weather"
)

// Service сравнивает погоду в нескольких городах.
type Service interface {
	Compare(ctx context.Context, user *models.User, cities []string) ([]models.CityComparison, error)
}

// Handler обрабатывает запрос сравнения городов.
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
// @Summary Сравнение погоды в городах
// @Description Текущая погода и прогноз на завтра для 2-3 городов. Только премиум.
// @Tags weather
// @Produce json
// @Param city query []string true "Города" collectionFormat(multi)
// @Success 200 {object} map[string][]models.CityComparison
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse "PREMIUM_REQUIRED"
// @Failure 500 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /weather/compare [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.weather.compare"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	items, err := h.service.Compare(r.Context(), middlewarectx.UserFromContext(r.Context()), r.URL.Query()["city"])
	if errors.Is(err, services.ErrCompareCount) {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("Provide 2 to 3 cities"))
		return
	}
	if err != nil {
		log.Error("failed to compare cities", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to compare cities"))
		return
	}

	render.JSON(w, r, map[string]any{"cities": items})
}
