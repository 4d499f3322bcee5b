package remove

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/weather-dashboard/internal/http/middlewarectx"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/response"
	"github.com/magabrotheeeer/weather-dashboard/internal/lib/sl"
	"github.com/magabrotheeeer/weather-dashboard/internal/models"
)

// Service удаляет город.
type Service interface {
	Remove(ctx context.Context, user *models.User, cityName string) error
}

// Handler обрабатывает удаление города.
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
// @Summary Удалить город
// @Description Удаляет город из избранного. Повторное удаление не ошибка.
// @Tags saved-cities
// @Produce json
// @Param city query string true "Город"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /saved-cities [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cities.remove"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user := middlewarectx.UserFromContext(r.Context())
	if user == nil {
		log.Error("user not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("city required"))
		return
	}

	if err := h.service.Remove(r.Context(), user, city); err != nil {
		log.Error("failed to remove city", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to remove city"))
		return
	}
	render.JSON(w, r, map[string]bool{"success": true})
}
