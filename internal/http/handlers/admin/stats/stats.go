package stats

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/weather-dashboard/internal/http/response"
	"github.com/magabrotheeeer/weather-dashboard/internal/lib/sl"
	"github.com/magabrotheeeer/weather-dashboard/internal/models"
)

// Service считает агрегаты по пользователям.
type Service interface {
	Stats(ctx context.Context) (models.UserStats, error)
}

// Handler отдаёт статистику.
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
// @Summary Статистика пользователей
// @Tags admin
// @Produce json
// @Success 200 {object} models.UserStats
// @Failure 500 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /admin/stats [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.stats"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	st, err := h.service.Stats(r.Context())
	if err != nil {
		log.Error("failed to compute stats", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to fetch stats"))
		return
	}
	render.JSON(w, r, st)
}
