package userdelete

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/weather-dashboard/internal/http/response"
	"github.com/magabrotheeeer/weather-dashboard/internal/lib/sl"
	"github.com/magabrotheeeer/weather-dashboard/internal/storage"
)

// Service удаляет пользователя.
type Service interface {
	DeleteUser(ctx context.Context, id string) error
}

// Handler обрабатывает DELETE /admin/users/{id}.
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
// @Summary Удаление пользователя
// @Tags admin
// @Produce json
// @Param id path string true "ID пользователя"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.userdelete"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if id == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("id required"))
		return
	}

	err := h.service.DeleteUser(r.Context(), id)
	switch {
	case errors.Is(err, storage.ErrUserNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("User not found"))
		return
	case err != nil:
		log.Error("failed to delete user", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to delete user"))
		return
	}
	render.JSON(w, r, map[string]bool{"success": true})
}
