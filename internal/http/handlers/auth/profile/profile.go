package profile

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
	"github.com/magabrotheeeer/weather-dashboard/internal/storage"
)

// Service возвращает профиль без автоматического создания пользователя.
type Service interface {
	Profile(ctx context.Context, identity models.Identity) (*models.User, error)
}

// Handler отдаёт профиль текущего пользователя.
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
// @Summary Профиль пользователя
// @Description Возвращает профиль. Если пользователь ещё не зарегистрирован, отвечает 404 с кодом NEEDS_REGISTRATION.
// @Tags auth
// @Produce json
// @Success 200 {object} models.Profile
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse "Пользователь заблокирован"
// @Failure 404 {object} response.ErrorResponse "Требуется регистрация"
// @Failure 500 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /auth/profile [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.profile"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	identity, ok := middlewarectx.IdentityFromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	user, err := h.service.Profile(r.Context(), *identity)
	switch {
	case errors.Is(err, storage.ErrUserNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.ErrorWithCode("User not found", response.CodeNeedsRegistration))
		return
	case err != nil:
		log.Error("failed to load profile", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to load profile"))
		return
	}

	if user.IsBlocked {
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("user is blocked"))
		return
	}
	render.JSON(w, r, user.ToProfile())
}
