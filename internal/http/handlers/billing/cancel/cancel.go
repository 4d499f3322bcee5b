package cancel

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
	services "github.com/magabrotheeeer/weather-dashboard/internal/services/subscription"
)

// Service отменяет подписку.
type Service interface {
	Cancel(ctx context.Context, user *models.User) error
}

// Handler обрабатывает отмену подписки.
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
// @Summary Отмена подписки
// @Description Отменяет подписку у провайдера и сразу переводит пользователя на бесплатный тариф.
// @Tags billing
// @Produce json
// @Success 200 {object} map[string]bool
// @Failure 400 {object} response.ErrorResponse "Нет активной подписки"
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /stripe/cancel [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.cancel"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user := middlewarectx.UserFromContext(r.Context())
	if user == nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	err := h.service.Cancel(r.Context(), user)
	switch {
	case errors.Is(err, services.ErrNoSubscription):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("No active subscription"))
		return
	case err != nil:
		log.Error("failed to cancel subscription", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to cancel subscription"))
		return
	}

	log.Info("subscription canceled", slog.String("user_id", user.ID))
	render.JSON(w, r, map[string]bool{"success": true})
}
