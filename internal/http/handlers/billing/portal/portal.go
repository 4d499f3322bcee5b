package portal

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

// Service открывает портал управления оплатой.
type Service interface {
	CreatePortal(ctx context.Context, user *models.User) (string, error)
}

// Handler обрабатывает запрос портала.
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
// @Summary Портал оплаты
// @Tags billing
// @Produce json
// @Success 200 {object} map[string]string "url"
// @Failure 400 {object} response.ErrorResponse "Нет платёжного аккаунта"
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /stripe/portal [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.portal"
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

	url, err := h.service.CreatePortal(r.Context(), user)
	switch {
	case errors.Is(err, services.ErrNoBillingAccount):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("No billing account"))
		return
	case err != nil:
		log.Error("failed to create portal session", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to create portal session"))
		return
	}
	render.JSON(w, r, map[string]string{"url": url})
}
