package checkout

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/weather-dashboard/internal/http/middlewarectx"
	"github.com/magabrotheeeer/weather-dashboard/internal/http/response"
	"github.com/magabrotheeeer/weather-dashboard/internal/lib/sl"
	"github.com/magabrotheeeer/weather-dashboard/internal/models"
	services "github.com/magabrotheeeer/weather-dashboard/internal/services/subscription"
)

// Service создаёт сессию оплаты.
type Service interface {
	CreateCheckout(ctx context.Context, user *models.User, interval, successURL, cancelURL string) (string, error)
}

// Request — тело запроса на оплату.
type Request struct {
	Interval   string `json:"interval" example:"monthly"`
	SuccessURL string `json:"successUrl,omitempty" validate:"omitempty,max=2048"`
	CancelURL  string `json:"cancelUrl,omitempty" validate:"omitempty,max=2048"`
}

// Handler обрабатывает создание сессии оплаты.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Оплата подписки
// @Description Создаёт сессию оплаты у платёжного провайдера и возвращает URL страницы оплаты.
// @Tags billing
// @Accept json
// @Produce json
// @Param request body Request true "Период оплаты: monthly или yearly"
// @Success 200 {object} map[string]string "url"
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /stripe/checkout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.checkout"
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

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Info("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
	}

	url, err := h.service.CreateCheckout(r.Context(), user, req.Interval, req.SuccessURL, req.CancelURL)
	switch {
	case errors.Is(err, services.ErrInvalidInterval):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid interval"))
		return
	case err != nil:
		log.Error("failed to create checkout session", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to create checkout session"))
		return
	}

	log.Info("checkout session created", slog.String("user_id", user.ID), slog.String("interval", req.Interval))
	render.JSON(w, r, map[string]string{"url": url})
}
