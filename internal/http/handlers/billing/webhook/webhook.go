package webhook

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/weather-dashboard/internal/http/response"
	"github.com/magabrotheeeer/weather-dashboard/internal/lib/sl"
	"github.com/magabrotheeeer/weather-dashboard/internal/paymentprovider"
)

// SignatureHeader — заголовок с подписью события.
const SignatureHeader = "Stripe-Signature"

// maxBodyBytes ограничивает размер тела события.
const maxBodyBytes = 64 << 10

// Service применяет события платёжного провайдера.
type Service interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// Handler принимает webhook платёжного провайдера.
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
// @Summary Webhook платёжного провайдера
// @Description Принимает подписанные события оплаты, продления и отмены подписки.
// @Tags billing
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Подпись события"
// @Success 200 {object} map[string]bool "received"
// @Failure 400 {object} response.ErrorResponse "Неверная подпись"
// @Failure 500 {object} response.ErrorResponse
// @Router /stripe/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.webhook"
	log := h.log.With(slog.String("op", op))

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read body"))
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if signature == "" {
		log.Warn("missing webhook signature")
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid signature"))
		return
	}

	err = h.service.HandleWebhook(r.Context(), body, signature)
	switch {
	case errors.Is(err, paymentprovider.ErrInvalidSignature):
		log.Warn("invalid webhook signature", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid signature"))
		return
	case err != nil:
		log.Error("failed to process webhook event", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Webhook handler failed"))
		return
	}
	render.JSON(w, r, map[string]bool{"received": true})
}
