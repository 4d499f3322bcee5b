package syncsession

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
	services "github.com/magabrotheeeer/weather-dashboard/internal/services/subscription"
)

// Service сверяет сессию оплаты с пользователем.
type Service interface {
	SyncCheckoutSession(ctx context.Context, sessionID, currentUserID string) error
}

// Request - тело запроса сверки. Клиент может прислать id в любом из двух полей,
// session_id важнее.
type Request struct {
	SessionID      string `json:"session_id" validate:"max=255"`
	SessionIDCamel string `json:"sessionId" validate:"max=255"`
}

func (r Request) sessionID() string {
	if r.SessionID != "" {
		return r.SessionID
	}
	return r.SessionIDCamel
}

// Handler обрабатывает сверку сессии оплаты, когда клиент вернулся со страницы
// оплаты раньше, чем пришёл webhook.
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
// @Summary Сверка оплаты
// @Description Переводит пользователя на премиум по оплаченной сессии, не дожидаясь webhook.
// @Tags billing
// @Accept json
// @Produce json
// @Param request body Request true "Id сессии оплаты"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} response.ErrorResponse "Sync failed с причиной в reason"
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /stripe/sync-session [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.syncsession"
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
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid session_id"))
			return
		}
	}
	sessionID := req.sessionID()
	if sessionID == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("session_id required"))
		return
	}

	err := h.service.SyncCheckoutSession(r.Context(), sessionID, user.ID)
	var rerr *services.ReconcileError
	switch {
	case errors.As(err, &rerr):
		log.Warn("checkout session sync rejected", slog.String("reason", rerr.Reason))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("Sync failed").WithReason(rerr.Reason))
		return
	case err != nil:
		log.Error("failed to sync checkout session", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to sync session"))
		return
	}
	render.JSON(w, r, map[string]bool{"ok": true})
}
