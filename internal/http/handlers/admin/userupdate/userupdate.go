package userupdate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/weather-dashboard/internal/http/response"
	"github.com/magabrotheeeer/weather-dashboard/internal/lib/sl"
	"github.com/magabrotheeeer/weather-dashboard/internal/models"
	services "github.com/magabrotheeeer/weather-dashboard/internal/services/admin"
	"github.com/magabrotheeeer/weather-dashboard/internal/storage"
)

// Request — частичное изменение пользователя.
type Request struct {
	SubscriptionStatus *string `json:"subscriptionStatus" validate:"omitempty,oneof=FREE PREMIUM"`
	IsBlocked          *bool   `json:"isBlocked"`
	Role               *string `json:"role" validate:"omitempty,oneof=USER ADMIN"`
}

func (req Request) toUpdate() models.AdminUpdate {
	var upd models.AdminUpdate
	if req.SubscriptionStatus != nil {
		st := models.SubscriptionStatus(*req.SubscriptionStatus)
		upd.SubscriptionStatus = &st
	}
	if req.Role != nil {
		role := models.Role(*req.Role)
		upd.Role = &role
	}
	upd.IsBlocked = req.IsBlocked
	return upd
}

// Service изменяет пользователя.
type Service interface {
	UpdateUser(ctx context.Context, id string, upd models.AdminUpdate) (*models.User, error)
}

// Handler обрабатывает PATCH /admin/users/{id}.
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
// @Summary Изменение пользователя
// @Description Меняет тариф, блокировку или роль. Выдача PREMIUM открывает окно на 30 дней, FREE его очищает.
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "ID пользователя"
// @Param request body Request true "Изменения"
// @Success 200 {object} models.User
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /admin/users/{id} [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.userupdate"
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

	var req Request
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var validateErr validator.ValidationErrors
		if errors.As(err, &validateErr) {
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request"))
		return
	}

	user, err := h.service.UpdateUser(r.Context(), id, req.toUpdate())
	switch {
	case errors.Is(err, services.ErrEmptyUpdate):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("Nothing to update"))
		return
	case errors.Is(err, storage.ErrUserNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("User not found"))
		return
	case err != nil:
		log.Error("failed to update user", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to update user"))
		return
	}
	render.JSON(w, r, user)
}
