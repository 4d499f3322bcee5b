package save

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
	"github.com/magabrotheeeer/weather-dashboard/internal/premium"
	services "github.com/magabrotheeeer/weather-dashboard/internal/services/cities"
)

// Service сохраняет город.
type Service interface {
	Save(ctx context.Context, user *models.User, cityName string, country *string) (*models.SavedCity, error)
}

// Request - тело запроса сохранения города. city - старое имя поля cityName.
type Request struct {
	CityName string  `json:"cityName" validate:"max=100"`
	City     string  `json:"city" validate:"max=100"`
	Country  *string `json:"country" validate:"omitempty,max=100"`
}

func (r Request) cityName() string {
	if r.CityName != "" {
		return r.CityName
	}
	return r.City
}

// Handler обрабатывает сохранение города.
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
// @Summary Сохранить город
// @Description Добавляет город в избранное или обновляет страну. На бесплатном тарифе не больше 3 городов.
// @Tags saved-cities
// @Accept json
// @Produce json
// @Param request body Request true "Город"
// @Success 200 {object} models.SavedCity
// @Failure 400 {object} response.ErrorResponse "cityName required"
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse "LIMIT"
// @Failure 500 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /saved-cities [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cities.save"
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

	city, err := h.service.Save(r.Context(), user, req.cityName(), req.Country)
	switch {
	case errors.Is(err, services.ErrCityNameRequired):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("cityName required"))
		return
	case errors.Is(err, services.ErrLimitReached):
		log.Info("saved cities limit reached", slog.String("user_id", user.ID))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.ErrorWithCode("Limit reached", response.CodeLimit).WithLimit(premium.FreeSavedCitiesLimit))
		return
	case err != nil:
		log.Error("failed to save city", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to save city"))
		return
	}
	render.JSON(w, r, city)
}
