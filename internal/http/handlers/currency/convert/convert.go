package convert

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/weather-dashboard/internal/http/response"
	"github.com/magabrotheeeer/weather-dashboard/internal/lib/sl"
	"github.com/magabrotheeeer/weather-dashboard/internal/models"
	services "github.com/magabrotheeeer/weather-dashboard/internal/services/currency"
)

// Service конвертирует суммы.
type Service interface {
	Convert(ctx context.Context, amount float64, from, to string) (*models.Conversion, error)
}

// Request — параметры конвертации из строки запроса.
type Request struct {
	Amount string `validate:"required,numeric"`
	From   string `validate:"required,alpha,len=3"`
	To     string `validate:"required,alpha,len=3"`
}

// Handler обрабатывает запрос конвертации.
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
// @Summary Конвертация валют
// @Description Переводит сумму из одной валюты в другую через белорусский рубль по курсу НБРБ.
// @Tags currency
// @Produce json
// @Param amount query number true "Сумма"
// @Param from query string true "Исходная валюта" example(USD)
// @Param to query string true "Целевая валюта" example(BYN)
// @Success 200 {object} models.Conversion
// @Failure 400 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /currency/convert [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.currency.convert"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	query := r.URL.Query()
	req := Request{
		Amount: query.Get("amount"),
		From:   query.Get("from"),
		To:     query.Get("to"),
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			render.Status(r, http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request"))
		return
	}
	amount, err := strconv.ParseFloat(req.Amount, 64)
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid amount"))
		return
	}

	res, err := h.service.Convert(r.Context(), amount, req.From, req.To)
	switch {
	case errors.Is(err, services.ErrUnknownCurrency), errors.Is(err, services.ErrInvalidAmount):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case err != nil:
		log.Error("failed to convert", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to fetch exchange rates"))
		return
	}
	render.JSON(w, r, res)
}
