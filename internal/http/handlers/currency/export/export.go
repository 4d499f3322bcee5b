package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/weather-dashboard/internal/http/response"
	"github.com/magabrotheeeer/weather-dashboard/internal/lib/sl"
	services "github.com/magabrotheeeer/weather-dashboard/internal/services/currency"
)

// Service выгружает курсы в CSV.
type Service interface {
	ExportCSV(ctx context.Context, w io.Writer) error
}

// Handler отдаёт CSV-файл с курсами.
type Handler struct {
	log     *slog.Logger
	service Service
	now     func() time.Time
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
		now:     time.Now,
	}
}

// ServeHTTP godoc
// @Summary Выгрузка курсов в CSV
// @Description Полная таблица курсов НБРБ файлом CSV. Только премиум.
// @Tags currency
// @Produce text/csv
// @Success 200 {file} file
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse "PREMIUM_REQUIRED"
// @Failure 500 {object} response.ErrorResponse
// @Security BearerAuth
// @Router /currency/export [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.currency.export"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	// файл собирается целиком, чтобы при ошибке ответить 500, а не обрывом
	var buf bytes.Buffer
	if err := h.service.ExportCSV(r.Context(), &buf); err != nil {
		log.Error("failed to export rates", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Failed to export exchange rates"))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+services.ExportFilename(h.now())+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Warn("failed to write csv", sl.Err(err))
	}
}
