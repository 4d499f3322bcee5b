package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/weather-dashboard/internal/lib/sl"
)

const pingTimeout = 2 * time.Second

// Pinger — зависимость, доступность которой проверяет health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler отвечает на проверку живости.
type Handler struct {
	log   *slog.Logger
	deps  map[string]Pinger
	clock func() time.Time
}

// New создаёт Handler. deps — именованные зависимости (postgres, redis).
func New(log *slog.Logger, deps map[string]Pinger) *Handler {
	return &Handler{
		log:   log,
		deps:  deps,
		clock: time.Now,
	}
}

// ServeHTTP godoc
// @Summary Проверка живости
// @Tags health
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 503 {object} map[string]any
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"
	log := h.log.With(slog.String("op", op))

	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	status := "ok"
	checks := make(map[string]string, len(h.deps))
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			log.Warn("dependency is unavailable", slog.String("dependency", name), sl.Err(err))
			checks[name] = "down"
			status = "degraded"
			continue
		}
		checks[name] = "up"
	}

	if status != "ok" {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, map[string]any{
		"status":    status,
		"timestamp": h.clock().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}
