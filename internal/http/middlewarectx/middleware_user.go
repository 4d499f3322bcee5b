package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/weather-dashboard/internal/http/response"
	"github.com/magabrotheeeer/weather-dashboard/internal/lib/sl"
	"github.com/magabrotheeeer/weather-dashboard/internal/models"
	"github.com/magabrotheeeer/weather-dashboard/internal/premium"
)

// ResolveUser требует личность в контексте, находит или создаёт по ней
// пользователя и отклоняет заблокированных с 403.
func ResolveUser(resolver UserResolver, log *slog.Logger) func(http.Handler) http.Handler {
	return resolveUser(resolver, log, true)
}

// ResolveOptionalUser делает то же, что ResolveUser, но пропускает
// анонимные запросы без личности.
func ResolveOptionalUser(resolver UserResolver, log *slog.Logger) func(http.Handler) http.Handler {
	return resolveUser(resolver, log, false)
}

func resolveUser(resolver UserResolver, log *slog.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.ResolveUser"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				if !required {
					next.ServeHTTP(w, r)
					return
				}
				log.Error("identity missing in context")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unauthorized"))
				return
			}

			user, err := resolver.Resolve(r.Context(), *identity)
			if err != nil {
				log.Error("failed to resolve user", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal error"))
				return
			}
			if user.IsBlocked {
				log.Info("blocked user rejected", slog.String("user_id", user.ID))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("user is blocked"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// RequireAdmin пропускает только администраторов.
func RequireAdmin(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil || user.Role != models.RoleAdmin {
				log.Warn("admin route denied", slog.String("request_id", middleware.GetReqID(r.Context())))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePremium пропускает только пользователей премиум-тарифа.
func RequirePremium(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !premium.IsPremium(UserFromContext(r.Context())) {
				log.Debug("premium route denied", slog.String("request_id", middleware.GetReqID(r.Context())))
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.ErrorWithCode("Premium subscription required", response.CodePremiumRequired))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
