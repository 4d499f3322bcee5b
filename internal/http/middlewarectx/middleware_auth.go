// Package middlewarectx содержит HTTP middleware аутентификации, проверки
// прав и ограничения частоты запросов.
//
// Authenticate проверяет Bearer-токен провайдера аутентификации и кладёт
// личность в контекст. ResolveUser превращает личность в пользователя
// приложения, создавая его при первом входе, и отклоняет заблокированных.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/weather-dashboard/internal/http/response"
	"github.com/magabrotheeeer/weather-dashboard/internal/lib/sl"
	"github.com/magabrotheeeer/weather-dashboard/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// IdentityKey - ключ личности из токена в контексте
	IdentityKey Key = "identity"
	// UserKey - ключ пользователя приложения в контексте
	UserKey Key = "user"
)

const bearerPrefix = "Bearer "

// Authenticate возвращает middleware, который требует валидный токен.
// Без токена или с невалидным токеном отвечает 401.
func Authenticate(parser TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Authenticate"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, bearerPrefix) {
				log.Debug("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}

			identity, err := parser.ParseIdentity(strings.TrimPrefix(authHeader, bearerPrefix))
			if err != nil {
				log.Info("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// OptionalAuthenticate кладёт личность в контекст, если токен валиден.
// Запросы без токена или с невалидным токеном проходят как анонимные.
func OptionalAuthenticate(parser TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, bearerPrefix) {
				next.ServeHTTP(w, r)
				return
			}
			identity, err := parser.ParseIdentity(strings.TrimPrefix(authHeader, bearerPrefix))
			if err != nil {
				log.Debug("ignoring invalid token on optional route",
					slog.String("request_id", middleware.GetReqID(r.Context())), sl.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// WithIdentity возвращает контекст с личностью.
func WithIdentity(ctx context.Context, identity *models.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

// IdentityFromContext возвращает личность из контекста.
func IdentityFromContext(ctx context.Context) (*models.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(*models.Identity)
	return identity, ok && identity != nil
}

// WithUser возвращает контекст с пользователем.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// UserFromContext возвращает пользователя или nil для анонимного запроса.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(UserKey).(*models.User)
	return user
}
