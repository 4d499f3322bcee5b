package middlewarectx

import (
	"context"

	"github.com/magabrotheeeer/weather-dashboard/internal/models"
)

// TokenParser проверяет токен доступа провайдера аутентификации.
type TokenParser interface {
	ParseIdentity(token string) (*models.Identity, error)
}

// UserResolver находит или создаёт пользователя по личности из токена.
type UserResolver interface {
	Resolve(ctx context.Context, identity models.Identity) (*models.User, error)
}
