package jwt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/magabrotheeeer/weather-dashboard/internal/models"
)

// ErrNoEmail возвращается для токенов без email: пользователь без email
// не может быть сопоставлен с записью в базе.
var ErrNoEmail = errors.New("token has no email claim")

// Parser проверяет подпись токена и извлекает из него Identity.
type Parser struct {
	secret []byte
}

// NewParser создаёт Parser с секретом проекта.
func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

// ParseIdentity проверяет токен и возвращает личность пользователя.
func (p *Parser) ParseIdentity(tokenStr string) (*models.Identity, error) {
	const op = "jwt.ParseIdentity"

	token, err := jwt.ParseWithClaims(tokenStr, &IdentityClaims{}, func(_ *jwt.Token) (any, error) {
		return p.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*IdentityClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoEmail)
	}

	name := claims.UserMetadata.Name
	if name == "" {
		name = claims.UserMetadata.FullName
	}

	return &models.Identity{
		Subject:   claims.Subject,
		Email:     email,
		Name:      name,
		AvatarURL: claims.UserMetadata.AvatarURL,
	}, nil
}
