// Package jwt разбирает access-токены провайдера идентификации (Supabase).
//
// Токены подписаны HS256 общим секретом проекта, поэтому проверка
// выполняется локально, без обращения к провайдеру.
package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserMetadata - пользовательские поля, которые провайдер кладет в токен.
type UserMetadata struct {
	Name      string `json:"name"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

// IdentityClaims описывает claims access-токена.
type IdentityClaims struct {
	Email        string       `json:"email"`
	Role         string       `json:"role"`
	UserMetadata UserMetadata `json:"user_metadata"`
	jwt.RegisteredClaims
}
