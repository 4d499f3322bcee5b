// Package services сопоставляет личность из токена провайдера аутентификации
// с пользователем приложения.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/weather-dashboard/internal/models"
	"github.com/magabrotheeeer/weather-dashboard/internal/storage"
)

// ErrAlreadyRegistered - пользователь с таким email уже зарегистрирован.
var ErrAlreadyRegistered = errors.New("already registered")

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// GetUserByEmail возвращает пользователя или storage.ErrUserNotFound.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// CreateUser создаёт пользователя или возвращает storage.ErrUserExists.
	CreateUser(ctx context.Context, user models.NewUser) (*models.User, error)
}

// AuthService отвечает за поиск и создание пользователей по личности провайдера.
type AuthService struct {
	users  UserRepository
	admins map[string]struct{}
	log    *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
// adminEmails - адреса, которые при создании получают роль ADMIN.
func NewAuthService(users UserRepository, adminEmails []string, log *slog.Logger) *AuthService {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		if e = normalizeEmail(e); e != "" {
			admins[e] = struct{}{}
		}
	}
	return &AuthService{
		users:  users,
		admins: admins,
		log:    log,
	}
}

// Resolve возвращает пользователя для личности, создавая его при первом входе.
func (s *AuthService) Resolve(ctx context.Context, identity models.Identity) (*models.User, error) {
	const op = "services.auth.Resolve"

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(identity.Email))
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err = s.create(ctx, identity, "")
	if errors.Is(err, storage.ErrUserExists) {
		// Параллельный запрос успел создать пользователя.
		user, err = s.users.GetUserByEmail(ctx, normalizeEmail(identity.Email))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// Profile возвращает пользователя без создания. Неизвестный email - storage.ErrUserNotFound.
func (s *AuthService) Profile(ctx context.Context, identity models.Identity) (*models.User, error) {
	const op = "services.auth.Profile"
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(identity.Email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// Register явно регистрирует пользователя. Имя из запроса важнее имени из токена.
func (s *AuthService) Register(ctx context.Context, identity models.Identity, name string) (*models.User, error) {
	const op = "services.auth.Register"

	_, err := s.users.GetUserByEmail(ctx, normalizeEmail(identity.Email))
	if err == nil {
		return nil, ErrAlreadyRegistered
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.create(ctx, identity, strings.TrimSpace(name))
	if errors.Is(err, storage.ErrUserExists) {
		return nil, ErrAlreadyRegistered
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (s *AuthService) create(ctx context.Context, identity models.Identity, name string) (*models.User, error) {
	email := normalizeEmail(identity.Email)
	if name == "" {
		name = strings.TrimSpace(identity.Name)
	}
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	role := models.RoleUser
	if s.IsAdminEmail(email) {
		role = models.RoleAdmin
	}

	var image *string
	if identity.AvatarURL != "" {
		image = &identity.AvatarURL
	}

	user, err := s.users.CreateUser(ctx, models.NewUser{
		Email: email,
		Name:  name,
		Image: image,
		Role:  role,
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("user created", slog.String("user_id", user.ID), slog.String("role", string(user.Role)))
	return user, nil
}

// IsAdminEmail сообщает, входит ли адрес в список администраторов.
func (s *AuthService) IsAdminEmail(email string) bool {
	_, ok := s.admins[normalizeEmail(email)]
	return ok
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
