// Package services реализует операции панели администратора.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/magabrotheeeer/weather-dashboard/internal/lib/sl"
	"github.com/magabrotheeeer/weather-dashboard/internal/metrics"
	"github.com/magabrotheeeer/weather-dashboard/internal/models"
)

const (
	// DefaultPageSize - размер страницы по умолчанию.
	DefaultPageSize = 10
	// MaxPageSize - максимальный размер страницы.
	MaxPageSize = 100
	// GrantPeriod - срок премиума, выданного администратором.
	GrantPeriod = 30 * 24 * time.Hour
	// NewUsersWindow - окно, в котором пользователь считается новым.
	NewUsersWindow = 30 * 24 * time.Hour
)

// ErrEmptyUpdate - в запросе нет ни одного изменяемого поля.
var ErrEmptyUpdate = errors.New("nothing to update")

// UserRepository описывает хранилище для панели администратора.
type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, filter models.UserFilter) ([]models.AdminUser, int, error)
	UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	Stats(ctx context.Context, since time.Time) (models.UserStats, error)
}

// Notifier публикует события изменения тарифа.
type Notifier interface {
	Publish(ctx context.Context, event models.SubscriptionEvent) error
}

// AdminService управляет пользователями.
type AdminService struct {
	users    UserRepository
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
}

// NewAdminService создает новый экземпляр AdminService.
func NewAdminService(users UserRepository, notifier Notifier, log *slog.Logger) *AdminService {
	return &AdminService{
		users:    users,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// ListUsers возвращает страницу пользователей. Некорректные page и limit
// заменяются значениями по умолчанию, limit ограничен MaxPageSize,
// page - так, чтобы смещение не переполнялось.
func (s *AdminService) ListUsers(ctx context.Context, page, limit int, search string) (*models.UserList, error) {
	const op = "services.admin.ListUsers"
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	// OFFSET должен оставаться неотрицательным и влезать в int4.
	if maxPage := math.MaxInt32 / limit; page > maxPage {
		page = maxPage
	}

	users, total, err := s.users.ListUsers(ctx, models.UserFilter{
		Search: strings.TrimSpace(search),
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if users == nil {
		users = []models.AdminUser{}
	}
	return &models.UserList{
		Users: users,
		Pagination: models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: (total + limit - 1) / limit,
		},
	}, nil
}

// UpdateUser меняет тариф, блокировку или роль. Выдача премиума открывает
// окно на GrantPeriod от текущего момента, перевод на FREE окно очищает.
func (s *AdminService) UpdateUser(ctx context.Context, id string, upd models.AdminUpdate) (*models.User, error) {
	const op = "services.admin.UpdateUser"
	log := s.log.With(slog.String("op", op), slog.String("user_id", id))

	if upd.SubscriptionStatus == nil && upd.IsBlocked == nil && upd.Role == nil {
		return nil, ErrEmptyUpdate
	}

	before, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	patch := models.UserPatch{
		SubscriptionStatus: upd.SubscriptionStatus,
		IsBlocked:          upd.IsBlocked,
		Role:               upd.Role,
	}
	now := s.now().UTC()
	if upd.SubscriptionStatus != nil {
		switch *upd.SubscriptionStatus {
		case models.StatusPremium:
			end := now.Add(GrantPeriod)
			patch.SubscriptionStart = &now
			patch.SubscriptionEnd = &end
		default:
			patch.ClearWindow = true
		}
	}

	user, err := s.users.UpdateUser(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("user updated by admin")

	if upd.SubscriptionStatus != nil {
		s.notifyStatusChange(ctx, log, before, user, now)
	}
	return user, nil
}

// DeleteUser удаляет пользователя. Сохранённые города удаляются каскадно.
func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	const op = "services.admin.DeleteUser"
	if err := s.users.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user deleted by admin", slog.String("user_id", id))
	return nil
}

// Stats возвращает агрегаты по пользователям.
func (s *AdminService) Stats(ctx context.Context) (models.UserStats, error) {
	const op = "services.admin.Stats"
	st, err := s.users.Stats(ctx, s.now().Add(-NewUsersWindow))
	if err != nil {
		return models.UserStats{}, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}

func (s *AdminService) notifyStatusChange(ctx context.Context, log *slog.Logger, before, after *models.User, now time.Time) {
	var eventType string
	switch {
	case after.SubscriptionStatus == models.StatusPremium:
		eventType = models.EventPremiumActivated
		if before.SubscriptionStatus == models.StatusPremium {
			eventType = models.EventPremiumRenewed
		}
	case before.SubscriptionStatus == models.StatusPremium:
		eventType = models.EventPremiumRevoked
	default:
		return
	}

	metrics.SubscriptionChanges.WithLabelValues(eventType).Inc()
	err := s.notifier.Publish(ctx, models.SubscriptionEvent{
		Type:       eventType,
		UserID:     after.ID,
		Email:      after.Email,
		Status:     after.SubscriptionStatus,
		EndDate:    after.SubscriptionEnd,
		OccurredAt: now,
	})
	if err != nil {
		log.Warn("failed to publish subscription event", slog.String("type", eventType), sl.Err(err))
	}
}
