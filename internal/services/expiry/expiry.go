package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/weather-dashboard/internal/lib/sl"
	"github.com/magabrotheeeer/weather-dashboard/internal/metrics"
	"github.com/magabrotheeeer/weather-dashboard/internal/models"
)

// UserRepository описывает выборку и понижение истёкших выдач премиума.
type UserRepository interface {
	ListExpiredGrants(ctx context.Context, now time.Time) ([]models.User, error)
	// ExpireGrant понижает пользователя, только если выдача всё ещё истёкшая и
	// не заменена подпиской провайдера. false - понижение пропущено.
	ExpireGrant(ctx context.Context, userID string, now time.Time) (bool, error)
}

// Notifier публикует события изменения тарифа.
type Notifier interface {
	Publish(ctx context.Context, event models.SubscriptionEvent) error
}

// ExpiryService переводит на FREE пользователей, чей премиум выдан вручную и истёк.
// Подписки платёжного провайдера сюда не попадают: их закрывает вебхук.
type ExpiryService struct {
	repo     UserRepository
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
}

// NewExpiryService создает новый экземпляр ExpiryService.
func NewExpiryService(repo UserRepository, notifier Notifier, log *slog.Logger) *ExpiryService {
	return &ExpiryService{
		repo:     repo,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Run запускает обход сразу и затем каждые interval до отмены ctx.
func (s *ExpiryService) Run(ctx context.Context, interval time.Duration) {
	s.runSweep(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runSweep(ctx)
		}
	}
}

func (s *ExpiryService) runSweep(ctx context.Context) {
	s.log.Info("starting expired premium sweep")
	n, err := s.Sweep(ctx)
	if err != nil {
		s.log.Error("expired premium sweep failed", sl.Err(err))
		return
	}
	s.log.Info("expired premium sweep finished", slog.Int("downgraded", n))
}

// Sweep понижает все истёкшие выдачи и возвращает число пониженных пользователей.
// Ошибка по отдельному пользователю логируется, обход продолжается.
func (s *ExpiryService) Sweep(ctx context.Context) (int, error) {
	const op = "services.expiry.Sweep"
	log := s.log.With(slog.String("op", op))

	now := s.now().UTC()
	users, err := s.repo.ListExpiredGrants(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(users) == 0 {
		log.Info("no expired premium found")
		return 0, nil
	}

	downgraded := 0
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return downgraded, fmt.Errorf("%s: %w", op, err)
		}
		ok, err := s.repo.ExpireGrant(ctx, u.ID, now)
		if err != nil {
			log.Error("failed to downgrade user", slog.String("user_id", u.ID), sl.Err(err))
			continue
		}
		if !ok {
			log.Info("subscription changed since listing, skipped", slog.String("user_id", u.ID))
			continue
		}
		downgraded++

		metrics.SubscriptionChanges.WithLabelValues(models.EventPremiumExpired).Inc()
		err = s.notifier.Publish(ctx, models.SubscriptionEvent{
			Type:       models.EventPremiumExpired,
			UserID:     u.ID,
			Email:      u.Email,
			Status:     models.StatusFree,
			EndDate:    u.SubscriptionEnd,
			OccurredAt: now,
		})
		if err != nil {
			log.Warn("failed to publish subscription event", slog.String("user_id", u.ID), sl.Err(err))
		}
	}
	return downgraded, nil
}
