package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/weather-dashboard/internal/lib/sl"
	"github.com/magabrotheeeer/weather-dashboard/internal/metrics"
	"github.com/magabrotheeeer/weather-dashboard/internal/models"
	"github.com/magabrotheeeer/weather-dashboard/internal/paymentprovider"
	"github.com/magabrotheeeer/weather-dashboard/internal/storage"
)

// HandleWebhook проверяет подпись события провайдера и применяет его.
// Неверная подпись возвращает paymentprovider.ErrInvalidSignature, и ничего не применяется.
// События по неизвестным клиентам логируются и отбрасываются.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (err error) {
	const op = "services.subscription.HandleWebhook"

	event, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		return err
	}
	log := s.log.With(slog.String("op", op), slog.String("event_id", event.ID), slog.String("type", event.Type))

	outcome := metrics.OutcomeOK
	defer func() {
		if err != nil {
			outcome = metrics.OutcomeError
		}
		metrics.WebhookEvents.WithLabelValues(event.Type, outcome).Inc()
	}()

	switch event.Type {
	case paymentprovider.EventCheckoutCompleted:
		err = s.onCheckoutCompleted(ctx, log, event.CheckoutSession)
	case paymentprovider.EventSubscriptionUpdated:
		err = s.onSubscriptionUpdated(ctx, log, event.Subscription)
	case paymentprovider.EventSubscriptionDeleted:
		err = s.onSubscriptionDeleted(ctx, log, event.Subscription)
	case paymentprovider.EventInvoicePaymentFailed:
		if event.Invoice != nil {
			log.Warn("invoice payment failed",
				slog.String("customer_id", event.Invoice.CustomerID),
				slog.String("invoice_id", event.Invoice.ID))
		}
	default:
		outcome = metrics.OutcomeIgnored
		log.Debug("webhook event ignored")
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) onCheckoutCompleted(ctx context.Context, log *slog.Logger, session *paymentprovider.CheckoutSession) error {
	if session == nil || session.CustomerID == "" {
		log.Warn("checkout session without customer")
		return nil
	}

	user, err := s.users.GetUserByCustomerID(ctx, session.CustomerID)
	if err != nil && !isNotFound(err) {
		return err
	}
	if user == nil && session.MetadataUserID() != "" {
		user, err = s.users.GetUserByID(ctx, session.MetadataUserID())
		if err != nil && !isNotFound(err) {
			return err
		}
		if user != nil {
			if err = s.users.SetCustomerID(ctx, user.ID, session.CustomerID); err != nil {
				return err
			}
		}
	}
	if user == nil {
		log.Error("no user for checkout session",
			slog.String("customer_id", session.CustomerID),
			slog.String("metadata_user_id", session.MetadataUserID()))
		return nil
	}
	if session.SubscriptionID == "" {
		return nil
	}

	sub, err := s.provider.GetSubscription(ctx, session.SubscriptionID)
	if err != nil {
		return err
	}
	if err = s.grantPremium(ctx, user, sub); err != nil {
		return err
	}
	log.Info("premium granted", slog.String("user_id", user.ID), slog.Time("end", sub.CurrentPeriodEnd))
	return nil
}

func (s *Service) onSubscriptionUpdated(ctx context.Context, log *slog.Logger, sub *paymentprovider.Subscription) error {
	user, err := s.userForSubscription(ctx, log, sub)
	if user == nil || err != nil {
		return err
	}

	if err = s.users.UpdateSubscriptionWindow(ctx, user.ID, sub.CurrentPeriodStart, sub.CurrentPeriodEnd); err != nil {
		return err
	}
	end := sub.CurrentPeriodEnd
	// Продлением считается только сдвиг конца периода у премиум-пользователя;
	// остальные обновления (сразу после оплаты, отмена в конце периода) молчат.
	if isRenewal(user, end) {
		s.publish(ctx, models.EventPremiumRenewed, user, user.SubscriptionStatus, &end)
	}
	log.Info("subscription window updated", slog.String("user_id", user.ID), slog.Time("end", end))
	return nil
}

func isRenewal(user *models.User, newEnd time.Time) bool {
	if user.SubscriptionStatus != models.StatusPremium || user.SubscriptionEnd == nil {
		return false
	}
	return newEnd.After(*user.SubscriptionEnd)
}

func (s *Service) onSubscriptionDeleted(ctx context.Context, log *slog.Logger, sub *paymentprovider.Subscription) error {
	user, err := s.userForSubscription(ctx, log, sub)
	if user == nil || err != nil {
		return err
	}

	if err = s.revokePremium(ctx, user); err != nil {
		return err
	}
	log.Info("premium revoked", slog.String("user_id", user.ID))
	return nil
}

// userForSubscription находит пользователя по клиенту подписки.
// nil без ошибки - клиент никому не привязан.
func (s *Service) userForSubscription(ctx context.Context, log *slog.Logger, sub *paymentprovider.Subscription) (*models.User, error) {
	if sub == nil || sub.CustomerID == "" {
		log.Warn("subscription event without customer")
		return nil, nil
	}
	user, err := s.users.GetUserByCustomerID(ctx, sub.CustomerID)
	if isNotFound(err) {
		log.Warn("no user for customer", slog.String("customer_id", sub.CustomerID), sl.Err(err))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrUserNotFound)
}

func isCustomerBound(err error) bool {
	return errors.Is(err, storage.ErrCustomerBound)
}
