// Package services содержит работу с оплатой подписки: создание сессий оплаты,
// сверку состояния с платёжным провайдером и обработку его webhook.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/magabrotheeeer/weather-dashboard/internal/lib/sl"
	"github.com/magabrotheeeer/weather-dashboard/internal/metrics"
	"github.com/magabrotheeeer/weather-dashboard/internal/models"
	"github.com/magabrotheeeer/weather-dashboard/internal/paymentprovider"
)

// Причины неудачной сверки сессии оплаты.
const (
	ReasonNotPaid       = "session_not_paid_or_no_subscription"
	ReasonNoCustomer    = "no_customer_on_session"
	ReasonUserMismatch  = "user_not_found_or_mismatch"
	IntervalMonthly     = "monthly"
	IntervalYearly      = "yearly"
	checkoutSuccessPath = "/pricing/success?session_id={CHECKOUT_SESSION_ID}"
	checkoutCancelPath  = "/pricing"
	portalReturnPath    = "/dashboard"
	localhost           = "localhost"
)

var (
	// ErrInvalidInterval - неизвестный период оплаты.
	ErrInvalidInterval = errors.New("invalid interval")
	// ErrPriceNotConfigured - для периода не задан id цены.
	ErrPriceNotConfigured = errors.New("price is not configured")
	// ErrNoBillingAccount - у пользователя ещё нет клиента у провайдера.
	ErrNoBillingAccount = errors.New("no billing account")
	// ErrNoSubscription - у пользователя нет подписки у провайдера.
	ErrNoSubscription = errors.New("no active subscription")
)

// ReconcileError - сверка с провайдером не удалась по бизнес-причине. Не повторяется.
type ReconcileError struct {
	Reason string
}

func (e *ReconcileError) Error() string {
	return "sync failed: " + e.Reason
}

// UserRepository - операции хранилища, нужные для работы с подпиской.
type UserRepository interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByCustomerID(ctx context.Context, customerID string) (*models.User, error)
	SetCustomerID(ctx context.Context, userID, customerID string) error
	UpdateSubscription(ctx context.Context, userID string, upd models.SubscriptionUpdate) error
	UpdateSubscriptionWindow(ctx context.Context, userID string, start, end time.Time) error
}

// PaymentProvider - платёжный провайдер.
type PaymentProvider interface {
	CreateCustomer(ctx context.Context, email, name, userID string) (string, error)
	CreateCheckoutSession(ctx context.Context, p paymentprovider.CheckoutParams) (string, error)
	GetCheckoutSession(ctx context.Context, id string) (*paymentprovider.CheckoutSession, error)
	GetSubscription(ctx context.Context, id string) (*paymentprovider.Subscription, error)
	CancelSubscription(ctx context.Context, id string) error
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	ParseWebhook(payload []byte, signature string) (*paymentprovider.Event, error)
}

// Notifier публикует события об изменении тарифа.
type Notifier interface {
	Publish(ctx context.Context, event models.SubscriptionEvent) error
}

// Config - настройки оплаты.
type Config struct {
	AppURL         string
	MonthlyPriceID string
	YearlyPriceID  string
}

// Service реализует оплату и сверку подписки.
type Service struct {
	users    UserRepository
	provider PaymentProvider
	notifier Notifier
	cfg      Config
	log      *slog.Logger
	now      func() time.Time
}

// NewService создаёт Service.
func NewService(users UserRepository, provider PaymentProvider, notifier Notifier, cfg Config, log *slog.Logger) *Service {
	cfg.AppURL = strings.TrimRight(cfg.AppURL, "/")
	return &Service{
		users:    users,
		provider: provider,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

// CreateCheckout создаёт сессию оплаты и возвращает URL страницы оплаты.
// При первой покупке у провайдера создаётся клиент, и его id сохраняется у пользователя.
func (s *Service) CreateCheckout(ctx context.Context, user *models.User, interval, successURL, cancelURL string) (string, error) {
	const op = "services.subscription.CreateCheckout"
	log := s.log.With(slog.String("op", op), slog.String("user_id", user.ID))

	var priceID string
	switch interval {
	case IntervalMonthly:
		priceID = s.cfg.MonthlyPriceID
	case IntervalYearly:
		priceID = s.cfg.YearlyPriceID
	default:
		return "", ErrInvalidInterval
	}
	if priceID == "" {
		return "", fmt.Errorf("%s: %w: %s", op, ErrPriceNotConfigured, interval)
	}

	if successURL == "" || !s.allowedURL(successURL) {
		successURL = s.cfg.AppURL + checkoutSuccessPath
	}
	if cancelURL == "" || !s.allowedURL(cancelURL) {
		cancelURL = s.cfg.AppURL + checkoutCancelPath
	}

	var customerID string
	if user.StripeCustomerID != nil && *user.StripeCustomerID != "" {
		customerID = *user.StripeCustomerID
	} else {
		name := ""
		if user.Name != nil {
			name = *user.Name
		}
		id, err := s.provider.CreateCustomer(ctx, user.Email, name, user.ID)
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		if err := s.users.SetCustomerID(ctx, user.ID, id); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		customerID = id
		log.Info("created billing customer", slog.String("customer_id", customerID))
	}

	checkoutURL, err := s.provider.CreateCheckoutSession(ctx, paymentprovider.CheckoutParams{
		CustomerID: customerID,
		UserID:     user.ID,
		PriceID:    priceID,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return checkoutURL, nil
}

// allowedURL пропускает только адреса приложения: совпадает origin,
// либо и приложение, и адрес на localhost.
func (s *Service) allowedURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}
	app, err := url.Parse(s.cfg.AppURL)
	if err != nil {
		return false
	}
	if u.Scheme == app.Scheme && u.Host == app.Host {
		return true
	}
	return u.Hostname() == localhost && app.Hostname() == localhost
}

// SyncCheckoutSession сверяет оплаченную сессию с пользователем currentUserID
// и переводит его на премиум. Повторный вызов с той же сессией ничего не меняет.
func (s *Service) SyncCheckoutSession(ctx context.Context, sessionID, currentUserID string) error {
	const op = "services.subscription.SyncCheckoutSession"
	log := s.log.With(slog.String("op", op), slog.String("session_id", sessionID))

	session, err := s.provider.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !session.Paid() || session.SubscriptionID == "" {
		return &ReconcileError{Reason: ReasonNotPaid}
	}
	if session.CustomerID == "" {
		return &ReconcileError{Reason: ReasonNoCustomer}
	}

	sub := session.Subscription
	if sub == nil {
		sub, err = s.provider.GetSubscription(ctx, session.SubscriptionID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	user, err := s.users.GetUserByCustomerID(ctx, session.CustomerID)
	switch {
	case err == nil:
		if user.ID != currentUserID {
			log.Warn("customer bound to another user", slog.String("user_id", currentUserID))
			return &ReconcileError{Reason: ReasonUserMismatch}
		}
	case isNotFound(err):
		user, err = s.users.GetUserByID(ctx, currentUserID)
		if isNotFound(err) {
			return &ReconcileError{Reason: ReasonUserMismatch}
		}
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err = s.users.SetCustomerID(ctx, user.ID, session.CustomerID); err != nil {
			if isCustomerBound(err) {
				return &ReconcileError{Reason: ReasonUserMismatch}
			}
			return fmt.Errorf("%s: %w", op, err)
		}
	default:
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.grantPremium(ctx, user, sub); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// grantPremium переписывает поля подписки по данным провайдера.
// Событие публикуется, только если состояние действительно изменилось.
func (s *Service) grantPremium(ctx context.Context, user *models.User, sub *paymentprovider.Subscription) error {
	start, end := sub.CurrentPeriodStart, sub.CurrentPeriodEnd
	subID := sub.ID
	err := s.users.UpdateSubscription(ctx, user.ID, models.SubscriptionUpdate{
		Status:               models.StatusPremium,
		Start:                &start,
		End:                  &end,
		StripeSubscriptionID: &subID,
	})
	if err != nil {
		return err
	}

	already := user.SubscriptionStatus == models.StatusPremium &&
		user.StripeSubscriptionID != nil && *user.StripeSubscriptionID == subID
	if !already {
		s.publish(ctx, models.EventPremiumActivated, user, models.StatusPremium, &end)
	}
	return nil
}

// CreatePortal возвращает URL портала управления оплатой.
func (s *Service) CreatePortal(ctx context.Context, user *models.User) (string, error) {
	const op = "services.subscription.CreatePortal"
	if user.StripeCustomerID == nil || *user.StripeCustomerID == "" {
		return "", ErrNoBillingAccount
	}
	portalURL, err := s.provider.CreatePortalSession(ctx, *user.StripeCustomerID, s.cfg.AppURL+portalReturnPath)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return portalURL, nil
}

// Cancel отменяет подписку у провайдера и сразу снимает премиум.
// Webhook об удалении подписки позже приведёт строку к тому же состоянию.
func (s *Service) Cancel(ctx context.Context, user *models.User) error {
	const op = "services.subscription.Cancel"
	if user.StripeSubscriptionID == nil || *user.StripeSubscriptionID == "" {
		return ErrNoSubscription
	}
	if err := s.provider.CancelSubscription(ctx, *user.StripeSubscriptionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.revokePremium(ctx, user); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) revokePremium(ctx context.Context, user *models.User) error {
	if err := s.users.UpdateSubscription(ctx, user.ID, models.SubscriptionUpdate{Status: models.StatusFree}); err != nil {
		return err
	}
	if user.SubscriptionStatus == models.StatusPremium {
		s.publish(ctx, models.EventPremiumRevoked, user, models.StatusFree, nil)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, user *models.User, status models.SubscriptionStatus, end *time.Time) {
	metrics.SubscriptionChanges.WithLabelValues(eventType).Inc()
	err := s.notifier.Publish(ctx, models.SubscriptionEvent{
		Type:       eventType,
		UserID:     user.ID,
		Email:      user.Email,
		Status:     status,
		EndDate:    end,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		s.log.Warn("failed to publish subscription event",
			slog.String("type", eventType), slog.String("user_id", user.ID), sl.Err(err))
	}
}
