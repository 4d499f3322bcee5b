package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/weather-dashboard/internal/models"
	"github.com/magabrotheeeer/weather-dashboard/internal/paymentprovider"
	"github.com/magabrotheeeer/weather-dashboard/internal/storage"
)

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) GetUserByCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) SetCustomerID(ctx context.Context, userID, customerID string) error {
	return m.Called(ctx, userID, customerID).Error(0)
}

func (m *UserRepoMock) UpdateSubscription(ctx context.Context, userID string, upd models.SubscriptionUpdate) error {
	return m.Called(ctx, userID, upd).Error(0)
}

func (m *UserRepoMock) UpdateSubscriptionWindow(ctx context.Context, userID string, start, end time.Time) error {
	return m.Called(ctx, userID, start, end).Error(0)
}

type ProviderMock struct{ mock.Mock }

func (m *ProviderMock) CreateCustomer(ctx context.Context, email, name, userID string) (string, error) {
	args := m.Called(ctx, email, name, userID)
	return args.String(0), args.Error(1)
}

func (m *ProviderMock) CreateCheckoutSession(ctx context.Context, p paymentprovider.CheckoutParams) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

func (m *ProviderMock) GetCheckoutSession(ctx context.Context, id string) (*paymentprovider.CheckoutSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.CheckoutSession), args.Error(1)
}

func (m *ProviderMock) GetSubscription(ctx context.Context, id string) (*paymentprovider.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.Subscription), args.Error(1)
}

func (m *ProviderMock) CancelSubscription(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *ProviderMock) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	args := m.Called(ctx, customerID, returnURL)
	return args.String(0), args.Error(1)
}

func (m *ProviderMock) ParseWebhook(payload []byte, signature string) (*paymentprovider.Event, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paymentprovider.Event), args.Error(1)
}

type NotifierMock struct{ mock.Mock }

func (m *NotifierMock) Publish(ctx context.Context, event models.SubscriptionEvent) error {
	return m.Called(ctx, event).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

var (
	fixedNow    = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	periodStart = time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2026, 11, 15, 0, 0, 0, 0, time.UTC)
)

func ptr[T any](v T) *T { return &v }

func newTestService() (*Service, *UserRepoMock, *ProviderMock, *NotifierMock) {
	users := new(UserRepoMock)
	provider := new(ProviderMock)
	notifier := new(NotifierMock)
	svc := NewService(users, provider, notifier, Config{
		AppURL:         "https://weather.example.com/",
		MonthlyPriceID: "price_monthly",
		YearlyPriceID:  "price_yearly",
	}, newNoopLogger())
	svc.now = func() time.Time { return fixedNow }
	return svc, users, provider, notifier
}

func freeUser() *models.User {
	return &models.User{
		ID:                 "user-1",
		Email:              "user@example.com",
		Name:               ptr("Ivan"),
		SubscriptionStatus: models.StatusFree,
		Role:               models.RoleUser,
	}
}

func premiumUpdate() models.SubscriptionUpdate {
	return models.SubscriptionUpdate{
		Status:               models.StatusPremium,
		Start:                ptr(periodStart),
		End:                  ptr(periodEnd),
		StripeSubscriptionID: ptr("sub_1"),
	}
}

func activeSubscription() *paymentprovider.Subscription {
	return &paymentprovider.Subscription{
		ID:                 "sub_1",
		CustomerID:         "cus_1",
		Status:             "active",
		CurrentPeriodStart: periodStart,
		CurrentPeriodEnd:   periodEnd,
	}
}

func paidSession() *paymentprovider.CheckoutSession {
	return &paymentprovider.CheckoutSession{
		ID:             "cs_1",
		PaymentStatus:  paymentprovider.PaymentStatusPaid,
		CustomerID:     "cus_1",
		SubscriptionID: "sub_1",
		Subscription:   activeSubscription(),
	}
}

func TestService_CreateCheckout(t *testing.T) {
	defaultSuccess := "https://weather.example.com/pricing/success?session_id={CHECKOUT_SESSION_ID}"
	defaultCancel := "https://weather.example.com/pricing"

	tests := []struct {
		name       string
		user       func() *models.User
		interval   string
		successURL string
		cancelURL  string
		setup      func(u *UserRepoMock, p *ProviderMock)
		wantURL    string
		wantErr    error
	}{
		{
			name:     "invalid interval",
			user:     freeUser,
			interval: "weekly",
			setup:    func(_ *UserRepoMock, _ *ProviderMock) {},
			wantErr:  ErrInvalidInterval,
		},
		{
			name: "existing customer with own urls",
			user: func() *models.User {
				u := freeUser()
				u.StripeCustomerID = ptr("cus_1")
				return u
			},
			interval:   IntervalYearly,
			successURL: "https://weather.example.com/done",
			cancelURL:  "https://weather.example.com/back",
			setup: func(_ *UserRepoMock, p *ProviderMock) {
				p.On("CreateCheckoutSession", mock.Anything, paymentprovider.CheckoutParams{
					CustomerID: "cus_1",
					UserID:     "user-1",
					PriceID:    "price_yearly",
					SuccessURL: "https://weather.example.com/done",
					CancelURL:  "https://weather.example.com/back",
				}).Return("https://checkout/cs_1", nil).Once()
			},
			wantURL: "https://checkout/cs_1",
		},
		{
			name:       "first purchase creates customer and rejects foreign urls",
			user:       freeUser,
			interval:   IntervalMonthly,
			successURL: "https://evil.example.org/steal",
			cancelURL:  "not a url",
			setup: func(u *UserRepoMock, p *ProviderMock) {
				p.On("CreateCustomer", mock.Anything, "user@example.com", "Ivan", "user-1").Return("cus_new", nil).Once()
				u.On("SetCustomerID", mock.Anything, "user-1", "cus_new").Return(nil).Once()
				p.On("CreateCheckoutSession", mock.Anything, paymentprovider.CheckoutParams{
					CustomerID: "cus_new",
					UserID:     "user-1",
					PriceID:    "price_monthly",
					SuccessURL: defaultSuccess,
					CancelURL:  defaultCancel,
				}).Return("https://checkout/cs_2", nil).Once()
			},
			wantURL: "https://checkout/cs_2",
		},
		{
			name:     "customer creation failure",
			user:     freeUser,
			interval: IntervalMonthly,
			setup: func(_ *UserRepoMock, p *ProviderMock) {
				p.On("CreateCustomer", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return("", errors.New("stripe down")).Once()
			},
			wantErr: errors.New("stripe down"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, users, provider, _ := newTestService()
			tt.setup(users, provider)

			got, err := svc.CreateCheckout(context.Background(), tt.user(), tt.interval, tt.successURL, tt.cancelURL)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorContains(t, err, tt.wantErr.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, got)
			users.AssertExpectations(t)
			provider.AssertExpectations(t)
		})
	}
}

func TestService_CreateCheckout_PriceNotConfigured(t *testing.T) {
	svc := NewService(new(UserRepoMock), new(ProviderMock), new(NotifierMock), Config{AppURL: "http://localhost:3000"}, newNoopLogger())

	_, err := svc.CreateCheckout(context.Background(), freeUser(), IntervalMonthly, "", "")
	assert.ErrorIs(t, err, ErrPriceNotConfigured)
}

func TestService_AllowedURL(t *testing.T) {
	svc := NewService(nil, nil, nil, Config{AppURL: "http://localhost:3000"}, newNoopLogger())

	tests := []struct {
		raw  string
		want bool
	}{
		{raw: "http://localhost:3000/pricing", want: true},
		{raw: "http://localhost:5173/pricing", want: true},
		{raw: "https://evil.example.org/pricing", want: false},
		{raw: "/relative/path", want: false},
		{raw: "://broken", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.allowedURL(tt.raw))
		})
	}
}

func TestService_SyncCheckoutSession(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(u *UserRepoMock, p *ProviderMock, n *NotifierMock)
		wantReason string
		wantErr    bool
	}{
		{
			name: "not paid",
			setup: func(_ *UserRepoMock, p *ProviderMock, _ *NotifierMock) {
				s := paidSession()
				s.PaymentStatus = "unpaid"
				p.On("GetCheckoutSession", mock.Anything, "cs_1").Return(s, nil).Once()
			},
			wantReason: ReasonNotPaid,
		},
		{
			name: "no subscription",
			setup: func(_ *UserRepoMock, p *ProviderMock, _ *NotifierMock) {
				s := paidSession()
				s.SubscriptionID = ""
				s.Subscription = nil
				p.On("GetCheckoutSession", mock.Anything, "cs_1").Return(s, nil).Once()
			},
			wantReason: ReasonNotPaid,
		},
		{
			name: "no customer",
			setup: func(_ *UserRepoMock, p *ProviderMock, _ *NotifierMock) {
				s := paidSession()
				s.CustomerID = ""
				p.On("GetCheckoutSession", mock.Anything, "cs_1").Return(s, nil).Once()
			},
			wantReason: ReasonNoCustomer,
		},
		{
			name: "customer bound to another user",
			setup: func(u *UserRepoMock, p *ProviderMock, _ *NotifierMock) {
				p.On("GetCheckoutSession", mock.Anything, "cs_1").Return(paidSession(), nil).Once()
				other := freeUser()
				other.ID = "user-2"
				u.On("GetUserByCustomerID", mock.Anything, "cus_1").Return(other, nil).Once()
			},
			wantReason: ReasonUserMismatch,
		},
		{
			name: "unbound customer and unknown current user",
			setup: func(u *UserRepoMock, p *ProviderMock, _ *NotifierMock) {
				p.On("GetCheckoutSession", mock.Anything, "cs_1").Return(paidSession(), nil).Once()
				u.On("GetUserByCustomerID", mock.Anything, "cus_1").Return(nil, storage.ErrUserNotFound).Once()
				u.On("GetUserByID", mock.Anything, "user-1").Return(nil, storage.ErrUserNotFound).Once()
			},
			wantReason: ReasonUserMismatch,
		},
		{
			name: "first purchase binds customer",
			setup: func(u *UserRepoMock, p *ProviderMock, n *NotifierMock) {
				p.On("GetCheckoutSession", mock.Anything, "cs_1").Return(paidSession(), nil).Once()
				u.On("GetUserByCustomerID", mock.Anything, "cus_1").Return(nil, storage.ErrUserNotFound).Once()
				u.On("GetUserByID", mock.Anything, "user-1").Return(freeUser(), nil).Once()
				u.On("SetCustomerID", mock.Anything, "user-1", "cus_1").Return(nil).Once()
				u.On("UpdateSubscription", mock.Anything, "user-1", premiumUpdate()).Return(nil).Once()
				n.On("Publish", mock.Anything, models.SubscriptionEvent{
					Type:       models.EventPremiumActivated,
					UserID:     "user-1",
					Email:      "user@example.com",
					Status:     models.StatusPremium,
					EndDate:    ptr(periodEnd),
					OccurredAt: fixedNow,
				}).Return(nil).Once()
			},
		},
		{
			name: "unexpanded subscription is fetched",
			setup: func(u *UserRepoMock, p *ProviderMock, n *NotifierMock) {
				s := paidSession()
				s.Subscription = nil
				p.On("GetCheckoutSession", mock.Anything, "cs_1").Return(s, nil).Once()
				p.On("GetSubscription", mock.Anything, "sub_1").Return(activeSubscription(), nil).Once()
				u.On("GetUserByCustomerID", mock.Anything, "cus_1").Return(freeUser(), nil).Once()
				u.On("UpdateSubscription", mock.Anything, "user-1", premiumUpdate()).Return(nil).Once()
				n.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
			},
		},
		{
			name: "provider failure",
			setup: func(_ *UserRepoMock, p *ProviderMock, _ *NotifierMock) {
				p.On("GetCheckoutSession", mock.Anything, "cs_1").Return(nil, errors.New("timeout")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, users, provider, notifier := newTestService()
			tt.setup(users, provider, notifier)

			err := svc.SyncCheckoutSession(context.Background(), "cs_1", "user-1")
			switch {
			case tt.wantReason != "":
				var rerr *ReconcileError
				require.ErrorAs(t, err, &rerr)
				assert.Equal(t, tt.wantReason, rerr.Reason)
				users.AssertNotCalled(t, "UpdateSubscription", mock.Anything, mock.Anything, mock.Anything)
			case tt.wantErr:
				assert.Error(t, err)
			default:
				require.NoError(t, err)
			}
			users.AssertExpectations(t)
			provider.AssertExpectations(t)
			notifier.AssertExpectations(t)
		})
	}
}

func TestService_SyncCheckoutSession_Idempotent(t *testing.T) {
	svc, users, provider, notifier := newTestService()

	synced := freeUser()
	synced.StripeCustomerID = ptr("cus_1")
	synced.StripeSubscriptionID = ptr("sub_1")
	synced.SubscriptionStatus = models.StatusPremium
	synced.SubscriptionStart = ptr(periodStart)
	synced.SubscriptionEnd = ptr(periodEnd)

	bound := freeUser()
	bound.StripeCustomerID = ptr("cus_1")

	provider.On("GetCheckoutSession", mock.Anything, "cs_1").Return(paidSession(), nil).Twice()
	users.On("GetUserByCustomerID", mock.Anything, "cus_1").Return(bound, nil).Once()
	users.On("GetUserByCustomerID", mock.Anything, "cus_1").Return(synced, nil).Once()
	users.On("UpdateSubscription", mock.Anything, "user-1", premiumUpdate()).Return(nil).Twice()
	notifier.On("Publish", mock.Anything, mock.MatchedBy(func(e models.SubscriptionEvent) bool {
		return e.Type == models.EventPremiumActivated
	})).Return(nil).Once()

	require.NoError(t, svc.SyncCheckoutSession(context.Background(), "cs_1", "user-1"))
	require.NoError(t, svc.SyncCheckoutSession(context.Background(), "cs_1", "user-1"))

	users.AssertNumberOfCalls(t, "UpdateSubscription", 2)
	notifier.AssertNumberOfCalls(t, "Publish", 1)
}

func TestService_CreatePortal(t *testing.T) {
	t.Run("no billing account", func(t *testing.T) {
		svc, _, _, _ := newTestService()
		_, err := svc.CreatePortal(context.Background(), freeUser())
		assert.ErrorIs(t, err, ErrNoBillingAccount)
	})

	t.Run("portal url", func(t *testing.T) {
		svc, _, provider, _ := newTestService()
		u := freeUser()
		u.StripeCustomerID = ptr("cus_1")
		provider.On("CreatePortalSession", mock.Anything, "cus_1", "https://weather.example.com/dashboard").
			Return("https://billing/portal", nil).Once()

		got, err := svc.CreatePortal(context.Background(), u)
		require.NoError(t, err)
		assert.Equal(t, "https://billing/portal", got)
	})
}

func TestService_Cancel(t *testing.T) {
	t.Run("no subscription", func(t *testing.T) {
		svc, _, _, _ := newTestService()
		assert.ErrorIs(t, svc.Cancel(context.Background(), freeUser()), ErrNoSubscription)
	})

	t.Run("cancelled and revoked", func(t *testing.T) {
		svc, users, provider, notifier := newTestService()
		u := freeUser()
		u.SubscriptionStatus = models.StatusPremium
		u.StripeSubscriptionID = ptr("sub_1")

		provider.On("CancelSubscription", mock.Anything, "sub_1").Return(nil).Once()
		users.On("UpdateSubscription", mock.Anything, "user-1", models.SubscriptionUpdate{Status: models.StatusFree}).Return(nil).Once()
		notifier.On("Publish", mock.Anything, mock.MatchedBy(func(e models.SubscriptionEvent) bool {
			return e.Type == models.EventPremiumRevoked && e.Status == models.StatusFree && e.EndDate == nil
		})).Return(nil).Once()

		require.NoError(t, svc.Cancel(context.Background(), u))
		users.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("provider failure leaves row untouched", func(t *testing.T) {
		svc, users, provider, _ := newTestService()
		u := freeUser()
		u.StripeSubscriptionID = ptr("sub_1")
		provider.On("CancelSubscription", mock.Anything, "sub_1").Return(errors.New("stripe down")).Once()

		assert.Error(t, svc.Cancel(context.Background(), u))
		users.AssertNotCalled(t, "UpdateSubscription", mock.Anything, mock.Anything, mock.Anything)
	})
}
