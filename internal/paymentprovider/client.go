package paymentprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Client работает с API Stripe.
type Client struct {
	api           *client.API
	webhookSecret string
}

// NewClient создаёт клиента с ключом API и секретом подписи webhook.
func NewClient(secretKey, webhookSecret string) *Client {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Client{api: api, webhookSecret: webhookSecret}
}

// NewClientWithBackend создаёт клиента поверх заданного backend
// (другой адрес API или HTTP-клиент).
func NewClientWithBackend(secretKey, webhookSecret string, backend stripe.Backend) *Client {
	api := &client.API{}
	api.Init(secretKey, &stripe.Backends{API: backend, Connect: backend, Uploads: backend})
	return &Client{api: api, webhookSecret: webhookSecret}
}

// CreateCustomer создаёт клиента провайдера и возвращает его id.
func (c *Client) CreateCustomer(ctx context.Context, email, name, userID string) (string, error) {
	const op = "paymentprovider.CreateCustomer"
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	if name != "" {
		params.Name = stripe.String(name)
	}
	params.Context = ctx
	params.AddMetadata(metadataUserIDKey, userID)

	cus, err := c.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return cus.ID, nil
}

// CreateCheckoutSession создаёт сессию оплаты подписки и возвращает URL страницы оплаты.
func (c *Client) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error) {
	const op = "paymentprovider.CreateCheckoutSession"
	params := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(p.CustomerID),
		Mode:               stripe.String(CheckoutModeSubscription),
		PaymentMethodTypes: stripe.StringSlice([]string{checkoutPaymentMethodCard}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
		Metadata: map[string]string{
			metadataCustomerIDKey: p.CustomerID,
			metadataUserIDKey:     p.UserID,
		},
	}
	params.Context = ctx

	s, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return s.URL, nil
}

// GetCheckoutSession возвращает сессию оплаты с раскрытой подпиской.
func (c *Client) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	const op = "paymentprovider.GetCheckoutSession"
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand(subscriptionExpandProperty)

	s, err := c.api.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return convertCheckoutSession(s), nil
}

// GetSubscription возвращает подписку по id.
func (c *Client) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	const op = "paymentprovider.GetSubscription"
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := c.api.Subscriptions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return convertSubscription(sub), nil
}

// CancelSubscription немедленно отменяет подписку.
func (c *Client) CancelSubscription(ctx context.Context, id string) error {
	const op = "paymentprovider.CancelSubscription"
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx

	if _, err := c.api.Subscriptions.Cancel(id, params); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CreatePortalSession создаёт сессию портала управления оплатой и возвращает её URL.
func (c *Client) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	const op = "paymentprovider.CreatePortalSession"
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	s, err := c.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return s.URL, nil
}

// ParseWebhook проверяет подпись тела webhook и разбирает событие.
func (c *Client) ParseWebhook(payload []byte, signature string) (*Event, error) {
	const op = "paymentprovider.ParseWebhook"
	ev, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret,
		webhook.ConstructEventOptions{
			Tolerance:                webhook.DefaultTolerance,
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInvalidSignature, err)
	}

	event := &Event{ID: ev.ID, Type: string(ev.Type)}
	if ev.Data == nil {
		return event, nil
	}

	switch event.Type {
	case EventCheckoutCompleted:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		event.CheckoutSession = convertCheckoutSession(&s)
	case EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(ev.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		event.Subscription = convertSubscription(&sub)
	case EventInvoicePaymentFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(ev.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		event.Invoice = &Invoice{ID: inv.ID}
		if inv.Customer != nil {
			event.Invoice.CustomerID = inv.Customer.ID
		}
		if inv.Subscription != nil {
			event.Invoice.SubscriptionID = inv.Subscription.ID
		}
	}
	return event, nil
}

func convertCheckoutSession(s *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:            s.ID,
		PaymentStatus: string(s.PaymentStatus),
		Metadata:      s.Metadata,
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.Subscription != nil {
		out.SubscriptionID = s.Subscription.ID
		// Нераскрытая подписка приходит только с id.
		if s.Subscription.CurrentPeriodEnd != 0 {
			out.Subscription = convertSubscription(s.Subscription)
		}
	}
	return out
}

func convertSubscription(sub *stripe.Subscription) *Subscription {
	out := &Subscription{
		ID:                 sub.ID,
		Status:             string(sub.Status),
		CurrentPeriodStart: time.Unix(sub.CurrentPeriodStart, 0).UTC(),
		CurrentPeriodEnd:   time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	return out
}
