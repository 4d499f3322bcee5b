// Package paymentprovider - адаптер платёжного провайдера (Stripe).
// Остальной код работает только с типами этого пакета.
package paymentprovider

import (
	"errors"
	"time"
)

// ErrInvalidSignature - подпись webhook не прошла проверку.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Типы событий webhook, которые обрабатывает приложение.
const (
	EventCheckoutCompleted     = "checkout.session.completed"
	EventSubscriptionUpdated   = "customer.subscription.updated"
	EventSubscriptionDeleted   = "customer.subscription.deleted"
	EventInvoicePaymentFailed  = "invoice.payment_failed"
	PaymentStatusPaid          = "paid"
	CheckoutModeSubscription   = "subscription"
	metadataUserIDKey          = "userId"
	metadataCustomerIDKey      = "customerId"
	checkoutPaymentMethodCard  = "card"
	subscriptionExpandProperty = "subscription"
)

// Subscription - подписка у провайдера с текущим оплаченным периодом.
type Subscription struct {
	ID                 string
	CustomerID         string
	Status             string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
}

// CheckoutSession - сессия оплаты.
type CheckoutSession struct {
	ID             string
	PaymentStatus  string
	CustomerID     string
	SubscriptionID string
	// Subscription заполнена, если подписка была раскрыта в ответе провайдера.
	Subscription *Subscription
	Metadata     map[string]string
}

// Paid сообщает, что сессия оплачена.
func (s *CheckoutSession) Paid() bool {
	return s.PaymentStatus == PaymentStatusPaid
}

// MetadataUserID возвращает id пользователя, переданный при создании сессии.
func (s *CheckoutSession) MetadataUserID() string {
	return s.Metadata[metadataUserIDKey]
}

// Invoice - счёт, по которому не прошла оплата.
type Invoice struct {
	ID             string
	CustomerID     string
	SubscriptionID string
}

// Event - проверенное событие webhook. Заполнено поле, соответствующее типу события.
type Event struct {
	ID              string
	Type            string
	CheckoutSession *CheckoutSession
	Subscription    *Subscription
	Invoice         *Invoice
}

// CheckoutParams - параметры новой сессии оплаты подписки.
type CheckoutParams struct {
	CustomerID string
	UserID     string
	PriceID    string
	SuccessURL string
	CancelURL  string
}
