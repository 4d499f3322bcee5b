package models

import "time"

// SubscriptionEvent — уведомление об изменении тарифа пользователя,
// публикуемое в брокер сообщений.
type SubscriptionEvent struct {
	Type       string             `json:"type"`
	UserID     string             `json:"user_id"`
	Email      string             `json:"email"`
	Status     SubscriptionStatus `json:"status"`
	EndDate    *time.Time         `json:"end_date,omitempty"`
	OccurredAt time.Time          `json:"occurred_at"`
}

const (
	// EventPremiumActivated — пользователь получил премиум.
	EventPremiumActivated = "premium.activated"
	// EventPremiumRenewed — продлён период подписки.
	EventPremiumRenewed = "premium.renewed"
	// EventPremiumRevoked — премиум отменён.
	EventPremiumRevoked = "premium.revoked"
	// EventPremiumExpired — премиум истёк по сроку.
	EventPremiumExpired = "premium.expired"
)
