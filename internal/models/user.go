// Package models содержит доменные структуры приложения: пользователя,
// сохранённые города, курсы валют и ответы погодного провайдера.
package models

import "time"

// SubscriptionStatus описывает тариф пользователя.
type SubscriptionStatus string

// Role описывает роль пользователя в системе.
type Role string

const (
	// StatusFree — бесплатный тариф.
	StatusFree SubscriptionStatus = "FREE"
	// StatusPremium — оплаченный тариф.
	StatusPremium SubscriptionStatus = "PREMIUM"

	// RoleUser — обычный пользователь.
	RoleUser Role = "USER"
	// RoleAdmin — администратор.
	RoleAdmin Role = "ADMIN"
)

// User представляет пользователя приложения вместе с состоянием его подписки.
type User struct {
	ID                   string             `json:"id"`
	Email                string             `json:"email"`
	Name                 *string            `json:"name"`
	Image                *string            `json:"image"`
	SubscriptionStatus   SubscriptionStatus `json:"subscriptionStatus"`
	SubscriptionStart    *time.Time         `json:"subscriptionStart"`
	SubscriptionEnd      *time.Time         `json:"subscriptionEnd"`
	StripeCustomerID     *string            `json:"-"`
	StripeSubscriptionID *string            `json:"-"`
	Role                 Role               `json:"role"`
	IsBlocked            bool               `json:"isBlocked"`
	CreatedAt            time.Time          `json:"createdAt"`
	UpdatedAt            time.Time          `json:"updatedAt"`
}

// NewUser — данные для создания пользователя при первом входе или регистрации.
type NewUser struct {
	Email string
	Name  string
	Image *string
	Role  Role
}

// Identity — личность, подтверждённая провайдером аутентификации (claims токена).
type Identity struct {
	Subject   string
	Email     string
	Name      string
	AvatarURL string
}

// Profile — публичное представление пользователя для клиента.
type Profile struct {
	ID                 string             `json:"id"`
	Email              string             `json:"email"`
	Name               *string            `json:"name"`
	Image              *string            `json:"image"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus"`
	Role               Role               `json:"role"`
	IsBlocked          bool               `json:"isBlocked"`
}

// ToProfile возвращает публичное представление пользователя.
func (u *User) ToProfile() Profile {
	return Profile{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		Image:              u.Image,
		SubscriptionStatus: u.SubscriptionStatus,
		Role:               u.Role,
		IsBlocked:          u.IsBlocked,
	}
}

// SubscriptionUpdate — значения полей подписки, которые переписываются
// целиком при сверке с платёжным провайдером.
type SubscriptionUpdate struct {
	Status               SubscriptionStatus
	Start                *time.Time
	End                  *time.Time
	StripeSubscriptionID *string
}
