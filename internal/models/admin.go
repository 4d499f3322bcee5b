package models

import "time"

// AdminUser — строка списка пользователей в панели администратора.
type AdminUser struct {
	ID                 string             `json:"id"`
	Email              string             `json:"email"`
	Name               *string            `json:"name"`
	Image              *string            `json:"image"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus"`
	SubscriptionStart  *time.Time         `json:"subscriptionStart"`
	SubscriptionEnd    *time.Time         `json:"subscriptionEnd"`
	Role               Role               `json:"role"`
	IsBlocked          bool               `json:"isBlocked"`
	CreatedAt          time.Time          `json:"createdAt"`
	SavedCitiesCount   int                `json:"savedCitiesCount"`
}

// UserFilter — параметры постраничной выборки пользователей.
type UserFilter struct {
	Search string
	Limit  int
	Offset int
}

// UserPatch — частичное изменение пользователя администратором.
// Nil-поля не изменяются. ClearWindow обнуляет окно подписки.
type UserPatch struct {
	SubscriptionStatus *SubscriptionStatus
	SubscriptionStart  *time.Time
	SubscriptionEnd    *time.Time
	ClearWindow        bool
	IsBlocked          *bool
	Role               *Role
}

// Empty сообщает, что патч ничего не меняет.
func (p UserPatch) Empty() bool {
	return p.SubscriptionStatus == nil && p.IsBlocked == nil && p.Role == nil &&
		p.SubscriptionStart == nil && p.SubscriptionEnd == nil && !p.ClearWindow
}

// Pagination — метаданные постраничного ответа.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// UserStats — агрегированная статистика по пользователям.
type UserStats struct {
	Total        int `json:"total"`
	Premium      int `json:"premium"`
	Free         int `json:"free"`
	Blocked      int `json:"blocked"`
	NewThisMonth int `json:"newThisMonth"`
}

// UserList — страница списка пользователей.
type UserList struct {
	Users      []AdminUser `json:"users"`
	Pagination Pagination  `json:"pagination"`
}

// AdminUpdate — изменения, которые администратор может внести в пользователя.
type AdminUpdate struct {
	SubscriptionStatus *SubscriptionStatus
	IsBlocked          *bool
	Role               *Role
}
