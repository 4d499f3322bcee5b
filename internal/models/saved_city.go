package models

import "time"

// SavedCity - город, сохранённый пользователем в избранное.
type SavedCity struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	CityName  string    `json:"cityName"`
	Country   *string   `json:"country"`
	CreatedAt time.Time `json:"-"`
}

// SavedCities - список сохранённых городов и лимит тарифа (nil - без ограничений).
type SavedCities struct {
	Cities []SavedCity `json:"cities"`
	Limit  *int        `json:"limit"`
}
