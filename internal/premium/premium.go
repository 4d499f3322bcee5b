// Package premium определяет, что доступно пользователю на его тарифе.
package premium

import "github.com/magabrotheeeer/weather-dashboard/internal/models"

const (
	// FreeForecastDays - горизонт прогноза на бесплатном тарифе.
	FreeForecastDays = 5
	// PremiumForecastDays - горизонт прогноза на премиум-тарифе.
	PremiumForecastDays = 7
	// FreeSavedCitiesLimit - сколько городов может сохранить пользователь бесплатного тарифа.
	FreeSavedCitiesLimit = 3
	// CompareMinCities и CompareMaxCities ограничивают сравнение городов.
	CompareMinCities = 2
	CompareMaxCities = 3
)

// MajorCurrencies - валюты, доступные всем, в порядке вывода.
var MajorCurrencies = []string{"USD", "EUR", "RUB", "PLN", "CNY", "GBP", "CHF", "CZK", "UAH", "KZT"}

// IsPremium сообщает, что у пользователя премиум. Анонимный пользователь (nil) премиума не имеет.
// Срок окончания не проверяется: просроченные выдачи снимает фоновая задача.
func IsPremium(u *models.User) bool {
	return u != nil && u.SubscriptionStatus == models.StatusPremium
}

// ForecastDays возвращает горизонт прогноза для пользователя.
func ForecastDays(u *models.User) int {
	if IsPremium(u) {
		return PremiumForecastDays
	}
	return FreeForecastDays
}

// SavedCitiesLimit возвращает лимит сохранённых городов; 0 - без ограничений.
func SavedCitiesLimit(u *models.User) int {
	if IsPremium(u) {
		return 0
	}
	return FreeSavedCitiesLimit
}

// GateForecast обрезает прогноз до горизонта тарифа и для бесплатного тарифа
// убирает почасовые данные, астрономию и УФ-индекс.
func GateForecast(u *models.User, f *models.Forecast) {
	if f == nil {
		return
	}
	days := ForecastDays(u)
	if len(f.Forecast.ForecastDay) > days {
		f.Forecast.ForecastDay = f.Forecast.ForecastDay[:days]
	}
	if IsPremium(u) {
		return
	}
	f.Current.UV = nil
	for i := range f.Forecast.ForecastDay {
		d := &f.Forecast.ForecastDay[i]
		d.Hour = nil
		d.Astro = nil
		d.Day.UV = nil
	}
}

// GateWeather убирает из текущей погоды поля премиум-тарифа.
func GateWeather(u *models.User, w *models.Weather) {
	if w == nil || IsPremium(u) {
		return
	}
	w.Current.UV = nil
}
