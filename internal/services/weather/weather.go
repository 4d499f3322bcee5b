// Package services проксирует погодного провайдера с кешированием и
// ограничениями тарифа.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/weather-dashboard/internal/lib/sl"
	"github.com/magabrotheeeer/weather-dashboard/internal/metrics"
	"github.com/magabrotheeeer/weather-dashboard/internal/models"
	"github.com/magabrotheeeer/weather-dashboard/internal/premium"
	"github.com/magabrotheeeer/weather-dashboard/internal/weatherapi"
)

const (
	cacheKind = "weather"
	// compareDays - сегодня и завтра.
	compareDays = 2
)

var (
	// ErrEmptyQuery - не задан ни город, ни координаты.
	ErrEmptyQuery = errors.New("city or lat/lon required")
	// ErrCompareCount - для сравнения нужно от 2 до 3 городов.
	ErrCompareCount = errors.New("compare requires 2 to 3 cities")
)

// Provider - погодный провайдер.
type Provider interface {
	Current(ctx context.Context, q weatherapi.Query) (*models.Weather, error)
	Forecast(ctx context.Context, q weatherapi.Query, days int) (*models.Forecast, error)
}

// Cache - кеш ответов провайдера.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// WeatherService отдаёт погоду с учётом тарифа пользователя.
type WeatherService struct {
	provider Provider
	cache    Cache
	ttl      time.Duration
	log      *slog.Logger
}

// NewWeatherService создает новый экземпляр WeatherService.
func NewWeatherService(provider Provider, cache Cache, ttl time.Duration, log *slog.Logger) *WeatherService {
	return &WeatherService{
		provider: provider,
		cache:    cache,
		ttl:      ttl,
		log:      log,
	}
}

// Current возвращает текущую погоду. user может быть nil.
func (s *WeatherService) Current(ctx context.Context, user *models.User, q weatherapi.Query) (*models.Weather, error) {
	const op = "services.weather.Current"
	if q.Empty() {
		return nil, ErrEmptyQuery
	}

	key := cacheKey("current", q, 0)
	var w models.Weather
	if s.fromCache(ctx, key, &w) {
		premium.GateWeather(user, &w)
		return &w, nil
	}

	fresh, err := s.provider.Current(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.toCache(ctx, key, fresh)
	premium.GateWeather(user, fresh)
	return fresh, nil
}

// Forecast возвращает прогноз на горизонт тарифа пользователя.
func (s *WeatherService) Forecast(ctx context.Context, user *models.User, q weatherapi.Query) (*models.Forecast, error) {
	const op = "services.weather.Forecast"
	if q.Empty() {
		return nil, ErrEmptyQuery
	}

	f, err := s.forecast(ctx, q, premium.ForecastDays(user))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	premium.GateForecast(user, f)
	return f, nil
}

// Compare возвращает текущую погоду и прогноз на завтра для 2-3 городов.
// Ошибка по отдельному городу попадает в его элемент, а не в результат.
func (s *WeatherService) Compare(ctx context.Context, user *models.User, cities []string) ([]models.CityComparison, error) {
	const op = "services.weather.Compare"

	names := make([]string, 0, len(cities))
	for _, c := range cities {
		if c = strings.TrimSpace(c); c != "" {
			names = append(names, c)
		}
	}
	if len(names) < premium.CompareMinCities || len(names) > premium.CompareMaxCities {
		return nil, ErrCompareCount
	}

	log := s.log.With(slog.String("op", op))
	items := make([]models.CityComparison, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			items[i] = s.compareOne(gctx, log, user, name)
			return nil
		})
	}
	_ = g.Wait()
	return items, nil
}

func (s *WeatherService) compareOne(ctx context.Context, log *slog.Logger, user *models.User, city string) models.CityComparison {
	item := models.CityComparison{City: city}
	q := weatherapi.Query{City: city}

	f, err := s.forecast(ctx, q, compareDays)
	if err != nil {
		log.Warn("compare city failed", slog.String("city", city), sl.Err(err))
		item.Error = errorText(err)
		return item
	}
	premium.GateForecast(user, f)

	item.Weather = &models.Weather{Location: f.Location, Current: f.Current}
	if len(f.Forecast.ForecastDay) > 1 {
		tomorrow := f.Forecast.ForecastDay[1]
		item.Tomorrow = &tomorrow
	}
	return item
}

func (s *WeatherService) forecast(ctx context.Context, q weatherapi.Query, days int) (*models.Forecast, error) {
	key := cacheKey("forecast", q, days)
	var f models.Forecast
	if s.fromCache(ctx, key, &f) {
		return &f, nil
	}

	fresh, err := s.provider.Forecast(ctx, q, days)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, key, fresh)
	return fresh, nil
}

func (s *WeatherService) fromCache(ctx context.Context, key string, out any) bool {
	found, err := s.cache.Get(ctx, key, out)
	if err != nil {
		s.log.Warn("weather cache read failed", slog.String("key", key), sl.Err(err))
		return false
	}
	metrics.ObserveCache(cacheKind, found)
	return found
}

func (s *WeatherService) toCache(ctx context.Context, key string, value any) {
	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		s.log.Warn("weather cache write failed", slog.String("key", key), sl.Err(err))
	}
}

func cacheKey(kind string, q weatherapi.Query, days int) string {
	key := "weather:" + kind + ":" + strings.ToLower(q.String())
	if days > 0 {
		key += ":" + strconv.Itoa(days)
	}
	return key
}

func errorText(err error) string {
	if errors.Is(err, weatherapi.ErrLocationNotFound) {
		return "City not found"
	}
	return "Failed to fetch weather"
}
