// Package services управляет избранными городами пользователя.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/weather-dashboard/internal/models"
	"github.com/magabrotheeeer/weather-dashboard/internal/premium"
	"github.com/magabrotheeeer/weather-dashboard/internal/storage"
)

var (
	// ErrCityNameRequired - не передано название города.
	ErrCityNameRequired = errors.New("cityName required")
	// ErrLimitReached - на бесплатном тарифе сохранено максимальное число городов.
	ErrLimitReached = errors.New("limit reached")
)

// CityRepository описывает хранилище избранных городов.
type CityRepository interface {
	ListCities(ctx context.Context, userID string) ([]models.SavedCity, error)
	SaveCity(ctx context.Context, city models.SavedCity, limit int) (*models.SavedCity, error)
	DeleteCity(ctx context.Context, userID, cityName string) error
}

// CitiesService работает с избранными городами.
type CitiesService struct {
	repo CityRepository
	log  *slog.Logger
}

// NewCitiesService создает новый экземпляр CitiesService.
func NewCitiesService(repo CityRepository, log *slog.Logger) *CitiesService {
	return &CitiesService{
		repo: repo,
		log:  log,
	}
}

// List возвращает города пользователя в порядке добавления и лимит тарифа.
func (s *CitiesService) List(ctx context.Context, user *models.User) (*models.SavedCities, error) {
	const op = "services.cities.List"
	cities, err := s.repo.ListCities(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cities == nil {
		cities = []models.SavedCity{}
	}
	return &models.SavedCities{Cities: cities, Limit: Limit(user)}, nil
}

// Save добавляет город или обновляет страну у уже сохранённого.
func (s *CitiesService) Save(ctx context.Context, user *models.User, cityName string, country *string) (*models.SavedCity, error) {
	const op = "services.cities.Save"
	cityName = strings.TrimSpace(cityName)
	if cityName == "" {
		return nil, ErrCityNameRequired
	}
	if country != nil {
		if c := strings.TrimSpace(*country); c != "" {
			country = &c
		} else {
			country = nil
		}
	}

	city, err := s.repo.SaveCity(ctx, models.SavedCity{
		UserID:   user.ID,
		CityName: cityName,
		Country:  country,
	}, premium.SavedCitiesLimit(user))
	if errors.Is(err, storage.ErrCityLimit) {
		return nil, ErrLimitReached
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Debug("city saved", slog.String("user_id", user.ID), slog.String("city", cityName))
	return city, nil
}

// Remove удаляет город. Удаление отсутствующего города не ошибка.
func (s *CitiesService) Remove(ctx context.Context, user *models.User, cityName string) error {
	const op = "services.cities.Remove"
	cityName = strings.TrimSpace(cityName)
	if cityName == "" {
		return ErrCityNameRequired
	}
	if err := s.repo.DeleteCity(ctx, user.ID, cityName); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Limit возвращает лимит городов для ответа клиенту; nil - без ограничений.
func Limit(user *models.User) *int {
	limit := premium.SavedCitiesLimit(user)
	if limit == 0 {
		return nil
	}
	return &limit
}
