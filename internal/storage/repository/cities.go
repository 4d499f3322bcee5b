package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/weather-dashboard/internal/models"
	"github.com/magabrotheeeer/weather-dashboard/internal/storage"
)

// ListCities возвращает сохранённые города пользователя в порядке добавления.
func (s *Storage) ListCities(ctx context.Context, userID string) ([]models.SavedCity, error) {
	const op = "storage.ListCities"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_id, city_name, country, created_at
			  FROM saved_cities
			  WHERE user_id = $1
			  ORDER BY created_at ASC, id ASC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.SavedCity, 0)
	for rows.Next() {
		c, err := scanCity(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SaveCity добавляет город пользователю или обновляет страну уже сохранённого.
// limit > 0 ограничивает число городов: новый город сверх лимита
// не добавляется и возвращается storage.ErrCityLimit. Строка пользователя
// блокируется на время транзакции, поэтому параллельные запросы
// не могут обойти лимит.
func (s *Storage) SaveCity(ctx context.Context, city models.SavedCity, limit int) (*models.SavedCity, error) {
	const op = "storage.SaveCity"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var lockedID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, city.UserID).Scan(&lockedID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if limit > 0 {
		var exists bool
		var count int
		query := `SELECT
			          COALESCE(BOOL_OR(city_name = $2), FALSE),
			          COUNT(*)
			      FROM saved_cities
			      WHERE user_id = $1`
		if err = tx.QueryRowContext(ctx, query, city.UserID, city.CityName).Scan(&exists, &count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !exists && count >= limit {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrCityLimit)
		}
	}

	query := `INSERT INTO saved_cities (id, user_id, city_name, country)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (user_id, city_name) DO UPDATE
			  SET country = EXCLUDED.country
			  RETURNING id, user_id, city_name, country, created_at`
	saved, err := scanCity(tx.QueryRowContext(ctx, query,
		uuid.NewString(), city.UserID, city.CityName, city.Country))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return saved, nil
}

// DeleteCity удаляет город из списка пользователя. Отсутствие города ошибкой не считается.
func (s *Storage) DeleteCity(ctx context.Context, userID, cityName string) error {
	const op = "storage.DeleteCity"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM saved_cities WHERE user_id = $1 AND city_name = $2`
	if _, err := s.DB.ExecContext(ctx, query, userID, cityName); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func scanCity(row rowScanner) (*models.SavedCity, error) {
	var c models.SavedCity
	var country sql.NullString
	if err := row.Scan(&c.ID, &c.UserID, &c.CityName, &country, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Country = nullString(country)
	return &c, nil
}
