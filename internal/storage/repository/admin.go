package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/weather-dashboard/internal/models"
	"github.com/magabrotheeeer/weather-dashboard/internal/storage"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListUsers возвращает страницу пользователей, новые первыми, и общее число
// пользователей, подходящих под фильтр. Поиск регистронезависимый по email и имени.
func (s *Storage) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.AdminUser, int, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	pattern := "%" + likeEscaper.Replace(filter.Search) + "%"
	where := `WHERE ($1 = '' OR u.email ILIKE $2 OR u.name ILIKE $2)`

	var total int
	countQuery := `SELECT COUNT(*) FROM users u ` + where
	if err := s.DB.QueryRowContext(ctx, countQuery, filter.Search, pattern).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	query := `SELECT u.id, u.email, u.name, u.image, u.subscription_status,
			      u.subscription_start, u.subscription_end, u.role, u.is_blocked,
			      u.created_at,
			      (SELECT COUNT(*) FROM saved_cities c WHERE c.user_id = u.id)
			  FROM users u ` + where + `
			  ORDER BY u.created_at DESC, u.id
			  LIMIT $3 OFFSET $4`
	rows, err := s.DB.QueryContext(ctx, query, filter.Search, pattern, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.AdminUser, 0, filter.Limit)
	for rows.Next() {
		var (
			u                models.AdminUser
			name, image      sql.NullString
			subStart, subEnd sql.NullTime
		)
		if err = rows.Scan(&u.ID, &u.Email, &name, &image, &u.SubscriptionStatus,
			&subStart, &subEnd, &u.Role, &u.IsBlocked, &u.CreatedAt, &u.SavedCitiesCount); err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		u.Name = nullString(name)
		u.Image = nullString(image)
		u.SubscriptionStart = nullTime(subStart)
		u.SubscriptionEnd = nullTime(subEnd)
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

// UpdateUser применяет частичное изменение и возвращает обновлённого пользователя.
func (s *Storage) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error) {
	const op = "storage.UpdateUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}

	var (
		sets []string
		args []any
	)
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+strconv.Itoa(len(args)))
	}
	if patch.SubscriptionStatus != nil {
		set("subscription_status", *patch.SubscriptionStatus)
	}
	switch {
	case patch.ClearWindow:
		sets = append(sets, "subscription_start = NULL", "subscription_end = NULL")
	default:
		if patch.SubscriptionStart != nil {
			set("subscription_start", *patch.SubscriptionStart)
		}
		if patch.SubscriptionEnd != nil {
			set("subscription_end", *patch.SubscriptionEnd)
		}
	}
	if patch.IsBlocked != nil {
		set("is_blocked", *patch.IsBlocked)
	}
	if patch.Role != nil {
		set("role", *patch.Role)
	}
	sets = append(sets, "updated_at = NOW()")
	args = append(args, id)

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + `
			  WHERE id = $` + strconv.Itoa(len(args)) + `
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// DeleteUser удаляет пользователя вместе с его сохранёнными городами.
func (s *Storage) DeleteUser(ctx context.Context, id string) error {
	const op = "storage.DeleteUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return expectAffected(op, res, storage.ErrUserNotFound)
}

// Stats считает пользователей по тарифам и блокировке.
// Новыми считаются созданные после since.
func (s *Storage) Stats(ctx context.Context, since time.Time) (models.UserStats, error) {
	const op = "storage.Stats"
	select {
	case <-ctx.Done():
		return models.UserStats{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT
			      COUNT(*),
			      COUNT(*) FILTER (WHERE subscription_status = 'PREMIUM'),
			      COUNT(*) FILTER (WHERE subscription_status = 'FREE'),
			      COUNT(*) FILTER (WHERE is_blocked),
			      COUNT(*) FILTER (WHERE created_at >= $1)
			  FROM users`
	var st models.UserStats
	if err := s.DB.QueryRowContext(ctx, query, since).Scan(
		&st.Total, &st.Premium, &st.Free, &st.Blocked, &st.NewThisMonth); err != nil {
		return models.UserStats{}, fmt.Errorf("%s: %w", op, err)
	}
	return st, nil
}
