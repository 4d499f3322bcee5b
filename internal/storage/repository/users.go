package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/weather-dashboard/internal/models"
	"github.com/magabrotheeeer/weather-dashboard/internal/storage"
)

const userColumns = `id, email, name, image, subscription_status, subscription_start,
			      subscription_end, stripe_customer_id, stripe_subscription_id, role,
			      is_blocked, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u                 models.User
		name, image       sql.NullString
		customerID, subID sql.NullString
		subStart, subEnd  sql.NullTime
	)
	if err := row.Scan(&u.ID, &u.Email, &name, &image, &u.SubscriptionStatus, &subStart,
		&subEnd, &customerID, &subID, &u.Role, &u.IsBlocked, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Name = nullString(name)
	u.Image = nullString(image)
	u.StripeCustomerID = nullString(customerID)
	u.StripeSubscriptionID = nullString(subID)
	u.SubscriptionStart = nullTime(subStart)
	u.SubscriptionEnd = nullTime(subEnd)
	return &u, nil
}

// CreateUser создаёт пользователя с бесплатным тарифом.
// Если email уже занят, возвращает storage.ErrUserExists.
func (s *Storage) CreateUser(ctx context.Context, user models.NewUser) (*models.User, error) {
	const op = "storage.CreateUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var name *string
	if user.Name != "" {
		name = &user.Name
	}
	query := `INSERT INTO users (id, email, name, image, subscription_status, role)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query,
		uuid.NewString(), user.Email, name, user.Image, models.StatusFree, user.Role))
	if err != nil {
		if uniqueConstraint(err) != "" {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrUserExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (s *Storage) getUserBy(ctx context.Context, op, column, value string) (*models.User, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE ` + column + ` = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, value))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByEmail возвращает пользователя по email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUserBy(ctx, "storage.GetUserByEmail", "email", email)
}

// GetUserByID возвращает пользователя по id.
func (s *Storage) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("storage.GetUserByID: %w", storage.ErrUserNotFound)
	}
	return s.getUserBy(ctx, "storage.GetUserByID", "id", id)
}

// GetUserByCustomerID возвращает пользователя, к которому привязан клиент платёжного провайдера.
func (s *Storage) GetUserByCustomerID(ctx context.Context, customerID string) (*models.User, error) {
	return s.getUserBy(ctx, "storage.GetUserByCustomerID", "stripe_customer_id", customerID)
}

// SetCustomerID привязывает клиента платёжного провайдера к пользователю.
func (s *Storage) SetCustomerID(ctx context.Context, userID, customerID string) error {
	const op = "storage.SetCustomerID"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET stripe_customer_id = $1, updated_at = NOW()
			  WHERE id = $2`
	res, err := s.DB.ExecContext(ctx, query, customerID, userID)
	if err != nil {
		if uniqueConstraint(err) != "" {
			return fmt.Errorf("%s: %w", op, storage.ErrCustomerBound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return expectAffected(op, res, storage.ErrUserNotFound)
}

// UpdateSubscription целиком переписывает поля подписки пользователя.
// Повторный вызов с теми же значениями оставляет строку в том же состоянии.
func (s *Storage) UpdateSubscription(ctx context.Context, userID string, upd models.SubscriptionUpdate) error {
	const op = "storage.UpdateSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_status = $1,
			      subscription_start = $2,
			      subscription_end = $3,
			      stripe_subscription_id = $4,
			      updated_at = NOW()
			  WHERE id = $5`
	res, err := s.DB.ExecContext(ctx, query,
		upd.Status, upd.Start, upd.End, upd.StripeSubscriptionID, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return expectAffected(op, res, storage.ErrUserNotFound)
}

// UpdateSubscriptionWindow переписывает только период подписки (продление).
func (s *Storage) UpdateSubscriptionWindow(ctx context.Context, userID string, start, end time.Time) error {
	const op = "storage.UpdateSubscriptionWindow"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_start = $1,
			      subscription_end = $2,
			      updated_at = NOW()
			  WHERE id = $3`
	res, err := s.DB.ExecContext(ctx, query, start, end, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return expectAffected(op, res, storage.ErrUserNotFound)
}

// ExpireGrant переводит на FREE ручную выдачу премиума, если она всё ещё истёкшая
// к моменту now. false означает, что строка успела измениться (например, оплата
// через провайдера) и понижение пропущено.
func (s *Storage) ExpireGrant(ctx context.Context, userID string, now time.Time) (bool, error) {
	const op = "storage.ExpireGrant"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_status = 'FREE',
			      subscription_start = NULL,
			      subscription_end = NULL,
			      updated_at = NOW()
			  WHERE id = $1
			    AND subscription_status = 'PREMIUM'
			    AND stripe_subscription_id IS NULL
			    AND subscription_end IS NOT NULL
			    AND subscription_end < $2`
	res, err := s.DB.ExecContext(ctx, query, userID, now)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

// ListExpiredGrants возвращает пользователей с премиумом, выданным вручную
// (без подписки у провайдера), срок которого истёк к моменту now.
func (s *Storage) ListExpiredGrants(ctx context.Context, now time.Time) ([]models.User, error) {
	const op = "storage.ListExpiredGrants"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE subscription_status = 'PREMIUM'
			    AND stripe_subscription_id IS NULL
			    AND subscription_end IS NOT NULL
			    AND subscription_end < $1`
	rows, err := s.DB.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func expectAffected(op string, res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, notFound)
	}
	return nil
}
