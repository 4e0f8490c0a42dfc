package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type User struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	IsAdmin          bool      `json:"isAdmin"`
	IsActive         bool      `json:"isActive"`
	GeminiAPIKey     string    `json:"-"`
	StripeCustomerID string    `json:"stripeCustomerId,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ErrDuplicateEmail is returned when creating a user whose email exists.
var ErrDuplicateEmail = errors.New("user with this email already exists")

const userColumns = `id, email, is_admin, is_active, COALESCE(gemini_api_key, ''), COALESCE(stripe_customer_id, ''), created_at`

func (s *Store) CreateUser(ctx context.Context, email string, isAdmin bool) (*User, error) {
	user := &User{
		ID:       uuid.New(),
		Email:    email,
		IsAdmin:  isAdmin,
		IsActive: true,
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (id, email, is_admin, is_active) VALUES ($1, $2, $3, TRUE) RETURNING created_at`,
		user.ID, user.Email, user.IsAdmin,
	).Scan(&user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (s *Store) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// SaveAPIKey stores a user's personal Gemini key. The key lives
// server-side only; it is never echoed back in user listings.
func (s *Store) SaveAPIKey(ctx context.Context, email, apiKey string) error {
	return s.updateUser(ctx, `UPDATE users SET gemini_api_key = $2 WHERE email = $1`, email, apiKey)
}

// PersonalKey returns the user's own Gemini key, or "" when none is set.
func (s *Store) PersonalKey(ctx context.Context, email string) (string, error) {
	var key sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT gemini_api_key FROM users WHERE email = $1`, email).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return key.String, nil
}

func (s *Store) SetActive(ctx context.Context, email string, active bool) error {
	return s.updateUser(ctx, `UPDATE users SET is_active = $2 WHERE email = $1`, email, active)
}

func (s *Store) SetStripeCustomer(ctx context.Context, email, customerID string) error {
	return s.updateUser(ctx, `UPDATE users SET stripe_customer_id = $2 WHERE email = $1`, email, customerID)
}

func (s *Store) updateUser(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.IsAdmin, &u.IsActive, &u.GeminiAPIKey, &u.StripeCustomerID, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
