package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrTokenInvalid covers unknown, expired and already-used tokens alike;
// callers get no hint which one it was.
var ErrTokenInvalid = errors.New("magic link token is invalid or expired")

func (s *Store) CreateMagicLinkToken(ctx context.Context, token uuid.UUID, email string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO magic_link_tokens (token, email, expires_at) VALUES ($1, $2, $3)`,
		token, email, expiresAt)
	return err
}

// ConsumeMagicLinkToken marks the token used and returns its email. A
// token verifies at most once; the update and the validity check are a
// single statement.
func (s *Store) ConsumeMagicLinkToken(ctx context.Context, token uuid.UUID) (string, error) {
	var email string
	err := s.db.QueryRowContext(ctx, `
		UPDATE magic_link_tokens
		SET used = TRUE
		WHERE token = $1 AND used = FALSE AND expires_at > now()
		RETURNING email`,
		token,
	).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrTokenInvalid
	}
	if err != nil {
		return "", err
	}
	return email, nil
}

// PruneExpiredTokens removes tokens past their expiry.
func (s *Store) PruneExpiredTokens(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM magic_link_tokens WHERE expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
