package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// The quota day is the UTC calendar date. A row for a previous day is
// simply never matched again, which gives the lazy once-per-day reset
// without a scheduled job.

// IncrementUsageIfBelow atomically increments today's shared-key counter
// for the user, but only while the stored count is below limit. It returns
// the new count and ok=false when the limit was already reached. The
// check and the increment happen in one statement, so two concurrent
// requests cannot both slip past the limit.
func (s *Store) IncrementUsageIfBelow(ctx context.Context, userID uuid.UUID, limit int) (int, bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO usage_records (user_id, day, count)
		VALUES ($1, (now() AT TIME ZONE 'utc')::date, 1)
		ON CONFLICT (user_id, day)
		DO UPDATE SET count = usage_records.count + 1
		WHERE usage_records.count < $2
		RETURNING count`,
		userID, limit,
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

// TodayUsage returns today's shared-key count for the user; 0 when no
// record exists or the latest record is from a previous day.
func (s *Store) TodayUsage(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT count FROM usage_records
		WHERE user_id = $1 AND day = (now() AT TIME ZONE 'utc')::date`,
		userID,
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ResetAllUsage clears every usage record. Exposed to admins as the
// manual counterpart of the daily rollover.
func (s *Store) ResetAllUsage(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM usage_records`)
	return err
}
