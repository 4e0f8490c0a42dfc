// Package usage meters shared-key calls per user per UTC calendar day.
// Personal-key calls never pass through the meter.
package usage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tborer/resume-helper/pkg/types"
)

// LimitError tells the caller the numeric limit and the way out of it.
type LimitError struct {
	Limit int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("daily limit of %d shared-key analyses reached; add your own Gemini API key in account settings to continue", e.Limit)
}

// Store is the persistence the meter needs. The increment must be a
// single conditional write: a separate read-compare-write sequence would
// let two concurrent requests both pass the limit check.
type Store interface {
	IncrementUsageIfBelow(ctx context.Context, userID uuid.UUID, limit int) (count int, ok bool, err error)
	TodayUsage(ctx context.Context, userID uuid.UUID) (int, error)
}

type Meter struct {
	store Store
	limit int
}

func NewMeter(s Store, limit int) *Meter {
	return &Meter{store: s, limit: limit}
}

func (m *Meter) Limit() int { return m.limit }

// CheckAndReserve consumes one quota unit for today, or fails with a
// *LimitError without consuming anything. A record from a previous day
// counts as zero; the reset is observed lazily on first use of a new day.
func (m *Meter) CheckAndReserve(ctx context.Context, userID uuid.UUID) error {
	_, ok, err := m.store.IncrementUsageIfBelow(ctx, userID, m.limit)
	if err != nil {
		return fmt.Errorf("reserving shared-key usage: %w", err)
	}
	if !ok {
		return &LimitError{Limit: m.limit}
	}
	return nil
}

// Remaining reports how many shared-key calls the user has left today.
func (m *Meter) Remaining(ctx context.Context, userID uuid.UUID) (types.UsageStatus, error) {
	count, err := m.store.TodayUsage(ctx, userID)
	if err != nil {
		return types.UsageStatus{}, fmt.Errorf("reading shared-key usage: %w", err)
	}
	remaining := m.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return types.UsageStatus{Remaining: remaining, Total: m.limit}, nil
}
