package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type FeatureRequest struct {
	ID        uuid.UUID `json:"id"`
	UserEmail string    `json:"userEmail"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Store) CreateFeatureRequest(ctx context.Context, userID uuid.UUID, content string) (*FeatureRequest, error) {
	fr := &FeatureRequest{ID: uuid.New(), Content: content}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO feature_requests (id, user_id, content)
		VALUES ($1, $2, $3)
		RETURNING created_at, (SELECT email FROM users WHERE id = $2)`,
		fr.ID, userID, content,
	).Scan(&fr.CreatedAt, &fr.UserEmail)
	if err != nil {
		return nil, err
	}
	return fr, nil
}

func (s *Store) ListFeatureRequests(ctx context.Context) ([]*FeatureRequest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fr.id, u.email, fr.content, fr.created_at
		FROM feature_requests fr
		JOIN users u ON u.id = fr.user_id
		ORDER BY fr.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*FeatureRequest
	for rows.Next() {
		var fr FeatureRequest
		if err := rows.Scan(&fr.ID, &fr.UserEmail, &fr.Content, &fr.CreatedAt); err != nil {
			return nil, err
		}
		requests = append(requests, &fr)
	}
	return requests, rows.Err()
}
