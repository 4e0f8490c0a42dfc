package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tborer/resume-helper/internal/store"
)

type memTokens struct {
	tokens map[uuid.UUID]tokenRecord
	now    time.Time
	err    error
}

type tokenRecord struct {
	email     string
	expiresAt time.Time
	used      bool
}

func newMemTokens() *memTokens {
	return &memTokens{
		tokens: make(map[uuid.UUID]tokenRecord),
		now:    time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func (m *memTokens) CreateMagicLinkToken(_ context.Context, token uuid.UUID, email string, expiresAt time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.tokens[token] = tokenRecord{email: email, expiresAt: expiresAt}
	return nil
}

func (m *memTokens) ConsumeMagicLinkToken(_ context.Context, token uuid.UUID) (string, error) {
	rec, ok := m.tokens[token]
	if !ok || rec.used || rec.expiresAt.Before(m.now) {
		return "", store.ErrTokenInvalid
	}
	rec.used = true
	m.tokens[token] = rec
	return rec.email, nil
}

type memMail struct {
	to   []string
	link string
	err  error
}

func (m *memMail) SendMagicLink(_ context.Context, to, link string) error {
	if m.err != nil {
		return m.err
	}
	m.to = append(m.to, to)
	m.link = link
	return nil
}

func TestSendAndVerify(t *testing.T) {
	ctx := context.Background()
	tokens := newMemTokens()
	mail := &memMail{}
	svc := NewService(tokens, mail, "https://resume.example.com")

	require.NoError(t, svc.SendMagicLink(ctx, "alice@example.com"))
	require.Equal(t, []string{"alice@example.com"}, mail.to)
	assert.Contains(t, mail.link, "https://resume.example.com/dashboard?token=")

	token := mail.link[len("https://resume.example.com/dashboard?token="):]
	email, err := svc.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", email)

	// single use: the same token fails the second time
	_, err = svc.Verify(ctx, token)
	assert.ErrorIs(t, err, store.ErrTokenInvalid)
}

func TestVerifyRejectsGarbageToken(t *testing.T) {
	svc := NewService(newMemTokens(), &memMail{}, "https://resume.example.com")

	_, err := svc.Verify(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, store.ErrTokenInvalid)

	_, err = svc.Verify(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, store.ErrTokenInvalid)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	ctx := context.Background()
	tokens := newMemTokens()
	svc := NewService(tokens, &memMail{}, "https://resume.example.com")

	token, _, err := svc.IssueToken(ctx, "alice@example.com")
	require.NoError(t, err)

	tokens.now = tokens.now.Add(16 * time.Minute)
	_, err = svc.Verify(ctx, token.String())
	assert.ErrorIs(t, err, store.ErrTokenInvalid)
}

func TestSendMagicLinkFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("token store failure", func(t *testing.T) {
		tokens := newMemTokens()
		tokens.err = errors.New("connection refused")
		svc := NewService(tokens, &memMail{}, "https://resume.example.com")
		assert.Error(t, svc.SendMagicLink(ctx, "alice@example.com"))
	})

	t.Run("mail failure", func(t *testing.T) {
		svc := NewService(newMemTokens(), &memMail{err: errors.New("smtp down")}, "https://resume.example.com")
		assert.Error(t, svc.SendMagicLink(ctx, "alice@example.com"))
	})
}
