// Package auth implements the magic-link login flow: single-use tokens
// with a short TTL, delivered by email, verified and consumed server-side.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tborer/resume-helper/internal/store"
)

const tokenTTL = 15 * time.Minute

type TokenStore interface {
	CreateMagicLinkToken(ctx context.Context, token uuid.UUID, email string, expiresAt time.Time) error
	ConsumeMagicLinkToken(ctx context.Context, token uuid.UUID) (string, error)
}

type MailSender interface {
	SendMagicLink(ctx context.Context, to, link string) error
}

type Service struct {
	tokens  TokenStore
	mail    MailSender
	baseURL string
	log     *slog.Logger
}

func NewService(tokens TokenStore, mail MailSender, baseURL string) *Service {
	return &Service{
		tokens:  tokens,
		mail:    mail,
		baseURL: baseURL,
		log:     slog.With("component", "auth"),
	}
}

// IssueToken mints a fresh single-use token for the email and returns it
// with the full sign-in URL.
func (s *Service) IssueToken(ctx context.Context, email string) (uuid.UUID, string, error) {
	token := uuid.New()
	if err := s.tokens.CreateMagicLinkToken(ctx, token, email, time.Now().Add(tokenTTL)); err != nil {
		return uuid.Nil, "", fmt.Errorf("storing magic link token: %w", err)
	}
	link := fmt.Sprintf("%s/dashboard?token=%s", s.baseURL, token)
	return token, link, nil
}

// SendMagicLink issues a token and emails the link.
func (s *Service) SendMagicLink(ctx context.Context, email string) error {
	token, link, err := s.IssueToken(ctx, email)
	if err != nil {
		return err
	}
	if err := s.mail.SendMagicLink(ctx, email, link); err != nil {
		return err
	}
	s.log.Info("magic link sent", "email", email, "token", token)
	return nil
}

// Verify consumes a token and returns the email it was issued for.
// Unknown, expired and reused tokens all fail with store.ErrTokenInvalid.
func (s *Service) Verify(ctx context.Context, rawToken string) (string, error) {
	token, err := uuid.Parse(rawToken)
	if err != nil {
		return "", store.ErrTokenInvalid
	}
	return s.tokens.ConsumeMagicLinkToken(ctx, token)
}
