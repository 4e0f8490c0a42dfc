// Package mail delivers magic-link sign-in emails over SMTP.
package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

type Sender struct {
	client *gomail.Client
	from   string
}

func NewSender(host string, port int, username, password, from string) (*Sender, error) {
	client, err := gomail.NewClient(host,
		gomail.WithPort(port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(username),
		gomail.WithPassword(password),
	)
	if err != nil {
		return nil, fmt.Errorf("creating SMTP client: %w", err)
	}
	return &Sender{client: client, from: from}, nil
}

func (s *Sender) SendMagicLink(ctx context.Context, to, link string) error {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject("Your Resume Rocket sign-in link")
	msg.SetBodyString(gomail.TypeTextPlain, fmt.Sprintf(
		"Click the link below to sign in to Resume Rocket Match AI:\n\n%s\n\nThe link expires in 15 minutes and can be used once. If you did not request it, ignore this email.\n", link))

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending magic link email: %w", err)
	}
	return nil
}
