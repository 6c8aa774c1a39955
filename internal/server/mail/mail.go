// Package mail implements the outbound email notifier over SMTP.
package mail

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"

	"taskkeeper/internal/server/config"
)

// SMTPNotifier sends HTML mail through a configured SMTP relay. It satisfies
// services.Notifier.
type SMTPNotifier struct {
	client *gomail.Client
	sender string
}

// NewSMTPNotifier builds a notifier from server config. Authentication is
// only enabled when a username is configured, so a local debug relay works
// out of the box.
func NewSMTPNotifier(cfg *config.Config) (*SMTPNotifier, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.SMTPPort),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.SMTPUser),
			gomail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := gomail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client error: %w", err)
	}

	return &SMTPNotifier{client: client, sender: cfg.SenderEmail}, nil
}

func (n *SMTPNotifier) SendEmail(ctx context.Context, to string, subject string, htmlBody string) error {
	msg := gomail.NewMsg()
	if err := msg.From(n.sender); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlBody)

	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send error: %w", err)
	}
	return nil
}
