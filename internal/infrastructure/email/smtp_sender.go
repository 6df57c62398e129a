package email

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	// UseTLS forces an implicit TLS connection; otherwise STARTTLS is
	// attempted opportunistically (local mailcatchers speak plain SMTP).
	UseTLS bool
}

// SMTPSender delivers rendered messages with go-mail.
type SMTPSender struct {
	client   *mail.Client
	from     string
	fromName string
}

func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	if cfg.UseTLS {
		opts = append(opts, mail.WithSSLPort(false))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}

	return &SMTPSender{client: client, from: cfg.From, fromName: cfg.FromName}, nil
}

// Send implements notify.Sender.
func (s *SMTPSender) Send(ctx context.Context, toEmail, toName, subject, html string) error {
	msg := mail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.from); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if toName != "" {
		if err := msg.AddToFormat(toName, toEmail); err != nil {
			return fmt.Errorf("set to: %w", err)
		}
	} else if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("set to: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, html)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
