// Package email delivers the confirmation and password reset messages.
package email

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/dmitrijs2005/mybudget/internal/logging"
	"github.com/dmitrijs2005/mybudget/internal/server/config"
)

// Sender delivers a plain-text message to one recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender sends mail through an SMTP relay.
type SMTPSender struct {
	cfg  config.SMTP
	send func(ctx context.Context, c *mail.Client, m *mail.Msg) error
}

func NewSMTPSender(cfg config.SMTP) *SMTPSender {
	return &SMTPSender{
		cfg: cfg,
		send: func(ctx context.Context, c *mail.Client, m *mail.Msg) error {
			return c.DialAndSendWithContext(ctx, m)
		},
	}
}

func (s *SMTPSender) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.User),
			mail.WithPassword(s.cfg.Password),
		)
	}
	return mail.NewClient(s.cfg.Host, opts...)
}

func newMessage(from, to, subject, body string) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(subject)
	m.SetBodyString(mail.TypeTextPlain, body)
	return m, nil
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	m, err := newMessage(s.cfg.Sender, to, subject, body)
	if err != nil {
		return err
	}
	c, err := s.client()
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := s.send(ctx, c, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogSender writes messages to the log instead of sending them. It is used
// when no SMTP host is configured.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	return &LogSender{log: log.With("module", "email")}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.log.Info(ctx, "email not sent, smtp disabled", "to", to, "subject", subject, "body", body)
	return nil
}

// New picks the SMTP sender when a host is configured.
func New(cfg config.SMTP, log logging.Logger) Sender {
	if cfg.Host == "" {
		return NewLogSender(log)
	}
	return NewSMTPSender(cfg)
}
