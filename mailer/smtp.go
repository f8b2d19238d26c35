package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"
)

// SMTPConfig describes the relay and the link template. BaseURL is the
// public address of the HTTP surface; the confirmation path is appended to
// it.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	BaseURL  string
}

// SMTPSender delivers confirmation mail over SMTP.
type SMTPSender struct {
	cfg    SMTPConfig
	client *mail.Client
}

// NewSMTPSender validates the config and dials lazily; the connection is
// established per delivery by the client.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("mailer: host and from address are required")
	}
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
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mailer: %w", err)
	}
	return &SMTPSender{cfg: cfg, client: client}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return err
	}
	if err := m.To(msg.To); err != nil {
		return err
	}
	m.Subject("Confirm your email")
	link := fmt.Sprintf("%s/api/auth/confirmed_email/%s", s.cfg.BaseURL, msg.Token)
	m.SetBodyString(mail.TypeTextPlain, fmt.Sprintf(
		"Hi %s,\n\nConfirm your email by opening the link below:\n\n%s\n\nIf you did not sign up, ignore this mail.\n",
		msg.Username, link,
	))
	return s.client.DialAndSendWithContext(ctx, m)
}

// LogSender writes deliveries to the log instead of a relay. Used in
// development and tests where no SMTP relay exists.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(_ context.Context, msg Message) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("confirmation mail (log sender)", "to", msg.To, "token", msg.Token)
	return nil
}
