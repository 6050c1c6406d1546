package mail

import (
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

// Sender delivers a single HTML message to one recipient.
type Sender interface {
	Send(to, subject, htmlBody string) error
	Enabled() bool
}

// smtpSender delivers mail through a configured SMTP relay.
type smtpSender struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

// NewSender builds a Sender. An empty SMTP host yields a disabled sender
// that drops messages with a debug log instead of failing operations.
func NewSender(cfg config.MailConfig, logger *zap.Logger) Sender {
	if cfg.Host == "" {
		return &noopSender{logger: logger}
	}
	from := cfg.From
	if from == "" {
		from = cfg.User
	}
	return &smtpSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
		from:   from,
		logger: logger,
	}
}

func (s *smtpSender) Enabled() bool { return true }

func (s *smtpSender) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(msg); err != nil {
		return err
	}
	s.logger.Debug("mail sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

type noopSender struct {
	logger *zap.Logger
}

func (s *noopSender) Enabled() bool { return false }

func (s *noopSender) Send(to, subject, _ string) error {
	s.logger.Debug("mail disabled, dropping message",
		zap.String("to", to), zap.String("subject", subject))
	return nil
}
