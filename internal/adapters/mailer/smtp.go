package mailer

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/taskhive/core/internal/infrastructure/config"
)

// SMTPMailer sends reminder emails over SMTP. Dial timeouts are gomail's;
// the caller only sees pass/fail.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// New creates a new SMTP mailer
func New(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send delivers one HTML email.
func (m *SMTPMailer) Send(toEmail, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", toEmail, err)
	}

	return nil
}
