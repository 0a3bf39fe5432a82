package utils

import (
	"context"
	"fmt"
	"io"

	"gopkg.in/gomail.v2"
)

// EmailConfig holds email configuration
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Attachment is an in-memory file attached to a message
type Attachment struct {
	Name    string
	Content []byte
}

// Mailer sends transactional mail
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string, attachments ...Attachment) error
}

// SMTPMailer sends mail through an SMTP relay
type SMTPMailer struct {
	config EmailConfig
	dialer *gomail.Dialer
}

// NewSMTPMailer creates a mailer for the given relay
func NewSMTPMailer(config EmailConfig) *SMTPMailer {
	return &SMTPMailer{
		config: config,
		dialer: gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
	}
}

// Send delivers a single HTML message
func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string, attachments ...Attachment) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.config.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)
	for _, a := range attachments {
		content := a.Content
		msg.Attach(a.Name, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(content)
			return err
		}))
	}

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}
	return nil
}

// NopMailer logs instead of sending. Used when SMTP is not configured.
type NopMailer struct{}

func (NopMailer) Send(_ context.Context, to, subject, _ string, attachments ...Attachment) error {
	LogDebug("Mail disabled, dropping %q to %s with %d attachment(s)", subject, RedactEmail(to), len(attachments))
	return nil
}
