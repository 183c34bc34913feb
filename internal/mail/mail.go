// Package mail delivers contact form submissions to the site owner.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Contact is a submission from the contact form.
type Contact struct {
	Name    string
	Email   string
	Message string
}

// Mailer sends contact submissions.
type Mailer interface {
	Send(ctx context.Context, contact Contact) error
}

// SMTPConfig holds server and account settings.
type SMTPConfig struct {
	Host string
	Port string
	User string
	Pass string
	To   string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends through an authenticated SMTP relay.
type SMTPMailer struct {
	cfg    SMTPConfig
	logger *zap.Logger
	send   sendFunc
}

// NewSMTP validates cfg; To defaults to the account address.
func NewSMTP(cfg SMTPConfig, logger *zap.Logger) (*SMTPMailer, error) {
	if cfg.User == "" || cfg.Pass == "" {
		return nil, fmt.Errorf("SMTP credentials not configured")
	}
	if cfg.Host == "" || cfg.Port == "" {
		return nil, fmt.Errorf("SMTP host and port are required")
	}
	if cfg.To == "" {
		cfg.To = cfg.User
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMTPMailer{cfg: cfg, logger: logger, send: smtp.SendMail}, nil
}

// Send composes and delivers the message.
func (m *SMTPMailer) Send(ctx context.Context, contact Contact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := Compose(m.cfg.User, m.cfg.To, contact)
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	if err := m.send(m.cfg.Host+":"+m.cfg.Port, auth, m.cfg.User, []string{m.cfg.To}, msg); err != nil {
		return fmt.Errorf("send contact email: %w", err)
	}
	m.logger.Info("contact email sent", zap.String("from_name", contact.Name))
	return nil
}

// Compose builds the RFC 5322 message. Header values are stripped of line
// breaks so form input cannot inject headers.
func Compose(from, to string, contact Contact) []byte {
	name := headerSafe(contact.Name)
	replyTo := headerSafe(contact.Email)

	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, name, replyTo, contact.Message)

	var b strings.Builder
	b.WriteString("To: " + headerSafe(to) + "\r\n")
	b.WriteString("Subject: Portfolio Contact: " + name + "\r\n")
	b.WriteString("From: " + headerSafe(from) + "\r\n")
	b.WriteString("Reply-To: " + replyTo + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body + "\r\n")
	return []byte(b.String())
}

func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(strings.TrimSpace(s))
}

// LogMailer only logs submissions; it is used when SMTP is not configured.
type LogMailer struct {
	Logger *zap.Logger
}

func (m LogMailer) Send(_ context.Context, contact Contact) error {
	if m.Logger != nil {
		m.Logger.Info("contact submission received (SMTP not configured)",
			zap.String("from_name", contact.Name))
	}
	return nil
}
