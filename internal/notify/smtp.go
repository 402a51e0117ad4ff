package notify

import (
	"context"
	"fmt"
	"net/mail"
	gosmtp "net/smtp"
	"strings"
	"time"

	"github.com/jambushrusti/platform/internal/config"
)

// SMTPNotifier delivers notifications over SMTP with STARTTLS (port 587
// typical). Settings come from environment config at startup.
type SMTPNotifier struct {
	cfg config.MailConfig
}

// NewSMTPNotifier creates a notifier that sends real email.
func NewSMTPNotifier(cfg config.MailConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg}
}

// IsConfigured returns true if an SMTP host is set.
func (n *SMTPNotifier) IsConfigured() bool {
	return n.cfg.Enabled()
}

// Send builds an RFC 2822 message and submits it to the configured relay.
func (n *SMTPNotifier) Send(ctx context.Context, to []string, subject, body string) error {
	if !n.cfg.Enabled() {
		return fmt.Errorf("smtp is not configured")
	}

	from := mail.Address{Name: n.cfg.FromName, Address: n.cfg.FromAddress}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from.String()))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ", ")))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)

	var auth gosmtp.Auth
	if n.cfg.Username != "" {
		auth = gosmtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	// net/smtp negotiates STARTTLS automatically when the server offers it.
	if err := gosmtp.SendMail(addr, auth, from.Address, to, []byte(msg.String())); err != nil {
		return fmt.Errorf("sending mail via %s: %w", addr, err)
	}
	return nil
}
