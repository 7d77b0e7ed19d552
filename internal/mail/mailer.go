// Package mail delivers outbound notification mail. The only message this
// service sends today is the password-reset link.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

type Mailer interface {
	SendPasswordReset(ctx context.Context, to string, resetURL string) error
}

type SMTPMailer struct {
	addr string
	from string
}

func NewSMTPMailer(addr string, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from}
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to string, resetURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	b.WriteString("Subject: Reset your password\r\n")
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "A password reset was requested for this address.\r\n\r\n"+
		"Open the link below to choose a new password:\r\n%s\r\n\r\n"+
		"If you did not request this, you can ignore this message.\r\n", resetURL)

	if err := smtp.SendMail(m.addr, nil, m.from, []string{to}, []byte(b.String())); err != nil {
		return fmt.Errorf("send password reset mail: %w", err)
	}
	return nil
}

// LogMailer writes the reset link to the log instead of sending mail. Used
// in tests and local development where no SMTP relay is available.
type LogMailer struct{}

func NewLogMailer() *LogMailer {
	return &LogMailer{}
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, to string, resetURL string) error {
	slog.Info("password reset mail (log only)", "to", to, "url", resetURL)
	return nil
}
