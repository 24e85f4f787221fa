// Package email sends operational alert mail over SMTP.
package email

import (
	"context"
	"fmt"
	"net"
	"time"

	"vida_smart_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender delivers alert mail via a direct SMTP connection using go-mail.
// A nil sender is a no-op so callers need no feature flag when email is
// disabled.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
	opsEmail  string
}

// NewSMTPSender creates a sender from email config, or nil when email is
// disabled.
func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	if !cfg.GetEmailEnabled() || cfg.GetSMTPHost() == "" {
		return nil
	}
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
		opsEmail:  cfg.GetOpsAlertAddress(),
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

// SendEmergencyAlert notifies the operations team about a detected crisis
// message so a human can follow up.
func (s *SMTPSender) SendEmergencyAlert(ctx context.Context, data EmergencyAlertData) error {
	if s == nil {
		return nil
	}
	content, err := renderEmergencyAlert(data)
	if err != nil {
		return err
	}
	return s.send(ctx, s.opsEmail, subjectEmergencyAlert, content)
}
