package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/vrukshaservices/vruksha-backend/pkg/config"
	"github.com/vrukshaservices/vruksha-backend/pkg/logger"
)

// Mailer sends plain-text email over SMTP. Delivery is at-most-once with no
// retry: callers fire and forget, and a failed send only produces a warning
// log. Nothing in the request path may block on it.
type Mailer struct {
	cfg    config.SMTPConfig
	admins []string
	logger *logger.Logger
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// New builds a Mailer; it is usable even when SMTP is unconfigured (sends
// become no-ops so local development works without a mail server).
func New(cfg config.SMTPConfig, admins []string, logg *logger.Logger) *Mailer {
	return &Mailer{
		cfg:    cfg,
		admins: admins,
		logger: logg,
		send:   smtp.SendMail,
	}
}

func (m *Mailer) configured() bool {
	return m != nil && m.cfg.Host != "" && m.cfg.DefaultFrom != ""
}

// NotifyAdmins emails every configured admin address in the background.
func (m *Mailer) NotifyAdmins(ctx context.Context, subject, body string) {
	if m == nil {
		return
	}
	if !m.configured() || len(m.admins) == 0 {
		if m.logger != nil {
			m.logger.Warn(ctx, "admin email skipped: smtp not configured")
		}
		return
	}
	go m.deliver(context.WithoutCancel(ctx), m.admins, subject, body)
}

// SendTo emails a single recipient in the background.
func (m *Mailer) SendTo(ctx context.Context, recipient, subject, body string) {
	if m == nil || strings.TrimSpace(recipient) == "" {
		return
	}
	if !m.configured() {
		if m.logger != nil {
			m.logger.Warn(ctx, "email skipped: smtp not configured")
		}
		return
	}
	go m.deliver(context.WithoutCancel(ctx), []string{recipient}, subject, body)
}

func (m *Mailer) deliver(ctx context.Context, to []string, subject, body string) {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := strings.Builder{}
	msg.WriteString("From: " + m.cfg.DefaultFrom + "\r\n")
	msg.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	if err := m.send(addr, auth, m.cfg.DefaultFrom, to, []byte(msg.String())); err != nil {
		if m.logger != nil {
			m.logger.Error(ctx, "email delivery failed", err)
		}
		return
	}
	if m.logger != nil {
		m.logger.Info(m.logger.WithField(ctx, "recipients", len(to)), "email delivered")
	}
}
