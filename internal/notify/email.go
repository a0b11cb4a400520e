// Package notify turns budget alerts into emails.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/jordan-wright/email"

	"budgetlens/internal/core"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != "" && len(c.To) > 0
}

func (c SMTPConfig) addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// sendFunc matches (*email.Email).Send.
type sendFunc func(e *email.Email, addr string, auth smtp.Auth) error

// Mailer sends budget alert emails over SMTP.
type Mailer struct {
	cfg  SMTPConfig
	send sendFunc
}

var ErrNotConfigured = errors.New("smtp not configured")

func NewMailer(cfg SMTPConfig) *Mailer {
	return &Mailer{
		cfg: cfg,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// BuildAlertEmail renders the alert as a plain-text message.
func (m *Mailer) BuildAlertEmail(alert core.BudgetAlert) *email.Email {
	e := email.NewEmail()
	e.From = m.cfg.From
	e.To = append([]string(nil), m.cfg.To...)
	e.Subject = alert.Subject()

	var b strings.Builder
	fmt.Fprintf(&b, "Budget %s for %s in %04d-%02d.\n\n", strings.ToLower(string(alert.Status)), alert.CategoryName, alert.Year, alert.Month)
	fmt.Fprintf(&b, "Budget:      %s\n", alert.Budget)
	fmt.Fprintf(&b, "Spent:       %s\n", alert.Spent)
	fmt.Fprintf(&b, "Remaining:   %s\n", alert.Remaining)
	fmt.Fprintf(&b, "Utilization: %.1f%%\n", alert.Utilization)
	if alert.Status == core.StatusExceeded {
		fmt.Fprintf(&b, "\nYou are over budget by %s.\n", alert.Spent.Sub(alert.Budget))
	}
	e.Text = []byte(b.String())
	return e
}

// SendBudgetAlert delivers the alert. It fails with ErrNotConfigured when
// SMTP settings are incomplete.
func (m *Mailer) SendBudgetAlert(ctx context.Context, alert core.BudgetAlert) error {
	if !m.cfg.Enabled() {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e := m.BuildAlertEmail(alert)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := m.send(e, m.cfg.addr(), auth); err != nil {
		slog.ErrorContext(ctx, "Failed to send budget alert email", "to", m.cfg.To, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	slog.InfoContext(ctx, "Budget alert email sent", "to", m.cfg.To, "subject", e.Subject)
	return nil
}
