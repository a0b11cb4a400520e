package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/jordan-wright/email"

	"budgetlens/internal/core"
)

var exceeded = core.BudgetAlert{
	CategoryID:   1,
	CategoryName: "Food",
	Month:        6,
	Year:         2024,
	Status:       core.StatusExceeded,
	Budget:       core.Cents(10000),
	Spent:        core.Cents(13000),
	Remaining:    core.Cents(-3000),
	Utilization:  130,
}

func testConfig() SMTPConfig {
	return SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", From: "alerts@example.com", To: []string{"me@example.com"}}
}

func TestBuildAlertEmail(t *testing.T) {
	m := NewMailer(testConfig())
	e := m.BuildAlertEmail(exceeded)

	if e.Subject != "[EXCEEDED] Food budget 2024-06: 130.0% used" {
		t.Fatalf("subject = %q", e.Subject)
	}
	body := string(e.Text)
	for _, want := range []string{"Budget:      100.00", "Spent:       130.00", "Remaining:   -30.00", "over budget by 30.00"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q:\n%s", want, body)
		}
	}
}

func TestSendBudgetAlert(t *testing.T) {
	m := NewMailer(testConfig())
	var (
		gotAddr string
		gotAuth smtp.Auth
		gotTo   []string
	)
	m.send = func(e *email.Email, addr string, auth smtp.Auth) error {
		gotAddr, gotAuth, gotTo = addr, auth, e.To
		return nil
	}

	if err := m.SendBudgetAlert(context.Background(), exceeded); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotAddr != "smtp.example.com:587" || gotAuth == nil || len(gotTo) != 1 {
		t.Fatalf("unexpected send args addr=%q auth=%v to=%v", gotAddr, gotAuth, gotTo)
	}
}

func TestSendBudgetAlertErrors(t *testing.T) {
	if err := NewMailer(SMTPConfig{}).SendBudgetAlert(context.Background(), exceeded); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}

	m := NewMailer(testConfig())
	boom := errors.New("421 try later")
	m.send = func(*email.Email, string, smtp.Auth) error { return boom }
	if err := m.SendBudgetAlert(context.Background(), exceeded); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}
