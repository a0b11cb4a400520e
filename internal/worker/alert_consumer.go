package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"budgetlens/internal/amqp"
	"budgetlens/internal/cache"
	"budgetlens/internal/core"
	"budgetlens/internal/notify"
)

// AlertSource delivers budget alerts until ctx is done.
type AlertSource interface {
	ConsumeBudgetAlerts(ctx context.Context, handler amqp.AlertHandler) error
}

type AlertSender interface {
	SendBudgetAlert(ctx context.Context, alert core.BudgetAlert) error
}

const (
	sentCacheSize = 1024
	sentCacheTTL  = 31 * 24 * time.Hour
)

// AlertConsumer emails budget alerts. A category-month is mailed once per
// status, so repeated WARNING alerts stay quiet until it escalates to
// EXCEEDED.
type AlertConsumer struct {
	source AlertSource
	sender AlertSender
	sent   *cache.LRUCache[core.Status]
}

func NewAlertConsumer(source AlertSource, sender AlertSender) *AlertConsumer {
	return &AlertConsumer{
		source: source,
		sender: sender,
		sent:   cache.NewLRUCache[core.Status](sentCacheSize, sentCacheTTL),
	}
}

func alertKey(a core.BudgetAlert) string {
	return fmt.Sprintf("%d:%04d-%02d", a.CategoryID, a.Year, a.Month)
}

// Handle mails one alert. A send failure is returned so the message is
// requeued; a missing SMTP configuration only logs.
func (c *AlertConsumer) Handle(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	alert := msg.Alert
	key := alertKey(alert)
	if prev, ok := c.sent.Get(key); ok && prev == alert.Status {
		slog.DebugContext(ctx, "Budget alert already sent", "category_id", alert.CategoryID, "status", alert.Status)
		return nil
	}

	err := c.sender.SendBudgetAlert(ctx, alert)
	switch {
	case errors.Is(err, notify.ErrNotConfigured):
		slog.WarnContext(ctx, "SMTP not configured, dropping budget alert",
			"category", alert.CategoryName, "status", alert.Status)
		return nil
	case err != nil:
		return err
	}
	c.sent.Set(key, alert.Status)
	return nil
}

// Run consumes until ctx is done.
func (c *AlertConsumer) Run(ctx context.Context) error {
	err := c.source.ConsumeBudgetAlerts(ctx, c.Handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Cleaner exposes the sent-alert cache for periodic cleanup.
func (c *AlertConsumer) Cleaner() cache.Cleaner {
	return c.sent
}
