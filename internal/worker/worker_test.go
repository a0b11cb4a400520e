package worker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"budgetlens/internal/amqp"
	"budgetlens/internal/core"
	"budgetlens/internal/notify"
)

func TestPreviousMonth(t *testing.T) {
	tests := []struct {
		in        time.Time
		wantMonth int
		wantYear  int
	}{
		{time.Date(2024, 7, 1, 6, 0, 0, 0, time.UTC), 6, 2024},
		{time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 12, 2023},
		{time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC), 2, 2024},
	}
	for _, tt := range tests {
		m, y := PreviousMonth(tt.in)
		if m != tt.wantMonth || y != tt.wantYear {
			t.Fatalf("PreviousMonth(%v) = %d/%d, want %d/%d", tt.in, m, y, tt.wantMonth, tt.wantYear)
		}
	}
}

type fakeExporter struct {
	path        string
	month, year int
	err         error
}

func (f *fakeExporter) ExportCSV(_ context.Context, path string, month, year int) error {
	f.path, f.month, f.year = path, month, year
	return f.err
}

func TestExportJobRun(t *testing.T) {
	dir := t.TempDir()
	exp := &fakeExporter{}
	job := NewExportJob(exp, dir)
	job.now = func() time.Time { return time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC) }

	path, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := filepath.Join(dir, "expenses-2023-12.csv")
	if path != want || exp.path != want || exp.month != 12 || exp.year != 2023 {
		t.Fatalf("exported %q %d/%d, want %q 12/2023", exp.path, exp.month, exp.year, want)
	}

	exp.err = errors.New("disk full")
	if _, err := job.Run(context.Background()); !errors.Is(err, exp.err) {
		t.Fatalf("err = %v", err)
	}
}

func TestNewScheduler(t *testing.T) {
	job := NewExportJob(&fakeExporter{}, t.TempDir())
	if _, err := NewScheduler("not a schedule", job); err == nil {
		t.Fatal("expected error for invalid schedule")
	}

	s, err := NewScheduler("0 6 1 * *", job)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	next := s.Next(time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC))
	if want := time.Date(2024, 7, 1, 6, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("Next = %v, want %v", next, want)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

type fakeSender struct {
	mu   sync.Mutex
	sent []core.BudgetAlert
	err  error
}

func (f *fakeSender) SendBudgetAlert(_ context.Context, a core.BudgetAlert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, a)
	return nil
}

func msg(status core.Status) *amqp.BudgetAlertMessage {
	return amqp.NewBudgetAlertMessage(core.BudgetAlert{
		CategoryID: 1, CategoryName: "Food", Month: 6, Year: 2024, Status: status,
	})
}

func TestAlertConsumerSendsOncePerStatus(t *testing.T) {
	sender := &fakeSender{}
	c := NewAlertConsumer(nil, sender)
	ctx := context.Background()

	for _, st := range []core.Status{core.StatusWarning, core.StatusWarning, core.StatusExceeded, core.StatusExceeded} {
		if err := c.Handle(ctx, msg(st)); err != nil {
			t.Fatalf("Handle(%s): %v", st, err)
		}
	}
	if len(sender.sent) != 2 || sender.sent[0].Status != core.StatusWarning || sender.sent[1].Status != core.StatusExceeded {
		t.Fatalf("sent = %+v", sender.sent)
	}
}

func TestAlertConsumerErrors(t *testing.T) {
	ctx := context.Background()

	unconfigured := &fakeSender{err: notify.ErrNotConfigured}
	if err := NewAlertConsumer(nil, unconfigured).Handle(ctx, msg(core.StatusWarning)); err != nil {
		t.Fatalf("unconfigured SMTP should not requeue, got %v", err)
	}

	failing := &fakeSender{err: errors.New("connection refused")}
	c := NewAlertConsumer(nil, failing)
	if err := c.Handle(ctx, msg(core.StatusWarning)); err == nil {
		t.Fatal("expected send error to be returned for requeue")
	}
	// A failed send must not mark the alert as delivered.
	failing.err = nil
	if err := c.Handle(ctx, msg(core.StatusWarning)); err != nil || len(failing.sent) != 1 {
		t.Fatalf("retry: err=%v sent=%d", err, len(failing.sent))
	}
}

type fakeSource struct {
	alerts []*amqp.BudgetAlertMessage
}

func (f *fakeSource) ConsumeBudgetAlerts(ctx context.Context, h amqp.AlertHandler) error {
	for _, m := range f.alerts {
		if err := h(ctx, m); err != nil {
			return err
		}
	}
	<-ctx.Done()
	return ctx.Err()
}

type failingTask struct{ err error }

func (f failingTask) Run(context.Context) error { return f.err }

func TestRunAll(t *testing.T) {
	sender := &fakeSender{}
	consumer := NewAlertConsumer(&fakeSource{alerts: []*amqp.BudgetAlertMessage{msg(core.StatusExceeded)}}, sender)

	boom := errors.New("boom")
	err := RunAll(context.Background(), consumer, failingTask{err: boom})
	if !errors.Is(err, boom) {
		t.Fatalf("RunAll err = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := RunAll(ctx, NewAlertConsumer(&fakeSource{}, sender)); err != nil {
		t.Fatalf("cancelled RunAll err = %v", err)
	}
}
