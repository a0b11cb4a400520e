// Package worker runs the background side of budgetlens: the scheduled
// monthly CSV export and the budget alert email consumer.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"budgetlens/internal/report"
)

const exportTimeout = 2 * time.Minute

// CSVExporter writes a month's report to a file.
type CSVExporter interface {
	ExportCSV(ctx context.Context, path string, month, year int) error
}

// ExportJob exports the month before the one it runs in.
type ExportJob struct {
	exporter CSVExporter
	dir      string
	now      func() time.Time
}

func NewExportJob(exporter CSVExporter, dir string) *ExportJob {
	return &ExportJob{exporter: exporter, dir: dir, now: time.Now}
}

// PreviousMonth returns the calendar month before t.
func PreviousMonth(t time.Time) (month, year int) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	prev := first.AddDate(0, -1, 0)
	return int(prev.Month()), prev.Year()
}

// Run exports the previous month and returns the written path. Failures
// are returned and not retried; the next scheduled run starts fresh.
func (j *ExportJob) Run(ctx context.Context) (string, error) {
	month, year := PreviousMonth(j.now())
	path := filepath.Join(j.dir, report.FileName(month, year, "csv"))

	ctx, cancel := context.WithTimeout(ctx, exportTimeout)
	defer cancel()

	start := time.Now()
	if err := j.exporter.ExportCSV(ctx, path, month, year); err != nil {
		return "", fmt.Errorf("export %04d-%02d: %w", year, month, err)
	}
	slog.InfoContext(ctx, "Scheduled export finished",
		"path", path,
		"month", month,
		"year", year,
		"duration_ms", time.Since(start).Milliseconds())
	return path, nil
}

// Scheduler runs an ExportJob on a standard five-field cron schedule.
type Scheduler struct {
	cron *cron.Cron
	job  *ExportJob
	spec string
}

func NewScheduler(spec string, job *ExportJob) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(),
		job:  job,
		spec: spec,
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, fmt.Errorf("parse export schedule %q: %w", spec, err)
	}
	return s, nil
}

func (s *Scheduler) tick() {
	if _, err := s.job.Run(context.Background()); err != nil {
		slog.Error("Scheduled export failed", "error", err)
	}
}

// Next reports when the job fires next after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	sched, err := cron.ParseStandard(s.spec)
	if err != nil {
		return time.Time{}
	}
	return sched.Next(t)
}

// Run starts the scheduler and blocks until ctx is done, then waits for a
// running export to finish.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	slog.InfoContext(ctx, "Export scheduler started", "schedule", s.spec, "next", s.Next(time.Now()))

	<-ctx.Done()
	<-s.cron.Stop().Done()
	slog.InfoContext(ctx, "Export scheduler stopped")
	return nil
}
