package main

import (
	"context"
	"os"
	"time"

	"budgetlens/internal/amqp"
	"budgetlens/internal/cache"
	"budgetlens/internal/cli"
	"budgetlens/internal/log"
	"budgetlens/internal/notify"
	"budgetlens/internal/worker"
)

const cacheCleanupInterval = time.Hour

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(log.ComponentWorker, os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(log.ComponentWorker, cfg.LogLevel)

	logger.Info("Starting budgetlens-worker")

	var tasks []worker.Task

	// The worker consumes alerts itself and never publishes them.
	cfgNoAMQP := *cfg
	cfgNoAMQP.AMQPURL = ""
	res := cli.InitBackend(context.Background(), logger, &cfgNoAMQP)

	if cfg.ExportSchedule != "" {
		job := worker.NewExportJob(res.Backend.Reports, cfg.ExportDir)
		sched, err := worker.NewScheduler(cfg.ExportSchedule, job)
		if err != nil {
			logger.Error("Invalid export schedule", "error", err)
			os.Exit(1)
		}
		tasks = append(tasks, sched)
	} else {
		logger.Info("Scheduled export disabled - no EXPORT_SCHEDULE provided")
	}

	caches := cache.NewManager()
	var amqpClient *amqp.Client
	if cfg.AMQPEnabled() {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		mailer := notify.NewMailer(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.AlertEmailFrom,
			To:       cfg.AlertEmailTo,
		})
		consumer := worker.NewAlertConsumer(amqpClient, mailer)
		caches.Register(consumer.Cleaner())
		tasks = append(tasks, consumer)
	} else {
		logger.Info("Budget alert emails disabled - no AMQP_URL provided")
	}

	if len(tasks) == 0 {
		logger.Warn("Nothing to do, exiting")
		_ = res.Cleanup()
		return
	}
	caches.StartCleanup(cacheCleanupInterval)

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(context.Context) {})

	err := worker.RunAll(ctx, tasks...)

	caches.Stop()
	if amqpClient != nil {
		if cerr := amqpClient.Close(); cerr != nil {
			logger.Error("AMQP close error", "error", cerr)
		}
	}
	if cerr := res.Cleanup(); cerr != nil {
		logger.Error("Backend cleanup error", "error", cerr)
	}
	if err != nil {
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
