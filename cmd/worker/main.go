package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/orderdesk/orderdesk/internal/app"
	jobmetrics "github.com/orderdesk/orderdesk/internal/jobs"
	"github.com/orderdesk/orderdesk/internal/orders"
	"github.com/orderdesk/orderdesk/internal/platform/db"
	"github.com/orderdesk/orderdesk/internal/shared"
	"github.com/orderdesk/orderdesk/jobs"
	"github.com/orderdesk/orderdesk/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	auditLogger := shared.NewAuditLogger(pool)

	orderRepo := orders.NewRepository(pool)
	// The worker never enqueues invoices itself, so the queue port is nil.
	orderService := orders.NewService(orderRepo, nil, nil, auditLogger)

	renderer := report.NewRenderer(cfg.InvoiceDir, cfg.InvoiceBaseURL)
	metrics := jobmetrics.NewMetrics(nil)
	invoiceHandler := jobs.NewInvoiceHandler(logger, orderService, renderer, metrics)

	worker := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeInvoiceGenerate, Handler: invoiceHandler.Handle},
		},
	})

	logger.Info("starting worker", slog.String("queue", jobs.QueueDefault))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
