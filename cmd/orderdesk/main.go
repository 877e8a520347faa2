package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/orderdesk/orderdesk/internal/app"
	"github.com/orderdesk/orderdesk/internal/auth"
	"github.com/orderdesk/orderdesk/internal/delivery"
	"github.com/orderdesk/orderdesk/internal/masterdata"
	"github.com/orderdesk/orderdesk/internal/observability"
	"github.com/orderdesk/orderdesk/internal/orders"
	"github.com/orderdesk/orderdesk/internal/platform/cache"
	"github.com/orderdesk/orderdesk/internal/platform/db"
	"github.com/orderdesk/orderdesk/internal/rbac"
	"github.com/orderdesk/orderdesk/internal/shared"
	"github.com/orderdesk/orderdesk/internal/tasks"
	"github.com/orderdesk/orderdesk/internal/users"
	"github.com/orderdesk/orderdesk/jobs"
)

// orderLinker adapts the orders service to the delivery package's port,
// which does not need the refetched order.
type orderLinker struct {
	svc *orders.Service
}

func (l orderLinker) AttachDeliveryOrder(ctx context.Context, orderID, actorID, doID int64) error {
	_, err := l.svc.AttachDeliveryOrder(ctx, orderID, actorID, doID)
	return err
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	tokenManager := shared.NewTokenManager(redisClient, "orderdesk:token", cfg.TokenTTL)
	auditLogger := shared.NewAuditLogger(pool)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, tokenManager)
	authHandler := auth.NewHandler(logger, authService)

	taskRepo := tasks.NewRepository(pool)
	taskService := tasks.NewService(taskRepo, auditLogger)
	taskHandler := tasks.NewHandler(logger, taskService)

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	orderRepo := orders.NewRepository(pool)
	orderService := orders.NewService(orderRepo, taskService, jobClient, auditLogger)
	orderHandler := orders.NewHandler(logger, orderService)

	deliveryRepo := delivery.NewRepository(pool)
	deliveryService := delivery.NewService(deliveryRepo, orderLinker{svc: orderService}, auditLogger)
	deliveryHandler := delivery.NewHandler(logger, deliveryService)

	masterRepo := masterdata.NewRepository(pool)
	masterHandler := masterdata.NewHandler(logger, masterRepo)

	userRepo := users.NewRepository(pool)
	userHandler := users.NewHandler(logger, userRepo)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Tokens:            tokenManager,
		AuthHandler:       authHandler,
		OrdersHandler:     orderHandler,
		TasksHandler:      taskHandler,
		UsersHandler:      userHandler,
		DeliveryHandler:   deliveryHandler,
		MasterDataHandler: masterHandler,
		JobHandler:        jobHandler,
		RBACMiddleware:    rbac.Middleware{Logger: logger},
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
