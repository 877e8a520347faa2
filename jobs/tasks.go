// Package jobs carries the background work queue: task definitions, the
// enqueue client and the Asynq worker loop.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/orderdesk/orderdesk/internal/jobs"
	"github.com/orderdesk/orderdesk/internal/orders"
	"github.com/orderdesk/orderdesk/report"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeInvoiceGenerate renders an invoice PDF for one order.
	TaskTypeInvoiceGenerate = "invoice:generate"
)

// InvoicePayload identifies the order to invoice.
type InvoicePayload struct {
	OrderID int64 `json:"orderId"`
}

// NewInvoiceTask constructs an Asynq task for invoice generation.
func NewInvoiceTask(payload InvoicePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeInvoiceGenerate, data, asynq.MaxRetry(3), asynq.Timeout(time.Minute)), nil
}

// InvoiceHandler processes invoice:generate tasks: load the order, render
// the PDF and write the resulting URL back onto the order.
type InvoiceHandler struct {
	logger   *slog.Logger
	orders   *orders.Service
	renderer *report.Renderer
	metrics  *jobmetrics.Metrics
}

// NewInvoiceHandler constructs an InvoiceHandler.
func NewInvoiceHandler(logger *slog.Logger, svc *orders.Service, renderer *report.Renderer, metrics *jobmetrics.Metrics) *InvoiceHandler {
	return &InvoiceHandler{logger: logger, orders: svc, renderer: renderer, metrics: metrics}
}

// Handle implements the asynq handler for TaskTypeInvoiceGenerate.
func (h *InvoiceHandler) Handle(ctx context.Context, t *asynq.Task) error {
	tracker := h.metrics.Track("invoice_generate")

	var payload InvoicePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		_ = tracker.End(err)
		return asynq.SkipRetry
	}

	po, err := h.orders.Get(ctx, payload.OrderID)
	if err != nil {
		h.logger.Error("invoice job: load order", slog.Any("error", err), slog.Int64("order_id", payload.OrderID))
		return tracker.End(err)
	}
	if po.HasInvoice() {
		h.logger.Info("invoice job: already generated", slog.Int64("order_id", po.ID))
		return tracker.End(nil)
	}

	url, err := h.renderer.Render(report.InvoiceData{Order: po, GeneratedAt: time.Now()})
	if err != nil {
		h.logger.Error("invoice job: render", slog.Any("error", err), slog.Int64("order_id", po.ID))
		return tracker.End(err)
	}
	if err := h.orders.SetInvoiceURL(ctx, po.ID, url); err != nil {
		h.logger.Error("invoice job: store url", slog.Any("error", err), slog.Int64("order_id", po.ID))
		return tracker.End(err)
	}

	h.logger.Info("invoice generated", slog.Int64("order_id", po.ID), slog.String("url", url))
	return tracker.End(nil)
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueInvoice queues invoice generation for the order. Satisfies the
// orders service queue port.
func (c *Client) EnqueueInvoice(ctx context.Context, orderID int64) error {
	task, err := NewInvoiceTask(InvoicePayload{OrderID: orderID})
	if err != nil {
		return err
	}
	if _, err := c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault)); err != nil {
		return fmt.Errorf("jobs: enqueue invoice: %w", err)
	}
	return nil
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
