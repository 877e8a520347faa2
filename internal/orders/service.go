package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/orderdesk/orderdesk/internal/rbac"
	"github.com/orderdesk/orderdesk/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrder(ctx context.Context, id int64) (PurchaseOrder, error)
	ListOrders(ctx context.Context, filters ListFilters, limit, offset int) ([]PurchaseOrder, int, error)
}

// TaskPort exposes the task-completion check that gates DO creation.
type TaskPort interface {
	AllCompleted(ctx context.Context, orderID int64) (bool, error)
}

// InvoiceQueue enqueues background invoice generation.
type InvoiceQueue interface {
	EnqueueInvoice(ctx context.Context, orderID int64) error
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ListFilters narrows order listings.
type ListFilters struct {
	Status    string
	CreatedBy int64
	Search    string
}

// Service orchestrates the purchase order lifecycle.
type Service struct {
	repo     RepositoryPort
	tasks    TaskPort
	invoices InvoiceQueue
	audit    AuditPort
}

// NewService constructs the orders service.
func NewService(repo RepositoryPort, tasks TaskPort, invoices InvoiceQueue, audit AuditPort) *Service {
	return &Service{repo: repo, tasks: tasks, invoices: invoices, audit: audit}
}

// CreateOrderInput describes creation payload.
type CreateOrderInput struct {
	Number       string
	DeliveryDate time.Time
	Notes        string
	CreatedBy    int64
	Items        []ItemInput
}

// ItemInput describes one order line.
type ItemInput struct {
	Product  string
	Quantity float64
	Price    float64
}

// Create persists a new pending order with its items.
func (s *Service) Create(ctx context.Context, input CreateOrderInput) (PurchaseOrder, error) {
	if len(input.Items) == 0 {
		return PurchaseOrder{}, fmt.Errorf("%w: at least one item required", ErrValidation)
	}
	if input.Number == "" {
		input.Number = generateNumber("PO")
	}
	if input.DeliveryDate.IsZero() {
		input.DeliveryDate = time.Now().AddDate(0, 0, 7)
	}
	po := PurchaseOrder{
		Number:       input.Number,
		Status:       StatusPending,
		DeliveryDate: input.DeliveryDate,
		Notes:        input.Notes,
		CreatedBy:    input.CreatedBy,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateOrder(ctx, po)
		if err != nil {
			return err
		}
		po.ID = id
		for _, item := range input.Items {
			if item.Product == "" || item.Quantity <= 0 {
				return fmt.Errorf("%w: item requires product and positive quantity", ErrValidation)
			}
			if err := tx.InsertItem(ctx, OrderItem{OrderID: id, Product: item.Product, Quantity: item.Quantity, Price: item.Price}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.recordAudit(ctx, input.CreatedBy, "PO_CREATE", po.ID, map[string]any{"number": po.Number})
	return s.repo.GetOrder(ctx, po.ID)
}

// Get loads one order with items.
func (s *Service) Get(ctx context.Context, id int64) (PurchaseOrder, error) {
	return s.repo.GetOrder(ctx, id)
}

// List returns orders matching the filters.
func (s *Service) List(ctx context.Context, filters ListFilters, limit, offset int) ([]PurchaseOrder, int, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.ListOrders(ctx, filters, limit, offset)
}

// Approve moves a pending order into processing.
func (s *Service) Approve(ctx context.Context, id int64, actorID int64) (PurchaseOrder, error) {
	return s.transition(ctx, id, actorID, StatusProcessing, "PO_APPROVE")
}

// Advance moves an order one step forward: processing to shipping, or
// shipping to delivered. Shipping additionally requires a linked DO; goods
// cannot leave without a delivery order.
func (s *Service) Advance(ctx context.Context, id int64, actorID int64, next Status) (PurchaseOrder, error) {
	po, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return PurchaseOrder{}, err
	}
	if next == "" {
		natural, ok := po.Status.Next()
		if !ok {
			return PurchaseOrder{}, ErrInvalidState
		}
		next = natural
	}
	if next != StatusShipping && next != StatusDelivered {
		return PurchaseOrder{}, fmt.Errorf("%w: advance only covers shipping and delivered", ErrValidation)
	}
	if !po.Status.CanTransitionTo(next) {
		return PurchaseOrder{}, ErrInvalidState
	}
	if next == StatusShipping && !po.DOCreated {
		return PurchaseOrder{}, fmt.Errorf("%w: delivery order required before shipping", ErrInvalidState)
	}
	return s.applyStatus(ctx, po, actorID, next, "PO_ADVANCE")
}

// Complete finishes a delivered order.
func (s *Service) Complete(ctx context.Context, id int64, actorID int64) (PurchaseOrder, error) {
	return s.transition(ctx, id, actorID, StatusCompleted, "PO_COMPLETE")
}

// Cancel terminates an order at any pre-delivered stage.
func (s *Service) Cancel(ctx context.Context, id int64, actorID int64) (PurchaseOrder, error) {
	po, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return PurchaseOrder{}, err
	}
	if !po.Status.CanCancel() {
		return PurchaseOrder{}, ErrInvalidState
	}
	return s.applyStatus(ctx, po, actorID, StatusCancelled, "PO_CANCEL")
}

// GenerateInvoice queues invoice rendering for a delivered or completed
// order that does not have one yet. The URL lands on the order when the
// background job finishes.
func (s *Service) GenerateInvoice(ctx context.Context, id int64, actorID int64) error {
	po, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if po.Status != StatusDelivered && po.Status != StatusCompleted {
		return ErrInvalidState
	}
	if po.HasInvoice() {
		return ErrInvoiceExists
	}
	if s.invoices == nil {
		return fmt.Errorf("orders: invoice queue not configured")
	}
	if err := s.invoices.EnqueueInvoice(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "PO_INVOICE_QUEUE", id, map[string]any{"number": po.Number})
	return nil
}

// AttachDeliveryOrder records the DO link on the order. Re-attaching with a
// different DO id is the "switch to DO" path and simply replaces the link.
func (s *Service) AttachDeliveryOrder(ctx context.Context, id int64, actorID int64, doID int64) (PurchaseOrder, error) {
	if doID <= 0 {
		return PurchaseOrder{}, fmt.Errorf("%w: delivery order id required", ErrValidation)
	}
	po, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return PurchaseOrder{}, err
	}
	if po.Status == StatusPending || po.Status == StatusCancelled {
		return PurchaseOrder{}, ErrInvalidState
	}
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SetDeliveryOrder(ctx, id, doID)
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.recordAudit(ctx, actorID, "PO_DO_LINK", id, map[string]any{"do_id": doID})
	return s.repo.GetOrder(ctx, id)
}

// SetInvoiceURL stores the generated invoice location. Called by the
// invoice worker once rendering succeeds.
func (s *Service) SetInvoiceURL(ctx context.Context, id int64, url string) error {
	if url == "" {
		return fmt.Errorf("%w: invoice url required", ErrValidation)
	}
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.SetInvoiceURL(ctx, id, url)
	})
}

// RowStateFor assembles the action-table input for one order as seen by a
// role. Zero tasks count as incomplete: an order nobody has worked on is
// not done.
func (s *Service) RowStateFor(ctx context.Context, po PurchaseOrder, role string) (RowState, error) {
	allDone := false
	if s.tasks != nil {
		done, err := s.tasks.AllCompleted(ctx, po.ID)
		if err != nil {
			return RowState{}, err
		}
		allDone = done
	}
	return RowState{
		Status:            po.Status,
		Role:              rbac.ParseRole(role),
		DOCreated:         po.DOCreated,
		TasksAllCompleted: allDone,
		HasInvoice:        po.HasInvoice(),
	}, nil
}

func (s *Service) transition(ctx context.Context, id int64, actorID int64, next Status, action string) (PurchaseOrder, error) {
	po, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return PurchaseOrder{}, err
	}
	if !po.Status.CanTransitionTo(next) {
		return PurchaseOrder{}, ErrInvalidState
	}
	return s.applyStatus(ctx, po, actorID, next, action)
}

func (s *Service) applyStatus(ctx context.Context, po PurchaseOrder, actorID int64, next Status, action string) (PurchaseOrder, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpdateStatus(ctx, po.ID, next)
	})
	if err != nil {
		return PurchaseOrder{}, err
	}
	s.recordAudit(ctx, actorID, action, po.ID, map[string]any{"from": string(po.Status), "to": string(next)})
	return s.repo.GetOrder(ctx, po.ID)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "purchase_order", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}

func generateNumber(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}
