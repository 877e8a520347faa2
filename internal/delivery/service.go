package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/orderdesk/orderdesk/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, id int64) (DeliveryOrder, error)
	List(ctx context.Context, orderID int64, limit, offset int) ([]DeliveryOrder, int, error)
	Search(ctx context.Context, q string, limit int) ([]DeliveryOrder, error)
}

// OrderLinker records the DO reference on the purchase order once the
// document exists.
type OrderLinker interface {
	AttachDeliveryOrder(ctx context.Context, orderID int64, actorID int64, doID int64) error
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates delivery order documents.
type Service struct {
	repo   RepositoryPort
	linker OrderLinker
	audit  AuditPort
	now    func() time.Time
}

// NewService constructs the delivery service.
func NewService(repo RepositoryPort, linker OrderLinker, audit AuditPort) *Service {
	return &Service{repo: repo, linker: linker, audit: audit, now: time.Now}
}

// ItemInput describes one delivery line. Quantity defaults to 1 and unit
// price to 0 when the caller leaves them out; a row with a product name is
// never dropped for missing numbers.
type ItemInput struct {
	Product   string
	Quantity  float64
	UnitPrice float64
}

// CreateInput describes the creation payload.
type CreateInput struct {
	Number          string
	OrderID         int64
	Customer        string
	DeliveryAddress string
	DeliveryDate    time.Time
	ShippingMethod  string
	PaymentTerms    string
	Notes           string
	CreatedBy       int64
	Items           []ItemInput
}

// Create persists a delivery order and links it to its purchase order.
// Creating a second DO for the same order is the switch path: the new
// document simply takes over the link; old documents stay queryable.
func (s *Service) Create(ctx context.Context, input CreateInput) (DeliveryOrder, error) {
	if input.OrderID <= 0 {
		return DeliveryOrder{}, fmt.Errorf("%w: purchase order id required", ErrValidation)
	}
	if len(input.Items) == 0 {
		return DeliveryOrder{}, fmt.Errorf("%w: at least one item required", ErrValidation)
	}
	if input.DeliveryAddress == "" {
		return DeliveryOrder{}, fmt.Errorf("%w: delivery address required", ErrValidation)
	}
	if input.Number == "" {
		input.Number = GenerateNumber(s.now())
	}
	if input.DeliveryDate.IsZero() {
		input.DeliveryDate = s.now().AddDate(0, 0, 3)
	}

	do := DeliveryOrder{
		Number:          input.Number,
		OrderID:         input.OrderID,
		Customer:        input.Customer,
		DeliveryAddress: input.DeliveryAddress,
		DeliveryDate:    input.DeliveryDate,
		ShippingMethod:  input.ShippingMethod,
		PaymentTerms:    input.PaymentTerms,
		Status:          StatusIssued,
		Notes:           input.Notes,
		CreatedBy:       input.CreatedBy,
	}

	items := make([]Item, 0, len(input.Items))
	for _, in := range input.Items {
		if in.Product == "" {
			return DeliveryOrder{}, fmt.Errorf("%w: item product required", ErrValidation)
		}
		qty := in.Quantity
		if qty <= 0 {
			qty = 1
		}
		price := in.UnitPrice
		if price < 0 {
			price = 0
		}
		item := Item{Product: in.Product, Quantity: qty, UnitPrice: price, Total: qty * price}
		do.TotalAmount += item.Total
		items = append(items, item)
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateDO(ctx, do)
		if err != nil {
			return err
		}
		do.ID = id
		for _, item := range items {
			item.DOID = id
			if err := tx.InsertItem(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return DeliveryOrder{}, err
	}

	if s.linker != nil {
		if err := s.linker.AttachDeliveryOrder(ctx, input.OrderID, input.CreatedBy, do.ID); err != nil {
			return DeliveryOrder{}, err
		}
	}
	s.recordAudit(ctx, input.CreatedBy, "DO_CREATE", do.ID, map[string]any{"number": do.Number, "order_id": do.OrderID})
	return s.repo.Get(ctx, do.ID)
}

// Get loads one delivery order with items.
func (s *Service) Get(ctx context.Context, id int64) (DeliveryOrder, error) {
	return s.repo.Get(ctx, id)
}

// List returns delivery orders, optionally filtered by purchase order.
func (s *Service) List(ctx context.Context, orderID int64, limit, offset int) ([]DeliveryOrder, int, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.repo.List(ctx, orderID, limit, offset)
}

// Search matches the document number or customer.
func (s *Service) Search(ctx context.Context, q string) ([]DeliveryOrder, error) {
	if q == "" {
		return []DeliveryOrder{}, nil
	}
	return s.repo.Search(ctx, q, 20)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, doID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "delivery_order", EntityID: fmt.Sprintf("%d", doID), Meta: meta})
}
