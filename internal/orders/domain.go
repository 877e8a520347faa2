package orders

import (
	"errors"
	"time"
)

// Purchase order lifecycle statuses.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipping   Status = "shipping"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusCompleted  Status = "completed"
)

// IsValid checks if the status is valid.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipping, StatusDelivered, StatusCancelled, StatusCompleted:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// CanCancel reports whether the order may still be cancelled. Cancellation
// is allowed at any pre-delivered stage.
func (s Status) CanCancel() bool {
	return s == StatusPending || s == StatusProcessing || s == StatusShipping
}

// Next returns the natural forward transition for the advance operation.
func (s Status) Next() (Status, bool) {
	switch s {
	case StatusProcessing:
		return StatusShipping, true
	case StatusShipping:
		return StatusDelivered, true
	default:
		return "", false
	}
}

// CanTransitionTo checks whether target is a legal transition from s.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusProcessing || target == StatusCancelled
	case StatusProcessing:
		return target == StatusShipping || target == StatusCancelled
	case StatusShipping:
		return target == StatusDelivered || target == StatusCancelled
	case StatusDelivered:
		return target == StatusCompleted
	default:
		return false
	}
}

// OrderItem is a purchase order line.
type OrderItem struct {
	ID       int64   `json:"id"`
	OrderID  int64   `json:"orderId"`
	Product  string  `json:"product"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// PurchaseOrder is the root entity driving the fulfillment workflow.
// Field names on the wire are camelCase; that is the contract browser
// clients were built against.
type PurchaseOrder struct {
	ID           int64       `json:"id"`
	Number       string      `json:"number"`
	Status       Status      `json:"status"`
	Items        []OrderItem `json:"items"`
	DeliveryDate time.Time   `json:"deliveryDate"`
	Notes        string      `json:"notes,omitempty"`
	DOCreated    bool        `json:"doCreated"`
	DOID         *int64      `json:"doId,omitempty"`
	InvoiceURL   *string     `json:"invoiceUrl,omitempty"`
	CreatedBy    int64       `json:"createdBy"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// HasInvoice reports whether an invoice has been generated.
func (po *PurchaseOrder) HasInvoice() bool {
	return po.InvoiceURL != nil && *po.InvoiceURL != ""
}

// Total sums quantity×price across items.
func (po *PurchaseOrder) Total() float64 {
	var total float64
	for _, item := range po.Items {
		total += item.Quantity * item.Price
	}
	return total
}

var (
	// ErrInvalidState occurs when an action violates the status workflow.
	ErrInvalidState = errors.New("orders: invalid state transition")
	// ErrNotFound indicates record missing.
	ErrNotFound = errors.New("orders: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("orders: invalid input")
	// ErrInvoiceExists occurs when an invoice was already generated.
	ErrInvoiceExists = errors.New("orders: invoice already generated")
)
