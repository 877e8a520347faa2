package delivery

import (
	"errors"
	"fmt"
	"time"
)

// Status of a delivery order document.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusIssued    Status = "issued"
	StatusDelivered Status = "delivered"
)

// Item is a delivery order line. Total is always quantity times unit price;
// it is recomputed on write and never trusted from input.
type Item struct {
	ID        int64   `json:"id"`
	DOID      int64   `json:"doId"`
	Product   string  `json:"product"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Total     float64 `json:"total"`
}

// DeliveryOrder is the shipping document issued against a purchase order.
type DeliveryOrder struct {
	ID              int64     `json:"id"`
	Number          string    `json:"doNumber"`
	OrderID         int64     `json:"poId"`
	Customer        string    `json:"customer,omitempty"`
	Items           []Item    `json:"items"`
	TotalAmount     float64   `json:"totalAmount"`
	DeliveryAddress string    `json:"deliveryAddress"`
	DeliveryDate    time.Time `json:"deliveryDate"`
	ShippingMethod  string    `json:"shippingMethod,omitempty"`
	PaymentTerms    string    `json:"paymentTerms,omitempty"`
	Status          Status    `json:"status"`
	Notes           string    `json:"notes,omitempty"`
	CreatedBy       int64     `json:"createdBy"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

var (
	// ErrNotFound indicates record missing.
	ErrNotFound = errors.New("delivery: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("delivery: invalid input")
)

// GenerateNumber builds a document number like DO-20250316-482913: the date
// plus the last six digits of the current epoch milliseconds. Clients may
// pregenerate a number in the same shape; this is the fallback when they
// do not send one.
func GenerateNumber(now time.Time) string {
	ms := now.UnixMilli()
	return fmt.Sprintf("DO-%s-%06d", now.Format("20060102"), ms%1000000)
}
