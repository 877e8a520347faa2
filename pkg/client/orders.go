package client

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// OrderItem is a purchase order line.
type OrderItem struct {
	ID       int64   `json:"id"`
	Product  string  `json:"product"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// PurchaseOrder mirrors the backend purchase order shape.
type PurchaseOrder struct {
	ID           int64       `json:"id"`
	Number       string      `json:"number"`
	Status       string      `json:"status"`
	Items        []OrderItem `json:"items"`
	DeliveryDate time.Time   `json:"deliveryDate"`
	Notes        string      `json:"notes"`
	DOCreated    bool        `json:"doCreated"`
	DOID         *int64      `json:"doId"`
	InvoiceURL   *string     `json:"invoiceUrl"`
	CreatedBy    int64       `json:"createdBy"`
}

// OrderRow is a listing entry: the order plus the server-computed actions
// the current user may take on it.
type OrderRow struct {
	PurchaseOrder
	AvailableActions []string `json:"availableActions"`
	Total            float64  `json:"total"`
}

// Pagination mirrors the backend list metadata.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// OrderList is a page of purchase orders.
type OrderList struct {
	Orders     []OrderRow `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

// ListPurchaseOrders fetches a page of orders.
func (c *Client) ListPurchaseOrders(ctx context.Context, page int) (OrderList, error) {
	var out OrderList
	path := "/api/purchase-orders"
	if page > 1 {
		path = fmt.Sprintf("%s?page=%d", path, page)
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return OrderList{}, err
	}
	return out, nil
}

// GetPurchaseOrder fetches one order.
func (c *Client) GetPurchaseOrder(ctx context.Context, id int64) (PurchaseOrder, error) {
	var out PurchaseOrder
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/purchase-orders/%d", id), nil, &out); err != nil {
		return PurchaseOrder{}, err
	}
	return out, nil
}

// CreateOrderItemInput is one line of a new order.
type CreateOrderItemInput struct {
	Product  string  `json:"product"`
	Quantity float64 `json:"quantity"`
	Price    float64 `json:"price"`
}

// CreateOrderInput is the order creation payload.
type CreateOrderInput struct {
	Number       string                 `json:"number,omitempty"`
	DeliveryDate string                 `json:"deliveryDate,omitempty"`
	Notes        string                 `json:"notes,omitempty"`
	Items        []CreateOrderItemInput `json:"items"`
}

// CreatePurchaseOrder creates an order and refetches the list so the caller
// renders from server state.
func (c *Client) CreatePurchaseOrder(ctx context.Context, input CreateOrderInput) (OrderList, error) {
	if err := c.do(ctx, http.MethodPost, "/api/purchase-orders", input, nil); err != nil {
		return OrderList{}, err
	}
	return c.ListPurchaseOrders(ctx, 1)
}

// ApproveOrder approves a pending order, then refetches the list.
func (c *Client) ApproveOrder(ctx context.Context, id int64) (OrderList, error) {
	return c.mutateAndRefetch(ctx, http.MethodPatch, fmt.Sprintf("/api/purchase-orders/%d/approve", id), nil)
}

// AdvanceOrder moves an order to the next stage, then refetches the list.
// Pass an empty status to take the natural next step.
func (c *Client) AdvanceOrder(ctx context.Context, id int64, status string) (OrderList, error) {
	var body any
	if status != "" {
		body = map[string]string{"status": status}
	}
	return c.mutateAndRefetch(ctx, http.MethodPatch, fmt.Sprintf("/api/purchase-orders/%d/advance", id), body)
}

// CompleteOrder finishes a delivered order, then refetches the list.
func (c *Client) CompleteOrder(ctx context.Context, id int64) (OrderList, error) {
	return c.mutateAndRefetch(ctx, http.MethodPatch, fmt.Sprintf("/api/purchase-orders/%d/complete", id), nil)
}

// CancelOrder cancels an order, then refetches the list.
func (c *Client) CancelOrder(ctx context.Context, id int64) (OrderList, error) {
	return c.mutateAndRefetch(ctx, http.MethodDelete, fmt.Sprintf("/api/purchase-orders/%d", id), nil)
}

// GenerateInvoice queues invoice generation, then refetches the list.
func (c *Client) GenerateInvoice(ctx context.Context, id int64) (OrderList, error) {
	return c.mutateAndRefetch(ctx, http.MethodPatch, fmt.Sprintf("/api/purchase-orders/%d/invoice", id), nil)
}

// mutateAndRefetch applies one state change and unconditionally refetches
// the order list. Every order mutation goes through here so client state
// never diverges from the server.
func (c *Client) mutateAndRefetch(ctx context.Context, method, path string, body any) (OrderList, error) {
	if err := c.do(ctx, method, path, body, nil); err != nil {
		return OrderList{}, err
	}
	return c.ListPurchaseOrders(ctx, 1)
}
