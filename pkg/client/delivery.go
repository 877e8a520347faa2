package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// DeliveryOrderItem is one line of a delivery order.
type DeliveryOrderItem struct {
	Product   string  `json:"product"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	Total     float64 `json:"total"`
}

// DeliveryOrder mirrors the backend delivery order shape.
type DeliveryOrder struct {
	ID              int64               `json:"id"`
	Number          string              `json:"doNumber"`
	OrderID         int64               `json:"poId"`
	Customer        string              `json:"customer"`
	Items           []DeliveryOrderItem `json:"items"`
	TotalAmount     float64             `json:"totalAmount"`
	DeliveryAddress string              `json:"deliveryAddress"`
	DeliveryDate    string              `json:"deliveryDate"`
	ShippingMethod  string              `json:"shippingMethod"`
	PaymentTerms    string              `json:"paymentTerms"`
	Status          string              `json:"status"`
	Notes           string              `json:"notes"`
}

// CreateDeliveryOrderInput is the creation payload. OrderID links the new
// delivery order back to its purchase order.
type CreateDeliveryOrderInput struct {
	Number          string              `json:"doNumber,omitempty"`
	OrderID         int64               `json:"poId"`
	Customer        string              `json:"customer"`
	Items           []DeliveryOrderItem `json:"items"`
	DeliveryAddress string              `json:"deliveryAddress"`
	DeliveryDate    string              `json:"deliveryDate,omitempty"`
	ShippingMethod  string              `json:"shippingMethod,omitempty"`
	PaymentTerms    string              `json:"paymentTerms,omitempty"`
	Notes           string              `json:"notes,omitempty"`
}

// GetDeliveryOrder fetches one delivery order.
func (c *Client) GetDeliveryOrder(ctx context.Context, id int64) (DeliveryOrder, error) {
	var out DeliveryOrder
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/delivery-orders/%d", id), nil, &out); err != nil {
		return DeliveryOrder{}, err
	}
	return out, nil
}

// SearchDeliveryOrders searches by number or customer.
func (c *Client) SearchDeliveryOrders(ctx context.Context, query string) ([]DeliveryOrder, error) {
	var out struct {
		Orders []DeliveryOrder `json:"orders"`
	}
	q := url.Values{}
	q.Set("q", query)
	path := "/api/delivery-orders/search?" + q.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Orders, nil
}

// CreateDeliveryOrder creates a delivery order for a purchase order. On
// success it patches the given order rows in place, marking the linked
// order as doCreated with the new delivery order id, so the caller can
// update its view without a refetch. The id is resolved from the response
// payload through the usual fallback chain; an unresolvable id yields
// ErrNoDeliveryOrderID and the rows are left untouched.
func (c *Client) CreateDeliveryOrder(ctx context.Context, input CreateDeliveryOrderInput, rows []OrderRow) (DeliveryOrder, error) {
	var raw Payload
	if err := c.do(ctx, http.MethodPost, "/api/delivery-orders", input, &raw); err != nil {
		return DeliveryOrder{}, err
	}

	resolved, ok := ResolveDeliveryOrderID("", raw)
	if !ok {
		return DeliveryOrder{}, ErrNoDeliveryOrderID
	}
	doID, err := strconv.ParseInt(resolved, 10, 64)
	if err != nil {
		return DeliveryOrder{}, ErrNoDeliveryOrderID
	}

	for i := range rows {
		if rows[i].ID == input.OrderID {
			rows[i].DOCreated = true
			id := doID
			rows[i].DOID = &id
		}
	}

	return c.GetDeliveryOrder(ctx, doID)
}
