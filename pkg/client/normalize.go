package client

import (
	"fmt"
	"time"
)

// Payload is a decoded JSON object whose field names are not trusted.
// Backends in the wild answered with camelCase, snake_case and differently
// nested shapes for the same logical fields; the normalizers below declare
// the accepted source paths as an ordered list and return a typed result or
// an explicit not-found outcome.
type Payload map[string]any

// ResolveDeliveryOrderID returns the DO id from a create/link response.
// Priority order: the explicit doID argument, then order._id, order.id,
// order.doId, then top-level _id, id, doId. The first present value wins.
func ResolveDeliveryOrderID(doID string, payload Payload) (string, bool) {
	if doID != "" {
		return doID, true
	}
	if order, ok := payload["order"].(map[string]any); ok {
		if v, ok := firstValue(order, "_id", "id", "doId"); ok {
			return v, true
		}
	}
	if v, ok := firstValue(payload, "_id", "id", "doId"); ok {
		return v, true
	}
	return "", false
}

// ResolveTaskOrderID returns the purchase order id a task belongs to.
// Priority order: purchaseOrderId, poId, purchaseOrder._id.
func ResolveTaskOrderID(payload Payload) (string, bool) {
	if v, ok := firstValue(payload, "purchaseOrderId", "poId"); ok {
		return v, true
	}
	if po, ok := payload["purchaseOrder"].(map[string]any); ok {
		if v, ok := firstValue(po, "_id"); ok {
			return v, true
		}
	}
	return "", false
}

// NormalizedDeliveryOrder is the typed result of delivery order
// normalization.
type NormalizedDeliveryOrder struct {
	Number          string
	Date            time.Time
	DeliveryAddress string
	ShippingMethod  string
	PaymentTerms    string
	Customer        string
	Notes           string
	Items           []NormalizedItem
	TotalAmount     float64
}

// NormalizedItem is one normalized delivery order line.
type NormalizedItem struct {
	Product   string
	Quantity  float64
	UnitPrice float64
	Total     float64
}

// NormalizeDeliveryOrder maps a raw DO payload into a typed struct. For
// each field the camelCase name is preferred, the snake_case name is the
// fallback, and a sensible default fills the gap: the current date for
// dates, the empty string otherwise.
func NormalizeDeliveryOrder(payload Payload, now time.Time) NormalizedDeliveryOrder {
	out := NormalizedDeliveryOrder{
		Number:          stringField(payload, "doNumber", "do_number"),
		DeliveryAddress: stringField(payload, "deliveryAddress", "delivery_address"),
		ShippingMethod:  stringField(payload, "shippingMethod", "shipping_method"),
		PaymentTerms:    stringField(payload, "paymentTerms", "payment_terms"),
		Customer:        stringField(payload, "customer", "customer_name"),
		Notes:           stringField(payload, "notes", "notes"),
	}

	out.Date = now
	if raw := stringField(payload, "doDate", "do_date"); raw != "" {
		if t, err := parseDate(raw); err == nil {
			out.Date = t
		}
	} else if raw := stringField(payload, "deliveryDate", "delivery_date"); raw != "" {
		if t, err := parseDate(raw); err == nil {
			out.Date = t
		}
	}

	if rawItems, ok := payload["items"].([]any); ok {
		for _, raw := range rawItems {
			entry, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			item := NormalizedItem{
				Product:   stringField(entry, "product", "productName"),
				Quantity:  CoerceQuantity(entry["quantity"]),
				UnitPrice: CoercePrice(numberFirst(entry, "unitPrice", "unit_price", "price")),
			}
			if item.Product == "" {
				item.Product = stringField(entry, "product_name", "name")
			}
			item.Total = item.Quantity * item.UnitPrice
			out.TotalAmount += item.Total
			out.Items = append(out.Items, item)
		}
	}
	return out
}

// CoerceQuantity converts any JSON value to a quantity. Non-numeric or
// missing input defaults to 1; a zero or negative quantity also falls back
// to 1 so a named line is never dropped.
func CoerceQuantity(v any) float64 {
	n, ok := toNumber(v)
	if !ok || n <= 0 {
		return 1
	}
	return n
}

// CoercePrice converts any JSON value to a unit price. Non-numeric or
// negative input defaults to 0.
func CoercePrice(v any) float64 {
	n, ok := toNumber(v)
	if !ok || n < 0 {
		return 0
	}
	return n
}

func firstValue(m map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		v, present := m[key]
		if !present || v == nil {
			continue
		}
		switch typed := v.(type) {
		case string:
			if typed != "" {
				return typed, true
			}
		case float64:
			return formatNumber(typed), true
		}
	}
	return "", false
}

func stringField(m map[string]any, camel, snake string) string {
	if v, ok := m[camel].(string); ok && v != "" {
		return v
	}
	if v, ok := m[snake].(string); ok && v != "" {
		return v
	}
	return ""
}

func numberFirst(m map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, present := m[key]; present && v != nil {
			return v
		}
	}
	return nil
}

func toNumber(v any) (float64, bool) {
	switch typed := v.(type) {
	case float64:
		return typed, true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case string:
		var n float64
		if _, err := fmt.Sscanf(typed, "%g", &n); err == nil {
			return n, true
		}
	}
	return 0, false
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("client: unrecognized date %q", raw)
}
