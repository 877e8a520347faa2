package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// FormMode controls whether a delivery order form accepts input.
type FormMode int

const (
	// ModeCreate is a fresh form with editable fields.
	ModeCreate FormMode = iota
	// ModeView shows an existing delivery order with all inputs disabled.
	ModeView
	// ModeEdit re-enables inputs on an existing delivery order. Saving
	// re-submits the whole form; there is no field-level diffing.
	ModeEdit
)

// ErrFormReadOnly is returned when a view-mode form is mutated or submitted.
var ErrFormReadOnly = errors.New("form is read-only")

// DOFormItem is one editable line of the form. Lines copied from the
// originating purchase order keep their product, quantity and price locked;
// only delivery metadata and notes stay editable on such forms.
type DOFormItem struct {
	Product  string
	Quantity float64
	Price    float64
	Locked   bool
}

// Total is the line amount.
func (it DOFormItem) Total() float64 {
	return it.Quantity * it.Price
}

// DOForm models the delivery order create/view/edit flow. Totals are
// computed on the form, not taken from the server.
type DOForm struct {
	Mode            FormMode
	ID              int64
	Number          string
	OrderID         int64
	Customer        string
	Items           []DOFormItem
	DeliveryAddress string
	DeliveryDate    time.Time
	ShippingMethod  string
	PaymentTerms    string
	Notes           string
}

// GenerateDONumber builds the client-side delivery order number assigned
// when the form is opened.
func GenerateDONumber(now time.Time) string {
	return fmt.Sprintf("DO-%s-%06d", now.Format("20060102"), now.UnixMilli()%1000000)
}

// NewDOForm opens a blank create-mode form for the given purchase order.
// The number and delivery date are assigned up front.
func NewDOForm(orderID int64, now time.Time) *DOForm {
	return &DOForm{
		Mode:         ModeCreate,
		Number:       GenerateDONumber(now),
		OrderID:      orderID,
		DeliveryDate: now,
		Items:        []DOFormItem{},
	}
}

// NewDOFormFromOrder opens a create-mode form pre-filled with the purchase
// order's lines. The copied lines are locked.
func NewDOFormFromOrder(order PurchaseOrder, now time.Time) *DOForm {
	form := NewDOForm(order.ID, now)
	for _, it := range order.Items {
		form.Items = append(form.Items, DOFormItem{
			Product:  it.Product,
			Quantity: it.Quantity,
			Price:    it.Price,
			Locked:   true,
		})
	}
	form.Notes = order.Notes
	return form
}

// NewDOFormFromPayload opens a view-mode form from a raw backend payload,
// normalizing camelCase and snake_case field variants.
func NewDOFormFromPayload(payload Payload, now time.Time) *DOForm {
	n := NormalizeDeliveryOrder(payload, now)
	form := &DOForm{
		Mode:            ModeView,
		Number:          n.Number,
		Customer:        n.Customer,
		DeliveryAddress: n.DeliveryAddress,
		DeliveryDate:    n.Date,
		ShippingMethod:  n.ShippingMethod,
		PaymentTerms:    n.PaymentTerms,
		Notes:           n.Notes,
	}
	for _, it := range n.Items {
		form.Items = append(form.Items, DOFormItem{
			Product:  it.Product,
			Quantity: it.Quantity,
			Price:    it.UnitPrice,
			Locked:   true,
		})
	}
	return form
}

// ViewDeliveryOrder fetches a delivery order and opens it as a read-only
// form, normalizing whatever field naming the backend answered with.
func (c *Client) ViewDeliveryOrder(ctx context.Context, doID int64, now time.Time) (*DOForm, error) {
	var raw Payload
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/delivery-orders/%d", doID), nil, &raw); err != nil {
		return nil, err
	}
	form := NewDOFormFromPayload(raw, now)
	form.ID = doID
	return form, nil
}

// Editable reports whether inputs accept changes in the current mode.
func (f *DOForm) Editable() bool {
	return f.Mode != ModeView
}

// EnableEdit switches a view-mode form to edit mode.
func (f *DOForm) EnableEdit() {
	if f.Mode == ModeView {
		f.Mode = ModeEdit
	}
}

// AddItem appends a line, coercing quantity and price the way raw form
// input is coerced: bad quantity becomes 1, bad price becomes 0.
func (f *DOForm) AddItem(product string, quantity, price any) error {
	if !f.Editable() {
		return ErrFormReadOnly
	}
	f.Items = append(f.Items, DOFormItem{
		Product:  product,
		Quantity: CoerceQuantity(quantity),
		Price:    CoercePrice(price),
	})
	return nil
}

// SetItemQuantity updates an unlocked line's quantity. Input that does not
// coerce to a number keeps the prior value.
func (f *DOForm) SetItemQuantity(index int, raw any) error {
	if !f.Editable() {
		return ErrFormReadOnly
	}
	if index < 0 || index >= len(f.Items) || f.Items[index].Locked {
		return ErrFormReadOnly
	}
	if v, ok := toNumber(raw); ok && v > 0 {
		f.Items[index].Quantity = v
	}
	return nil
}

// SetItemPrice updates an unlocked line's price. Input that does not coerce
// to a number keeps the prior value.
func (f *DOForm) SetItemPrice(index int, raw any) error {
	if !f.Editable() {
		return ErrFormReadOnly
	}
	if index < 0 || index >= len(f.Items) || f.Items[index].Locked {
		return ErrFormReadOnly
	}
	if v, ok := toNumber(raw); ok && v >= 0 {
		f.Items[index].Price = v
	}
	return nil
}

// GrandTotal sums the line totals. There is no tax or discount modeling.
func (f *DOForm) GrandTotal() float64 {
	var sum float64
	for _, it := range f.Items {
		sum += it.Total()
	}
	return sum
}

// Submit posts the form as a new delivery order, with dates normalized to
// ISO 8601. The rows slice, when given, is patched in place the same way
// CreateDeliveryOrder patches it.
func (f *DOForm) Submit(ctx context.Context, c *Client, rows []OrderRow) (DeliveryOrder, error) {
	if !f.Editable() {
		return DeliveryOrder{}, ErrFormReadOnly
	}
	input := CreateDeliveryOrderInput{
		Number:          f.Number,
		OrderID:         f.OrderID,
		Customer:        f.Customer,
		DeliveryAddress: f.DeliveryAddress,
		DeliveryDate:    f.DeliveryDate.Format(time.RFC3339),
		ShippingMethod:  f.ShippingMethod,
		PaymentTerms:    f.PaymentTerms,
		Notes:           f.Notes,
	}
	for _, it := range f.Items {
		input.Items = append(input.Items, DeliveryOrderItem{
			Product:   it.Product,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
			Total:     it.Total(),
		})
	}
	return c.CreateDeliveryOrder(ctx, input, rows)
}
