package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolveDeliveryOrderIDFallbackChain(t *testing.T) {
	tests := []struct {
		name    string
		doID    string
		payload Payload
		want    string
		found   bool
	}{
		{
			name:    "explicit argument wins over everything",
			doID:    "42",
			payload: Payload{"order": map[string]any{"_id": "99"}, "id": float64(7)},
			want:    "42",
			found:   true,
		},
		{
			name:    "nested order underscore id",
			payload: Payload{"order": map[string]any{"_id": "abc", "id": float64(7)}},
			want:    "abc",
			found:   true,
		},
		{
			name:    "nested order id beats top level",
			payload: Payload{"order": map[string]any{"id": float64(7)}, "_id": "top"},
			want:    "7",
			found:   true,
		},
		{
			name:    "only nested order doId",
			payload: Payload{"order": map[string]any{"doId": "X"}},
			want:    "X",
			found:   true,
		},
		{
			name:    "top level underscore id",
			payload: Payload{"_id": "t1"},
			want:    "t1",
			found:   true,
		},
		{
			name:    "top level id",
			payload: Payload{"id": float64(31)},
			want:    "31",
			found:   true,
		},
		{
			name:    "top level doId last",
			payload: Payload{"doId": "d9"},
			want:    "d9",
			found:   true,
		},
		{
			name:    "nothing resolvable",
			payload: Payload{"status": "ok"},
			found:   false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ResolveDeliveryOrderID(tc.doID, tc.payload)
			require.Equal(t, tc.found, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestResolveTaskOrderID(t *testing.T) {
	got, ok := ResolveTaskOrderID(Payload{"poId": "12", "purchaseOrder": map[string]any{"_id": "99"}})
	require.True(t, ok)
	require.Equal(t, "12", got)

	got, ok = ResolveTaskOrderID(Payload{"purchaseOrder": map[string]any{"_id": "99"}})
	require.True(t, ok)
	require.Equal(t, "99", got)

	_, ok = ResolveTaskOrderID(Payload{"title": "check stock"})
	require.False(t, ok)
}

func TestNormalizeDeliveryOrderPrefersCamelCase(t *testing.T) {
	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	got := NormalizeDeliveryOrder(Payload{
		"doNumber":         "DO-20260826-000123",
		"do_number":        "DO-OLD",
		"delivery_address": "12 Dock Road",
		"doDate":           "2026-08-30",
		"items": []any{
			map[string]any{"product": "Pallet wrap", "quantity": float64(3), "unitPrice": float64(4.5)},
			map[string]any{"product_name": "Tape", "quantity": "abc", "price": float64(-2)},
		},
	}, now)

	require.Equal(t, "DO-20260826-000123", got.Number)
	require.Equal(t, "12 Dock Road", got.DeliveryAddress)
	require.Equal(t, time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), got.Date)

	require.Len(t, got.Items, 2)
	require.Equal(t, 13.5, got.Items[0].Total)
	require.Equal(t, "Tape", got.Items[1].Product)
	require.Equal(t, 1.0, got.Items[1].Quantity)
	require.Equal(t, 0.0, got.Items[1].UnitPrice)
	require.Equal(t, 13.5, got.TotalAmount)
}

func TestNormalizeDeliveryOrderDefaults(t *testing.T) {
	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	got := NormalizeDeliveryOrder(Payload{}, now)

	require.Empty(t, got.Number)
	require.Empty(t, got.DeliveryAddress)
	require.Equal(t, now, got.Date)
	require.Empty(t, got.Items)
	require.Zero(t, got.TotalAmount)
}

func TestCoercion(t *testing.T) {
	require.Equal(t, 4.0, CoerceQuantity(float64(4)))
	require.Equal(t, 2.5, CoerceQuantity("2.5"))
	require.Equal(t, 1.0, CoerceQuantity("many"))
	require.Equal(t, 1.0, CoerceQuantity(nil))
	require.Equal(t, 1.0, CoerceQuantity(float64(0)))
	require.Equal(t, 1.0, CoerceQuantity(float64(-3)))

	require.Equal(t, 9.99, CoercePrice(float64(9.99)))
	require.Equal(t, 0.0, CoercePrice("free"))
	require.Equal(t, 0.0, CoercePrice(nil))
	require.Equal(t, 0.0, CoercePrice(float64(-1)))
}
