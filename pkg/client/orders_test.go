package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newAuthedClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(srv.URL)
	require.NoError(t, c.store.Save(Session{Token: "tok", User: User{ID: 1, Role: "user"}}))
	return c
}

func TestApproveOrderRefetchesList(t *testing.T) {
	var calls []string
	c := newAuthedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/api/purchase-orders/4/approve":
			w.Write([]byte(`{"id":4,"status":"processing"}`))
		case "/api/purchase-orders":
			json.NewEncoder(w).Encode(map[string]any{
				"orders": []map[string]any{
					{"id": 4, "status": "processing", "availableActions": []string{"create_do_override"}},
				},
				"pagination": map[string]any{"page": 1, "per_page": 20, "total": 1, "total_pages": 1},
			})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	list, err := c.ApproveOrder(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, []string{
		"PATCH /api/purchase-orders/4/approve",
		"GET /api/purchase-orders",
	}, calls)
	require.Len(t, list.Orders, 1)
	require.Equal(t, "processing", list.Orders[0].Status)
	require.Equal(t, []string{"create_do_override"}, list.Orders[0].AvailableActions)
}

func TestMutationFailureLeavesStateUnchanged(t *testing.T) {
	var listCalls int
	c := newAuthedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			listCalls++
			return
		}
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"cannot ship an order without a delivery order"}`))
	}))

	_, err := c.AdvanceOrder(context.Background(), 4, "shipping")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "cannot ship an order without a delivery order", apiErr.Message)
	require.Zero(t, listCalls)
}

func TestCreateDeliveryOrderPatchesRows(t *testing.T) {
	c := newAuthedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/delivery-orders":
			var input CreateDeliveryOrderInput
			require.NoError(t, json.NewDecoder(r.Body).Decode(&input))
			require.Equal(t, int64(4), input.OrderID)
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"order":{"doId":"17"}}`))
		case r.Method == http.MethodGet && r.URL.Path == "/api/delivery-orders/17":
			w.Write([]byte(`{"id":17,"doNumber":"DO-20260826-000123","poId":4,"status":"issued"}`))
		default:
			t.Fatalf("unexpected call %s %s", r.Method, r.URL.Path)
		}
	}))

	rows := []OrderRow{
		{PurchaseOrder: PurchaseOrder{ID: 3}},
		{PurchaseOrder: PurchaseOrder{ID: 4}},
	}
	do, err := c.CreateDeliveryOrder(context.Background(), CreateDeliveryOrderInput{OrderID: 4, Customer: "Acme"}, rows)
	require.NoError(t, err)
	require.Equal(t, int64(17), do.ID)
	require.Equal(t, "DO-20260826-000123", do.Number)

	require.False(t, rows[0].DOCreated)
	require.True(t, rows[1].DOCreated)
	require.NotNil(t, rows[1].DOID)
	require.Equal(t, int64(17), *rows[1].DOID)
}

func TestCreateDeliveryOrderUnresolvableID(t *testing.T) {
	c := newAuthedClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"status":"ok"}`))
	}))

	rows := []OrderRow{{PurchaseOrder: PurchaseOrder{ID: 4}}}
	_, err := c.CreateDeliveryOrder(context.Background(), CreateDeliveryOrderInput{OrderID: 4}, rows)
	require.ErrorIs(t, err, ErrNoDeliveryOrderID)
	require.False(t, rows[0].DOCreated)
}
