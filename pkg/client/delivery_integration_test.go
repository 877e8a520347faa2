package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/orderdesk/orderdesk/internal/delivery"
	"github.com/orderdesk/orderdesk/internal/shared"
)

// deliveryStore is an in-memory backend for the real delivery handler, so
// the SDK is exercised against the server's actual wire format instead of
// a stub echoing the client's own field names.
type deliveryStore struct {
	nextID int64
	orders map[int64]*delivery.DeliveryOrder
}

func newDeliveryStore() *deliveryStore {
	return &deliveryStore{nextID: 1, orders: map[int64]*delivery.DeliveryOrder{}}
}

func (s *deliveryStore) WithTx(ctx context.Context, fn func(context.Context, delivery.TxRepository) error) error {
	return fn(ctx, s)
}

func (s *deliveryStore) Get(_ context.Context, id int64) (delivery.DeliveryOrder, error) {
	do, ok := s.orders[id]
	if !ok {
		return delivery.DeliveryOrder{}, delivery.ErrNotFound
	}
	return *do, nil
}

func (s *deliveryStore) List(_ context.Context, orderID int64, limit, offset int) ([]delivery.DeliveryOrder, int, error) {
	var out []delivery.DeliveryOrder
	for _, do := range s.orders {
		if orderID > 0 && do.OrderID != orderID {
			continue
		}
		out = append(out, *do)
	}
	return out, len(out), nil
}

func (s *deliveryStore) Search(_ context.Context, q string, limit int) ([]delivery.DeliveryOrder, error) {
	var out []delivery.DeliveryOrder
	for _, do := range s.orders {
		if strings.Contains(do.Number, q) || strings.Contains(do.Customer, q) {
			out = append(out, *do)
		}
	}
	return out, nil
}

func (s *deliveryStore) CreateDO(_ context.Context, do delivery.DeliveryOrder) (int64, error) {
	id := s.nextID
	s.nextID++
	do.ID = id
	s.orders[id] = &do
	return id, nil
}

func (s *deliveryStore) InsertItem(_ context.Context, item delivery.Item) error {
	do, ok := s.orders[item.DOID]
	if !ok {
		return delivery.ErrNotFound
	}
	item.ID = int64(len(do.Items) + 1)
	do.Items = append(do.Items, item)
	return nil
}

type staticLinker struct {
	links map[int64]int64
}

func (l *staticLinker) AttachDeliveryOrder(_ context.Context, orderID, actorID, doID int64) error {
	if l.links == nil {
		l.links = map[int64]int64{}
	}
	l.links[orderID] = doID
	return nil
}

func newDeliveryBackend(t *testing.T) (*Client, *deliveryStore) {
	t.Helper()
	store := newDeliveryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := delivery.NewHandler(logger, delivery.NewService(store, &staticLinker{}, nil))

	r := chi.NewRouter()
	r.Route("/api/delivery-orders", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := shared.ContextWithPrincipal(req.Context(), shared.Principal{UserID: 7, Name: "Dana", Role: "manager"})
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
		h.MountRoutes(r)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	c := New(srv.URL)
	require.NoError(t, c.store.Save(Session{Token: "tok", User: User{ID: 7, Role: "manager"}}))
	return c, store
}

func TestCreateDeliveryOrderAgainstBackend(t *testing.T) {
	c, store := newDeliveryBackend(t)

	rows := []OrderRow{{PurchaseOrder: PurchaseOrder{ID: 4}}}
	do, err := c.CreateDeliveryOrder(context.Background(), CreateDeliveryOrderInput{
		OrderID:         4,
		Customer:        "Acme & Sons",
		DeliveryAddress: "12 Harbour Rd",
		Items: []DeliveryOrderItem{
			{Product: "Steel Rod", Quantity: 10, UnitPrice: 25},
		},
	}, rows)
	require.NoError(t, err)

	// Unit prices survive the round trip and totals come back computed.
	require.Len(t, do.Items, 1)
	require.InDelta(t, 25.0, do.Items[0].UnitPrice, 0.001)
	require.InDelta(t, 250.0, do.Items[0].Total, 0.001)
	require.InDelta(t, 250.0, do.TotalAmount, 0.001)
	require.Equal(t, int64(4), do.OrderID)

	require.True(t, rows[0].DOCreated)
	require.NotNil(t, rows[0].DOID)
	require.Equal(t, do.ID, *rows[0].DOID)
	require.Contains(t, store.orders, do.ID)
}

func TestSearchDeliveryOrdersAgainstBackend(t *testing.T) {
	c, _ := newDeliveryBackend(t)

	_, err := c.CreateDeliveryOrder(context.Background(), CreateDeliveryOrderInput{
		OrderID:         4,
		Customer:        "Acme & Sons",
		DeliveryAddress: "12 Harbour Rd",
		Items:           []DeliveryOrderItem{{Product: "Steel Rod", Quantity: 1, UnitPrice: 5}},
	}, nil)
	require.NoError(t, err)

	// The query carries characters that must be escaped on the wire.
	found, err := c.SearchDeliveryOrders(context.Background(), "Acme & Sons")
	require.NoError(t, err)
	require.Len(t, found, 1)
	require.Equal(t, "Acme & Sons", found[0].Customer)

	none, err := c.SearchDeliveryOrders(context.Background(), "Globex")
	require.NoError(t, err)
	require.Empty(t, none)
}

func TestDOFormSubmitAgainstBackend(t *testing.T) {
	c, store := newDeliveryBackend(t)

	now := time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)
	form := NewDOForm(4, now)
	form.Customer = "Acme & Sons"
	form.DeliveryAddress = "12 Harbour Rd"
	form.DeliveryDate = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, form.AddItem("Steel Rod", 10, 25))

	do, err := form.Submit(context.Background(), c, nil)
	require.NoError(t, err)
	require.InDelta(t, 250.0, do.TotalAmount, 0.001)
	require.Equal(t, "2026-09-01", do.DeliveryDate[:10])

	stored, err := store.Get(context.Background(), do.ID)
	require.NoError(t, err)
	require.Equal(t, "2026-09-01", stored.DeliveryDate.Format("2006-01-02"))
}
