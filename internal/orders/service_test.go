package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/orderdesk/orderdesk/internal/shared"
)

type memoryRepo struct {
	nextID int64
	orders map[int64]*PurchaseOrder
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, orders: map[int64]*PurchaseOrder{}}
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memoryRepo) GetOrder(_ context.Context, id int64) (PurchaseOrder, error) {
	po, ok := m.orders[id]
	if !ok {
		return PurchaseOrder{}, ErrNotFound
	}
	return *po, nil
}

func (m *memoryRepo) ListOrders(_ context.Context, filters ListFilters, limit, offset int) ([]PurchaseOrder, int, error) {
	var out []PurchaseOrder
	for _, po := range m.orders {
		if filters.Status != "" && string(po.Status) != filters.Status {
			continue
		}
		out = append(out, *po)
	}
	return out, len(out), nil
}

func (m *memoryRepo) CreateOrder(_ context.Context, po PurchaseOrder) (int64, error) {
	id := m.nextID
	m.nextID++
	po.ID = id
	po.CreatedAt = time.Now()
	po.UpdatedAt = po.CreatedAt
	m.orders[id] = &po
	return id, nil
}

func (m *memoryRepo) InsertItem(_ context.Context, item OrderItem) error {
	po, ok := m.orders[item.OrderID]
	if !ok {
		return ErrNotFound
	}
	item.ID = int64(len(po.Items) + 1)
	po.Items = append(po.Items, item)
	return nil
}

func (m *memoryRepo) UpdateStatus(_ context.Context, id int64, status Status) error {
	po, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	po.Status = status
	return nil
}

func (m *memoryRepo) SetDeliveryOrder(_ context.Context, id int64, doID int64) error {
	po, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	po.DOCreated = true
	po.DOID = &doID
	return nil
}

func (m *memoryRepo) SetInvoiceURL(_ context.Context, id int64, url string) error {
	po, ok := m.orders[id]
	if !ok {
		return ErrNotFound
	}
	po.InvoiceURL = &url
	return nil
}

type stubTasks struct {
	done bool
}

func (s stubTasks) AllCompleted(context.Context, int64) (bool, error) {
	return s.done, nil
}

type captureQueue struct {
	enqueued []int64
}

func (q *captureQueue) EnqueueInvoice(_ context.Context, orderID int64) error {
	q.enqueued = append(q.enqueued, orderID)
	return nil
}

type memoryAudit struct {
	logs []shared.AuditLog
}

func (a *memoryAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func newTestService(repo *memoryRepo) (*Service, *captureQueue, *memoryAudit) {
	queue := &captureQueue{}
	audit := &memoryAudit{}
	svc := NewService(repo, stubTasks{done: true}, queue, audit)
	return svc, queue, audit
}

func createOrder(t *testing.T, svc *Service) PurchaseOrder {
	t.Helper()
	po, err := svc.Create(context.Background(), CreateOrderInput{
		CreatedBy: 7,
		Items: []ItemInput{
			{Product: "Steel Rod", Quantity: 10, Price: 25},
			{Product: "Bolt Kit", Quantity: 4, Price: 3.5},
		},
	})
	require.NoError(t, err)
	return po
}

func TestCreateDefaultsAndItems(t *testing.T) {
	svc, _, audit := newTestService(newMemoryRepo())

	po := createOrder(t, svc)
	require.Equal(t, StatusPending, po.Status)
	require.NotEmpty(t, po.Number)
	require.Len(t, po.Items, 2)
	require.InDelta(t, 264.0, po.Total(), 0.001)
	require.WithinDuration(t, time.Now().AddDate(0, 0, 7), po.DeliveryDate, time.Minute)
	require.Len(t, audit.logs, 1)
	require.Equal(t, "PO_CREATE", audit.logs[0].Action)
}

func TestCreateRequiresItems(t *testing.T) {
	svc, _, _ := newTestService(newMemoryRepo())

	_, err := svc.Create(context.Background(), CreateOrderInput{CreatedBy: 7})
	require.ErrorIs(t, err, ErrValidation)
}

func TestFullLifecycle(t *testing.T) {
	repo := newMemoryRepo()
	svc, queue, _ := newTestService(repo)
	ctx := context.Background()

	po := createOrder(t, svc)

	po, err := svc.Approve(ctx, po.ID, 1)
	require.NoError(t, err)
	require.Equal(t, StatusProcessing, po.Status)

	// Shipping is blocked until a delivery order exists.
	_, err = svc.Advance(ctx, po.ID, 1, StatusShipping)
	require.ErrorIs(t, err, ErrInvalidState)

	po, err = svc.AttachDeliveryOrder(ctx, po.ID, 1, 42)
	require.NoError(t, err)
	require.True(t, po.DOCreated)
	require.NotNil(t, po.DOID)
	require.EqualValues(t, 42, *po.DOID)

	po, err = svc.Advance(ctx, po.ID, 1, "")
	require.NoError(t, err)
	require.Equal(t, StatusShipping, po.Status)

	po, err = svc.Advance(ctx, po.ID, 1, StatusDelivered)
	require.NoError(t, err)
	require.Equal(t, StatusDelivered, po.Status)

	require.NoError(t, svc.GenerateInvoice(ctx, po.ID, 1))
	require.Equal(t, []int64{po.ID}, queue.enqueued)

	require.NoError(t, svc.SetInvoiceURL(ctx, po.ID, "/files/invoices/invoice-1.pdf"))

	po, err = svc.Complete(ctx, po.ID, 1)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, po.Status)
	require.True(t, po.HasInvoice())
}

func TestApproveRejectsNonPending(t *testing.T) {
	svc, _, _ := newTestService(newMemoryRepo())
	ctx := context.Background()

	po := createOrder(t, svc)
	po, err := svc.Approve(ctx, po.ID, 1)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, po.ID, 1)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestAdvanceSkippingStagesRejected(t *testing.T) {
	svc, _, _ := newTestService(newMemoryRepo())
	ctx := context.Background()

	po := createOrder(t, svc)
	po, err := svc.Approve(ctx, po.ID, 1)
	require.NoError(t, err)

	// processing cannot jump straight to delivered.
	_, err = svc.Advance(ctx, po.ID, 1, StatusDelivered)
	require.ErrorIs(t, err, ErrInvalidState)

	// advance never accepts statuses outside its two stops.
	_, err = svc.Advance(ctx, po.ID, 1, StatusCancelled)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCancelStagePolicy(t *testing.T) {
	svc, _, _ := newTestService(newMemoryRepo())
	ctx := context.Background()

	po := createOrder(t, svc)
	po, err := svc.Cancel(ctx, po.ID, 1)
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, po.Status)

	// Delivered orders are past the point of no return.
	po2 := createOrder(t, svc)
	_, err = svc.Approve(ctx, po2.ID, 1)
	require.NoError(t, err)
	_, err = svc.AttachDeliveryOrder(ctx, po2.ID, 1, 5)
	require.NoError(t, err)
	_, err = svc.Advance(ctx, po2.ID, 1, StatusShipping)
	require.NoError(t, err)
	_, err = svc.Advance(ctx, po2.ID, 1, StatusDelivered)
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, po2.ID, 1)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestGenerateInvoiceGuards(t *testing.T) {
	svc, queue, _ := newTestService(newMemoryRepo())
	ctx := context.Background()

	po := createOrder(t, svc)

	// Pending orders cannot be invoiced.
	err := svc.GenerateInvoice(ctx, po.ID, 1)
	require.ErrorIs(t, err, ErrInvalidState)
	require.Empty(t, queue.enqueued)

	_, err = svc.Approve(ctx, po.ID, 1)
	require.NoError(t, err)
	_, err = svc.AttachDeliveryOrder(ctx, po.ID, 1, 9)
	require.NoError(t, err)
	_, err = svc.Advance(ctx, po.ID, 1, StatusShipping)
	require.NoError(t, err)
	_, err = svc.Advance(ctx, po.ID, 1, StatusDelivered)
	require.NoError(t, err)

	require.NoError(t, svc.GenerateInvoice(ctx, po.ID, 1))
	require.NoError(t, svc.SetInvoiceURL(ctx, po.ID, "/files/invoices/invoice-1.pdf"))

	err = svc.GenerateInvoice(ctx, po.ID, 1)
	require.ErrorIs(t, err, ErrInvoiceExists)
	require.Len(t, queue.enqueued, 1)
}

func TestAttachDeliveryOrderGuards(t *testing.T) {
	svc, _, _ := newTestService(newMemoryRepo())
	ctx := context.Background()

	po := createOrder(t, svc)

	// Pending orders have nothing to ship yet.
	_, err := svc.AttachDeliveryOrder(ctx, po.ID, 1, 3)
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = svc.AttachDeliveryOrder(ctx, po.ID, 1, 0)
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Approve(ctx, po.ID, 1)
	require.NoError(t, err)

	po, err = svc.AttachDeliveryOrder(ctx, po.ID, 1, 3)
	require.NoError(t, err)
	require.EqualValues(t, 3, *po.DOID)

	// Switching simply replaces the link.
	po, err = svc.AttachDeliveryOrder(ctx, po.ID, 1, 8)
	require.NoError(t, err)
	require.EqualValues(t, 8, *po.DOID)
}

func TestRowStateZeroTasksIncomplete(t *testing.T) {
	repo := newMemoryRepo()
	queue := &captureQueue{}
	svc := NewService(repo, stubTasks{done: false}, queue, nil)
	ctx := context.Background()

	po := createOrder(t, svc)
	_, err := svc.Approve(ctx, po.ID, 1)
	require.NoError(t, err)
	po, err = svc.Get(ctx, po.ID)
	require.NoError(t, err)

	state, err := svc.RowStateFor(ctx, po, "user")
	require.NoError(t, err)
	require.False(t, state.TasksAllCompleted)
	require.Equal(t, []Action{ActionCreateDOOverride}, AvailableActions(state))
}
