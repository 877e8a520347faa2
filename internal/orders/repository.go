package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for purchase orders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	CreateOrder(ctx context.Context, po PurchaseOrder) (int64, error)
	InsertItem(ctx context.Context, item OrderItem) error
	UpdateStatus(ctx context.Context, id int64, status Status) error
	SetDeliveryOrder(ctx context.Context, id int64, doID int64) error
	SetInvoiceURL(ctx context.Context, id int64, url string) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepo{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

const orderColumns = `id, number, status, delivery_date, notes, do_created, do_id, invoice_url, created_by, created_at, updated_at`

// GetOrder returns an order with its items.
func (r *Repository) GetOrder(ctx context.Context, id int64) (PurchaseOrder, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM purchase_orders WHERE id = $1`, id)
	po, err := scanOrder(row)
	if err != nil {
		return PurchaseOrder{}, err
	}
	items, err := r.getItems(ctx, id)
	if err != nil {
		return PurchaseOrder{}, err
	}
	po.Items = items
	return po, nil
}

// ListOrders returns orders matching the filters plus the unfiltered total.
func (r *Repository) ListOrders(ctx context.Context, filters ListFilters, limit, offset int) ([]PurchaseOrder, int, error) {
	var (
		conditions []string
		args       []any
	)
	if filters.Status != "" {
		args = append(args, filters.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filters.CreatedBy > 0 {
		args = append(args, filters.CreatedBy)
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", len(args)))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(number ILIKE $%d OR notes ILIKE $%d)", len(args), len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM purchase_orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM purchase_orders%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		orderColumns, where, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []PurchaseOrder
	for rows.Next() {
		po, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, po)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// Load items for the page in one query keyed by order id.
	if len(result) > 0 {
		ids := make([]int64, 0, len(result))
		index := make(map[int64]int, len(result))
		for i, po := range result {
			ids = append(ids, po.ID)
			index[po.ID] = i
		}
		itemRows, err := r.pool.Query(ctx,
			`SELECT id, order_id, product, quantity, price FROM purchase_order_items WHERE order_id = ANY($1) ORDER BY id`, ids)
		if err != nil {
			return nil, 0, err
		}
		defer itemRows.Close()
		for itemRows.Next() {
			var item OrderItem
			if err := itemRows.Scan(&item.ID, &item.OrderID, &item.Product, &item.Quantity, &item.Price); err != nil {
				return nil, 0, err
			}
			i := index[item.OrderID]
			result[i].Items = append(result[i].Items, item)
		}
		if err := itemRows.Err(); err != nil {
			return nil, 0, err
		}
	}

	return result, total, nil
}

func (r *Repository) getItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, product, quantity, price FROM purchase_order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.Product, &item.Quantity, &item.Price); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanOrder(row pgx.Row) (PurchaseOrder, error) {
	var po PurchaseOrder
	err := row.Scan(&po.ID, &po.Number, &po.Status, &po.DeliveryDate, &po.Notes,
		&po.DOCreated, &po.DOID, &po.InvoiceURL, &po.CreatedBy, &po.CreatedAt, &po.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PurchaseOrder{}, ErrNotFound
		}
		return PurchaseOrder{}, err
	}
	return po, nil
}

// Transactional operations

func (t *txRepo) CreateOrder(ctx context.Context, po PurchaseOrder) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO purchase_orders (number, status, delivery_date, notes, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING id`,
		po.Number, po.Status, po.DeliveryDate, po.Notes, po.CreatedBy).Scan(&id)
	if isUniqueViolation(err) {
		return 0, fmt.Errorf("%w: order number %q already exists", ErrValidation, po.Number)
	}
	return id, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (t *txRepo) InsertItem(ctx context.Context, item OrderItem) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO purchase_order_items (order_id, product, quantity, price) VALUES ($1, $2, $3, $4)`,
		item.OrderID, item.Product, item.Quantity, item.Price)
	return err
}

func (t *txRepo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE purchase_orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) SetDeliveryOrder(ctx context.Context, id int64, doID int64) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE purchase_orders SET do_created = TRUE, do_id = $2, updated_at = NOW() WHERE id = $1`, id, doID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) SetInvoiceURL(ctx context.Context, id int64, url string) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE purchase_orders SET invoice_url = $2, updated_at = NOW() WHERE id = $1`, id, url)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
