package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for delivery orders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations.
type TxRepository interface {
	CreateDO(ctx context.Context, do DeliveryOrder) (int64, error)
	InsertItem(ctx context.Context, item Item) error
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

const doColumns = `id, number, order_id, customer, total_amount, delivery_address, delivery_date, shipping_method, payment_terms, status, notes, created_by, created_at, updated_at`

// Get returns one delivery order with its items.
func (r *Repository) Get(ctx context.Context, id int64) (DeliveryOrder, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+doColumns+` FROM delivery_orders WHERE id = $1`, id)
	do, err := scanDO(row)
	if err != nil {
		return DeliveryOrder{}, err
	}
	items, err := r.getItems(ctx, id)
	if err != nil {
		return DeliveryOrder{}, err
	}
	do.Items = items
	return do, nil
}

// List returns delivery orders, optionally filtered by purchase order.
func (r *Repository) List(ctx context.Context, orderID int64, limit, offset int) ([]DeliveryOrder, int, error) {
	var (
		conditions []string
		args       []any
	)
	if orderID > 0 {
		args = append(args, orderID)
		conditions = append(conditions, fmt.Sprintf("order_id = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM delivery_orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM delivery_orders%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		doColumns, where, len(args)-1, len(args))
	return r.queryList(ctx, query, args, total)
}

// Search matches the document number or customer, case-insensitively.
func (r *Repository) Search(ctx context.Context, q string, limit int) ([]DeliveryOrder, error) {
	result, _, err := r.queryList(ctx,
		`SELECT `+doColumns+` FROM delivery_orders WHERE number ILIKE $1 OR customer ILIKE $1 ORDER BY created_at DESC LIMIT $2`,
		[]any{"%" + q + "%", limit}, 0)
	return result, err
}

func (r *Repository) queryList(ctx context.Context, query string, args []any, total int) ([]DeliveryOrder, int, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []DeliveryOrder
	for rows.Next() {
		do, err := scanDO(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, do)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range result {
		items, err := r.getItems(ctx, result[i].ID)
		if err != nil {
			return nil, 0, err
		}
		result[i].Items = items
	}
	return result, total, nil
}

func (r *Repository) getItems(ctx context.Context, doID int64) ([]Item, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, do_id, product, quantity, unit_price, total FROM delivery_order_items WHERE do_id = $1 ORDER BY id`, doID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.DOID, &item.Product, &item.Quantity, &item.UnitPrice, &item.Total); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanDO(row pgx.Row) (DeliveryOrder, error) {
	var do DeliveryOrder
	err := row.Scan(&do.ID, &do.Number, &do.OrderID, &do.Customer, &do.TotalAmount,
		&do.DeliveryAddress, &do.DeliveryDate, &do.ShippingMethod, &do.PaymentTerms,
		&do.Status, &do.Notes, &do.CreatedBy, &do.CreatedAt, &do.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DeliveryOrder{}, ErrNotFound
		}
		return DeliveryOrder{}, err
	}
	return do, nil
}

func (t *txRepo) CreateDO(ctx context.Context, do DeliveryOrder) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO delivery_orders (number, order_id, customer, total_amount, delivery_address, delivery_date, shipping_method, payment_terms, status, notes, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW()) RETURNING id`,
		do.Number, do.OrderID, do.Customer, do.TotalAmount, do.DeliveryAddress,
		do.DeliveryDate, do.ShippingMethod, do.PaymentTerms, do.Status, do.Notes, do.CreatedBy).Scan(&id)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return 0, fmt.Errorf("%w: delivery order number %q already exists", ErrValidation, do.Number)
	}
	return id, err
}

func (t *txRepo) InsertItem(ctx context.Context, item Item) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO delivery_order_items (do_id, product, quantity, unit_price, total) VALUES ($1, $2, $3, $4, $5)`,
		item.DOID, item.Product, item.Quantity, item.UnitPrice, item.Total)
	return err
}
