package masterdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed reads for master data.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListCustomers returns active customers, optionally filtered by a name
// search term.
func (r *Repository) ListCustomers(ctx context.Context, search string, limit int) ([]Customer, error) {
	query := `SELECT id, name, address, phone, email, is_active, created_at, updated_at
		FROM customers WHERE is_active`
	args := []any{}
	if search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY name LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Address, &c.Phone, &c.Email, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// GetCustomer returns one customer.
func (r *Repository) GetCustomer(ctx context.Context, id int64) (Customer, error) {
	var c Customer
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, address, phone, email, is_active, created_at, updated_at FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Address, &c.Phone, &c.Email, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrNotFound
		}
		return Customer{}, err
	}
	return c, nil
}

// ListProducts returns active products, optionally filtered by a name or
// SKU search term.
func (r *Repository) ListProducts(ctx context.Context, search string, limit int) ([]Product, error) {
	query := `SELECT id, sku, name, unit, price, is_active, created_at, updated_at
		FROM products WHERE is_active`
	args := []any{}
	if search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(" AND (name ILIKE $%d OR sku ILIKE $%d)", len(args), len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY name LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.SKU, &p.Name, &p.Unit, &p.Price, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
