package users

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orderdesk/orderdesk/internal/shared"
)

// Repository reads the user directory from PostgreSQL. Only active
// accounts are visible here.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const accountColumns = `id, name, email, role, created_at`

// List returns active accounts matching the filters, ordered by name.
func (r *Repository) List(ctx context.Context, filters Filters, limit int) ([]Account, error) {
	query := `SELECT ` + accountColumns + ` FROM users WHERE is_active = TRUE`
	args := []any{}

	if filters.Role != "" {
		args = append(args, filters.Role)
		query += ` AND role = $1`
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		ph := strconv.Itoa(len(args))
		query += ` AND (name ILIKE $` + ph + ` OR email ILIKE $` + ph + `)`
	}
	args = append(args, limit)
	query += ` ORDER BY name ASC LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Role, &a.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Get returns one active account.
func (r *Repository) Get(ctx context.Context, id int64) (Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM users WHERE id = $1 AND is_active = TRUE`, id).
		Scan(&a.ID, &a.Name, &a.Email, &a.Role, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrNotFound
		}
		return Account{}, err
	}
	return a, nil
}
