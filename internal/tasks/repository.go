package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for tasks.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const taskColumns = `id, order_id, type, assigned_to, status, deadline, details, created_by, created_at, updated_at`

// Get returns one task.
func (r *Repository) Get(ctx context.Context, id int64) (Task, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	return scanTask(row)
}

// List returns tasks matching the filters, newest first.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]Task, error) {
	var (
		conditions []string
		args       []any
	)
	if filters.OrderID > 0 {
		args = append(args, filters.OrderID)
		conditions = append(conditions, fmt.Sprintf("order_id = $%d", len(args)))
	}
	if filters.AssignedTo > 0 {
		args = append(args, filters.AssignedTo)
		conditions = append(conditions, fmt.Sprintf("assigned_to = $%d", len(args)))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	rows, err := r.pool.Query(ctx, `SELECT `+taskColumns+` FROM tasks`+where+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, task)
	}
	return result, rows.Err()
}

// Create inserts a task and returns it with generated fields.
func (r *Repository) Create(ctx context.Context, task Task) (Task, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO tasks (order_id, type, assigned_to, status, deadline, details, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		 RETURNING `+taskColumns,
		task.OrderID, task.Type, task.AssignedTo, task.Status, task.Deadline, task.Details, task.CreatedBy)
	return scanTask(row)
}

// UpdateStatus sets the task status.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status TaskStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tasks SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a task.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CountPendingByOrder returns total tasks and how many are not completed.
func (r *Repository) CountPendingByOrder(ctx context.Context, orderID int64) (total int, pending int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE status <> $2) FROM tasks WHERE order_id = $1`,
		orderID, StatusCompleted).Scan(&total, &pending)
	return total, pending, err
}

func scanTask(row pgx.Row) (Task, error) {
	var task Task
	err := row.Scan(&task.ID, &task.OrderID, &task.Type, &task.AssignedTo, &task.Status,
		&task.Deadline, &task.Details, &task.CreatedBy, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, ErrNotFound
		}
		return Task{}, err
	}
	return task, nil
}
