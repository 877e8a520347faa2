package tasks

import (
	"errors"
	"time"
)

// TaskStatus tracks progress on one piece of order work. The values are the
// display strings browser clients already key on.
type TaskStatus string

const (
	StatusPending    TaskStatus = "Pending"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
)

// IsValid checks if the status is valid.
func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// Task is one unit of work attached to a purchase order.
type Task struct {
	ID         int64      `json:"id"`
	OrderID    int64      `json:"orderId"`
	Type       string     `json:"type"`
	AssignedTo int64      `json:"assignedTo"`
	Status     TaskStatus `json:"status"`
	Deadline   *time.Time `json:"deadline,omitempty"`
	Details    string     `json:"details,omitempty"`
	CreatedBy  int64      `json:"createdBy"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

var (
	// ErrNotFound indicates record missing.
	ErrNotFound = errors.New("tasks: not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("tasks: invalid input")
	// ErrForbidden occurs when the actor may not touch the task.
	ErrForbidden = errors.New("tasks: forbidden")
)
