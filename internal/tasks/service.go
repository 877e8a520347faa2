package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/orderdesk/orderdesk/internal/rbac"
	"github.com/orderdesk/orderdesk/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (Task, error)
	List(ctx context.Context, filters ListFilters) ([]Task, error)
	Create(ctx context.Context, task Task) (Task, error)
	UpdateStatus(ctx context.Context, id int64, status TaskStatus) error
	Delete(ctx context.Context, id int64) error
	CountPendingByOrder(ctx context.Context, orderID int64) (total int, pending int, err error)
}

// AuditPort reused from shared.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ListFilters narrows task listings.
type ListFilters struct {
	OrderID    int64
	AssignedTo int64
	Status     string
}

// Service orchestrates task management.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
}

// NewService constructs the tasks service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// CreateTaskInput describes the creation payload.
type CreateTaskInput struct {
	OrderID    int64
	Type       string
	AssignedTo int64
	Deadline   *time.Time
	Details    string
}

// Create adds a task to an order. Only privileged roles may create tasks.
func (s *Service) Create(ctx context.Context, actor shared.Principal, input CreateTaskInput) (Task, error) {
	if !rbac.ParseRole(actor.Role).IsPrivileged() {
		return Task{}, ErrForbidden
	}
	if input.OrderID <= 0 {
		return Task{}, fmt.Errorf("%w: order id required", ErrValidation)
	}
	if input.Type == "" {
		return Task{}, fmt.Errorf("%w: task type required", ErrValidation)
	}
	if input.AssignedTo <= 0 {
		return Task{}, fmt.Errorf("%w: assignee required", ErrValidation)
	}
	task, err := s.repo.Create(ctx, Task{
		OrderID:    input.OrderID,
		Type:       input.Type,
		AssignedTo: input.AssignedTo,
		Status:     StatusPending,
		Deadline:   input.Deadline,
		Details:    input.Details,
		CreatedBy:  actor.UserID,
	})
	if err != nil {
		return Task{}, err
	}
	s.recordAudit(ctx, actor.UserID, "TASK_CREATE", task.ID, map[string]any{"order_id": task.OrderID, "type": task.Type})
	return task, nil
}

// List returns tasks visible to the actor. Privileged roles see everything;
// plain users only see tasks assigned to them.
func (s *Service) List(ctx context.Context, actor shared.Principal, filters ListFilters) ([]Task, error) {
	if !rbac.ParseRole(actor.Role).IsPrivileged() {
		filters.AssignedTo = actor.UserID
	}
	return s.repo.List(ctx, filters)
}

// Get returns one task if the actor may see it.
func (s *Service) Get(ctx context.Context, actor shared.Principal, id int64) (Task, error) {
	task, err := s.repo.Get(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if !rbac.ParseRole(actor.Role).IsPrivileged() && task.AssignedTo != actor.UserID {
		return Task{}, ErrNotFound
	}
	return task, nil
}

// ChangeStatus moves a task between Pending, In Progress and Completed.
// The assignee may update their own tasks; privileged roles may update any.
func (s *Service) ChangeStatus(ctx context.Context, actor shared.Principal, id int64, status TaskStatus) (Task, error) {
	if !status.IsValid() {
		return Task{}, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	task, err := s.repo.Get(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if !rbac.ParseRole(actor.Role).IsPrivileged() && task.AssignedTo != actor.UserID {
		return Task{}, ErrForbidden
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return Task{}, err
	}
	s.recordAudit(ctx, actor.UserID, "TASK_STATUS", id, map[string]any{"from": string(task.Status), "to": string(status)})
	return s.repo.Get(ctx, id)
}

// Delete removes a task. Restricted to managers and superadmins.
func (s *Service) Delete(ctx context.Context, actor shared.Principal, id int64) error {
	if !rbac.ParseRole(actor.Role).CanManageOrders() {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor.UserID, "TASK_DELETE", id, nil)
	return nil
}

// AllCompleted reports whether every task on the order is completed. An
// order with zero tasks counts as incomplete; untouched work is not done
// work.
func (s *Service) AllCompleted(ctx context.Context, orderID int64) (bool, error) {
	total, pending, err := s.repo.CountPendingByOrder(ctx, orderID)
	if err != nil {
		return false, err
	}
	if total == 0 {
		return false, nil
	}
	return pending == 0, nil
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, taskID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{ActorID: actorID, Action: action, Entity: "task", EntityID: fmt.Sprintf("%d", taskID), Meta: meta})
}
