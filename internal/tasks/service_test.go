package tasks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orderdesk/orderdesk/internal/shared"
)

type memoryTaskRepo struct {
	nextID int64
	tasks  map[int64]*Task
}

func newMemoryTaskRepo() *memoryTaskRepo {
	return &memoryTaskRepo{nextID: 1, tasks: map[int64]*Task{}}
}

func (m *memoryTaskRepo) Get(_ context.Context, id int64) (Task, error) {
	task, ok := m.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return *task, nil
}

func (m *memoryTaskRepo) List(_ context.Context, filters ListFilters) ([]Task, error) {
	var out []Task
	for _, task := range m.tasks {
		if filters.OrderID > 0 && task.OrderID != filters.OrderID {
			continue
		}
		if filters.AssignedTo > 0 && task.AssignedTo != filters.AssignedTo {
			continue
		}
		if filters.Status != "" && string(task.Status) != filters.Status {
			continue
		}
		out = append(out, *task)
	}
	return out, nil
}

func (m *memoryTaskRepo) Create(_ context.Context, task Task) (Task, error) {
	task.ID = m.nextID
	m.nextID++
	m.tasks[task.ID] = &task
	return task, nil
}

func (m *memoryTaskRepo) UpdateStatus(_ context.Context, id int64, status TaskStatus) error {
	task, ok := m.tasks[id]
	if !ok {
		return ErrNotFound
	}
	task.Status = status
	return nil
}

func (m *memoryTaskRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *memoryTaskRepo) CountPendingByOrder(_ context.Context, orderID int64) (int, int, error) {
	total, pending := 0, 0
	for _, task := range m.tasks {
		if task.OrderID != orderID {
			continue
		}
		total++
		if task.Status != StatusCompleted {
			pending++
		}
	}
	return total, pending, nil
}

var (
	manager  = shared.Principal{UserID: 1, Role: "manager"}
	worker   = shared.Principal{UserID: 2, Role: "user"}
	stranger = shared.Principal{UserID: 3, Role: "user"}
)

func newTaskService() (*Service, *memoryTaskRepo) {
	repo := newMemoryTaskRepo()
	return NewService(repo, nil), repo
}

func TestCreateRequiresPrivilege(t *testing.T) {
	svc, _ := newTaskService()

	_, err := svc.Create(context.Background(), worker, CreateTaskInput{OrderID: 1, Type: "QC", AssignedTo: 2})
	require.ErrorIs(t, err, ErrForbidden)

	task, err := svc.Create(context.Background(), manager, CreateTaskInput{OrderID: 1, Type: "QC", AssignedTo: 2})
	require.NoError(t, err)
	require.Equal(t, StatusPending, task.Status)
	require.EqualValues(t, 1, task.CreatedBy)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTaskService()
	ctx := context.Background()

	_, err := svc.Create(ctx, manager, CreateTaskInput{Type: "QC", AssignedTo: 2})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, manager, CreateTaskInput{OrderID: 1, AssignedTo: 2})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(ctx, manager, CreateTaskInput{OrderID: 1, Type: "QC"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestListVisibility(t *testing.T) {
	svc, _ := newTaskService()
	ctx := context.Background()

	_, err := svc.Create(ctx, manager, CreateTaskInput{OrderID: 1, Type: "QC", AssignedTo: worker.UserID})
	require.NoError(t, err)
	_, err = svc.Create(ctx, manager, CreateTaskInput{OrderID: 1, Type: "Packing", AssignedTo: stranger.UserID})
	require.NoError(t, err)

	all, err := svc.List(ctx, manager, ListFilters{})
	require.NoError(t, err)
	require.Len(t, all, 2)

	mine, err := svc.List(ctx, worker, ListFilters{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, worker.UserID, mine[0].AssignedTo)
}

func TestChangeStatusOwnership(t *testing.T) {
	svc, _ := newTaskService()
	ctx := context.Background()

	task, err := svc.Create(ctx, manager, CreateTaskInput{OrderID: 1, Type: "QC", AssignedTo: worker.UserID})
	require.NoError(t, err)

	// Someone else's task cannot be touched by a plain user.
	_, err = svc.ChangeStatus(ctx, stranger, task.ID, StatusInProgress)
	require.ErrorIs(t, err, ErrForbidden)

	updated, err := svc.ChangeStatus(ctx, worker, task.ID, StatusInProgress)
	require.NoError(t, err)
	require.Equal(t, StatusInProgress, updated.Status)

	// Privileged roles may move any task.
	updated, err = svc.ChangeStatus(ctx, manager, task.ID, StatusCompleted)
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, updated.Status)

	_, err = svc.ChangeStatus(ctx, worker, task.ID, TaskStatus("Done"))
	require.ErrorIs(t, err, ErrValidation)
}

func TestDeleteRestrictedToManagement(t *testing.T) {
	svc, repo := newTaskService()
	ctx := context.Background()

	task, err := svc.Create(ctx, manager, CreateTaskInput{OrderID: 1, Type: "QC", AssignedTo: worker.UserID})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, worker, task.ID), ErrForbidden)
	require.NoError(t, svc.Delete(ctx, manager, task.ID))
	require.Empty(t, repo.tasks)
	require.ErrorIs(t, svc.Delete(ctx, manager, task.ID), ErrNotFound)
}

func TestAllCompleted(t *testing.T) {
	svc, _ := newTaskService()
	ctx := context.Background()

	// Zero tasks never count as complete.
	done, err := svc.AllCompleted(ctx, 1)
	require.NoError(t, err)
	require.False(t, done)

	t1, err := svc.Create(ctx, manager, CreateTaskInput{OrderID: 1, Type: "QC", AssignedTo: worker.UserID})
	require.NoError(t, err)
	t2, err := svc.Create(ctx, manager, CreateTaskInput{OrderID: 1, Type: "Packing", AssignedTo: worker.UserID})
	require.NoError(t, err)

	done, err = svc.AllCompleted(ctx, 1)
	require.NoError(t, err)
	require.False(t, done)

	_, err = svc.ChangeStatus(ctx, worker, t1.ID, StatusCompleted)
	require.NoError(t, err)
	done, err = svc.AllCompleted(ctx, 1)
	require.NoError(t, err)
	require.False(t, done)

	_, err = svc.ChangeStatus(ctx, worker, t2.ID, StatusCompleted)
	require.NoError(t, err)
	done, err = svc.AllCompleted(ctx, 1)
	require.NoError(t, err)
	require.True(t, done)
}
