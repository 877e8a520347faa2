package client

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// TaskStatusCompleted matches the backend completed task status.
const TaskStatusCompleted = "Completed"

// Task mirrors the backend task shape.
type Task struct {
	ID         int64      `json:"id"`
	OrderID    int64      `json:"orderId"`
	Type       string     `json:"type"`
	AssignedTo int64      `json:"assignedTo"`
	Status     string     `json:"status"`
	Deadline   *time.Time `json:"deadline"`
	Details    string     `json:"details"`
	CreatedBy  int64      `json:"createdBy"`
}

// TaskBoard is the task state a caller renders from: the flat list plus
// the same tasks grouped by purchase order.
type TaskBoard struct {
	Tasks   []Task
	ByOrder map[int64][]Task
}

func buildBoard(tasks []Task) TaskBoard {
	board := TaskBoard{Tasks: tasks, ByOrder: make(map[int64][]Task)}
	for _, t := range tasks {
		board.ByOrder[t.OrderID] = append(board.ByOrder[t.OrderID], t)
	}
	return board
}

// ListTasks fetches the tasks visible to the current user.
func (c *Client) ListTasks(ctx context.Context) (TaskBoard, error) {
	var out struct {
		Tasks []Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &out); err != nil {
		return TaskBoard{}, err
	}
	return buildBoard(out.Tasks), nil
}

// ListOrderTasks fetches the tasks attached to one purchase order.
func (c *Client) ListOrderTasks(ctx context.Context, orderID int64) ([]Task, error) {
	var out struct {
		Tasks []Task `json:"tasks"`
	}
	path := fmt.Sprintf("/api/purchase-orders/%d/tasks", orderID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Tasks, nil
}

// CreateTaskInput is the task creation payload.
type CreateTaskInput struct {
	OrderID    int64  `json:"orderId"`
	Type       string `json:"type"`
	AssignedTo int64  `json:"assignedTo"`
	Deadline   string `json:"deadline,omitempty"`
	Details    string `json:"details,omitempty"`
}

// CreateTask creates a task and returns the refreshed board.
func (c *Client) CreateTask(ctx context.Context, input CreateTaskInput) (TaskBoard, error) {
	if err := c.do(ctx, http.MethodPost, "/api/tasks", input, nil); err != nil {
		return TaskBoard{}, err
	}
	return c.ListTasks(ctx)
}

// ChangeTaskStatus updates a task's status and patches the board in place
// so the caller sees the change without a refetch. A task moved to
// Completed is also remembered for the rest of the session; see
// ShowSwitchToDO.
func (c *Client) ChangeTaskStatus(ctx context.Context, board *TaskBoard, id int64, status string) error {
	body := map[string]string{"status": status}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/tasks/%d", id), body, nil); err != nil {
		return err
	}
	if status == TaskStatusCompleted {
		c.recentlyCompleted[id] = struct{}{}
	}
	if board == nil {
		return nil
	}
	for i := range board.Tasks {
		if board.Tasks[i].ID == id {
			board.Tasks[i].Status = status
		}
	}
	for orderID := range board.ByOrder {
		group := board.ByOrder[orderID]
		for i := range group {
			if group[i].ID == id {
				group[i].Status = status
			}
		}
	}
	return nil
}

// DeleteTask deletes a task and removes it from both the flat list and the
// per-order grouping.
func (c *Client) DeleteTask(ctx context.Context, board *TaskBoard, id int64) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", id), nil, nil); err != nil {
		return err
	}
	if board == nil {
		return nil
	}
	kept := board.Tasks[:0]
	for _, t := range board.Tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	board.Tasks = kept
	for orderID, group := range board.ByOrder {
		filtered := group[:0]
		for _, t := range group {
			if t.ID != id {
				filtered = append(filtered, t)
			}
		}
		if len(filtered) == 0 {
			delete(board.ByOrder, orderID)
			continue
		}
		board.ByOrder[orderID] = filtered
	}
	return nil
}

// ShowSwitchToDO reports whether the task row should offer jumping to the
// delivery order form: the task is completed now, or was completed earlier
// in this session even if a refetch has since reshuffled its status.
func (c *Client) ShowSwitchToDO(task Task) bool {
	if task.Status == TaskStatusCompleted {
		return true
	}
	_, ok := c.recentlyCompleted[task.ID]
	return ok
}
