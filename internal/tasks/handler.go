package tasks

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/orderdesk/orderdesk/internal/platform/httpx"
	"github.com/orderdesk/orderdesk/internal/shared"
)

// Handler exposes the task JSON API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers task routes under /api/tasks.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdateStatus)
	r.Delete("/{id}", h.handleDelete)
}

// HandleListByOrder serves tasks nested under an order route,
// GET /api/purchase-orders/{id}/tasks.
func (h *Handler) HandleListByOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || orderID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid order id")
		return
	}
	items, err := h.service.List(r.Context(), p, ListFilters{OrderID: orderID})
	if err != nil {
		h.logger.Error("list order tasks", slog.Any("error", err), slog.Int64("order_id", orderID))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tasks": emptyAsSlice(items)})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	q := r.URL.Query()
	filters := ListFilters{Status: q.Get("status")}
	if raw := q.Get("orderId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid orderId filter")
			return
		}
		filters.OrderID = id
	}
	items, err := h.service.List(r.Context(), p, filters)
	if err != nil {
		h.logger.Error("list tasks", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tasks": emptyAsSlice(items)})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}
	task, err := h.service.Get(r.Context(), p, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

type createTaskRequest struct {
	OrderID    int64  `json:"orderId" validate:"required,gt=0"`
	Type       string `json:"type" validate:"required"`
	AssignedTo int64  `json:"assignedTo" validate:"required,gt=0"`
	Deadline   string `json:"deadline"`
	Details    string `json:"details"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.createTask(w, r, 0)
}

// HandleCreateByOrder serves task creation nested under an order route,
// POST /api/purchase-orders/{id}/tasks. The path wins over any orderId in
// the body.
func (h *Handler) HandleCreateByOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || orderID <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid order id")
		return
	}
	h.createTask(w, r, orderID)
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request, orderID int64) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	var req createTaskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if orderID > 0 {
		req.OrderID = orderID
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "orderId, type and assignedTo are required")
		return
	}
	input := CreateTaskInput{
		OrderID:    req.OrderID,
		Type:       req.Type,
		AssignedTo: req.AssignedTo,
		Details:    req.Details,
	}
	if req.Deadline != "" {
		t, err := time.Parse("2006-01-02", req.Deadline)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "deadline must be YYYY-MM-DD")
			return
		}
		input.Deadline = &t
	}
	task, err := h.service.Create(r.Context(), p, input)
	if err != nil {
		h.logger.Error("create task", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, task)
}

type updateTaskRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}
	var req updateTaskRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "status is required")
		return
	}
	task, err := h.service.ChangeStatus(r.Context(), p, id, TaskStatus(req.Status))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, task)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	id, ok := h.taskID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), p, id); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *Handler) taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid task id")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrForbidden):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "you do not have access to this task")
	default:
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// emptyAsSlice keeps the tasks field a JSON array even when nothing matched.
func emptyAsSlice(items []Task) []Task {
	if items == nil {
		return []Task{}
	}
	return items
}
