package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/orderdesk/orderdesk/internal/platform/httpx"
	"github.com/orderdesk/orderdesk/internal/shared"
)

// RepositoryPort describes the directory lookups used by the handler.
type RepositoryPort interface {
	List(ctx context.Context, filters Filters, limit int) ([]Account, error)
	Get(ctx context.Context, id int64) (Account, error)
}

// Handler exposes the user directory. Listing drives the task assignment
// picker, so it is mounted behind a task-creation permission gate.
type Handler struct {
	logger *slog.Logger
	repo   RepositoryPort
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, repo RepositoryPort) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// MountRoutes registers routes under /api/users.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	filters := Filters{
		Role:   r.URL.Query().Get("role"),
		Search: r.URL.Query().Get("search"),
	}
	accounts, err := h.repo.List(r.Context(), filters, listLimit(r))
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if accounts == nil {
		accounts = []Account{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"users": accounts})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	account, err := h.repo.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("get user", slog.Any("error", err), slog.Int64("user_id", id))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, account)
}

func listLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return 50
	}
	if limit > 200 {
		return 200
	}
	return limit
}
