package masterdata

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/orderdesk/orderdesk/internal/platform/httpx"
)

// RepositoryPort describes lookups used by the handler. Master data has no
// business rules here so the handler talks to the repository directly.
type RepositoryPort interface {
	ListCustomers(ctx context.Context, search string, limit int) ([]Customer, error)
	GetCustomer(ctx context.Context, id int64) (Customer, error)
	ListProducts(ctx context.Context, search string, limit int) ([]Product, error)
}

// Handler exposes customer and product lookups.
type Handler struct {
	logger *slog.Logger
	repo   RepositoryPort
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, repo RepositoryPort) *Handler {
	return &Handler{logger: logger, repo: repo}
}

// MountCustomerRoutes registers routes under /api/customers.
func (h *Handler) MountCustomerRoutes(r chi.Router) {
	r.Get("/", h.handleListCustomers)
	r.Get("/{id}", h.handleGetCustomer)
}

// MountProductRoutes registers routes under /api/products.
func (h *Handler) MountProductRoutes(r chi.Router) {
	r.Get("/", h.handleListProducts)
}

func (h *Handler) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListCustomers(r.Context(), r.URL.Query().Get("search"), searchLimit(r))
	if err != nil {
		h.logger.Error("list customers", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if items == nil {
		items = []Customer{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"customers": items})
}

func (h *Handler) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid customer id")
		return
	}
	customer, err := h.repo.GetCustomer(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.RespondError(w, httpx.ErrNotFound)
			return
		}
		h.logger.Error("get customer", slog.Any("error", err), slog.Int64("customer_id", id))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, customer)
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	items, err := h.repo.ListProducts(r.Context(), r.URL.Query().Get("search"), searchLimit(r))
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if items == nil {
		items = []Product{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"products": items})
}

func searchLimit(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 200 {
		return 50
	}
	return limit
}
