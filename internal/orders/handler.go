package orders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/orderdesk/orderdesk/internal/platform/httpx"
	"github.com/orderdesk/orderdesk/internal/shared"
)

// Handler exposes the purchase order JSON API.
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

// MountRoutes registers purchase order routes under /api/purchase-orders.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Delete("/{id}", h.handleCancel)
	r.Patch("/{id}/approve", h.handleApprove)
	r.Patch("/{id}/advance", h.handleAdvance)
	r.Patch("/{id}/complete", h.handleComplete)
	r.Patch("/{id}/do", h.handleAttachDO)
	r.Patch("/{id}/invoice", h.handleGenerateInvoice)
}

// orderRow is a list entry: the order plus the actions the viewer may take
// on it. Keeping the gate server side means every client renders from the
// same table.
type orderRow struct {
	PurchaseOrder
	AvailableActions []Action `json:"availableActions"`
	Total            float64  `json:"total"`
}

type listResponse struct {
	Orders     []orderRow        `json:"orders"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}

	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page <= 0 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}
	filters := ListFilters{
		Status: q.Get("status"),
		Search: q.Get("search"),
	}

	items, total, err := h.service.List(r.Context(), filters, perPage, (page-1)*perPage)
	if err != nil {
		h.logger.Error("list orders", slog.Any("error", err))
		h.respondError(w, err)
		return
	}

	rows := make([]orderRow, len(items))
	g, gctx := errgroup.WithContext(r.Context())
	g.SetLimit(8)
	for i, po := range items {
		g.Go(func() error {
			state, err := h.service.RowStateFor(gctx, po, p.Role)
			if err != nil {
				return err
			}
			rows[i] = orderRow{
				PurchaseOrder:    po,
				AvailableActions: AvailableActions(state),
				Total:            po.Total(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		h.logger.Error("compute row state", slog.Any("error", err))
		h.respondError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, listResponse{
		Orders:     rows,
		Pagination: shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	po, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

type createItemRequest struct {
	Product  string  `json:"product" validate:"required"`
	Quantity float64 `json:"quantity" validate:"gt=0"`
	Price    float64 `json:"price" validate:"gte=0"`
}

type createOrderRequest struct {
	Number       string              `json:"number"`
	DeliveryDate string              `json:"deliveryDate"`
	Notes        string              `json:"notes"`
	Items        []createItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}

	var req createOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "at least one item with product and positive quantity is required")
		return
	}

	input := CreateOrderInput{
		Number:    req.Number,
		Notes:     req.Notes,
		CreatedBy: p.UserID,
	}
	if req.DeliveryDate != "" {
		t, err := time.Parse("2006-01-02", req.DeliveryDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "deliveryDate must be YYYY-MM-DD")
			return
		}
		input.DeliveryDate = t
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, ItemInput{Product: item.Product, Quantity: item.Quantity, Price: item.Price})
	}

	po, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logger.Error("create order", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, po)
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(id, actorID int64) (PurchaseOrder, error) {
		return h.service.Approve(r.Context(), id, actorID)
	})
}

type advanceRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleAdvance(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	h.mutate(w, r, func(id, actorID int64) (PurchaseOrder, error) {
		return h.service.Advance(r.Context(), id, actorID, Status(req.Status))
	})
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(id, actorID int64) (PurchaseOrder, error) {
		return h.service.Complete(r.Context(), id, actorID)
	})
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(id, actorID int64) (PurchaseOrder, error) {
		return h.service.Cancel(r.Context(), id, actorID)
	})
}

type attachDORequest struct {
	DOID int64 `json:"doId" validate:"required,gt=0"`
}

func (h *Handler) handleAttachDO(w http.ResponseWriter, r *http.Request) {
	var req attachDORequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "doId is required")
		return
	}
	h.mutate(w, r, func(id, actorID int64) (PurchaseOrder, error) {
		return h.service.AttachDeliveryOrder(r.Context(), id, actorID, req.DOID)
	})
}

func (h *Handler) handleGenerateInvoice(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	if err := h.service.GenerateInvoice(r.Context(), id, p.UserID); err != nil {
		h.logger.Error("queue invoice", slog.Any("error", err), slog.Int64("order_id", id))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

// mutate runs a state-changing order operation and responds with the
// refetched order so clients never render from stale local state.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn func(id, actorID int64) (PurchaseOrder, error)) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	id, ok := h.orderID(w, r)
	if !ok {
		return
	}
	po, err := fn(id, p.UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid order id")
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
	case errors.Is(err, ErrInvalidState):
		httpx.Problem(w, http.StatusConflict, "Invalid State", err.Error())
	case errors.Is(err, ErrInvoiceExists):
		httpx.Problem(w, http.StatusConflict, "Invoice Exists", err.Error())
	default:
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
