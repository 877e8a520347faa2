package delivery

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

// Handler exposes the delivery order JSON API.
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

// MountRoutes registers delivery order routes under /api/delivery-orders.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/search", h.handleSearch)
	r.Get("/{id}", h.handleGet)
}

type listResponse struct {
	Orders     []DeliveryOrder   `json:"orders"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page <= 0 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage <= 0 || perPage > 100 {
		perPage = 20
	}
	var orderID int64
	if raw := q.Get("poId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid poId filter")
			return
		}
		orderID = id
	}

	items, total, err := h.service.List(r.Context(), orderID, perPage, (page-1)*perPage)
	if err != nil {
		h.logger.Error("list delivery orders", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	if items == nil {
		items = []DeliveryOrder{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{
		Orders:     items,
		Pagination: shared.NewPagination(page, perPage, total),
	})
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("search delivery orders", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	if items == nil {
		items = []DeliveryOrder{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"orders": items})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid delivery order id")
		return
	}
	do, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, do)
}

type createItemRequest struct {
	Product   string  `json:"product" validate:"required"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

type createRequest struct {
	Number          string              `json:"doNumber"`
	OrderID         int64               `json:"poId" validate:"required,gt=0"`
	Customer        string              `json:"customer"`
	DeliveryAddress string              `json:"deliveryAddress" validate:"required"`
	DeliveryDate    string              `json:"deliveryDate"`
	ShippingMethod  string              `json:"shippingMethod"`
	PaymentTerms    string              `json:"paymentTerms"`
	Notes           string              `json:"notes"`
	Items           []createItemRequest `json:"items" validate:"required,min=1,dive"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "poId, deliveryAddress and at least one item are required")
		return
	}

	input := CreateInput{
		Number:          req.Number,
		OrderID:         req.OrderID,
		Customer:        req.Customer,
		DeliveryAddress: req.DeliveryAddress,
		ShippingMethod:  req.ShippingMethod,
		PaymentTerms:    req.PaymentTerms,
		Notes:           req.Notes,
		CreatedBy:       p.UserID,
	}
	if req.DeliveryDate != "" {
		t, err := parseDeliveryDate(req.DeliveryDate)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "deliveryDate must be an ISO 8601 date")
			return
		}
		input.DeliveryDate = t
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, ItemInput{Product: item.Product, Quantity: item.Quantity, UnitPrice: item.UnitPrice})
	}

	do, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logger.Error("create delivery order", slog.Any("error", err))
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, do)
}

// parseDeliveryDate takes the full RFC 3339 form sent by API clients as
// well as the bare YYYY-MM-DD dates typed into forms.
func parseDeliveryDate(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.RespondError(w, httpx.ErrNotFound)
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
