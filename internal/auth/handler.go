package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/orderdesk/orderdesk/internal/platform/httpx"
	"github.com/orderdesk/orderdesk/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers the unauthenticated auth routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "email and password are required")
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		// Login failures carry the message inline; the client surfaces it
		// instead of treating it as an expired session.
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", shared.UserSafeMessage(shared.ErrInvalidCredentials))
		return
	}

	token, err := h.service.IssueToken(r.Context(), user)
	if err != nil {
		h.logger.Error("issue token", slog.Any("error", err), slog.Int64("user_id", user.ID))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}

	httpx.JSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := BearerToken(r)
	if token != "" {
		if err := h.service.RevokeToken(r.Context(), token); err != nil {
			h.logger.Warn("revoke token", slog.Any("error", err))
		}
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HandleMe returns the authenticated user's account.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
		return
	}
	user, err := h.service.CurrentUser(r.Context(), p.UserID)
	if err != nil {
		h.logger.Error("load current user", slog.Any("error", err), slog.Int64("user_id", p.UserID))
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

// BearerToken extracts the bearer token from the Authorization header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
