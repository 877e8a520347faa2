package rbac

import (
	"log/slog"
	"net/http"

	"github.com/orderdesk/orderdesk/internal/platform/httpx"
	"github.com/orderdesk/orderdesk/internal/shared"
)

// Middleware wires authorization helpers for HTTP handlers. Permissions are
// resolved from the role carried by the request principal.
type Middleware struct {
	Logger *slog.Logger
}

// RequireAny ensures the current user has at least one of the permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := m.currentRole(r)
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			for _, perm := range perms {
				if HasPermission(role, perm) {
					next.ServeHTTP(w, r)
					return
				}
			}
			m.deny(w, r, role, perms)
		})
	}
}

// RequireAll ensures the current user has every listed permission.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := m.currentRole(r)
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			for _, perm := range perms {
				if !HasPermission(role, perm) {
					m.deny(w, r, role, perms)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) currentRole(r *http.Request) (Role, bool) {
	p, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		return "", false
	}
	return ParseRole(p.Role), true
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, role Role, perms []string) {
	if m.Logger != nil {
		m.Logger.Warn("permission denied",
			slog.String("path", r.URL.Path),
			slog.String("role", string(role)),
			slog.Any("required", perms))
	}
	httpx.Problem(w, http.StatusForbidden, "Forbidden", "insufficient permissions")
}
