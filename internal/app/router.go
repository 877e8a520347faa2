package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/orderdesk/orderdesk/internal/auth"
	"github.com/orderdesk/orderdesk/internal/delivery"
	"github.com/orderdesk/orderdesk/internal/masterdata"
	"github.com/orderdesk/orderdesk/internal/observability"
	"github.com/orderdesk/orderdesk/internal/orders"
	"github.com/orderdesk/orderdesk/internal/rbac"
	"github.com/orderdesk/orderdesk/internal/shared"
	"github.com/orderdesk/orderdesk/internal/tasks"
	"github.com/orderdesk/orderdesk/internal/users"
	"github.com/orderdesk/orderdesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger            *slog.Logger
	Config            *Config
	Tokens            *shared.TokenManager
	AuthHandler       *auth.Handler
	OrdersHandler     *orders.Handler
	TasksHandler      *tasks.Handler
	UsersHandler      *users.Handler
	DeliveryHandler   *delivery.Handler
	MasterDataHandler *masterdata.Handler
	JobHandler        *jobs.Handler
	RBACMiddleware    rbac.Middleware
	Metrics           *observability.Metrics
}

// NewRouter constructs the chi.Router serving the JSON API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Tokens:  params.Tokens,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	// Token issuance and revocation stay outside the bearer gate.
	params.AuthHandler.MountRoutes(r)

	// Generated invoice PDFs.
	if params.Config != nil && params.Config.InvoiceDir != "" {
		fileServer := http.StripPrefix(params.Config.InvoiceBaseURL+"/", http.FileServer(http.Dir(params.Config.InvoiceDir)))
		r.Get(params.Config.InvoiceBaseURL+"/*", fileServer.ServeHTTP)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(BearerAuth(params.Tokens, params.Logger))

		api.Route("/users", func(u chi.Router) {
			u.Get("/me", params.AuthHandler.HandleMe)
			u.Group(func(g chi.Router) {
				// The directory backs the task assignment picker.
				g.Use(params.RBACMiddleware.RequireAny(rbac.PermTasksCreate))
				params.UsersHandler.MountRoutes(g)
			})
		})

		api.Route("/purchase-orders", func(po chi.Router) {
			po.Use(params.RBACMiddleware.RequireAny(rbac.PermOrdersView))
			params.OrdersHandler.MountRoutes(po)
			po.Get("/{id}/tasks", params.TasksHandler.HandleListByOrder)
			po.Post("/{id}/tasks", params.TasksHandler.HandleCreateByOrder)
		})

		api.Route("/tasks", func(t chi.Router) {
			t.Use(params.RBACMiddleware.RequireAny(rbac.PermTasksView))
			params.TasksHandler.MountRoutes(t)
		})

		api.Route("/delivery-orders", func(d chi.Router) {
			d.Use(params.RBACMiddleware.RequireAny(rbac.PermDeliveryView))
			params.DeliveryHandler.MountRoutes(d)
		})

		api.Route("/customers", func(c chi.Router) {
			c.Use(params.RBACMiddleware.RequireAny(rbac.PermMasterView))
			params.MasterDataHandler.MountCustomerRoutes(c)
		})

		api.Route("/products", func(p chi.Router) {
			p.Use(params.RBACMiddleware.RequireAny(rbac.PermMasterView))
			params.MasterDataHandler.MountProductRoutes(p)
		})

		if params.JobHandler != nil {
			api.Route("/jobs", func(j chi.Router) {
				j.Use(params.RBACMiddleware.RequireAny(rbac.PermOrdersInvoice))
				params.JobHandler.MountRoutes(j)
			})
		}
	})

	return r
}
