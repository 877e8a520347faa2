package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/orderdesk/orderdesk/internal/auth"
	"github.com/orderdesk/orderdesk/internal/delivery"
	"github.com/orderdesk/orderdesk/internal/masterdata"
	"github.com/orderdesk/orderdesk/internal/orders"
	"github.com/orderdesk/orderdesk/internal/rbac"
	"github.com/orderdesk/orderdesk/internal/shared"
	"github.com/orderdesk/orderdesk/internal/tasks"
	"github.com/orderdesk/orderdesk/internal/users"
)

type staticUserRepo struct {
	user auth.User
}

func (s *staticUserRepo) FindByEmail(context.Context, string) (*auth.User, error) {
	u := s.user
	return &u, nil
}

func (s *staticUserRepo) FindByID(context.Context, int64) (*auth.User, error) {
	u := s.user
	return &u, nil
}

func newRouterFixture(t *testing.T) (http.Handler, *shared.TokenManager) {
	t.Helper()

	mr := miniredis.RunT(t)
	tokens := shared.NewTokenManager(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test:token", time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	account := auth.User{ID: 7, Name: "Warren", Email: "worker@example.com", Role: "user", IsActive: true}
	authHandler := auth.NewHandler(logger, auth.NewService(&staticUserRepo{user: account}, tokens))

	router := NewRouter(RouterParams{
		Logger:            logger,
		Config:            &Config{},
		Tokens:            tokens,
		AuthHandler:       authHandler,
		OrdersHandler:     orders.NewHandler(logger, orders.NewService(nil, nil, nil, nil)),
		TasksHandler:      tasks.NewHandler(logger, tasks.NewService(nil, nil)),
		UsersHandler:      users.NewHandler(logger, nil),
		DeliveryHandler:   delivery.NewHandler(logger, delivery.NewService(nil, nil, nil)),
		MasterDataHandler: masterdata.NewHandler(logger, nil),
		RBACMiddleware:    rbac.Middleware{Logger: logger},
	})
	return router, tokens
}

func issueToken(t *testing.T, tokens *shared.TokenManager, role string) string {
	t.Helper()
	token, err := tokens.Issue(context.Background(), shared.Principal{
		UserID: 7, Name: "Warren", Email: "worker@example.com", Role: role,
	})
	require.NoError(t, err)
	return token
}

func TestHealthz(t *testing.T) {
	router, _ := newRouterFixture(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAPIRequiresBearerToken(t *testing.T) {
	router, _ := newRouterFixture(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/purchase-orders", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIRejectsUnknownToken(t *testing.T) {
	router, _ := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/purchase-orders", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "session expired")
}

func TestUserDirectoryGatedByRole(t *testing.T) {
	router, tokens := newRouterFixture(t)
	token := issueToken(t, tokens, "user")

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestMeReturnsAccount(t *testing.T) {
	router, tokens := newRouterFixture(t)
	token := issueToken(t, tokens, "user")

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got auth.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, int64(7), got.ID)
	require.Equal(t, "worker@example.com", got.Email)
}
