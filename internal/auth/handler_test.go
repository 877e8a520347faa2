package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/orderdesk/orderdesk/internal/shared"
)

type memoryUserRepo struct {
	byEmail map[string]*User
	byID    map[int64]*User
}

func newMemoryUserRepo(users ...*User) *memoryUserRepo {
	repo := &memoryUserRepo{byEmail: map[string]*User{}, byID: map[int64]*User{}}
	for _, u := range users {
		repo.byEmail[u.Email] = u
		repo.byID[u.ID] = u
	}
	return repo
}

func (r *memoryUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (r *memoryUserRepo) FindByID(ctx context.Context, id int64) (*User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func testUser(t *testing.T, id int64, email, password, role string) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &User{ID: id, Name: "Test User", Email: email, Role: role, PasswordHash: string(hash), IsActive: true}
}

func newTestHandler(t *testing.T, users ...*User) (*Handler, *shared.TokenManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tokens := shared.NewTokenManager(client, "test:token", time.Hour)
	service := NewService(newMemoryUserRepo(users...), tokens)
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return NewHandler(logger, service), tokens
}

func TestLoginSuccessReturnsTokenAndUser(t *testing.T) {
	user := testUser(t, 1, "ops@example.com", "supersecret", "manager")
	handler, tokens := newTestHandler(t, user)

	body, _ := json.Marshal(map[string]string{"email": "ops@example.com", "password": "supersecret"})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.handleLogin(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp loginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "ops@example.com", resp.User.Email)

	p, err := tokens.Resolve(context.Background(), resp.Token)
	require.NoError(t, err)
	require.Equal(t, int64(1), p.UserID)
	require.Equal(t, "manager", p.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	user := testUser(t, 1, "ops@example.com", "supersecret", "manager")
	handler, _ := newTestHandler(t, user)

	body, _ := json.Marshal(map[string]string{"email": "ops@example.com", "password": "not-the-one"})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.handleLogin(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var problem map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.NotEmpty(t, problem["message"])
}

func TestLoginInactiveUserRejected(t *testing.T) {
	user := testUser(t, 1, "old@example.com", "supersecret", "user")
	user.IsActive = false
	handler, _ := newTestHandler(t, user)

	body, _ := json.Marshal(map[string]string{"email": "old@example.com", "password": "supersecret"})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler.handleLogin(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	user := testUser(t, 7, "ops@example.com", "supersecret", "user")
	handler, tokens := newTestHandler(t, user)

	token, err := tokens.Issue(context.Background(), shared.Principal{UserID: 7, Role: "user"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.handleLogout(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	_, err = tokens.Resolve(context.Background(), token)
	require.ErrorIs(t, err, shared.ErrTokenInvalid)
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Empty(t, BearerToken(req))

	req.Header.Set("Authorization", "Bearer abc123")
	require.Equal(t, "abc123", BearerToken(req))

	req.Header.Set("Authorization", "Basic abc123")
	require.Empty(t, BearerToken(req))
}
