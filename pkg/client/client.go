// Package client is the Go consumer of the orderdesk REST API. It carries
// the contracts browser front ends were built against: bearer-token
// sessions, singular-to-plural endpoint rewriting, tolerant response
// normalization and a refetch-after-mutation discipline on order state.
package client

import (
	"context"
	"net/http"
	"time"
)

// Client talks to an orderdesk backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      SessionStore

	// Task ids completed during this session. The server's completed flag
	// can lag a refetch, so the switch-to-DO control keys off this set too.
	recentlyCompleted map[int64]struct{}
}

// Option customises the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSessionStore replaces the default in-memory session store.
func WithSessionStore(store SessionStore) Option {
	return func(c *Client) { c.store = store }
}

// New constructs a Client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:           baseURL,
		httpClient:        &http.Client{Timeout: 30 * time.Second},
		store:             NewMemorySessionStore(),
		recentlyCompleted: map[int64]struct{}{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the current session.
func (c *Client) Session() (Session, error) {
	return c.store.Load()
}

// Login authenticates and persists the returned token and user. A response
// without a token is rejected and nothing is persisted.
func (c *Client) Login(ctx context.Context, email, password string) (Session, error) {
	var resp struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return Session{}, err
	}
	if resp.Token == "" {
		return Session{}, ErrNoToken
	}
	session := Session{Token: resp.Token, User: resp.User}
	if err := c.store.Save(session); err != nil {
		return Session{}, err
	}
	return session, nil
}

// Logout revokes the token server-side and clears the session either way.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/logout", nil, nil)
	if clearErr := c.store.Clear(); clearErr != nil {
		return clearErr
	}
	return err
}

// Me fetches the authenticated account.
func (c *Client) Me(ctx context.Context) (User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &user); err != nil {
		return User{}, err
	}
	return user, nil
}
