package client

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the client.
var (
	// ErrSessionExpired marks a 401/403 answer on an authenticated call.
	// The stored session has already been cleared when this surfaces.
	ErrSessionExpired = errors.New("client: session expired")
	// ErrNoToken means a login response did not carry a token.
	ErrNoToken = errors.New("client: no token received")
	// ErrNoDeliveryOrderID means no DO id could be resolved from a create
	// response. The HTTP call succeeded but the flow must be treated as
	// failed.
	ErrNoDeliveryOrderID = errors.New("client: no delivery order id found in response")
)

// APIError is an HTTP-level failure carrying the server's message, which
// callers surface verbatim to the user.
type APIError struct {
	StatusCode int
	Message    string

	sessionExpired bool
}

// Is lets errors.Is(err, ErrSessionExpired) match auth failures that
// invalidated the session. Login rejections do not match.
func (e *APIError) Is(target error) bool {
	return target == ErrSessionExpired && e.sessionExpired
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("client: api error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("client: api error %d", e.StatusCode)
}

// IsAuthError reports whether the error is a 401 or 403 response.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return false
}

// TransportError is a network or decode failure where no server message is
// available; callers show a generic message.
type TransportError struct {
	Err error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("client: request failed: %v", e.Err)
}

// Unwrap exposes the underlying error.
func (e *TransportError) Unwrap() error {
	return e.Err
}
