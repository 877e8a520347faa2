package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// Singular API paths some callers were written against. They are silently
// rewritten to the plural resources the backend actually serves.
var singularRewrites = map[string]string{
	"/api/order":    "/api/purchase-orders",
	"/api/user":     "/api/users",
	"/api/product":  "/api/products",
	"/api/customer": "/api/customers",
	"/api/task":     "/api/tasks",
}

func rewritePath(path string) string {
	for singular, plural := range singularRewrites {
		if path == singular {
			return plural
		}
		if strings.HasPrefix(path, singular+"/") || strings.HasPrefix(path, singular+"?") {
			return plural + path[len(singular):]
		}
	}
	return path
}

// do executes one API call: rewrite the path, attach the bearer token,
// send JSON, decode JSON. A 401 or 403 clears the stored session except
// when the failing call was the login itself; its message is surfaced
// inline instead.
func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	path = rewritePath(path)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &TransportError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Every call except login carries the bearer token; logout needs it so
	// the server can revoke the session it names.
	if path != "/login" {
		session, err := c.store.Load()
		if err != nil {
			return err
		}
		if session.Token != "" {
			req.Header.Set("Authorization", "Bearer "+session.Token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: extractMessage(resp.Body)}
		if (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) && path != "/login" {
			_ = c.store.Clear()
			apiErr.sessionExpired = true
		}
		return apiErr
	}

	if target == nil {
		return nil
	}
	// Empty bodies are fine; DELETE responses often carry none.
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &TransportError{Err: err}
	}
	return nil
}

// extractMessage pulls a human-readable message out of an error body. The
// backend sends RFC7807 problems, but older deployments used bare
// message/error fields, so all three are accepted.
func extractMessage(body io.Reader) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return ""
	}
	switch {
	case payload.Message != "":
		return payload.Message
	case payload.Error != "":
		return payload.Error
	default:
		return payload.Detail
	}
}
