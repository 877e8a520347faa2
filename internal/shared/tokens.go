package shared

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Principal describes the authenticated actor attached to a request.
type Principal struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// TokenManager issues and resolves opaque bearer tokens backed by Redis.
// Tokens are single strings handed to browser clients; the client stores
// them in its session object and sends them back on every request.
type TokenManager struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type tokenPayload struct {
	Principal Principal `json:"principal"`
	IssuedAt  time.Time `json:"issued_at"`
}

// NewTokenManager constructs a TokenManager.
func NewTokenManager(client *redis.Client, prefix string, ttl time.Duration) *TokenManager {
	if prefix == "" {
		prefix = "orderdesk:token"
	}
	return &TokenManager{client: client, prefix: prefix, ttl: ttl}
}

// Issue creates a new token bound to the principal.
func (tm *TokenManager) Issue(ctx context.Context, p Principal) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(tokenPayload{Principal: p, IssuedAt: time.Now().UTC()})
	if err != nil {
		return "", err
	}
	if err := tm.client.Set(ctx, tm.key(token), data, tm.ttl).Err(); err != nil {
		return "", fmt.Errorf("shared/tokens: store: %w", err)
	}
	return token, nil
}

// Resolve returns the principal for a token, refreshing its TTL on use.
func (tm *TokenManager) Resolve(ctx context.Context, token string) (Principal, error) {
	if token == "" {
		return Principal{}, ErrTokenInvalid
	}
	data, err := tm.client.Get(ctx, tm.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Principal{}, ErrTokenInvalid
		}
		return Principal{}, fmt.Errorf("shared/tokens: load: %w", err)
	}
	var payload tokenPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Principal{}, fmt.Errorf("shared/tokens: decode: %w", err)
	}
	_ = tm.client.Expire(ctx, tm.key(token), tm.ttl).Err()
	return payload.Principal, nil
}

// Revoke deletes a token. Revoking an unknown token is not an error.
func (tm *TokenManager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := tm.client.Del(ctx, tm.key(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("shared/tokens: revoke: %w", err)
	}
	return nil
}

// TTL exposes the configured token lifetime.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

func (tm *TokenManager) key(token string) string {
	return tm.prefix + ":" + token
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("shared/tokens: entropy: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
