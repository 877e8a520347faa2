package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/orderdesk/orderdesk/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *shared.TokenManager
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *shared.TokenManager) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// IssueToken creates a bearer token for the user.
func (s *Service) IssueToken(ctx context.Context, user *User) (string, error) {
	return s.tokens.Issue(ctx, shared.Principal{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
	})
}

// RevokeToken invalidates a bearer token.
func (s *Service) RevokeToken(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

// CurrentUser loads the full account for a resolved principal.
func (s *Service) CurrentUser(ctx context.Context, userID int64) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}
