package auth

import (
	"context"
	"fmt"

	"github.com/nfrund/chatkit/internal/domain"
)

// Service composes token verification with user resolution. Every
// protected operation runs Authenticate before touching its own logic.
type Service struct {
	issuer *Issuer
	users  domain.UserRepository
}

// NewService creates a Service backed by the given issuer and user store.
func NewService(issuer *Issuer, users domain.UserRepository) *Service {
	return &Service{issuer: issuer, users: users}
}

// Issuer exposes the underlying token issuer for login/signup handlers.
func (s *Service) Issuer() *Issuer { return s.issuer }

// Resolve looks up the full user record for a verified identity, with the
// password hash omitted. Returns ErrUserNotFound when the identity has
// been deleted since the token was issued.
func (s *Service) Resolve(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolving session user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Authenticate verifies the raw token and resolves the identity in one
// step. Failure at either stage yields an auth error; callers must not
// proceed with a partially-resolved identity.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	userID, err := s.issuer.Verify(token)
	if err != nil {
		return nil, err
	}
	return s.Resolve(ctx, userID)
}
