package handlers

import (
	"github.com/nfrund/chatkit/internal/domain"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// ErrorResponse is the standard format for API error responses.
type ErrorResponse struct {
	Message string `json:"message"`
}

// UserResponse is the DTO for a user. The password hash is structurally
// absent, so it can never leak regardless of what the store returned.
type UserResponse struct {
	ID         string                        `json:"id"`
	FullName   string                        `json:"fullName"`
	Email      string                        `json:"email"`
	ProfilePic string                        `json:"profilePic"`
	CreatedAt  *surrealmodels.CustomDateTime `json:"createdAt,omitempty"`
	UpdatedAt  *surrealmodels.CustomDateTime `json:"updatedAt,omitempty"`
}

// NewUserResponse creates a UserResponse DTO from a domain.User.
func NewUserResponse(user *domain.User) *UserResponse {
	return &UserResponse{
		ID:         user.Key(),
		FullName:   user.FullName,
		Email:      user.Email,
		ProfilePic: user.ProfilePic,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}
