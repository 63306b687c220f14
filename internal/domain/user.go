package domain

import (
	"context"
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// User represents the core user model in the application domain.
// Password holds the bcrypt hash as stored; API responses must go through
// a response DTO so the hash is never serialized to clients.
type User struct {
	ID         *surrealmodels.RecordID      `json:"id,omitempty"`
	FullName   string                       `json:"fullName"`
	Email      string                       `json:"email"`
	Password   string                       `json:"password,omitempty"`
	ProfilePic string                       `json:"profilePic"`
	CreatedAt  *surrealmodels.CustomDateTime `json:"createdAt,omitempty"`
	UpdatedAt  *surrealmodels.CustomDateTime `json:"updatedAt,omitempty"`
}

// Key returns the full record key ("user:xxx") used in tokens, routes and
// message references. Empty when the record has not been persisted yet.
func (u *User) Key() string {
	if u.ID == nil {
		return ""
	}
	return u.ID.String()
}

// NewUser carries validated signup input into the credential store.
type NewUser struct {
	FullName string
	Email    string
	Password string
}

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// MinPasswordLength is the minimum accepted plaintext password length.
const MinPasswordLength = 6

// Validate checks the signup input before any persistence call.
func (n *NewUser) Validate() error {
	if strings.TrimSpace(n.FullName) == "" || n.Email == "" || n.Password == "" {
		return NewValidationError("All fields are required")
	}
	if len(n.Password) < MinPasswordLength {
		return NewValidationError(fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	if !emailShape.MatchString(n.Email) {
		return NewValidationError("Invalid email")
	}
	return nil
}

// DefaultAvatarURL picks a random avatar from the bounded public pool.
func DefaultAvatarURL() string {
	idx := rand.Intn(100) + 1
	return fmt.Sprintf("https://avatar.iran.liara.run/public/%d.png", idx)
}

// UserRepository defines the contract for user data storage operations.
// It lives in the domain because it's a requirement OF the domain, not
// of the database implementation.
type UserRepository interface {
	// Create persists a new user, hashing the plaintext password on write.
	// Returns ErrEmailTaken when the email is already registered.
	Create(ctx context.Context, input *NewUser) (*User, error)
	// FindByEmail returns the user including the stored password hash,
	// or nil when no user matches.
	FindByEmail(ctx context.Context, email string) (*User, error)
	// FindByID returns the user with the password hash omitted, or nil.
	FindByID(ctx context.Context, id string) (*User, error)
	// VerifyPassword checks email/password and returns the matching user.
	// Unknown email and wrong password both yield ErrInvalidCredentials.
	VerifyPassword(ctx context.Context, email, password string) (*User, error)
	// UpdateAvatar replaces the user's avatar URL. Returns ErrNotFound
	// when the identity no longer exists.
	UpdateAvatar(ctx context.Context, id, avatarURL string) (*User, error)
	// ListOthers returns every user except the given identity, password
	// hash omitted.
	ListOthers(ctx context.Context, excludingID string) ([]User, error)
}
