package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/nfrund/chatkit/internal/domain"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// SurrealUserStore implements domain.UserRepository on SurrealDB. It is
// the credential store: passwords are bcrypt-hashed on write and the hash
// never leaves the store except through FindByEmail, which the
// authenticator needs for comparison.
type SurrealUserStore struct {
	db *surrealdb.DB
}

// NewSurrealUserStore creates a new SurrealUserStore.
func NewSurrealUserStore(db *surrealdb.DB) *SurrealUserStore {
	return &SurrealUserStore{db: db}
}

var _ domain.UserRepository = (*SurrealUserStore)(nil)

// Create persists a new user. Hashing runs synchronously on the request
// path; the record is unusable until hashed, so there is nothing to gain
// from deferring it.
//
// The existence check gives the common duplicate case a cheap answer,
// but uniqueness is guaranteed by the user_email index: two concurrent
// signups can both pass the check, and the loser's CREATE fails on the
// index instead of inserting a second record.
func (s *SurrealUserStore) Create(ctx context.Context, input *domain.NewUser) (*domain.User, error) {
	existing, err := s.FindByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	query := `
		CREATE user SET
			fullName = $fullName,
			email = $email,
			password = $password,
			profilePic = $profilePic,
			createdAt = time::now(),
			updatedAt = time::now()
		RETURN AFTER
	`
	params := map[string]any{
		"fullName":   input.FullName,
		"email":      input.Email,
		"password":   string(hash),
		"profilePic": domain.DefaultAvatarURL(),
	}

	created, err := QueryOne[domain.User](ctx, s.db, query, params)
	if err != nil {
		if isEmailIndexViolation(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}
	if created == nil {
		return nil, fmt.Errorf("user was not created or could not be fetched")
	}

	created.Password = ""
	return created, nil
}

// isEmailIndexViolation detects a rejected write on the user_email unique
// index. SurrealDB reports it as a plain error string, e.g.
// "Database index `user_email` already contains 'a@b.c', with record `user:x`".
func isEmailIndexViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "user_email")
}

// FindByEmail queries for a single user by their email address. The
// result includes the stored password hash; callers other than
// VerifyPassword must strip it before handing the record on.
func (s *SurrealUserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := "SELECT * FROM user WHERE email = $email"
	params := map[string]any{"email": email}

	user, err := QueryOne[domain.User](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return user, nil
}

// FindByID looks up a user by record key ("user:xxx"), password omitted.
func (s *SurrealUserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	recordID, err := parseRecordKey(id)
	if err != nil {
		return nil, err
	}

	query := "SELECT * OMIT password FROM $id"
	params := map[string]any{"id": recordID}

	user, err := QueryOne[domain.User](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	return user, nil
}

// VerifyPassword checks the credentials against the stored hash. Unknown
// email and failed comparison intentionally collapse into the same error
// so the response does not reveal which part was wrong.
func (s *SurrealUserStore) VerifyPassword(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	user.Password = ""
	return user, nil
}

// UpdateAvatar replaces the user's avatar URL.
func (s *SurrealUserStore) UpdateAvatar(ctx context.Context, id, avatarURL string) (*domain.User, error) {
	recordID, err := parseRecordKey(id)
	if err != nil {
		return nil, err
	}

	query := `
		UPDATE $id SET
			profilePic = $profilePic,
			updatedAt = time::now()
		RETURN AFTER
	`
	params := map[string]any{
		"id":         recordID,
		"profilePic": avatarURL,
	}

	updated, err := QueryOne[domain.User](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("updating avatar: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrNotFound
	}

	updated.Password = ""
	return updated, nil
}

// ListOthers returns every user except the given identity, for the
// contact sidebar. Password hashes are omitted at the query level.
func (s *SurrealUserStore) ListOthers(ctx context.Context, excludingID string) ([]domain.User, error) {
	recordID, err := parseRecordKey(excludingID)
	if err != nil {
		return nil, err
	}

	query := "SELECT * OMIT password FROM user WHERE id != $id ORDER BY fullName ASC"
	params := map[string]any{"id": recordID}

	users, err := Query[domain.User](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// parseRecordKey splits a "table:id" record key into a RecordID value.
func parseRecordKey(key string) (surrealmodels.RecordID, error) {
	parts := strings.SplitN(key, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return surrealmodels.RecordID{}, fmt.Errorf("invalid record key: expected 'table:id', got %q", key)
	}
	return surrealmodels.NewRecordID(parts[0], parts[1]), nil
}
