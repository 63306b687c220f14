package testutils

import (
	"context"
	"sync"
	"time"

	"github.com/nfrund/chatkit/internal/domain"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// FakeUserRepo is an in-memory domain.UserRepository for unit tests. It
// mirrors the real store's behavior, including bcrypt hashing (at MinCost
// to keep tests fast) and the uniform invalid-credentials error.
type FakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User // keyed by record key
}

// NewFakeUserRepo creates an empty FakeUserRepo.
func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{users: make(map[string]*domain.User)}
}

// Seed inserts a user directly, hashing the given plaintext password, and
// returns a copy without the hash.
func (r *FakeUserRepo) Seed(fullName, email, password string) *domain.User {
	u, err := r.Create(context.Background(), &domain.NewUser{
		FullName: fullName,
		Email:    email,
		Password: password,
	})
	if err != nil {
		panic(err)
	}
	return u
}

func (r *FakeUserRepo) Create(ctx context.Context, input *domain.NewUser) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == input.Email {
			return nil, domain.ErrEmailTaken
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}

	now := surrealmodels.CustomDateTime{Time: time.Now().UTC()}
	user := &domain.User{
		ID:         NewTestRecordID("user"),
		FullName:   input.FullName,
		Email:      input.Email,
		Password:   string(hash),
		ProfilePic: domain.DefaultAvatarURL(),
		CreatedAt:  &now,
		UpdatedAt:  &now,
	}
	r.users[user.Key()] = user

	return withoutHash(user), nil
}

func (r *FakeUserRepo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *FakeUserRepo) FindByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return withoutHash(u), nil
}

func (r *FakeUserRepo) VerifyPassword(ctx context.Context, email, password string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
				return nil, domain.ErrInvalidCredentials
			}
			return withoutHash(u), nil
		}
	}
	return nil, domain.ErrInvalidCredentials
}

func (r *FakeUserRepo) UpdateAvatar(ctx context.Context, id, avatarURL string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	u.ProfilePic = avatarURL
	now := surrealmodels.CustomDateTime{Time: time.Now().UTC()}
	u.UpdatedAt = &now
	return withoutHash(u), nil
}

func (r *FakeUserRepo) ListOthers(ctx context.Context, excludingID string) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []domain.User
	for key, u := range r.users {
		if key == excludingID {
			continue
		}
		out = append(out, *withoutHash(u))
	}
	return out, nil
}

// Delete removes a user, simulating account deletion after token issuance.
func (r *FakeUserRepo) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

func withoutHash(u *domain.User) *domain.User {
	clone := *u
	clone.Password = ""
	return &clone
}
