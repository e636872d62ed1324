package inmemory

import (
	"context"
	"sync"
	"time"

	userdomain "mess-manager-go/internal/domain/user"
)

type UserRepository struct {
	mu      sync.Mutex
	byID    map[string]userdomain.User
	byEmail map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:    make(map[string]userdomain.User),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepository) CreateUser(ctx context.Context, u *userdomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[u.Email]; ok {
		return userdomain.ErrEmailExists
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	u.UpdatedAt = u.CreatedAt
	r.byID[u.ID] = *u
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, userdomain.ErrUserNotFound
	}
	u := r.byID[id]
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*userdomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, userdomain.ErrUserNotFound
	}
	return &u, nil
}
