package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"go-auth-api/internal/model"
)

// MemoryUserRepository is an in-process implementation of the user store with
// the same semantics as UserRepository. Service and handler tests run against
// it instead of a live database.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]model.User // keyed by lowercased email
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: map[string]model.User{}}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *MemoryUserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[emailKey(email)]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryUserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (r *MemoryUserRepository) Create(ctx context.Context, u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := emailKey(u.Email)
	if _, exists := r.users[key]; exists {
		return model.ErrDuplicateEmail
	}
	r.users[key] = u
	return nil
}

func (r *MemoryUserRepository) Update(ctx context.Context, email string, upd model.UserUpdate) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := emailKey(email)
	u, ok := r.users[key]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}

	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Email != nil && emailKey(*upd.Email) != key {
		newKey := emailKey(*upd.Email)
		if _, exists := r.users[newKey]; exists {
			return model.User{}, model.ErrDuplicateEmail
		}
		u.Email = *upd.Email
		delete(r.users, key)
		key = newKey
	}
	u.UpdatedAt = time.Now().UTC()
	r.users[key] = u
	return u, nil
}

func (r *MemoryUserRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, u := range r.users {
		if u.ID == id {
			delete(r.users, key)
			return nil
		}
	}
	return nil
}

func (r *MemoryUserRepository) SetRefreshToken(ctx context.Context, email string, ref string) error {
	return r.mutate(email, func(u *model.User) {
		u.RefreshTokenRef = ref
	})
}

func (r *MemoryUserRepository) SetResetToken(ctx context.Context, email string, ref string, exp *time.Time) error {
	return r.mutate(email, func(u *model.User) {
		u.ResetTokenRef = ref
		u.ResetTokenExp = exp
	})
}

func (r *MemoryUserRepository) UpdatePassword(ctx context.Context, email string, passwordHash string) error {
	return r.mutate(email, func(u *model.User) {
		u.PasswordHash = passwordHash
		u.ResetTokenRef = ""
		u.ResetTokenExp = nil
		u.RefreshTokenRef = ""
	})
}

func (r *MemoryUserRepository) mutate(email string, fn func(*model.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := emailKey(email)
	u, ok := r.users[key]
	if !ok {
		return model.ErrUserNotFound
	}

	fn(&u)
	u.UpdatedAt = time.Now().UTC()
	r.users[key] = u
	return nil
}
