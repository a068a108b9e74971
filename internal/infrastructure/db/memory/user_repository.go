// Package memory is a process-local UserRepository. It enforces the same
// uniqueness rules as the Mongo store and is used by tests and by
// STORE_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/itroad/users-service/internal/core/domain"
	"github.com/itroad/users-service/internal/core/ports"
)

type UserRepository struct {
	mu     sync.RWMutex
	users  map[int64]domain.User
	nextID int64
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[int64]domain.User)}
}

func (r *UserRepository) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return clone(u), nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			return clone(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if email == "" {
		return nil, domain.ErrUserNotFound
	}
	for _, u := range r.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	return err == nil, nil
}

func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.FindByUsername(ctx, username)
	return err == nil, nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*domain.User, error) {
	return r.FindByFilters(ctx, ports.UserFilter{})
}

func (r *UserRepository) FindByFilters(_ context.Context, f ports.UserFilter) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.User, 0)
	for _, u := range r.users {
		if matches(u, f) {
			out = append(out, clone(u))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *UserRepository) Count(_ context.Context, f ports.UserFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, u := range r.users {
		if matches(u, f) {
			n++
		}
	}
	return n, nil
}

func (r *UserRepository) Save(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u.ID != 0 {
		if _, ok := r.users[u.ID]; !ok {
			return nil, domain.ErrUserNotFound
		}
	}
	if err := r.checkUnique(u); err != nil {
		return nil, err
	}

	rec := *u
	if rec.ID == 0 {
		r.nextID++
		rec.ID = r.nextID
	}
	r.users[rec.ID] = rec
	return clone(rec), nil
}

func (r *UserRepository) DeleteByID(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

// checkUnique must be called with the write lock held.
func (r *UserRepository) checkUnique(u *domain.User) error {
	for id, other := range r.users {
		if id == u.ID {
			continue
		}
		switch {
		case other.Username == u.Username:
			return domain.ErrDuplicateUsername
		case u.Email != "" && other.Email == u.Email:
			return domain.ErrDuplicateEmail
		case u.PhoneNumber != "" && other.PhoneNumber == u.PhoneNumber:
			return domain.ErrDuplicatePhoneNumber
		}
	}
	return nil
}

func matches(u domain.User, f ports.UserFilter) bool {
	if f.Name != nil {
		if u.Name == "" || !strings.Contains(strings.ToLower(u.Name), strings.ToLower(*f.Name)) {
			return false
		}
	}
	if f.Role != nil && u.Role != *f.Role {
		return false
	}
	if f.Status != nil && u.Status != *f.Status {
		return false
	}
	return true
}

func clone(u domain.User) *domain.User {
	if u.LastLogin != nil {
		t := *u.LastLogin
		u.LastLogin = &t
	}
	return &u
}
