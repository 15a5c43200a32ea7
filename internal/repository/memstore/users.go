package memstore

import (
	"context"
	"strings"

	"github.com/myhostelpal/complaint-service/internal/domain"
	"github.com/myhostelpal/complaint-service/internal/repository"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	now := r.s.now()
	user.ID = newID()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.s.users[user.ID] = cloneUser(user)
	r.s.userOrder = append(r.s.userOrder, user.ID)
	return nil
}

func (r *userRepo) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	user.UpdatedAt = r.s.now()
	r.s.users[user.ID] = cloneUser(user)
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) ListActiveByRoles(_ context.Context, roles ...domain.Role) ([]domain.User, error) {
	active := true
	return r.filter(repository.UserFilter{Active: &active}, roles), nil
}

func (r *userRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, int, error) {
	var roles []domain.Role
	if filter.Role != nil {
		roles = []domain.Role{*filter.Role}
	}
	all := r.filter(filter, roles)
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return page(all, filter.Limit, filter.Offset), len(all), nil
}

func (r *userRepo) filter(filter repository.UserFilter, roles []domain.Role) []domain.User {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []domain.User
	for _, id := range r.s.userOrder {
		u := r.s.users[id]
		if filter.Active != nil && u.Active != *filter.Active {
			continue
		}
		if len(roles) > 0 && !containsRole(roles, u.Role) {
			continue
		}
		out = append(out, *cloneUser(u))
	}
	return out
}

func containsRole(roles []domain.Role, role domain.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
