package memory

import (
	"context"
	"sort"

	"petcare-backend/internal/domain/users"
)

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, u users.User) error {
	defer r.s.lock(ctx)()

	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return users.ErrEmailTaken
		}
	}
	put(ctx, r.s, r.s.users, u.ID, u)
	return nil
}

func (r userRepo) Update(ctx context.Context, u users.User) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.users[u.ID]; !ok {
		return users.ErrNotFound
	}
	for _, existing := range r.s.users {
		if existing.ID != u.ID && existing.Email == u.Email {
			return users.ErrEmailTaken
		}
	}
	put(ctx, r.s, r.s.users, u.ID, u)
	return nil
}

func (r userRepo) Delete(ctx context.Context, id string) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.users[id]; !ok {
		return users.ErrNotFound
	}
	remove(ctx, r.s, r.s.users, id)
	return nil
}

func (r userRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	defer r.s.rlock(ctx)()

	u, ok := r.s.users[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (r userRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	defer r.s.rlock(ctx)()

	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return users.User{}, users.ErrNotFound
}

func (r userRepo) List(ctx context.Context, f users.ListFilter) ([]users.User, int, error) {
	defer r.s.rlock(ctx)()

	out := make([]users.User, 0)
	for _, u := range r.s.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Email < out[j].Email
	})
	return window(out, f.Offset, f.Limit), len(out), nil
}
