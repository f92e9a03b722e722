package router

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"inkwell/internal/model"
	"inkwell/internal/repository"
)

// memStore backs both in-memory repositories so that joins and cascades
// behave like the database.
type memStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]model.User
	blogs map[uuid.UUID]model.Blog
	seq   int64
}

func newMemStore() *memStore {
	return &memStore{users: map[uuid.UUID]model.User{}, blogs: map[uuid.UUID]model.Blog{}}
}

// tick hands out strictly increasing offsets for ordering.
func (s *memStore) tick() int64 {
	s.seq++
	return s.seq
}

type memUserRepo struct{ s *memStore }

type memBlogRepo struct{ s *memStore }

func (r memUserRepo) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.users {
		if other.Email == u.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	if err := u.BeforeCreate(nil); err != nil {
		return err
	}
	u.CreatedAt = baseTime.Add(secs(r.s.tick()))
	u.UpdatedAt = u.CreatedAt
	r.s.users[u.ID] = *u
	return nil
}

func (r memUserRepo) Update(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[u.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	for id, other := range r.s.users {
		if id != u.ID && other.Email == u.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	r.s.users[u.ID] = *u
	return nil
}

func (r memUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.users, id)
	return nil
}

func (r memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r memUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r memUserRepo) List(_ context.Context) ([]model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memUserRepo) ListWithStats(ctx context.Context) ([]model.UserWithStats, error) {
	users, _ := r.List(ctx)
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.UserWithStats, 0, len(users))
	for _, u := range users {
		var n int64
		for _, b := range r.s.blogs {
			if b.UserID == u.ID {
				n++
			}
		}
		out = append(out, model.UserWithStats{User: u, TotalPosts: n})
	}
	return out, nil
}

func (r memUserRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.users)), nil
}

func (r memUserRepo) WithTransaction(ctx context.Context, fn repository.TxFunc) error {
	return fn(ctx, r, memBlogRepo{s: r.s})
}

func (r memBlogRepo) Create(_ context.Context, b *model.Blog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := b.BeforeCreate(nil); err != nil {
		return err
	}
	b.CreatedAt = baseTime.Add(secs(r.s.tick()))
	b.UpdatedAt = b.CreatedAt
	stored := *b
	stored.Owner = nil
	r.s.blogs[b.ID] = stored
	return nil
}

func (r memBlogRepo) Update(_ context.Context, b *model.Blog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.blogs[b.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *b
	stored.Owner = nil
	r.s.blogs[b.ID] = stored
	return nil
}

func (r memBlogRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.blogs[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.s.blogs, id)
	return nil
}

func (r memBlogRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Blog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.blogs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	r.withOwner(&b)
	return &b, nil
}

func (r memBlogRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Blog, error) {
	return r.filter(func(b model.Blog) bool { return b.UserID == userID }, false), nil
}

func (r memBlogRepo) List(_ context.Context) ([]model.Blog, error) {
	return r.filter(func(model.Blog) bool { return true }, true), nil
}

func (r memBlogRepo) DeleteByUser(_ context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, b := range r.s.blogs {
		if b.UserID == userID {
			delete(r.s.blogs, id)
			n++
		}
	}
	return n, nil
}

func (r memBlogRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.blogs)), nil
}

func (r memBlogRepo) filter(keep func(model.Blog) bool, owners bool) []model.Blog {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []model.Blog{}
	for _, b := range r.s.blogs {
		if !keep(b) {
			continue
		}
		if owners {
			r.withOwner(&b)
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// withOwner must be called with the lock held.
func (r memBlogRepo) withOwner(b *model.Blog) {
	if u, ok := r.s.users[b.UserID]; ok {
		owner := model.User{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar}
		b.Owner = &owner
	}
}
