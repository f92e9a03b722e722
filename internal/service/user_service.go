package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"inkwell/internal/cache"
	"inkwell/internal/model"
	"inkwell/internal/repository"
)

const userCacheTTL = time.Minute

// UserService resolves users for request authentication. Lookups go through
// a short lived cache that every user mutation invalidates.
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	Invalidate(ctx context.Context, id uuid.UUID)
}

// userCache is the part of cache.Client the user service needs.
type userCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	GetJSON(ctx context.Context, key string, dest interface{}) bool
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type userService struct {
	repo  repository.UserRepository
	cache userCache
}

// NewUserService builds a UserService with repository and cache. A nil cache
// disables caching.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return newUserService(repo, cache)
}

func newUserService(repo repository.UserRepository, c userCache) *userService {
	return &userService{repo: repo, cache: c}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id.String())
}

// changedKey marks a user written within the last userCacheTTL.
func (s *userService) changedKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s:changed", id.String())
}

// GetUser returns the user, caching the row unless it was written recently.
// A row read before a concurrent write must not outlive that write in the
// cache, so the fill is checked against the marker Invalidate sets and
// undone when the marker appeared in between.
func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var cached model.User
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, userErr(err)
	}

	if s.recentlyChanged(ctx, id) {
		return user, nil
	}
	_ = s.cache.SetJSON(ctx, s.cacheKey(id), user, userCacheTTL)
	if s.recentlyChanged(ctx, id) {
		_ = s.cache.Delete(ctx, s.cacheKey(id))
	}
	return user, nil
}

// Invalidate must be called after the write commits. It marks the user as
// changed before dropping the cached row.
func (s *userService) Invalidate(ctx context.Context, id uuid.UUID) {
	_ = s.cache.Set(ctx, s.changedKey(id), []byte("1"), userCacheTTL)
	_ = s.cache.Delete(ctx, s.cacheKey(id))
}

func (s *userService) recentlyChanged(ctx context.Context, id uuid.UUID) bool {
	marker, _ := s.cache.Get(ctx, s.changedKey(id))
	return marker != nil
}
