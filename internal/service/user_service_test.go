package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"inkwell/internal/errors"
	"inkwell/internal/model"
)

func TestUserService_GetUserWithoutCacheHitsRepository(t *testing.T) {
	repo := new(MockUserRepository)
	user := &model.User{ID: uuid.New(), Name: "Ann", Role: model.RoleUser}
	repo.On("FindByID", mock.Anything, user.ID).Return(user, nil).Twice()

	svc := NewUserService(repo, nil)
	for i := 0; i < 2; i++ {
		got, err := svc.GetUser(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	}
	svc.Invalidate(context.Background(), user.ID)
	repo.AssertExpectations(t)
}

func TestUserService_GetUserNotFound(t *testing.T) {
	repo := new(MockUserRepository)
	id := uuid.New()
	repo.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)

	_, err := NewUserService(repo, nil).GetUser(context.Background(), id)
	assert.ErrorIs(t, err, errors.ErrUserNotFound)
}

// memCache is an in-process stand-in for the redis client.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memCache) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	data, _ := c.Get(ctx, key)
	return data != nil && json.Unmarshal(data, dest) == nil
}

func (c *memCache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, payload, ttl)
}

func TestUserService_GetUserIsCached(t *testing.T) {
	repo := new(MockUserRepository)
	user := &model.User{ID: uuid.New(), Name: "Ann", Role: model.RoleUser}
	repo.On("FindByID", mock.Anything, user.ID).Return(user, nil).Once()

	svc := newUserService(repo, newMemCache())
	for i := 0; i < 3; i++ {
		got, err := svc.GetUser(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ann", got.Name)
	}
	repo.AssertExpectations(t)
}

func TestUserService_WriteDuringLookupIsNotCachedStale(t *testing.T) {
	repo := new(MockUserRepository)
	id := uuid.New()
	admin := &model.User{ID: id, Name: "Ann", Role: model.RoleAdmin}
	demoted := &model.User{ID: id, Name: "Ann", Role: model.RoleUser}

	svc := newUserService(repo, newMemCache())
	ctx := context.Background()

	// The demotion commits after the lookup read the admin row but before
	// the lookup fills the cache.
	repo.On("FindByID", mock.Anything, id).Return(admin, nil).Once().Run(func(mock.Arguments) {
		svc.Invalidate(ctx, id)
	})
	repo.On("FindByID", mock.Anything, id).Return(demoted, nil).Once()

	got, err := svc.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)

	got, err = svc.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, got.Role)
	repo.AssertExpectations(t)
}

func TestUserService_InvalidateDropsCachedRow(t *testing.T) {
	repo := new(MockUserRepository)
	id := uuid.New()
	repo.On("FindByID", mock.Anything, id).Return(&model.User{ID: id, Name: "Ann"}, nil).Once()
	repo.On("FindByID", mock.Anything, id).Return(&model.User{ID: id, Name: "Ann B"}, nil).Once()

	svc := newUserService(repo, newMemCache())
	ctx := context.Background()

	_, err := svc.GetUser(ctx, id)
	require.NoError(t, err)
	svc.Invalidate(ctx, id)

	got, err := svc.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ann B", got.Name)
	repo.AssertExpectations(t)
}
