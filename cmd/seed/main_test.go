package main

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"inkwell/internal/auth"
	"inkwell/internal/model"
	"inkwell/internal/repository"
)

// memUsers implements the parts of UserRepository the seeder uses.
type memUsers struct {
	repository.UserRepository
	byEmail map[string]*model.User
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	u.ID = uuid.New()
	m.byEmail[u.Email] = u
	return nil
}

func (m *memUsers) Update(_ context.Context, u *model.User) error {
	m.byEmail[u.Email] = u
	return nil
}

func TestSeedAdmin(t *testing.T) {
	hasher := auth.NewPasswordHasher(1, bcrypt.MinCost)
	ctx := context.Background()

	t.Run("creates admin", func(t *testing.T) {
		repo := &memUsers{byEmail: map[string]*model.User{}}
		user, err := seedAdmin(ctx, repo, hasher, seedOptions{Email: " root@example.com ", Name: "Root", Password: "s3cret"})
		require.NoError(t, err)
		assert.Equal(t, "root@example.com", user.Email)
		assert.Equal(t, model.RoleAdmin, user.Role)
		ok, err := hasher.Compare(ctx, user.PasswordHash, "s3cret")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("promotes existing user", func(t *testing.T) {
		repo := &memUsers{byEmail: map[string]*model.User{
			"ann@example.com": {ID: uuid.New(), Email: "ann@example.com", Role: model.RoleUser},
		}}
		user, err := seedAdmin(ctx, repo, hasher, seedOptions{Email: "ann@example.com", Promote: true})
		require.NoError(t, err)
		assert.Equal(t, model.RoleAdmin, user.Role)
	})

	t.Run("promote unknown email", func(t *testing.T) {
		repo := &memUsers{byEmail: map[string]*model.User{}}
		_, err := seedAdmin(ctx, repo, hasher, seedOptions{Email: "nobody@example.com", Promote: true})
		assert.Error(t, err)
	})

	t.Run("refuses to overwrite existing account", func(t *testing.T) {
		repo := &memUsers{byEmail: map[string]*model.User{
			"ann@example.com": {ID: uuid.New(), Email: "ann@example.com"},
		}}
		_, err := seedAdmin(ctx, repo, hasher, seedOptions{Email: "ann@example.com", Password: "x"})
		assert.Error(t, err)
	})

	t.Run("requires email and password", func(t *testing.T) {
		repo := &memUsers{byEmail: map[string]*model.User{}}
		_, err := seedAdmin(ctx, repo, hasher, seedOptions{})
		assert.Error(t, err)
		_, err = seedAdmin(ctx, repo, hasher, seedOptions{Email: "a@b.co"})
		assert.Error(t, err)
	})
}
