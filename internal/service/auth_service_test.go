package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"inkwell/internal/auth"
	"inkwell/internal/errors"
	"inkwell/internal/model"
	"inkwell/internal/storage"
)

func newTestAuthService(repo *MockUserRepository, users *MockUserService, tokens *MockTokenStore, images *MockImageStore) AuthService {
	return NewAuthService(
		repo,
		users,
		auth.NewJWTService("test-secret", time.Hour),
		tokens,
		auth.NewPasswordHasher(2, bcrypt.MinCost),
		images,
		discardLogger(),
	)
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		input         RegisterInput
		setupMock     func(*MockUserRepository)
		expectedError error
		expectedRole  model.Role
	}{
		{
			name:  "successful registration",
			input: RegisterInput{Name: "Test User", Email: "test@example.com", Password: "password123"},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
			expectedRole: model.RoleUser,
		},
		{
			name:  "explicit admin request",
			input: RegisterInput{Name: "Root", Email: "root@example.com", Password: "password123", Role: "admin"},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "root@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
			expectedRole: model.RoleAdmin,
		},
		{
			name:  "unknown role falls back to user",
			input: RegisterInput{Name: "Eve", Email: "eve@example.com", Password: "password123", Role: "superuser"},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "eve@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
			expectedRole: model.RoleUser,
		},
		{
			name:  "user already exists",
			input: RegisterInput{Name: "Existing User", Email: "existing@example.com", Password: "password123"},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "existing@example.com").Return(&model.User{Email: "existing@example.com"}, nil)
			},
			expectedError: errors.ErrDuplicateEmail,
		},
		{
			name:  "concurrent registration hits unique index",
			input: RegisterInput{Name: "Late", Email: "late@example.com", Password: "password123"},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "late@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(gorm.ErrDuplicatedKey)
			},
			expectedError: errors.ErrDuplicateEmail,
		},
		{
			name:          "blank name",
			input:         RegisterInput{Name: "   ", Email: "x@example.com", Password: "password123"},
			setupMock:     func(m *MockUserRepository) {},
			expectedError: errors.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			service := newTestAuthService(mockRepo, new(MockUserService), new(MockTokenStore), new(MockImageStore))
			user, err := service.Register(context.Background(), tt.input)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.input.Email, user.Email)
				assert.Equal(t, tt.expectedRole, user.Role)
				assert.NotEqual(t, tt.input.Password, user.PasswordHash)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(tt.input.Password)))
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	userID := uuid.New()
	stored := &model.User{
		ID:           userID,
		Name:         "Test User",
		Email:        "test@example.com",
		PasswordHash: string(hashedPassword),
		Role:         model.RoleAdmin,
	}

	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful login",
			email:    "test@example.com",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(stored, nil)
			},
		},
		{
			name:     "unknown email",
			email:    "notfound@example.com",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "notfound@example.com").Return(nil, gorm.ErrRecordNotFound)
			},
			expectedError: errors.ErrUserNotFound,
		},
		{
			name:     "wrong password is never not-found",
			email:    "test@example.com",
			password: "wrong",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(stored, nil)
			},
			expectedError: errors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			jwtService := auth.NewJWTService("test-secret", time.Hour)
			service := NewAuthService(mockRepo, new(MockUserService), jwtService, new(MockTokenStore),
				auth.NewPasswordHasher(1, bcrypt.MinCost), new(MockImageStore), discardLogger())

			result, err := service.Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				if tt.expectedError == errors.ErrInvalidCredentials {
					assert.NotErrorIs(t, err, errors.ErrUserNotFound)
				}
				assert.Nil(t, result)
			} else {
				require.NoError(t, err)
				assert.Equal(t, model.SafeUser{ID: userID, Name: "Test User", Email: "test@example.com", Role: model.RoleAdmin}, result.User)

				claims, err := jwtService.ValidateToken(result.Token)
				require.NoError(t, err)
				assert.Equal(t, userID.String(), claims.UserID)
				assert.Equal(t, model.RoleAdmin, claims.Role)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_LogoutRevokesTokenUntilExpiry(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret", time.Hour)
	_, claims, err := jwtService.GenerateToken(uuid.New(), model.RoleUser)
	require.NoError(t, err)

	tokens := new(MockTokenStore)
	tokens.On("Revoke", mock.Anything, claims.ID, mock.MatchedBy(func(ttl time.Duration) bool {
		return ttl > 59*time.Minute && ttl <= time.Hour
	})).Return(nil)

	service := newTestAuthService(new(MockUserRepository), new(MockUserService), tokens, new(MockImageStore))
	require.NoError(t, service.Logout(context.Background(), claims))
	tokens.AssertExpectations(t)

	assert.ErrorIs(t, service.Logout(context.Background(), nil), errors.ErrInvalidToken)
}

func TestAuthService_GetProfileNotFound(t *testing.T) {
	repo := new(MockUserRepository)
	id := uuid.New()
	repo.On("FindByID", mock.Anything, id).Return(nil, gorm.ErrRecordNotFound)

	service := newTestAuthService(repo, new(MockUserService), new(MockTokenStore), new(MockImageStore))
	_, err := service.GetProfile(context.Background(), id)
	assert.ErrorIs(t, err, errors.ErrUserNotFound)
}

func TestAuthService_UpdateProfileRejectsTakenEmail(t *testing.T) {
	repo := new(MockUserRepository)
	me := &model.User{ID: uuid.New(), Name: "Ann", Email: "ann@x.io"}
	repo.On("FindByID", mock.Anything, me.ID).Return(me, nil)
	repo.On("FindByEmail", mock.Anything, "bob@x.io").Return(&model.User{ID: uuid.New(), Email: "bob@x.io"}, nil)

	service := newTestAuthService(repo, new(MockUserService), new(MockTokenStore), new(MockImageStore))
	_, err := service.UpdateProfile(context.Background(), me.ID, ProfileUpdate{Email: strPtr("bob@x.io")})
	assert.ErrorIs(t, err, errors.ErrDuplicateEmail)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestAuthService_UpdateProfileReplacesAvatar(t *testing.T) {
	repo := new(MockUserRepository)
	users := new(MockUserService)
	images := new(MockImageStore)
	me := &model.User{ID: uuid.New(), Name: "Ann", Email: "ann@x.io", Avatar: "/uploads/avatars/old.png"}
	body := bytes.NewReader([]byte("png"))

	repo.On("FindByID", mock.Anything, me.ID).Return(me, nil)
	images.On("Save", mock.Anything, "avatars", body, "image/png").Return("/uploads/avatars/new.png", nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Avatar == "/uploads/avatars/new.png" && u.Name == "Ann B"
	})).Return(nil)
	users.On("Invalidate", mock.Anything, me.ID).Return()
	images.On("Delete", mock.Anything, "/uploads/avatars/old.png").Return(nil)

	service := newTestAuthService(repo, users, new(MockTokenStore), images)
	updated, err := service.UpdateProfile(context.Background(), me.ID, ProfileUpdate{
		Name:   strPtr("  Ann B "),
		Avatar: &storage.Upload{Body: body, ContentType: "image/png"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Ann B", updated.Name)
	assert.Equal(t, "ann@x.io", updated.Email)

	repo.AssertExpectations(t)
	users.AssertExpectations(t)
	images.AssertExpectations(t)
}

func TestAuthService_UpdateProfileEmptyIsNoOp(t *testing.T) {
	repo := new(MockUserRepository)
	me := &model.User{ID: uuid.New(), Name: "Ann", Email: "ann@x.io"}
	repo.On("FindByID", mock.Anything, me.ID).Return(me, nil)

	service := newTestAuthService(repo, new(MockUserService), new(MockTokenStore), new(MockImageStore))
	got, err := service.UpdateProfile(context.Background(), me.ID, ProfileUpdate{})
	require.NoError(t, err)
	assert.Equal(t, me, got)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
