package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"inkwell/internal/auth"
	"inkwell/internal/errors"
	"inkwell/internal/model"
	"inkwell/internal/repository"
	"inkwell/internal/storage"
)

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	// Role is the requested role; anything other than "admin" yields a plain user.
	Role string
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      model.SafeUser
}

// ProfileUpdate carries optional profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Name   *string
	Email  *string
	Avatar *storage.Upload
}

// AuthService handles authentication operations.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, claims *auth.Claims) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*model.User, error)
}

type authService struct {
	userRepo   repository.UserRepository
	users      UserService
	jwtService *auth.JWTService
	tokenStore auth.TokenStoreInterface
	hasher     *auth.PasswordHasher
	images     storage.ImageStore
	log        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	userRepo repository.UserRepository,
	users UserService,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStoreInterface,
	hasher *auth.PasswordHasher,
	images storage.ImageStore,
	log *slog.Logger,
) AuthService {
	return &authService{
		userRepo:   userRepo,
		users:      users,
		jwtService: jwtService,
		tokenStore: tokenStore,
		hasher:     hasher,
		images:     images,
		log:        log,
	}
}

// Register creates a new user with a hashed password.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if err := requireText("name", name); err != nil {
		return nil, err
	}
	if err := requireText("email", email); err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, errors.NewValidationError("password is required")
	}

	// Check if user already exists
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, errors.ErrDuplicateEmail
	}
	// If error is not "record not found", return it (could be a database error)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashed, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Role:         model.RegistrationRole(in.Role),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// A concurrent registration can still win the unique index.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// Login authenticates a user and issues a signed token.
func (s *authService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	ok, err := s.hasher.Compare(ctx, user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.ErrInvalidCredentials
	}

	token, claims, err := s.jwtService.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &LoginResult{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user.Safe(),
	}, nil
}

// Logout revokes the presented token until it would have expired.
func (s *authService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || claims.ID == "" {
		return errors.ErrInvalidToken
	}
	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	return s.tokenStore.Revoke(ctx, claims.ID, ttl)
}

// GetProfile returns the stored user without the password hash.
func (s *authService) GetProfile(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, userErr(err)
	}
	return user, nil
}

// UpdateProfile applies the present fields to the caller's own profile.
func (s *authService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileUpdate) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, userErr(err)
	}

	var patch model.UserPatch
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if err := requireText("name", name); err != nil {
			return nil, err
		}
		patch.Name = &name
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if err := requireText("email", email); err != nil {
			return nil, err
		}
		if email != user.Email {
			other, err := s.userRepo.FindByEmail(ctx, email)
			if err == nil && other.ID != user.ID {
				return nil, errors.ErrDuplicateEmail
			}
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("check email: %w", err)
			}
		}
		patch.Email = &email
	}
	if patch.Empty() && in.Avatar == nil {
		return user, nil
	}

	oldAvatar := user.Avatar
	newAvatar, err := saveImage(ctx, s.images, avatarFolder, in.Avatar)
	if err != nil {
		return nil, fmt.Errorf("store avatar: %w", err)
	}
	if newAvatar != "" {
		patch.Avatar = &newAvatar
	}

	patch.Apply(user)
	if err := s.userRepo.Update(ctx, user); err != nil {
		removeImages(ctx, s.images, s.log, newAvatar)
		return nil, userErr(err)
	}
	s.users.Invalidate(ctx, user.ID)

	if newAvatar != "" && oldAvatar != newAvatar {
		removeImages(ctx, s.images, s.log, oldAvatar)
	}
	return user, nil
}
