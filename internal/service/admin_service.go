package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"inkwell/internal/errors"
	"inkwell/internal/model"
	"inkwell/internal/repository"
	"inkwell/internal/storage"
)

// Stats summarises the size of the site.
type Stats struct {
	TotalUsers int64 `json:"totalUsers"`
	TotalBlogs int64 `json:"totalBlogs"`
}

// DeleteUserResult reports the outcome of a cascading user delete.
type DeleteUserResult struct {
	DeletedBlogs int64
	// IncompleteCleanup is set when stored images could not all be removed.
	// The database rows are gone regardless.
	IncompleteCleanup bool
}

// AdminService exposes unscoped operations over users and blogs.
type AdminService interface {
	ListUsers(ctx context.Context) ([]model.UserWithStats, error)
	CountUsers(ctx context.Context) (int64, error)
	CountBlogs(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (*Stats, error)
	ListBlogs(ctx context.Context) ([]model.Blog, error)
	ListBlogsForUser(ctx context.Context, userID uuid.UUID) ([]model.Blog, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, patch model.UserPatch) (*model.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) (*DeleteUserResult, error)
	UpdateBlog(ctx context.Context, blogID uuid.UUID, in BlogUpdate) (*model.Blog, error)
	DeleteBlog(ctx context.Context, blogID uuid.UUID) error
}

type adminService struct {
	userRepo repository.UserRepository
	blogRepo repository.BlogRepository
	users    UserService
	images   storage.ImageStore
	log      *slog.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(
	userRepo repository.UserRepository,
	blogRepo repository.BlogRepository,
	users UserService,
	images storage.ImageStore,
	log *slog.Logger,
) AdminService {
	return &adminService{
		userRepo: userRepo,
		blogRepo: blogRepo,
		users:    users,
		images:   images,
		log:      log,
	}
}

// ListUsers lists every user with their blog count.
func (s *adminService) ListUsers(ctx context.Context) ([]model.UserWithStats, error) {
	users, err := s.userRepo.ListWithStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (s *adminService) CountUsers(ctx context.Context) (int64, error) {
	n, err := s.userRepo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (s *adminService) CountBlogs(ctx context.Context) (int64, error) {
	n, err := s.blogRepo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count blogs: %w", err)
	}
	return n, nil
}

// Stats runs both counts concurrently.
func (s *adminService) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.CountUsers(gctx)
		stats.TotalUsers = n
		return err
	})
	g.Go(func() error {
		n, err := s.CountBlogs(gctx)
		stats.TotalBlogs = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListBlogs lists every blog with its owner, newest first.
func (s *adminService) ListBlogs(ctx context.Context) ([]model.Blog, error) {
	blogs, err := s.blogRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	return blogs, nil
}

// ListBlogsForUser lists one user's blogs, failing when the user does not exist.
func (s *adminService) ListBlogsForUser(ctx context.Context, userID uuid.UUID) ([]model.Blog, error) {
	if _, err := s.userRepo.FindByID(ctx, userID); err != nil {
		return nil, userErr(err)
	}
	blogs, err := s.blogRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	return blogs, nil
}

// UpdateUser applies the present fields, including role, to any user.
func (s *adminService) UpdateUser(ctx context.Context, userID uuid.UUID, patch model.UserPatch) (*model.User, error) {
	if patch.Role != nil && !patch.Role.Valid() {
		return nil, errors.NewValidationError(fmt.Sprintf("unknown role %q", string(*patch.Role)))
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if err := requireText("name", name); err != nil {
			return nil, err
		}
		patch.Name = &name
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, userErr(err)
	}

	if patch.Email != nil {
		email := strings.TrimSpace(*patch.Email)
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
	if patch.Empty() {
		return user, nil
	}

	patch.Apply(user)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, userErr(err)
	}
	s.users.Invalidate(ctx, user.ID)
	return user, nil
}

// DeleteUser removes a user and all of their blogs in one transaction, then
// removes their stored images.
func (s *adminService) DeleteUser(ctx context.Context, userID uuid.UUID) (*DeleteUserResult, error) {
	var (
		result DeleteUserResult
		images []string
	)

	err := s.userRepo.WithTransaction(ctx, func(ctx context.Context, users repository.UserRepository, blogs repository.BlogRepository) error {
		user, err := users.FindByID(ctx, userID)
		if err != nil {
			return userErr(err)
		}
		owned, err := blogs.ListByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("list blogs: %w", err)
		}
		deleted, err := blogs.DeleteByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("delete blogs: %w", err)
		}
		if err := users.Delete(ctx, userID); err != nil {
			return userErr(err)
		}

		result.DeletedBlogs = deleted
		images = images[:0]
		for _, b := range owned {
			images = append(images, b.Image)
		}
		images = append(images, user.Avatar)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.users.Invalidate(ctx, userID)
	result.IncompleteCleanup = !removeImages(ctx, s.images, s.log, images...)
	return &result, nil
}

// UpdateBlog applies a partial update to any blog.
func (s *adminService) UpdateBlog(ctx context.Context, blogID uuid.UUID, in BlogUpdate) (*model.Blog, error) {
	blog, err := s.blogRepo.FindByID(ctx, blogID)
	if err != nil {
		return nil, blogErr(err)
	}
	return applyBlogUpdate(ctx, s.blogRepo, s.images, s.log, blog, in)
}

// DeleteBlog removes any blog.
func (s *adminService) DeleteBlog(ctx context.Context, blogID uuid.UUID) error {
	blog, err := s.blogRepo.FindByID(ctx, blogID)
	if err != nil {
		return blogErr(err)
	}
	if err := s.blogRepo.Delete(ctx, blog.ID); err != nil {
		return blogErr(err)
	}
	removeImages(ctx, s.images, s.log, blog.Image)
	return nil
}
