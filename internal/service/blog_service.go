package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"inkwell/internal/auth"
	"inkwell/internal/errors"
	"inkwell/internal/model"
	"inkwell/internal/repository"
	"inkwell/internal/storage"
)

// BlogInput carries the fields of a new blog. Upload takes precedence over Image.
type BlogInput struct {
	Title   string
	Content string
	Image   string
	Upload  *storage.Upload
}

// BlogUpdate is a partial blog update. Upload, when set, replaces the image.
type BlogUpdate struct {
	model.BlogPatch
	Upload *storage.Upload
}

// BlogService handles owner scoped blog operations.
type BlogService interface {
	Create(ctx context.Context, caller auth.Identity, in BlogInput) (*model.Blog, error)
	ListMine(ctx context.Context, ownerID uuid.UUID) ([]model.Blog, error)
	Get(ctx context.Context, blogID uuid.UUID) (*model.Blog, error)
	Update(ctx context.Context, blogID, callerID uuid.UUID, in BlogUpdate) (*model.Blog, error)
	Delete(ctx context.Context, blogID, callerID uuid.UUID) error
}

type blogService struct {
	repo   repository.BlogRepository
	images storage.ImageStore
	log    *slog.Logger
}

// NewBlogService creates a new blog service.
func NewBlogService(repo repository.BlogRepository, images storage.ImageStore, log *slog.Logger) BlogService {
	return &blogService{repo: repo, images: images, log: log}
}

// Create stores a blog owned by the caller. The author name is copied from
// the caller and is not kept in sync afterwards.
func (s *blogService) Create(ctx context.Context, caller auth.Identity, in BlogInput) (*model.Blog, error) {
	if err := requireText("title", in.Title); err != nil {
		return nil, err
	}
	if err := requireText("content", in.Content); err != nil {
		return nil, err
	}

	image := strings.TrimSpace(in.Image)
	if err := externalImage(s.images, image); err != nil {
		return nil, err
	}
	uploaded, err := saveImage(ctx, s.images, blogImageFolder, in.Upload)
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}
	if uploaded != "" {
		image = uploaded
	}

	blog := &model.Blog{
		Title:   strings.TrimSpace(in.Title),
		Content: in.Content,
		Image:   image,
		Author:  caller.Name,
		UserID:  caller.UserID,
	}
	if err := s.repo.Create(ctx, blog); err != nil {
		removeImages(ctx, s.images, s.log, uploaded)
		return nil, fmt.Errorf("create blog: %w", err)
	}
	return blog, nil
}

// ListMine returns the owner's blogs, newest first.
func (s *blogService) ListMine(ctx context.Context, ownerID uuid.UUID) ([]model.Blog, error) {
	blogs, err := s.repo.ListByUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	return blogs, nil
}

// Get returns a blog with its owner's public fields.
func (s *blogService) Get(ctx context.Context, blogID uuid.UUID) (*model.Blog, error) {
	blog, err := s.repo.FindByID(ctx, blogID)
	if err != nil {
		return nil, blogErr(err)
	}
	return blog, nil
}

// Update applies the present fields when the caller owns the blog.
func (s *blogService) Update(ctx context.Context, blogID, callerID uuid.UUID, in BlogUpdate) (*model.Blog, error) {
	blog, err := s.ownedBlog(ctx, blogID, callerID)
	if err != nil {
		return nil, err
	}
	return applyBlogUpdate(ctx, s.repo, s.images, s.log, blog, in)
}

// Delete removes a blog the caller owns.
func (s *blogService) Delete(ctx context.Context, blogID, callerID uuid.UUID) error {
	blog, err := s.ownedBlog(ctx, blogID, callerID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, blog.ID); err != nil {
		return blogErr(err)
	}
	removeImages(ctx, s.images, s.log, blog.Image)
	return nil
}

func (s *blogService) ownedBlog(ctx context.Context, blogID, callerID uuid.UUID) (*model.Blog, error) {
	blog, err := s.repo.FindByID(ctx, blogID)
	if err != nil {
		return nil, blogErr(err)
	}
	if !blog.OwnedBy(callerID) {
		return nil, errors.ErrForbidden
	}
	return blog, nil
}

// applyBlogUpdate validates and writes a partial update. An empty update
// returns the blog untouched. A replaced image is removed from storage.
func applyBlogUpdate(
	ctx context.Context,
	repo repository.BlogRepository,
	images storage.ImageStore,
	log *slog.Logger,
	blog *model.Blog,
	in BlogUpdate,
) (*model.Blog, error) {
	patch := in.BlogPatch
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if err := requireText("title", title); err != nil {
			return nil, err
		}
		patch.Title = &title
	}
	if patch.Content != nil {
		if err := requireText("content", *patch.Content); err != nil {
			return nil, err
		}
	}
	if patch.Image != nil {
		image := strings.TrimSpace(*patch.Image)
		if image != blog.Image {
			if err := externalImage(images, image); err != nil {
				return nil, err
			}
		}
		patch.Image = &image
	}
	if patch.Empty() && in.Upload == nil {
		return blog, nil
	}

	oldImage := blog.Image
	uploaded, err := saveImage(ctx, images, blogImageFolder, in.Upload)
	if err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}
	if uploaded != "" {
		patch.Image = &uploaded
	}

	patch.Apply(blog)
	if err := repo.Update(ctx, blog); err != nil {
		removeImages(ctx, images, log, uploaded)
		return nil, blogErr(err)
	}

	if oldImage != "" && oldImage != blog.Image {
		removeImages(ctx, images, log, oldImage)
	}
	return blog, nil
}
