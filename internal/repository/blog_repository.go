package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"inkwell/internal/model"
)

// BlogRepository defines blog persistence operations.
type BlogRepository interface {
	Create(ctx context.Context, blog *model.Blog) error
	Update(ctx context.Context, blog *model.Blog) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Blog, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Blog, error)
	List(ctx context.Context) ([]model.Blog, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type blogRepository struct {
	db *gorm.DB
}

// NewBlogRepository creates a new blog repository.
func NewBlogRepository(db *gorm.DB) BlogRepository {
	return &blogRepository{db: db}
}

// withOwner preloads only the public columns of the owning user.
func withOwner(db *gorm.DB) *gorm.DB {
	return db.Preload("Owner", func(q *gorm.DB) *gorm.DB {
		return q.Select("id", "name", "email", "avatar")
	})
}

// Create creates a new blog.
func (r *blogRepository) Create(ctx context.Context, blog *model.Blog) error {
	return r.db.WithContext(ctx).Omit("Owner").Create(blog).Error
}

// Update writes the mutable columns of an existing blog.
func (r *blogRepository) Update(ctx context.Context, blog *model.Blog) error {
	res := r.db.WithContext(ctx).Model(blog).
		Select("Title", "Content", "Image").
		Updates(blog)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a blog by ID.
func (r *blogRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Blog{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindByID finds a blog by ID with its owner's public fields.
func (r *blogRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Blog, error) {
	var blog model.Blog
	if err := withOwner(r.db.WithContext(ctx)).Where("id = ?", id).First(&blog).Error; err != nil {
		return nil, err
	}
	return &blog, nil
}

// ListByUser lists a user's blogs, newest first.
func (r *blogRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Blog, error) {
	var blogs []model.Blog
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&blogs).Error; err != nil {
		return nil, err
	}
	return blogs, nil
}

// List lists every blog with its owner, newest first.
func (r *blogRepository) List(ctx context.Context) ([]model.Blog, error) {
	var blogs []model.Blog
	if err := withOwner(r.db.WithContext(ctx)).Order("created_at DESC").Find(&blogs).Error; err != nil {
		return nil, err
	}
	return blogs, nil
}

// DeleteByUser removes every blog owned by userID and reports how many went.
func (r *blogRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Blog{})
	return res.RowsAffected, res.Error
}

func (r *blogRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.Blog{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
