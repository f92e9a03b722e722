package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"inkwell/internal/model"
)

// TxFunc runs inside a transaction with repositories bound to it.
type TxFunc func(ctx context.Context, users UserRepository, blogs BlogRepository) error

// UserRepository defines user persistence operations.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	ListWithStats(ctx context.Context) ([]model.UserWithStats, error)
	Count(ctx context.Context) (int64, error)
	// Transaction methods
	WithTransaction(ctx context.Context, fn TxFunc) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user. A duplicate email surfaces as gorm.ErrDuplicatedKey.
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Update writes the mutable columns of an existing user.
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	res := r.db.WithContext(ctx).Model(user).
		Select("Name", "Email", "PasswordHash", "Role", "Avatar").
		Updates(user)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a user by ID.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindByID finds a user by ID.
func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail finds a user by exact email.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ListWithStats lists users with the number of blogs each one owns. The
// count is aggregated from the blogs table on every call.
func (r *userRepository) ListWithStats(ctx context.Context) ([]model.UserWithStats, error) {
	var rows []model.UserWithStats
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Select("users.*, COUNT(blogs.id) AS total_posts").
		Joins("LEFT JOIN blogs ON blogs.user_id = users.id").
		Group("users.id").
		Order("users.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *userRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&model.User{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// WithTransaction executes fn within a database transaction.
func (r *userRepository) WithTransaction(ctx context.Context, fn TxFunc) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &userRepository{db: tx}, &blogRepository{db: tx})
	})
}
