package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents a registered author or administrator.
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Name         string    `json:"name" gorm:"size:255;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `json:"-" gorm:"column:password;size:255;not null"` // Never expose in JSON
	Role         Role      `json:"role" gorm:"size:16;not null;default:'user'"`
	Avatar       string    `json:"avatar,omitempty" gorm:"size:512"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BeforeCreate sets UUID and default role before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleUser
	}
	return nil
}

// PublicUser is the projection of a user that may be shown next to content.
type PublicUser struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Avatar string    `json:"avatar,omitempty"`
}

// Public returns the public projection of u.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email, Avatar: u.Avatar}
}

// SafeUser is what login returns alongside the token.
type SafeUser struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  Role      `json:"role"`
}

// Safe returns the login projection of u.
func (u *User) Safe() SafeUser {
	return SafeUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// UserWithStats is a user annotated with the number of blogs they own.
type UserWithStats struct {
	User
	TotalPosts int64 `json:"totalPosts"`
}

// UserPatch carries optional user fields. Nil means "leave unchanged".
type UserPatch struct {
	Name   *string
	Email  *string
	Role   *Role
	Avatar *string
}

// Empty reports whether the patch changes nothing.
func (p UserPatch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Role == nil && p.Avatar == nil
}

// Apply copies the present fields onto u.
func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
}
