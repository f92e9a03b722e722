package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Blog is a post owned by exactly one user.
//
// Author is copied from the owner's name at creation time and is not kept in
// sync with later profile edits.
type Blog struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Title     string    `json:"title" gorm:"size:255;not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Image     string    `json:"image,omitempty" gorm:"size:512"`
	Author    string    `json:"author" gorm:"size:255"`
	UserID    uuid.UUID `json:"user" gorm:"type:char(36);not null;index"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Relations
	Owner *User `json:"-" gorm:"foreignKey:UserID"`
}

// BeforeCreate sets UUID before creating the record.
func (b *Blog) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// OwnedBy compares the owning user by value.
func (b *Blog) OwnedBy(userID uuid.UUID) bool {
	return b.UserID == userID
}

// BlogView is a blog joined with its owner's public fields.
type BlogView struct {
	Blog
	Owner *PublicUser `json:"owner,omitempty"`
}

// View builds the joined representation of b. Owner is nil when it was not loaded.
func (b *Blog) View() BlogView {
	v := BlogView{Blog: *b}
	if b.Owner != nil {
		p := b.Owner.Public()
		v.Owner = &p
	}
	return v
}

// Views maps View over blogs.
func Views(blogs []Blog) []BlogView {
	out := make([]BlogView, 0, len(blogs))
	for i := range blogs {
		out = append(out, blogs[i].View())
	}
	return out
}

// BlogPatch carries optional blog fields. Nil means "leave unchanged".
type BlogPatch struct {
	Title   *string
	Content *string
	Image   *string
}

// Empty reports whether the patch changes nothing.
func (p BlogPatch) Empty() bool {
	return p.Title == nil && p.Content == nil && p.Image == nil
}

// Apply copies the present fields onto b.
func (p BlogPatch) Apply(b *Blog) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Content != nil {
		b.Content = *p.Content
	}
	if p.Image != nil {
		b.Image = *p.Image
	}
}
