package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PostStatus represents the publication state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// Post is a blog article owned by a single author.
// A published post always carries a category.
type Post struct {
	ID            uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	AuthorID      uuid.UUID  `json:"author_id" gorm:"type:char(36);not null;index"`
	Title         string     `json:"title" gorm:"size:200;not null"`
	Slug          string     `json:"slug" gorm:"size:255;uniqueIndex;not null"`
	Content       string     `json:"content" gorm:"type:text;not null"`
	Excerpt       string     `json:"excerpt" gorm:"type:text"`
	Category      *string    `json:"category" gorm:"size:100;index"`
	FeaturedImage *string    `json:"featured_image" gorm:"size:1024"`
	Status        PostStatus `json:"status" gorm:"type:varchar(20);not null;default:'draft';index"`
	PublishedAt   *time.Time `json:"published_at" gorm:"index"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Author is filled by the repository on reads; it is not a column.
	Author *AuthorSummary `json:"users,omitempty" gorm:"-"`
}

// IsPublished reports whether the post is visible to readers.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// BeforeCreate sets UUID before creating the record.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// AuthorSummary is the public projection of a post's author.
type AuthorSummary struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatar_url"`
	Bio       *string   `json:"bio,omitempty"`
}
