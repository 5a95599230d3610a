package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Article is a storefront announcement. Slug is derived from the title
// and is the public URL key.
type Article struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Title     string    `json:"title" gorm:"type:text;not null"`
	Slug      string    `json:"slug" gorm:"type:text;not null;uniqueIndex:ux_news_slug"`
	Body      string    `json:"body" gorm:"type:text;not null"`
	ImageURL  *string   `json:"image_url,omitempty" gorm:"type:text"`
	Published bool      `json:"published" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

func (Article) TableName() string { return "news" }

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, article *Article) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Article, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Article, error)
	List(ctx context.Context, db *gorm.DB, publishedOnly bool) ([]Article, error)
	Update(ctx context.Context, db *gorm.DB, article *Article) error
	Delete(ctx context.Context, db *gorm.DB, id int64) error
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, publishedOnly bool) ([]Response, error)
	GetBySlug(ctx context.Context, slug string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
}

type CreateRequest struct {
	Title     string  `json:"title" binding:"required"`
	Body      string  `json:"body" binding:"required"`
	ImageURL  *string `json:"image_url"`
	Published *bool   `json:"published"`
}

type UpdateRequest struct {
	ID        string
	Title     *string `json:"title"`
	Body      *string `json:"body"`
	ImageURL  *string `json:"image_url"`
	Published *bool   `json:"published"`
}

type Response struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Body      string    `json:"body"`
	ImageURL  *string   `json:"image_url,omitempty"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

var (
	ErrNotFound     = errors.New("article_not_found")
	ErrInvalidID    = errors.New("invalid_id")
	ErrInvalidTitle = errors.New("invalid_title")
	ErrSlugTaken    = errors.New("slug_taken")
)
