package repository

import (
	"context"

	"github.com/pixelpay/topup/internal/news/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, article *domain.Article) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO news (id, title, slug, body, image_url, published, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		article.ID,
		article.Title,
		article.Slug,
		article.Body,
		article.ImageURL,
		article.Published,
		article.CreatedAt,
		article.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Article, error) {
	var article domain.Article
	err := db.WithContext(ctx).Raw(
		`SELECT id, title, slug, body, image_url, published, created_at, updated_at FROM news WHERE id = ?`,
		id,
	).Scan(&article).Error
	if err != nil {
		return nil, err
	}
	if article.ID == 0 {
		return nil, nil
	}
	return &article, nil
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Article, error) {
	var article domain.Article
	err := db.WithContext(ctx).Raw(
		`SELECT id, title, slug, body, image_url, published, created_at, updated_at FROM news WHERE slug = ?`,
		slug,
	).Scan(&article).Error
	if err != nil {
		return nil, err
	}
	if article.ID == 0 {
		return nil, nil
	}
	return &article, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, publishedOnly bool) ([]domain.Article, error) {
	stmt := db.WithContext(ctx).Model(&domain.Article{})
	if publishedOnly {
		stmt = stmt.Where("published = ?", true)
	}

	var items []domain.Article
	if err := stmt.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, article *domain.Article) error {
	return db.WithContext(ctx).Exec(
		`UPDATE news SET title = ?, body = ?, image_url = ?, published = ?, updated_at = ? WHERE id = ?`,
		article.Title,
		article.Body,
		article.ImageURL,
		article.Published,
		article.UpdatedAt,
		article.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Exec(`DELETE FROM news WHERE id = ?`, id).Error
}
