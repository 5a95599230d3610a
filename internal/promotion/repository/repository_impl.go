package repository

import (
	"context"
	"time"

	"github.com/pixelpay/topup/internal/promotion/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, promo *domain.Promotion) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO promotions (id, code, title, discount_type, discount_value, usage_limit, usage_count, expires_at, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		promo.ID,
		promo.Code,
		promo.Title,
		promo.DiscountType,
		promo.Value,
		promo.UsageLimit,
		promo.UsageCount,
		promo.ExpiresAt,
		promo.Active,
		promo.CreatedAt,
		promo.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Promotion, error) {
	var p domain.Promotion
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, title, discount_type, discount_value, usage_limit, usage_count, expires_at, active, created_at, updated_at
		 FROM promotions WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.Promotion, error) {
	var p domain.Promotion
	err := db.WithContext(ctx).Raw(
		`SELECT id, code, title, discount_type, discount_value, usage_limit, usage_count, expires_at, active, created_at, updated_at
		 FROM promotions WHERE code = ?`,
		code,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]domain.Promotion, error) {
	stmt := db.WithContext(ctx).Model(&domain.Promotion{})
	if activeOnly {
		stmt = stmt.Where("active = ?", true)
	}

	var items []domain.Promotion
	if err := stmt.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, promo *domain.Promotion) error {
	return db.WithContext(ctx).Exec(
		`UPDATE promotions
		 SET title = ?, discount_value = ?, usage_limit = ?, expires_at = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		promo.Title,
		promo.Value,
		promo.UsageLimit,
		promo.ExpiresAt,
		promo.Active,
		promo.UpdatedAt,
		promo.ID,
	).Error
}

func (r *repo) IncrementUsage(ctx context.Context, db *gorm.DB, id int64, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE promotions
		 SET usage_count = usage_count + 1, updated_at = ?
		 WHERE id = ?
		   AND active = ?
		   AND (usage_limit IS NULL OR usage_count < usage_limit)`,
		now,
		id,
		true,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
