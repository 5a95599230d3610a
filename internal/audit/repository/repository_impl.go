package repository

import (
	"context"

	"github.com/pixelpay/topup/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditLog) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO audit_logs (id, actor_type, actor_id, action, target_type, target_id, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.ActorType,
		entry.ActorID,
		entry.Action,
		entry.TargetType,
		entry.TargetID,
		entry.Metadata,
		entry.CreatedAt,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, req domain.ListRequest) ([]domain.AuditLog, error) {
	stmt := db.WithContext(ctx).Model(&domain.AuditLog{})

	if req.Action != "" {
		stmt = stmt.Where("action = ?", req.Action)
	}
	if req.TargetType != "" {
		stmt = stmt.Where("target_type = ?", req.TargetType)
	}
	if req.TargetID != "" {
		stmt = stmt.Where("target_id = ?", req.TargetID)
	}

	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var items []domain.AuditLog
	if err := stmt.Order("created_at DESC").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
