package repository

import (
	"context"
	"time"

	"github.com/pixelpay/topup/internal/transaction/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, txn *domain.Transaction) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO transactions (id, user_id, game_id, package_id, package_name, player_ref, amount, discount, currency, status, promotion_code, charge_id, failure_message, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID,
		txn.UserID,
		txn.GameID,
		txn.PackageID,
		txn.PackageName,
		txn.PlayerRef,
		txn.Amount,
		txn.Discount,
		txn.Currency,
		txn.Status,
		txn.PromotionCode,
		txn.ChargeID,
		txn.FailureMessage,
		txn.CreatedAt,
		txn.UpdatedAt,
	).Error
}

const selectColumns = `id, user_id, game_id, package_id, package_name, player_ref, amount, discount, currency, status, promotion_code, charge_id, failure_message, created_at, updated_at`

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+` FROM transactions WHERE id = ?`,
		id,
	).Scan(&txn).Error
	if err != nil {
		return nil, err
	}
	if txn.ID == 0 {
		return nil, nil
	}
	return &txn, nil
}

func (r *repo) FindByChargeID(ctx context.Context, db *gorm.DB, chargeID string) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+` FROM transactions WHERE charge_id = ?`,
		chargeID,
	).Scan(&txn).Error
	if err != nil {
		return nil, err
	}
	if txn.ID == 0 {
		return nil, nil
	}
	return &txn, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Transaction, error) {
	stmt := db.WithContext(ctx).Model(&domain.Transaction{})
	if filter.UserID != nil {
		stmt = stmt.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		stmt = stmt.Where("status = ?", *filter.Status)
	}
	if filter.GameID != nil {
		stmt = stmt.Where("game_id = ?", *filter.GameID)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	var items []domain.Transaction
	if err := stmt.Order("created_at DESC").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) AttachCharge(ctx context.Context, db *gorm.DB, id int64, chargeID string, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE transactions SET charge_id = ?, updated_at = ? WHERE id = ?`,
		chargeID,
		now,
		id,
	).Error
}

func (r *repo) UpdateStatusIfPending(ctx context.Context, db *gorm.DB, id int64, status domain.Status, chargeID *string, failureMessage *string, now time.Time) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE transactions
		 SET status = ?,
		     charge_id = COALESCE(?, charge_id),
		     failure_message = COALESCE(?, failure_message),
		     updated_at = ?
		 WHERE id = ? AND status = ?`,
		status,
		chargeID,
		failureMessage,
		now,
		id,
		domain.StatusPending,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) OverrideStatus(ctx context.Context, db *gorm.DB, id int64, status domain.Status, chargeID *string, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE transactions
		 SET status = ?, charge_id = COALESCE(?, charge_id), updated_at = ?
		 WHERE id = ?`,
		status,
		chargeID,
		now,
		id,
	).Error
}

func (r *repo) ListPendingWithCharge(ctx context.Context, db *gorm.DB, olderThan time.Time, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}

	var items []domain.Transaction
	err := db.WithContext(ctx).Raw(
		`SELECT `+selectColumns+` FROM transactions
		 WHERE status = ? AND charge_id IS NOT NULL AND created_at <= ?
		 ORDER BY created_at ASC
		 LIMIT ?`,
		domain.StatusPending,
		olderThan,
		limit,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
