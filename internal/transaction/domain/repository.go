package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type ListFilter struct {
	UserID *int64
	Status *Status
	GameID *int64
	Limit  int
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, txn *Transaction) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Transaction, error)
	FindByChargeID(ctx context.Context, db *gorm.DB, chargeID string) (*Transaction, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Transaction, error)

	// AttachCharge stores the provider-assigned charge id. It runs before
	// the charge outcome is known so reconciliation always has a key.
	AttachCharge(ctx context.Context, db *gorm.DB, id int64, chargeID string, now time.Time) error

	// UpdateStatusIfPending applies a terminal status as a conditional
	// UPDATE guarded on the row still being PENDING. It returns false when
	// another writer already transitioned the row, which callers treat as
	// a no-op rather than an error.
	UpdateStatusIfPending(ctx context.Context, db *gorm.DB, id int64, status Status, chargeID *string, failureMessage *string, now time.Time) (bool, error)

	// OverrideStatus sets any status unconditionally. Admin use only.
	OverrideStatus(ctx context.Context, db *gorm.DB, id int64, status Status, chargeID *string, now time.Time) error

	// ListPendingWithCharge returns PENDING transactions older than the
	// cutoff that have a charge id attached, oldest first.
	ListPendingWithCharge(ctx context.Context, db *gorm.DB, olderThan time.Time, limit int) ([]Transaction, error)
}
