package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, promo *Promotion) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Promotion, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*Promotion, error)
	List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]Promotion, error)
	Update(ctx context.Context, db *gorm.DB, promo *Promotion) error

	// IncrementUsage consumes one use as a single conditional UPDATE. It
	// returns false when the usage limit was already reached, which is the
	// only way two concurrent redemptions of a nearly-exhausted code can
	// be told apart. Read-then-write is not an acceptable substitute.
	IncrementUsage(ctx context.Context, db *gorm.DB, id int64, now time.Time) (bool, error)
}
