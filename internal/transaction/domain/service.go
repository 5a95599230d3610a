package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	// Create runs the checkout pipeline: load the package, redeem the
	// optional promotion code, snapshot the price, and persist a PENDING
	// transaction. All of it happens in one database transaction so a
	// failed insert returns the coupon use.
	Create(ctx context.Context, req CreateRequest) (*Response, error)

	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)

	// UpdateStatus applies PENDING to COMPLETED or FAILED. Transitioning a
	// non-PENDING transaction is a no-op that returns the current record,
	// unless the caller holds admin override, which sets any status and is
	// audited.
	UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*Response, error)

	// AttachCharge records the provider charge id on a transaction.
	AttachCharge(ctx context.Context, id int64, chargeID string) error

	// GetModel and ListPendingForReconcile serve in-process callers
	// (charge adapter, reconciler) that need the raw record.
	GetModel(ctx context.Context, id int64) (*Transaction, error)
	GetModelByChargeID(ctx context.Context, chargeID string) (*Transaction, error)
	ListPendingForReconcile(ctx context.Context, olderThan time.Time, limit int) ([]Transaction, error)
}

type CreateRequest struct {
	GameID         string  `json:"game_id" binding:"required"`
	PackageID      string  `json:"package_id" binding:"required"`
	PlayerRef      string  `json:"player_ref" binding:"required"`
	RequestedPrice *int64  `json:"price"`
	PromotionCode  *string `json:"promotion_code"`
}

type ListRequest struct {
	UserID *int64
	Status string
	Limit  int
}

// UpdateStatusRequest carries a transition plus its provenance. Source
// labels where the transition came from (card, webhook, reconcile,
// client, admin) for metrics and audit.
type UpdateStatusRequest struct {
	ID             int64
	Status         Status
	ChargeID       *string
	FailureMessage *string
	Source         string
	AdminOverride  bool
}

type Response struct {
	ID             string    `json:"id"`
	UserID         *string   `json:"user_id,omitempty"`
	GameID         string    `json:"game_id"`
	PackageID      string    `json:"package_id"`
	PackageName    string    `json:"package_name"`
	PlayerRef      string    `json:"player_ref"`
	Amount         int64     `json:"amount"`
	Discount       int64     `json:"discount"`
	Currency       string    `json:"currency"`
	Status         Status    `json:"status"`
	PromotionCode  *string   `json:"promotion_code,omitempty"`
	ChargeID       *string   `json:"charge_id,omitempty"`
	FailureMessage *string   `json:"failure_message,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

var (
	ErrNotFound         = errors.New("transaction_not_found")
	ErrPackageNotFound  = errors.New("package_not_found")
	ErrPackageInactive  = errors.New("package_inactive")
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidPlayerRef = errors.New("invalid_player_ref")
	ErrInvalidStatus    = errors.New("invalid_status")
)
