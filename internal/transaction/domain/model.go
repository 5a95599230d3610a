package domain

import (
	"time"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
)

// Valid reports whether s is a known transaction status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Terminal reports whether s permits no further transitions.
// COMPLETED and FAILED only change under an audited admin override.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Transaction is the priced order record and the single source of truth
// for what a customer owes. Amount and Discount are snapshots taken at
// checkout; they are never recomputed from the current package or
// promotion state.
type Transaction struct {
	ID             int64     `json:"id" gorm:"primaryKey"`
	UserID         *int64    `json:"user_id,omitempty" gorm:"index"`
	GameID         int64     `json:"game_id" gorm:"not null;index"`
	PackageID      int64     `json:"package_id" gorm:"not null"`
	PackageName    string    `json:"package_name" gorm:"type:text;not null"`
	PlayerRef      string    `json:"player_ref" gorm:"type:text;not null"`
	Amount         int64     `json:"amount" gorm:"not null"`
	Discount       int64     `json:"discount" gorm:"not null;default:0"`
	Currency       string    `json:"currency" gorm:"type:text;not null"`
	Status         Status    `json:"status" gorm:"type:text;not null;index"`
	PromotionCode  *string   `json:"promotion_code,omitempty" gorm:"type:text"`
	ChargeID       *string   `json:"charge_id,omitempty" gorm:"type:text;index"`
	FailureMessage *string   `json:"failure_message,omitempty" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at" gorm:"not null;index"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"not null"`
}

func (Transaction) TableName() string { return "transactions" }
