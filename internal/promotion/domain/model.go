package domain

import (
	"time"
)

type DiscountType string

const (
	DiscountTypeFixed   DiscountType = "FIXED"
	DiscountTypePercent DiscountType = "PERCENT"
)

// Promotion is a discount rule, optionally gated by a redeemable code.
// A promotion without a code is banner-only and can never be redeemed.
// UsageCount is mutated exclusively through Repository.IncrementUsage.
type Promotion struct {
	ID           int64        `json:"id" gorm:"primaryKey"`
	Code         *string      `json:"code,omitempty" gorm:"type:text;uniqueIndex:ux_promotions_code"`
	Title        string       `json:"title" gorm:"type:text;not null"`
	DiscountType DiscountType `json:"discount_type" gorm:"type:text;not null"`
	Value        int64        `json:"value" gorm:"column:discount_value;not null"`
	UsageLimit   *int64       `json:"usage_limit,omitempty"`
	UsageCount   int64        `json:"usage_count" gorm:"not null;default:0"`
	ExpiresAt    *time.Time   `json:"expires_at,omitempty"`
	Active       bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt    time.Time    `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time    `json:"updated_at" gorm:"not null"`
}

func (Promotion) TableName() string { return "promotions" }

// DiscountRule is the redeemable part of a promotion. Validate and Redeem
// hand this to callers instead of the full record; pricing needs nothing else.
type DiscountRule struct {
	Type  DiscountType `json:"type"`
	Value int64        `json:"value"`
}
