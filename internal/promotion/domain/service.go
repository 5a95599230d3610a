package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Service interface {
	// Validate checks a code without consuming a use. Read-only; callers
	// must not assume any side effect occurred.
	Validate(ctx context.Context, code string) (*DiscountRule, error)

	// Redeem validates a code and atomically consumes one use. Callers
	// composing a larger unit of work (checkout) pass their open gorm
	// transaction so a later failure rolls the increment back; a nil tx
	// redeems against the service's own connection.
	Redeem(ctx context.Context, tx *gorm.DB, code string) (*DiscountRule, error)

	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, activeOnly bool) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Archive(ctx context.Context, id string) (*Response, error)
}

type CreateRequest struct {
	Code         *string    `json:"code"`
	Title        string     `json:"title"`
	DiscountType string     `json:"discount_type"`
	Value        int64      `json:"value"`
	UsageLimit   *int64     `json:"usage_limit"`
	ExpiresAt    *time.Time `json:"expires_at"`
	Active       *bool      `json:"active"`
}

type UpdateRequest struct {
	ID         string
	Title      *string    `json:"title"`
	Value      *int64     `json:"value"`
	UsageLimit *int64     `json:"usage_limit"`
	ExpiresAt  *time.Time `json:"expires_at"`
	Active     *bool      `json:"active"`
}

type Response struct {
	ID           string     `json:"id"`
	Code         *string    `json:"code,omitempty"`
	Title        string     `json:"title"`
	DiscountType string     `json:"discount_type"`
	Value        int64      `json:"value"`
	UsageLimit   *int64     `json:"usage_limit,omitempty"`
	UsageCount   int64      `json:"usage_count"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Active       bool       `json:"active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

var (
	ErrNotFound      = errors.New("promotion_not_found")
	ErrInactive      = errors.New("promotion_inactive")
	ErrExpired       = errors.New("promotion_expired")
	ErrUsageExceeded = errors.New("promotion_usage_exceeded")
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalidCode   = errors.New("invalid_code")
	ErrInvalidTitle  = errors.New("invalid_title")
	ErrInvalidType   = errors.New("invalid_discount_type")
	ErrInvalidValue  = errors.New("invalid_discount_value")
	ErrCodeTaken     = errors.New("code_taken")
)
