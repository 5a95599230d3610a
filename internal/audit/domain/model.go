package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditLog struct {
	ID         snowflake.ID   `json:"id" gorm:"primaryKey"`
	ActorType  string         `json:"actor_type" gorm:"type:text;not null"`
	ActorID    *string        `json:"actor_id,omitempty" gorm:"type:text"`
	Action     string         `json:"action" gorm:"type:text;not null;index"`
	TargetType string         `json:"target_type" gorm:"type:text;not null"`
	TargetID   *string        `json:"target_id,omitempty" gorm:"type:text;index"`
	Metadata   datatypes.JSON `json:"metadata" gorm:"type:jsonb"`
	CreatedAt  time.Time      `json:"created_at" gorm:"not null"`
}

func (AuditLog) TableName() string { return "audit_logs" }

const (
	ActorTypeAdmin  = "admin"
	ActorTypeUser   = "user"
	ActorTypeSystem = "system"
)

type Service interface {
	AuditLog(ctx context.Context, actorType string, actorID *string, action string, targetType string, targetID *string, metadata map[string]any) error
	List(ctx context.Context, req ListRequest) ([]AuditLog, error)
}

type ListRequest struct {
	Action     string
	TargetType string
	TargetID   string
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, req ListRequest) ([]AuditLog, error)
}

var ErrInvalidAction = errors.New("invalid_action")
