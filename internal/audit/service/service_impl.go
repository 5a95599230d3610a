package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/pixelpay/topup/internal/audit/domain"
	"github.com/pixelpay/topup/internal/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) AuditLog(ctx context.Context, actorType string, actorID *string, action string, targetType string, targetID *string, metadata map[string]any) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return domain.ErrInvalidAction
	}

	actorType = strings.TrimSpace(actorType)
	if actorType == "" {
		actorType = domain.ActorTypeSystem
	}
	targetType = strings.TrimSpace(targetType)
	if targetType == "" {
		targetType = "unknown"
	}

	payload := map[string]any{}
	for key, value := range metadata {
		if key == "" {
			continue
		}
		payload[key] = value
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	entry := &domain.AuditLog{
		ID:         s.genID.Generate(),
		ActorType:  actorType,
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   datatypes.JSON(encoded),
		CreatedAt:  s.clock.Now(),
	}

	if err := s.repo.Insert(ctx, s.db, entry); err != nil {
		// Audit writes never fail the business operation they describe.
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
		return nil
	}
	return nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.AuditLog, error) {
	return s.repo.List(ctx, s.db, req)
}
